package terrain

import "voxelforge.dev/internal/catalogs"

// Biome bundles the surface materials and vegetation parameters one climate
// band produces.
type Biome struct {
	Name string

	Surface catalogs.BlockID
	Under   catalogs.BlockID
	Filler  catalogs.BlockID

	TreeChance   float64 // per-column probability, 0 disables trees
	TreeMin      int     // trunk height range, inclusive
	TreeMax      int
	CanopyRadius int
	SnowCanopy   bool // topmost canopy ring becomes snow

	HeightOffset int  // added to the noise-derived base height
	Desert       bool // triggers the desert override (sand, no water, no trees)
}

var (
	biomeSnowForest = Biome{
		Name:    "SNOW_FOREST",
		Surface: catalogs.Grass, Under: catalogs.Dirt, Filler: catalogs.Dirt,
		TreeChance: 0.20, TreeMin: 5, TreeMax: 8, CanopyRadius: 3, SnowCanopy: true,
		HeightOffset: 6,
	}
	biomeTundra = Biome{
		Name:    "TUNDRA",
		Surface: catalogs.Snow, Under: catalogs.Dirt, Filler: catalogs.Dirt,
		TreeChance: 0.02, TreeMin: 4, TreeMax: 6, CanopyRadius: 2, SnowCanopy: true,
		HeightOffset: 2,
	}
	biomeDesert = Biome{
		Name:    "DESERT",
		Surface: catalogs.Sand, Under: catalogs.Sand, Filler: catalogs.Stone,
		HeightOffset: -2, Desert: true,
	}
	biomeForest = Biome{
		Name:    "FOREST",
		Surface: catalogs.Grass, Under: catalogs.Dirt, Filler: catalogs.Dirt,
		TreeChance: 0.28, TreeMin: 5, TreeMax: 9, CanopyRadius: 3,
		HeightOffset: 1,
	}
	biomeDryGrassland = Biome{
		Name:    "DRY_GRASSLAND",
		Surface: catalogs.Grass, Under: catalogs.Dirt, Filler: catalogs.Dirt,
		TreeChance: 0.03, TreeMin: 4, TreeMax: 6, CanopyRadius: 2,
	}
	biomeGrassland = Biome{
		Name:    "GRASSLAND",
		Surface: catalogs.Grass, Under: catalogs.Dirt, Filler: catalogs.Dirt,
		TreeChance: 0.08, TreeMin: 4, TreeMax: 7, CanopyRadius: 2,
	}
)

// selectBiome maps the two classifier fields to a biome by fixed threshold
// branches. Order matters: earlier branches win.
func selectBiome(temperature, moisture float64) *Biome {
	switch {
	case temperature < 0.35 && moisture > 0.55:
		return &biomeSnowForest
	case temperature < 0.35:
		return &biomeTundra
	case temperature > 0.70 && moisture < 0.30:
		return &biomeDesert
	case moisture > 0.60:
		return &biomeForest
	case moisture < 0.35:
		return &biomeDryGrassland
	default:
		return &biomeGrassland
	}
}
