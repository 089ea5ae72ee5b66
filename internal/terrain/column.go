package terrain

import (
	"voxelforge.dev/internal/catalogs"
	"voxelforge.dev/internal/mathx"
	"voxelforge.dev/internal/noise"
)

// World-shape constants. SeaLevel and the clamp band leave room for bedrock
// below and build margin above within the 128-block chunk height.
const (
	SeaLevel = 42

	SnowLine     = 80 // at or above: snow/stone surface
	TreeSnowCut  = 88 // at or above: no trees even in snow
	HeightMin    = 4
	HeightMax    = 100
	BedrockTop   = 1  // below: bedrock
	BedrockBand  = 4  // below: solid stone band
	SubsoilDepth = 3  // subsurface block band under the surface
	SoilMaxDepth = 12 // deeper than this the soil filler becomes stone
)

// Column is the ephemeral per-(x,z) descriptor every Y of that vertical line
// is sampled from. Computing it once per column keeps the 2D noise out of the
// inner block loop.
type Column struct {
	X, Z   int
	Height int

	HasWater bool

	Surface catalogs.BlockID
	Under   catalogs.BlockID
	Filler  catalogs.BlockID

	TreesOK      bool
	TreeChance   float64
	TreeMin      int
	TreeMax      int
	CanopyRadius int
	SnowCanopy   bool

	// Hash is the column's deterministic seed for structure placement.
	Hash uint64
}

var (
	baseParams   = noise.Params{Scale: 160, Octaves: 4, Persistence: 0.5, Lacunarity: 2}
	detailParams = noise.Params{Scale: 36, Octaves: 3, Persistence: 0.5, Lacunarity: 2}
	ridgeParams  = noise.Params{Scale: 220, Octaves: 4, Persistence: 0.55, Lacunarity: 2.1}
	contParams   = noise.Params{Scale: 620, Octaves: 2, Persistence: 0.5, Lacunarity: 2}
	tempParams   = noise.Params{Scale: 340, Octaves: 3, Persistence: 0.5, Lacunarity: 2}
	moistParams  = noise.Params{Scale: 290, Octaves: 3, Persistence: 0.5, Lacunarity: 2}
)

// EvaluateColumn computes the column descriptor for world (x,z). Deterministic
// for a fixed seed.
func (g *Generator) EvaluateColumn(x, z int) Column {
	fx := float64(x)
	fz := float64(z)

	base := g.base.Layered2D(fx, fz, baseParams)
	detail := g.detail.Layered2D(fx, fz, detailParams)
	ridge := g.ridge.Ridged2D(fx, fz, ridgeParams)
	continental := g.continental.Layered2D(fx, fz, contParams)

	temperature := g.temperature.Unit2D(fx, fz, tempParams)
	moisture := g.moisture.Unit2D(fx, fz, moistParams)

	biome := selectBiome(temperature, moisture)

	h := 40.0 + continental*18 + base*14 + detail*5 + ridge*26 + float64(biome.HeightOffset)
	height := mathx.ClampInt(int(h), HeightMin, HeightMax)

	col := Column{
		X: x, Z: z,
		Height:       height,
		Surface:      biome.Surface,
		Under:        biome.Under,
		Filler:       biome.Filler,
		TreesOK:      biome.TreeChance > 0,
		TreeChance:   biome.TreeChance,
		TreeMin:      biome.TreeMin,
		TreeMax:      biome.TreeMax,
		CanopyRadius: biome.CanopyRadius,
		SnowCanopy:   biome.SnowCanopy,
		Hash:         mathx.Hash2(g.seed, x, z),
	}

	// Override order is fixed: snow line, then water, then desert. Each later
	// override replaces fields set by earlier ones.
	if height >= SnowLine {
		col.Surface = catalogs.Snow
		col.Under = catalogs.Stone
		col.SnowCanopy = true
		if height >= TreeSnowCut {
			col.TreesOK = false
		}
	}
	if height < SeaLevel-1 {
		col.Surface = catalogs.Sand
		col.Under = catalogs.Sand
		col.HasWater = true
		col.TreesOK = false
	}
	if biome.Desert {
		col.Surface = catalogs.Sand
		col.Under = catalogs.Sand
		col.HasWater = false
		col.TreesOK = false
	}
	return col
}
