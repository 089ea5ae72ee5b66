package terrain

import (
	"voxelforge.dev/internal/catalogs"
	"voxelforge.dev/internal/noise"
)

const (
	oreThreshold  = 0.74
	oreMinY       = 8
	oreMaxY       = SeaLevel - 8
	caveThreshold = 0.72
	caveMinCover  = 6 // blocks below the local surface before carving starts
)

var (
	oreParams   = noise.Params{Scale: 14}
	cave1Params = noise.Params{Scale: 30}
	cave2Params = noise.Params{Scale: 46}
)

// SampleBlock converts a column descriptor plus a world Y into one block
// identifier. Pure; the whole generation pipeline above it depends on that.
func (g *Generator) SampleBlock(col *Column, y int) catalogs.BlockID {
	if y < BedrockTop {
		return catalogs.Bedrock
	}
	if y > col.Height {
		if col.HasWater && y <= SeaLevel {
			return catalogs.Water
		}
		return catalogs.Air
	}
	if y == col.Height {
		return col.Surface
	}
	if y >= col.Height-SubsoilDepth {
		return col.Under
	}
	if y < BedrockBand {
		return catalogs.Stone
	}

	b := col.Filler
	depth := col.Height - y
	if depth > SoilMaxDepth {
		b = catalogs.Stone
	}

	fx := float64(col.X)
	fy := float64(y)
	fz := float64(col.Z)

	if y >= oreMinY && y <= oreMaxY && g.ore.Approx3D(fx, fy, fz, oreParams) > oreThreshold {
		b = catalogs.Ore
	}

	// Cave carve wins over everything else in this band.
	if depth > caveMinCover {
		c := 0.6*g.cave1.Approx3D(fx, fy, fz, cave1Params) + 0.4*g.cave2.Approx3D(fx, fy, fz, cave2Params)
		if c > caveThreshold {
			return catalogs.Air
		}
	}
	return b
}
