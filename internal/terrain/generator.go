// Package terrain turns a seed into deterministic block data: biome-classified
// height columns, a per-Y block sampler with caves and ore, and hash-gated
// tree placement. The same pipeline regenerates save baselines, so every part
// of it must be a pure function of the seed.
package terrain

import (
	"fmt"

	"voxelforge.dev/internal/catalogs"
	"voxelforge.dev/internal/geom"
	"voxelforge.dev/internal/noise"
)

// Seed salts keep the noise fields decorrelated from each other.
const (
	saltDetail      = 0x10001
	saltRidge       = 0x20002
	saltContinental = 0x30003
	saltTemperature = 0x40004
	saltMoisture    = 0x50005
	saltOre         = 0x60006
	saltCave1       = 0x70007
	saltCave2       = 0x80008
)

// Generator is the deterministic terrain pipeline for one seed.
type Generator struct {
	seed int64
	cat  *catalogs.BlockCatalog

	base        *noise.Source
	detail      *noise.Source
	ridge       *noise.Source
	continental *noise.Source
	temperature *noise.Source
	moisture    *noise.Source
	ore         *noise.Source
	cave1       *noise.Source
	cave2       *noise.Source

	// Column scratch for Generate; the pipeline runs on one thread.
	cols []Column
}

func NewGenerator(seed int64, cat *catalogs.BlockCatalog) *Generator {
	return &Generator{
		seed:        seed,
		cat:         cat,
		base:        noise.NewSource(seed),
		detail:      noise.NewSource(seed + saltDetail),
		ridge:       noise.NewSource(seed + saltRidge),
		continental: noise.NewSource(seed + saltContinental),
		temperature: noise.NewSource(seed + saltTemperature),
		moisture:    noise.NewSource(seed + saltMoisture),
		ore:         noise.NewSource(seed + saltOre),
		cave1:       noise.NewSource(seed + saltCave1),
		cave2:       noise.NewSource(seed + saltCave2),
		cols:        make([]Column, geom.ChunkDimX*geom.ChunkDimZ),
	}
}

// Seed returns the world seed the pipeline was built from.
func (g *Generator) Seed() int64 { return g.seed }

// Generate fills buf with the deterministic block data of the chunk at coord:
// column evaluation, per-Y sampling, then tree patching. buf must be exactly
// one chunk volume; anything else is a caller bug.
func (g *Generator) Generate(coord geom.ChunkCoord, buf []catalogs.BlockID) {
	if len(buf) != geom.ChunkVolume {
		panic(fmt.Sprintf("terrain: generate into buffer of %d blocks, want %d", len(buf), geom.ChunkVolume))
	}
	origin := geom.BlockOrigin(coord)

	for z := 0; z < geom.ChunkDimZ; z++ {
		for x := 0; x < geom.ChunkDimX; x++ {
			col := g.EvaluateColumn(origin.X+x, origin.Z+z)
			g.cols[x+geom.ChunkDimX*z] = col
			for y := 0; y < geom.ChunkDimY; y++ {
				buf[geom.BlockIndex(x, y, z)] = g.SampleBlock(&col, origin.Y+y)
			}
		}
	}

	for z := 0; z < geom.ChunkDimZ; z++ {
		for x := 0; x < geom.ChunkDimX; x++ {
			col := &g.cols[x+geom.ChunkDimX*z]
			if plan, ok := g.PlanTree(col, x, z, col.Height-origin.Y); ok {
				applyTree(buf, plan)
			}
		}
	}
}
