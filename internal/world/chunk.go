package world

import (
	"fmt"

	"voxelforge.dev/internal/catalogs"
	"voxelforge.dev/internal/geom"
)

// Chunk owns the dense block buffer for one active chunk coordinate. The
// world back-reference exists for mutation notification only; it is never an
// ownership edge. Between activations a chunk container rests in the arena.
type Chunk struct {
	Coord geom.ChunkCoord
	Box   geom.AABB

	blocks []catalogs.BlockID

	meshDirty   bool
	loaded      bool
	initialised bool

	world *World
}

// initialise resets the container for a (possibly recycled) activation at
// coord. The buffer is allocated once per arena slot and zeroed on reuse.
func (c *Chunk) initialise(coord geom.ChunkCoord, w *World) {
	if c.blocks == nil {
		c.blocks = make([]catalogs.BlockID, geom.ChunkVolume)
	} else {
		for i := range c.blocks {
			c.blocks[i] = catalogs.Air
		}
	}
	c.Coord = coord
	c.Box = geom.Bounds(coord)
	c.meshDirty = false
	c.loaded = false
	c.initialised = true
	c.world = w
}

// retire clears the container when the coordinate leaves the target set.
func (c *Chunk) retire() {
	for i := range c.blocks {
		c.blocks[i] = catalogs.Air
	}
	c.loaded = false
	c.meshDirty = false
	c.initialised = false
	c.world = nil
}

// requireInit makes contract violations loud: operating on a chunk container
// that was never activated would silently corrupt pooled state otherwise.
func (c *Chunk) requireInit() {
	if !c.initialised {
		panic(fmt.Sprintf("world: chunk %v used before initialise", c.Coord))
	}
}

// Get returns the block at a chunk-local coordinate, or air when the
// coordinate is outside the chunk. Out-of-bounds reads are not an error.
func (c *Chunk) Get(local geom.Vec3i) catalogs.BlockID {
	c.requireInit()
	if !geom.InChunkBounds(local.X, local.Y, local.Z) {
		return catalogs.Air
	}
	return c.blocks[geom.BlockIndex(local.X, local.Y, local.Z)]
}

// Set stores a block at a chunk-local coordinate. Out-of-bounds or unchanged
// writes are no-ops; real writes dirty the mesh and notify the owning world.
func (c *Chunk) Set(local geom.Vec3i, b catalogs.BlockID) {
	c.requireInit()
	if !geom.InChunkBounds(local.X, local.Y, local.Z) {
		return
	}
	i := geom.BlockIndex(local.X, local.Y, local.Z)
	if c.blocks[i] == b {
		return
	}
	c.blocks[i] = b
	c.meshDirty = true
	if c.world != nil {
		c.world.blockChanged(c, local)
	}
}

// Block is bounds-checked read access for components outside this package
// (the mesher samples out-of-range neighbors as air).
func (c *Chunk) Block(x, y, z int) catalogs.BlockID {
	c.requireInit()
	if !geom.InChunkBounds(x, y, z) {
		return catalogs.Air
	}
	return c.blocks[geom.BlockIndex(x, y, z)]
}

// Loaded reports whether the generation pipeline has filled the buffer.
func (c *Chunk) Loaded() bool { return c.loaded }

// MeshDirty reports whether geometry must be rebuilt.
func (c *Chunk) MeshDirty() bool { return c.meshDirty }

func (c *Chunk) clearMeshDirty() { c.meshDirty = false }
