package geom

import "voxelforge.dev/internal/mathx"

// Chunk dimensions in blocks. Shared compile-time constants; every component
// indexes chunk buffers with the same layout.
const (
	ChunkDimX = 32
	ChunkDimY = 128
	ChunkDimZ = 32

	ChunkVolume = ChunkDimX * ChunkDimY * ChunkDimZ
)

// VoxelScale converts integer block coordinates to world-space units.
const VoxelScale = 0.5

// Vec3i is an integer block or chunk coordinate.
type Vec3i struct {
	X, Y, Z int
}

// Vec3 is a world-space position.
type Vec3 struct {
	X, Y, Z float64
}

// ChunkCoord addresses one chunk. Distinct from Vec3i so block and chunk
// coordinates cannot be mixed up at call sites.
type ChunkCoord struct {
	X, Y, Z int
}

// AABB is an axis-aligned bounding volume in world space.
type AABB struct {
	Min, Max Vec3
}

// BlockIndex maps a local block coordinate to its flat buffer offset.
// Layout is x fastest, then z, then y; deliberate for cache locality.
func BlockIndex(x, y, z int) int {
	return x + ChunkDimX*(z+ChunkDimZ*y)
}

// InChunkBounds reports whether a local coordinate lies inside a chunk.
func InChunkBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkDimX && y >= 0 && y < ChunkDimY && z >= 0 && z < ChunkDimZ
}

// ChunkOf returns the chunk coordinate owning a global block coordinate.
func ChunkOf(b Vec3i) ChunkCoord {
	return ChunkCoord{
		X: mathx.FloorDiv(b.X, ChunkDimX),
		Y: mathx.FloorDiv(b.Y, ChunkDimY),
		Z: mathx.FloorDiv(b.Z, ChunkDimZ),
	}
}

// LocalOf returns the within-chunk coordinate of a global block coordinate.
func LocalOf(b Vec3i) Vec3i {
	return Vec3i{
		X: mathx.Mod(b.X, ChunkDimX),
		Y: mathx.Mod(b.Y, ChunkDimY),
		Z: mathx.Mod(b.Z, ChunkDimZ),
	}
}

// BlockOrigin returns the global block coordinate of a chunk's (0,0,0) cell.
func BlockOrigin(c ChunkCoord) Vec3i {
	return Vec3i{X: c.X * ChunkDimX, Y: c.Y * ChunkDimY, Z: c.Z * ChunkDimZ}
}

// Bounds returns the world-space bounding volume of a chunk.
func Bounds(c ChunkCoord) AABB {
	o := BlockOrigin(c)
	return AABB{
		Min: Vec3{X: float64(o.X) * VoxelScale, Y: float64(o.Y) * VoxelScale, Z: float64(o.Z) * VoxelScale},
		Max: Vec3{
			X: float64(o.X+ChunkDimX) * VoxelScale,
			Y: float64(o.Y+ChunkDimY) * VoxelScale,
			Z: float64(o.Z+ChunkDimZ) * VoxelScale,
		},
	}
}

// BlockAtWorld returns the block cell containing a world-space position.
func BlockAtWorld(p Vec3) Vec3i {
	return Vec3i{
		X: floorToInt(p.X / VoxelScale),
		Y: floorToInt(p.Y / VoxelScale),
		Z: floorToInt(p.Z / VoxelScale),
	}
}

// CellCenter returns the world-space center of a block cell.
func CellCenter(b Vec3i) Vec3 {
	return Vec3{
		X: (float64(b.X) + 0.5) * VoxelScale,
		Y: (float64(b.Y) + 0.5) * VoxelScale,
		Z: (float64(b.Z) + 0.5) * VoxelScale,
	}
}

func floorToInt(v float64) int {
	i := int(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return i
}
