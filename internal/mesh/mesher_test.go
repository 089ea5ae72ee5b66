package mesh

import (
	"testing"

	"voxelforge.dev/internal/catalogs"
	"voxelforge.dev/internal/geom"
	"voxelforge.dev/internal/world"
)

// skyChunk is a vertical layer entirely above the terrain height cap, so its
// generated content is pure air and tests control every block in it.
var skyChunk = geom.ChunkCoord{Y: 1}

func skyBlock(x, y, z int) geom.Vec3i {
	o := geom.BlockOrigin(skyChunk)
	return geom.Vec3i{X: o.X + x, Y: o.Y + y, Z: o.Z + z}
}

func newSkyChunk(t *testing.T) (*world.World, *world.Chunk) {
	t.Helper()
	w := world.New(1337, catalogs.Default(), 8)
	// Activate the chunk with a no-op write.
	w.SetBlockGlobal(skyBlock(0, 0, 0), catalogs.Air)
	c, ok := w.ChunkAt(skyChunk)
	if !ok {
		t.Fatal("sky chunk not active")
	}
	return w, c
}

func TestBuild_SingleCube(t *testing.T) {
	w, c := newSkyChunk(t)
	w.SetBlockGlobal(skyBlock(16, 64, 16), catalogs.Stone)

	m := NewMesher(catalogs.Default())
	mesh := m.Build(c)

	if mesh.QuadCount != 6 {
		t.Fatalf("isolated cube produced %d quads, want 6", mesh.QuadCount)
	}
	if len(mesh.Vertices) != 24 || len(mesh.Indices) != 36 {
		t.Fatalf("vertices=%d indices=%d, want 24/36", len(mesh.Vertices), len(mesh.Indices))
	}
	// Nothing occludes an isolated cube; every vertex keeps the full color.
	want := catalogs.Default().Color(catalogs.Stone)
	for i, v := range mesh.Vertices {
		if v.Color != want {
			t.Fatalf("vertex %d color %v, want %v", i, v.Color, want)
		}
	}
}

func TestBuild_GreedyMergesSlab(t *testing.T) {
	w, c := newSkyChunk(t)
	// A 4x1x2 slab still meshes to one quad per face direction.
	for dx := 0; dx < 4; dx++ {
		for dz := 0; dz < 2; dz++ {
			w.SetBlockGlobal(skyBlock(10+dx, 40, 10+dz), catalogs.Stone)
		}
	}

	m := NewMesher(catalogs.Default())
	mesh := m.Build(c)
	if mesh.QuadCount != 6 {
		t.Fatalf("slab produced %d quads, want 6", mesh.QuadCount)
	}
}

func TestBuild_NoInteriorFaces(t *testing.T) {
	w, c := newSkyChunk(t)
	// Two touching cubes: the shared boundary must not produce a face.
	w.SetBlockGlobal(skyBlock(20, 30, 20), catalogs.Stone)
	w.SetBlockGlobal(skyBlock(21, 30, 20), catalogs.Stone)

	m := NewMesher(catalogs.Default())
	mesh := m.Build(c)
	if mesh.QuadCount != 6 {
		t.Fatalf("2-block bar produced %d quads, want 6", mesh.QuadCount)
	}
}

func TestBuild_WaterFacesStayVisible(t *testing.T) {
	w, c := newSkyChunk(t)
	w.SetBlockGlobal(skyBlock(16, 64, 16), catalogs.Stone)
	w.SetBlockGlobal(skyBlock(17, 64, 16), catalogs.Water)

	m := NewMesher(catalogs.Default())
	mesh := m.Build(c)

	// The stone keeps all 6 faces (water is not opaque); the water loses only
	// its face against the stone.
	if mesh.QuadCount != 11 {
		t.Fatalf("stone+water pair produced %d quads, want 11", mesh.QuadCount)
	}

	// The shared boundary face belongs to the stone.
	stone := catalogs.Default().Color(catalogs.Stone)
	found := false
	for i := 0; i < len(mesh.Vertices); i++ {
		v := mesh.Vertices[i]
		if v.Normal == [3]float32{1, 0, 0} && v.Color == stone {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("no stone-colored +x face on the water boundary")
	}
}

func TestBuild_OcclusionDarkensCorners(t *testing.T) {
	w, c := newSkyChunk(t)
	w.SetBlockGlobal(skyBlock(16, 64, 16), catalogs.Stone)
	// A neighbor resting beside the top face occludes the +x corners.
	w.SetBlockGlobal(skyBlock(17, 65, 16), catalogs.Stone)

	m := NewMesher(catalogs.Default())
	mesh := m.Build(c)

	topY := float32(geom.BlockOrigin(skyChunk).Y+65) * geom.VoxelScale
	nearX := float32(geom.BlockOrigin(skyChunk).X+17) * geom.VoxelScale
	farX := float32(geom.BlockOrigin(skyChunk).X+16) * geom.VoxelScale

	var nearShade, farShade float32 = -1, -1
	for _, v := range mesh.Vertices {
		if v.Normal != ([3]float32{0, 1, 0}) || v.Position[1] != topY {
			continue
		}
		switch v.Position[0] {
		case nearX:
			nearShade = v.Color[0]
		case farX:
			farShade = v.Color[0]
		}
	}
	if nearShade < 0 || farShade < 0 {
		t.Fatal("top face of the lower cube not found")
	}
	if nearShade >= farShade {
		t.Fatalf("occluded corner shade %v is not darker than open corner %v", nearShade, farShade)
	}
}

// naiveVisibleFaces counts boundary faces with the same visibility rule the
// mask pass uses, one per cell, with no merging.
func naiveVisibleFaces(cat *catalogs.BlockCatalog, c *world.Chunk) int {
	dims := [3]int{geom.ChunkDimX, geom.ChunkDimY, geom.ChunkDimZ}
	count := 0
	for axis := 0; axis < 3; axis++ {
		ua := (axis + 1) % 3
		va := (axis + 2) % 3
		for d := -1; d < dims[axis]; d++ {
			for j := 0; j < dims[va]; j++ {
				for i := 0; i < dims[ua]; i++ {
					var p [3]int
					p[ua] = i
					p[va] = j
					p[axis] = d
					a := c.Block(p[0], p[1], p[2])
					p[axis] = d + 1
					b := c.Block(p[0], p[1], p[2])
					switch {
					case cat.Solid(a) && !cat.Opaque(b),
						cat.Solid(b) && !cat.Opaque(a),
						cat.Opaque(a) && !cat.Opaque(b),
						cat.Opaque(b) && !cat.Opaque(a):
						count++
					}
				}
			}
		}
	}
	return count
}

func TestBuild_TerrainChunkMergesBelowNaive(t *testing.T) {
	cat := catalogs.Default()
	w := world.New(1337, cat, 8)
	coord := geom.ChunkCoord{}
	origin := geom.BlockOrigin(coord)

	// Activate the chunk with a no-op write of its own generated block.
	v, _ := w.TryGetBlock(origin)
	w.SetBlockGlobal(origin, v)
	c, ok := w.ChunkAt(coord)
	if !ok {
		t.Fatal("terrain chunk not active")
	}

	m := NewMesher(cat)
	mesh := m.Build(c)
	naive := naiveVisibleFaces(cat, c)

	if mesh.QuadCount == 0 {
		t.Fatal("terrain chunk meshed to nothing")
	}
	if mesh.QuadCount > naive {
		t.Fatalf("greedy pass emitted %d quads, naive bound is %d", mesh.QuadCount, naive)
	}
	// Real terrain has long runs; merging should do far better than 1:1.
	if mesh.QuadCount > naive/2 {
		t.Fatalf("merge ratio too weak: %d quads for %d faces", mesh.QuadCount, naive)
	}
}

func TestMesher_Bookkeeping(t *testing.T) {
	w, c := newSkyChunk(t)
	w.SetBlockGlobal(skyBlock(16, 64, 16), catalogs.Stone)

	m := NewMesher(catalogs.Default())
	m.Remesh(c)

	if m.MeshCount() != 1 {
		t.Fatalf("MeshCount = %d", m.MeshCount())
	}
	mesh, ok := m.MeshAt(skyChunk)
	if !ok || mesh.QuadCount != 6 {
		t.Fatalf("MeshAt: ok=%v quads=%d", ok, mesh.QuadCount)
	}
	if m.TotalQuads() != 6 {
		t.Fatalf("TotalQuads = %d", m.TotalQuads())
	}

	m.Drop(skyChunk)
	if m.MeshCount() != 0 {
		t.Fatal("Drop left the mesh behind")
	}
	if _, ok := m.MeshAt(skyChunk); ok {
		t.Fatal("MeshAt finds a dropped mesh")
	}
}
