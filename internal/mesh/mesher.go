// Package mesh converts chunk block buffers into merged-quad geometry with
// per-vertex ambient occlusion. One mesher instance serves the scheduling
// thread; its mask scratch is reused across axis passes.
package mesh

import (
	"voxelforge.dev/internal/catalogs"
	"voxelforge.dev/internal/geom"
	"voxelforge.dev/internal/observability"
	"voxelforge.dev/internal/world"
)

// aoStep is the linear darkening applied per occlusion level (0-3).
const aoStep = 0.18

// Vertex is one corner of an emitted quad, in world space.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    [3]float32
}

// Mesh is the renderable geometry of one chunk. Indices wind so every face is
// front-facing under back-face culling.
type Mesh struct {
	Vertices  []Vertex
	Indices   []uint32
	QuadCount int
}

// maskCell records a visible face in the 2D slice mask: which block it shows
// and which way it points along the slice axis. Air means no face.
type maskCell struct {
	id   catalogs.BlockID
	sign int8
}

// Mesher implements world.Mesher and keeps the per-chunk geometry it built.
type Mesher struct {
	cat    *catalogs.BlockCatalog
	mask   []maskCell
	meshes map[geom.ChunkCoord]*Mesh
}

func NewMesher(cat *catalogs.BlockCatalog) *Mesher {
	// One scratch mask sized for the largest axis plane, cleared per slice.
	largest := geom.ChunkDimY * geom.ChunkDimZ
	if p := geom.ChunkDimX * geom.ChunkDimY; p > largest {
		largest = p
	}
	if p := geom.ChunkDimX * geom.ChunkDimZ; p > largest {
		largest = p
	}
	return &Mesher{
		cat:    cat,
		mask:   make([]maskCell, largest),
		meshes: make(map[geom.ChunkCoord]*Mesh),
	}
}

// Remesh rebuilds and stores the geometry for a chunk.
func (m *Mesher) Remesh(c *world.Chunk) {
	mesh := m.Build(c)
	m.meshes[c.Coord] = mesh
	observability.QuadsEmitted.Add(float64(mesh.QuadCount))
}

// Drop discards geometry for a retired chunk.
func (m *Mesher) Drop(coord geom.ChunkCoord) {
	delete(m.meshes, coord)
}

// MeshAt returns the last built geometry for a coordinate.
func (m *Mesher) MeshAt(coord geom.ChunkCoord) (*Mesh, bool) {
	mesh, ok := m.meshes[coord]
	return mesh, ok
}

// MeshCount returns how many chunk meshes are held.
func (m *Mesher) MeshCount() int { return len(m.meshes) }

// TotalQuads sums quad counts across every held mesh.
func (m *Mesher) TotalQuads() int {
	total := 0
	for _, mesh := range m.meshes {
		total += mesh.QuadCount
	}
	return total
}

// Build runs the greedy pass over all three principal axes. Slice positions
// run from -1 through the axis extent so the chunk's outer faces are emitted
// too; out-of-range neighbors sample as air.
func (m *Mesher) Build(c *world.Chunk) *Mesh {
	out := &Mesh{}
	for axis := 0; axis < 3; axis++ {
		m.buildAxis(c, axis, out)
	}
	return out
}

var chunkDims = [3]int{geom.ChunkDimX, geom.ChunkDimY, geom.ChunkDimZ}

func (m *Mesher) buildAxis(c *world.Chunk, axis int, out *Mesh) {
	ua := (axis + 1) % 3
	va := (axis + 2) % 3
	dimU := chunkDims[ua]
	dimV := chunkDims[va]
	mask := m.mask[:dimU*dimV]

	var p [3]int
	for d := -1; d < chunkDims[axis]; d++ {
		for i := range mask {
			mask[i] = maskCell{}
		}

		// Face visibility at the boundary between layers d and d+1. The side
		// checked first wins ties.
		for j := 0; j < dimV; j++ {
			for i := 0; i < dimU; i++ {
				p[ua] = i
				p[va] = j
				p[axis] = d
				a := c.Block(p[0], p[1], p[2])
				p[axis] = d + 1
				b := c.Block(p[0], p[1], p[2])

				cell := maskCell{}
				switch {
				case m.cat.Solid(a) && !m.cat.Opaque(b):
					cell = maskCell{id: a, sign: +1}
				case m.cat.Solid(b) && !m.cat.Opaque(a):
					cell = maskCell{id: b, sign: -1}
				case m.cat.Opaque(a) && !m.cat.Opaque(b):
					cell = maskCell{id: a, sign: +1}
				case m.cat.Opaque(b) && !m.cat.Opaque(a):
					cell = maskCell{id: b, sign: -1}
				}
				mask[j*dimU+i] = cell
			}
		}

		// Greedy merge: row-major, grow width along u, then height along v
		// while the whole width still matches, emit, clear.
		for j := 0; j < dimV; j++ {
			for i := 0; i < dimU; {
				cell := mask[j*dimU+i]
				if cell.id == catalogs.Air {
					i++
					continue
				}

				width := 1
				for i+width < dimU && mask[j*dimU+i+width] == cell {
					width++
				}

				height := 1
			grow:
				for j+height < dimV {
					for k := 0; k < width; k++ {
						if mask[(j+height)*dimU+i+k] != cell {
							break grow
						}
					}
					height++
				}

				m.emitQuad(c, out, axis, ua, va, d, i, j, width, height, cell)

				for jj := 0; jj < height; jj++ {
					for ii := 0; ii < width; ii++ {
						mask[(j+jj)*dimU+i+ii] = maskCell{}
					}
				}
				i += width
			}
		}
	}
}

// emitQuad appends one merged rectangle at the slice boundary plane, with
// per-vertex occlusion colors and orientation-dependent winding.
func (m *Mesher) emitQuad(c *world.Chunk, out *Mesh, axis, ua, va, d, u0, v0, width, height int, cell maskCell) {
	o := geom.BlockOrigin(c.Coord)
	origin := [3]int{o.X, o.Y, o.Z}
	plane := d + 1

	base := m.cat.Color(cell.id)
	var normal [3]float32
	normal[axis] = float32(cell.sign)

	// Corner lattice offsets in (u,v): low-low, high-low, high-high, low-high.
	corners := [4][2]int{{u0, v0}, {u0 + width, v0}, {u0 + width, v0 + height}, {u0, v0 + height}}

	start := uint32(len(out.Vertices))
	for _, corner := range corners {
		var p [3]int
		p[axis] = plane
		p[ua] = corner[0]
		p[va] = corner[1]

		occ := m.cornerOcclusion(c, axis, ua, va, d, u0, v0, width, height, corner, cell.sign)
		shade := 1 - aoStep*float32(occ)

		out.Vertices = append(out.Vertices, Vertex{
			Position: [3]float32{
				float32(origin[0]+p[0]) * geom.VoxelScale,
				float32(origin[1]+p[1]) * geom.VoxelScale,
				float32(origin[2]+p[2]) * geom.VoxelScale,
			},
			Normal: normal,
			Color:  [3]float32{base[0] * shade, base[1] * shade, base[2] * shade},
		})
	}

	// Winding flips with orientation sign so faces stay front-facing.
	if cell.sign > 0 {
		out.Indices = append(out.Indices, start, start+1, start+2, start+2, start+3, start)
	} else {
		out.Indices = append(out.Indices, start, start+3, start+2, start+2, start+1, start)
	}
	out.QuadCount++
}

// cornerOcclusion computes the 0-3 occlusion level for one quad corner: the
// two in-plane neighbor cells toward the vertex plus the diagonal, all
// sampled one step along the face normal. Two opaque side neighbors force
// level 3 regardless of the corner cell.
func (m *Mesher) cornerOcclusion(c *world.Chunk, axis, ua, va, d, u0, v0, width, height int, corner [2]int, sign int8) int {
	layer := d + 1
	if sign < 0 {
		layer = d
	}

	// The cell of the merged rectangle this corner belongs to, and the
	// direction pointing out of the rectangle toward the vertex.
	ci := u0
	du := -1
	if corner[0] != u0 {
		ci = u0 + width - 1
		du = +1
	}
	cj := v0
	dv := -1
	if corner[1] != v0 {
		cj = v0 + height - 1
		dv = +1
	}

	opaqueAt := func(i, j int) bool {
		var p [3]int
		p[axis] = layer
		p[ua] = i
		p[va] = j
		return m.cat.Opaque(c.Block(p[0], p[1], p[2]))
	}

	side1 := opaqueAt(ci+du, cj)
	side2 := opaqueAt(ci, cj+dv)
	if side1 && side2 {
		return 3
	}
	occ := 0
	if side1 {
		occ++
	}
	if side2 {
		occ++
	}
	if opaqueAt(ci+du, cj+dv) {
		occ++
	}
	return occ
}
