package terrain

import (
	"voxelforge.dev/internal/catalogs"
	"voxelforge.dev/internal/geom"
	"voxelforge.dev/internal/mathx"
)

// treeEdgePad suppresses trees near chunk boundaries so a canopy never needs
// neighbor-chunk writes. Forest density visibly thins at chunk edges; known
// trade for a single-chunk generation unit.
const treeEdgePad = 2

const (
	canopyMinRadius = 2
	canopyMaxRadius = 4
	canopyUnderhang = 2 // rings also extend this far below the trunk top
)

// TreePlan is a fully determined tree placement inside one chunk.
type TreePlan struct {
	Local   geom.Vec3i // trunk base, chunk-local; sits one above the surface
	Trunk   int
	Radius  int
	SnowTop bool
}

// PlanTree decides deterministically whether the column at chunk-local
// (lx, lz) grows a tree, and what shape it takes. surfaceY is the column
// surface height local to the chunk, or negative when the surface lies in a
// different vertical layer.
func (g *Generator) PlanTree(col *Column, lx, lz, surfaceY int) (TreePlan, bool) {
	if !col.TreesOK || col.TreeChance <= 0 {
		return TreePlan{}, false
	}
	if lx < treeEdgePad || lx >= geom.ChunkDimX-treeEdgePad ||
		lz < treeEdgePad || lz >= geom.ChunkDimZ-treeEdgePad {
		return TreePlan{}, false
	}
	if surfaceY < 0 || surfaceY >= geom.ChunkDimY-1 {
		return TreePlan{}, false
	}

	// One repeatable byte of the column hash decides the roll; further slices
	// shape the tree.
	roll := byte(col.Hash >> 24)
	if float64(roll)/255.0 > col.TreeChance {
		return TreePlan{}, false
	}

	radius := mathx.ClampInt(col.CanopyRadius, canopyMinRadius, canopyMaxRadius)

	span := col.TreeMax - col.TreeMin + 1
	if span < 1 {
		span = 1
	}
	trunk := col.TreeMin + int((col.Hash>>32)%uint64(span))

	// Trunk plus canopy must fit inside the chunk's vertical extent.
	baseY := surfaceY + 1
	maxTrunk := geom.ChunkDimY - 1 - radius - baseY
	if trunk > maxTrunk {
		trunk = maxTrunk
	}
	if trunk < 1 {
		return TreePlan{}, false
	}

	return TreePlan{
		Local:   geom.Vec3i{X: lx, Y: baseY, Z: lz},
		Trunk:   trunk,
		Radius:  radius,
		SnowTop: col.SnowCanopy,
	}, true
}

// applyTree patches a planned tree into the chunk buffer. Leaves and snow only
// land on cells that are currently empty; trunk and soil always write.
func applyTree(buf []catalogs.BlockID, p TreePlan) {
	// Root the trunk in soil.
	if p.Local.Y-1 >= 0 {
		buf[geom.BlockIndex(p.Local.X, p.Local.Y-1, p.Local.Z)] = catalogs.Dirt
	}
	for i := 0; i < p.Trunk; i++ {
		buf[geom.BlockIndex(p.Local.X, p.Local.Y+i, p.Local.Z)] = catalogs.Log
	}

	trunkTop := p.Local.Y + p.Trunk - 1
	for dy := -canopyUnderhang; dy <= p.Radius; dy++ {
		y := trunkTop + dy
		if y < 0 || y >= geom.ChunkDimY {
			continue
		}
		// Rings shrink moving away from the canopy top.
		ring := p.Radius - (p.Radius-dy)/2
		if ring < 1 {
			ring = 1
		}
		leaf := catalogs.Leaves
		if p.SnowTop && dy == p.Radius {
			leaf = catalogs.Snow
		}
		for dz := -ring - 1; dz <= ring+1; dz++ {
			for dx := -ring - 1; dx <= ring+1; dx++ {
				if mathx.AbsInt(dx)+mathx.AbsInt(dz) > ring+1 {
					continue
				}
				x := p.Local.X + dx
				z := p.Local.Z + dz
				if x < 0 || x >= geom.ChunkDimX || z < 0 || z >= geom.ChunkDimZ {
					continue
				}
				i := geom.BlockIndex(x, y, z)
				if buf[i] == catalogs.Air {
					buf[i] = leaf
				}
			}
		}
	}
}
