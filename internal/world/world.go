// Package world holds the chunk data store, the streaming scheduler, and the
// diff codec. Everything in here runs on one scheduling thread: generation,
// meshing, edits, and persistence are budget-sliced across ticks instead of
// locked across goroutines.
package world

import (
	"fmt"
	"sort"

	"voxelforge.dev/internal/catalogs"
	"voxelforge.dev/internal/geom"
	"voxelforge.dev/internal/terrain"
)

// Mesher rebuilds geometry for chunks the scheduler hands it. Implementations
// keep their own coord-keyed output; Drop discards it when a chunk retires.
type Mesher interface {
	Remesh(c *Chunk)
	Drop(coord geom.ChunkCoord)
}

// World owns the active-chunk map, the recycling arena, the set of
// coordinates with unsaved edits, and pending diffs for coordinates that are
// not currently active (an edit or load for an unloaded chunk is never lost).
type World struct {
	cat *catalogs.BlockCatalog
	gen *terrain.Generator

	arena  *chunkArena
	active map[geom.ChunkCoord]int32 // coordinate -> arena slot

	pending   map[geom.ChunkCoord][]byte
	saveDirty map[geom.ChunkCoord]struct{}

	stream *Streamer // attached by NewStreamer; nil in pipeline-only tests

	// Baseline/synthesis scratch; valid because all callers share one thread.
	scratch []catalogs.BlockID
	editBuf []catalogs.BlockID
}

func New(seed int64, cat *catalogs.BlockCatalog, capacity int) *World {
	return &World{
		cat:       cat,
		gen:       terrain.NewGenerator(seed, cat),
		arena:     newChunkArena(capacity),
		active:    make(map[geom.ChunkCoord]int32, capacity),
		pending:   make(map[geom.ChunkCoord][]byte),
		saveDirty: make(map[geom.ChunkCoord]struct{}),
		scratch:   make([]catalogs.BlockID, geom.ChunkVolume),
		editBuf:   make([]catalogs.BlockID, geom.ChunkVolume),
	}
}

func (w *World) Seed() int64                     { return w.gen.Seed() }
func (w *World) Catalog() *catalogs.BlockCatalog { return w.cat }
func (w *World) Generator() *terrain.Generator   { return w.gen }

// ChunkAt returns the active chunk for a coordinate, if any.
func (w *World) ChunkAt(coord geom.ChunkCoord) (*Chunk, bool) {
	slot, ok := w.active[coord]
	if !ok {
		return nil, false
	}
	return w.arena.chunk(slot), true
}

// ActiveCount returns the number of active chunks.
func (w *World) ActiveCount() int { return len(w.active) }

// ActiveCoords appends all active coordinates to buf and returns it.
func (w *World) ActiveCoords(buf []geom.ChunkCoord) []geom.ChunkCoord {
	for coord := range w.active {
		buf = append(buf, coord)
	}
	return buf
}

// activate runs the generation pipeline into a pooled container and applies
// any pending diff recorded for the coordinate. A coordinate maps to at most
// one active chunk; activating an already-active coordinate is a bug.
func (w *World) activate(coord geom.ChunkCoord) (*Chunk, bool) {
	if _, ok := w.active[coord]; ok {
		panic("world: coordinate activated twice: " + coordString(coord))
	}
	slot, ok := w.arena.acquire()
	if !ok {
		return nil, false
	}
	c := w.arena.chunk(slot)
	c.initialise(coord, w)
	w.gen.Generate(coord, c.blocks)
	if blob, ok := w.pending[coord]; ok {
		// Validated on arrival; a failure here would mean the blob rotted in
		// memory, so fail loudly.
		if err := DecodeChunkDiff(c.blocks, blob); err != nil {
			panic("world: pending diff for " + coordString(coord) + ": " + err.Error())
		}
		delete(w.pending, coord)
		w.saveDirty[coord] = struct{}{}
		c.meshDirty = true
	}
	c.loaded = true
	w.active[coord] = slot
	return c, true
}

// release deactivates a chunk and returns its container to the arena. Unsaved
// edits are folded into the pending-diff map first so they survive until the
// next save or reactivation.
func (w *World) release(coord geom.ChunkCoord) {
	slot, ok := w.active[coord]
	if !ok {
		return
	}
	if _, dirty := w.saveDirty[coord]; dirty {
		c := w.arena.chunk(slot)
		w.gen.Generate(coord, w.scratch)
		if blob, changed := EncodeChunkDiff(c.blocks, w.scratch); changed {
			w.pending[coord] = blob
		} else {
			delete(w.saveDirty, coord)
		}
	}
	delete(w.active, coord)
	w.arena.release(slot)
}

// forceChunk synchronously activates a coordinate outside the budgeted queue
// so a direct edit never waits a tick. Reports false when every arena slot is
// occupied.
func (w *World) forceChunk(coord geom.ChunkCoord) (*Chunk, bool) {
	if c, ok := w.ChunkAt(coord); ok {
		return c, true
	}
	c, ok := w.activate(coord)
	if !ok {
		return nil, false
	}
	if w.stream != nil {
		w.stream.noteForcedActivation(coord, c)
	}
	return c, true
}

// TryGetBlock reports the block at a global coordinate. Active chunks answer
// directly; anything else is synthesized through the deterministic pipeline
// plus any pending diff, so found is always true in this design.
func (w *World) TryGetBlock(b geom.Vec3i) (catalogs.BlockID, bool) {
	coord := geom.ChunkOf(b)
	local := geom.LocalOf(b)
	if c, ok := w.ChunkAt(coord); ok {
		return c.Get(local), true
	}
	w.gen.Generate(coord, w.scratch)
	if blob, ok := w.pending[coord]; ok {
		if err := DecodeChunkDiff(w.scratch, blob); err != nil {
			panic("world: pending diff for " + coordString(coord) + ": " + err.Error())
		}
	}
	return w.scratch[geom.BlockIndex(local.X, local.Y, local.Z)], true
}

// SetBlockGlobal writes a block at a global coordinate, force-loading the
// owning chunk if a slot is free. Re-meshing rides on the chunk's change
// notification. With the arena full the edit is folded into the pending-diff
// map instead, the same place release parks unsaved edits, so the loaded-chunk
// cap stays pure back-pressure and an edit is never lost.
func (w *World) SetBlockGlobal(b geom.Vec3i, id catalogs.BlockID) {
	coord := geom.ChunkOf(b)
	local := geom.LocalOf(b)
	if c, ok := w.forceChunk(coord); ok {
		c.Set(local, id)
		return
	}
	w.setBlockPending(coord, local, id)
}

// setBlockPending applies a write to a coordinate that cannot be activated:
// synthesize the chunk (baseline plus any pending diff), apply the write, and
// re-encode the result as a pending diff against the baseline.
func (w *World) setBlockPending(coord geom.ChunkCoord, local geom.Vec3i, id catalogs.BlockID) {
	w.gen.Generate(coord, w.scratch)
	copy(w.editBuf, w.scratch)
	if blob, ok := w.pending[coord]; ok {
		if err := DecodeChunkDiff(w.editBuf, blob); err != nil {
			panic("world: pending diff for " + coordString(coord) + ": " + err.Error())
		}
	}
	w.editBuf[geom.BlockIndex(local.X, local.Y, local.Z)] = id
	if blob, changed := EncodeChunkDiff(w.editBuf, w.scratch); changed {
		w.pending[coord] = blob
		w.saveDirty[coord] = struct{}{}
	} else {
		delete(w.pending, coord)
		delete(w.saveDirty, coord)
	}
}

// RemoveSphere clears every block whose cell center lies within radius of a
// world-space center.
func (w *World) RemoveSphere(center geom.Vec3, radius float64) {
	if radius <= 0 {
		return
	}
	min := geom.BlockAtWorld(geom.Vec3{X: center.X - radius, Y: center.Y - radius, Z: center.Z - radius})
	max := geom.BlockAtWorld(geom.Vec3{X: center.X + radius, Y: center.Y + radius, Z: center.Z + radius})
	r2 := radius * radius
	for y := min.Y; y <= max.Y; y++ {
		for z := min.Z; z <= max.Z; z++ {
			for x := min.X; x <= max.X; x++ {
				b := geom.Vec3i{X: x, Y: y, Z: z}
				cc := geom.CellCenter(b)
				dx := cc.X - center.X
				dy := cc.Y - center.Y
				dz := cc.Z - center.Z
				if dx*dx+dy*dy+dz*dz <= r2 {
					w.SetBlockGlobal(b, catalogs.Air)
				}
			}
		}
	}
}

// Explode is the destructive-tools entry point; today it is a plain spherical
// clear, kept separate so debris/particle consumers can hook it.
func (w *World) Explode(center geom.Vec3, radius float64) {
	w.RemoveSphere(center, radius)
}

// blockChanged is the chunk store's mutation notification: the edit makes the
// chunk save-dirty and re-meshes it plus any face-adjacent chunk whose shared
// boundary the write sits on.
func (w *World) blockChanged(c *Chunk, local geom.Vec3i) {
	w.saveDirty[c.Coord] = struct{}{}
	if w.stream == nil {
		return
	}
	w.stream.queueMesh(c)
	for _, n := range boundaryNeighbors(c.Coord, local) {
		if nc, ok := w.ChunkAt(n); ok {
			w.stream.queueMesh(nc)
		}
	}
}

// boundaryNeighbors lists the face-adjacent chunk coordinates affected by a
// write at a local coordinate sitting on a boundary plane.
func boundaryNeighbors(coord geom.ChunkCoord, local geom.Vec3i) []geom.ChunkCoord {
	var out []geom.ChunkCoord
	if local.X == 0 {
		out = append(out, geom.ChunkCoord{X: coord.X - 1, Y: coord.Y, Z: coord.Z})
	}
	if local.X == geom.ChunkDimX-1 {
		out = append(out, geom.ChunkCoord{X: coord.X + 1, Y: coord.Y, Z: coord.Z})
	}
	if local.Y == 0 {
		out = append(out, geom.ChunkCoord{X: coord.X, Y: coord.Y - 1, Z: coord.Z})
	}
	if local.Y == geom.ChunkDimY-1 {
		out = append(out, geom.ChunkCoord{X: coord.X, Y: coord.Y + 1, Z: coord.Z})
	}
	if local.Z == 0 {
		out = append(out, geom.ChunkCoord{X: coord.X, Y: coord.Y, Z: coord.Z - 1})
	}
	if local.Z == geom.ChunkDimZ-1 {
		out = append(out, geom.ChunkCoord{X: coord.X, Y: coord.Y, Z: coord.Z + 1})
	}
	return out
}

// CollectDirtyChunks appends every coordinate with unsaved edits to buf in a
// deterministic order.
func (w *World) CollectDirtyChunks(buf []geom.ChunkCoord) []geom.ChunkCoord {
	for coord := range w.saveDirty {
		buf = append(buf, coord)
	}
	sort.Slice(buf, func(i, j int) bool {
		a, b := buf[i], buf[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return buf
}

// WriteChunkDiff encodes a coordinate's live buffer against a freshly
// regenerated baseline. When nothing differs the dirty flag is cleared here
// and (nil, false) tells the driver to skip the record entirely.
func (w *World) WriteChunkDiff(coord geom.ChunkCoord) ([]byte, bool) {
	c, ok := w.ChunkAt(coord)
	if !ok {
		// Dirty but no longer active: the pending diff, if any, is already in
		// its wire form.
		if blob, ok := w.pending[coord]; ok && DiffHasChanges(blob) {
			return blob, true
		}
		delete(w.saveDirty, coord)
		return nil, false
	}
	w.gen.Generate(coord, w.scratch)
	blob, changed := EncodeChunkDiff(c.blocks, w.scratch)
	if !changed {
		delete(w.saveDirty, coord)
		return nil, false
	}
	return blob, true
}

// ApplyChunkDiff replays a diff for a coordinate: onto the live buffer when
// active, otherwise into the pending map so the load is not lost. The blob is
// validated before any state changes.
func (w *World) ApplyChunkDiff(coord geom.ChunkCoord, blob []byte) error {
	if err := ValidateChunkDiff(blob, geom.ChunkVolume); err != nil {
		return err
	}
	if c, ok := w.ChunkAt(coord); ok {
		if err := DecodeChunkDiff(c.blocks, blob); err != nil {
			return err
		}
		w.saveDirty[coord] = struct{}{}
		c.meshDirty = true
		if w.stream != nil {
			w.stream.queueMesh(c)
		}
		return nil
	}
	w.pending[coord] = append([]byte(nil), blob...)
	w.saveDirty[coord] = struct{}{}
	return nil
}

// ClearSaveDirtyFlag is the driver's acknowledgement that a diff was written.
func (w *World) ClearSaveDirtyFlag(coord geom.ChunkCoord) {
	delete(w.saveDirty, coord)
}

// PendingDiffCount is exposed for status reporting.
func (w *World) PendingDiffCount() int { return len(w.pending) }

func coordString(c geom.ChunkCoord) string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}
