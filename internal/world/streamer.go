package world

import (
	"voxelforge.dev/internal/geom"
	"voxelforge.dev/internal/observability"
)

// Enqueue orders for the generation queue. Spiral guarantees nearer chunks
// generate first; scan is the cheap rectangular sweep.
const (
	OrderScan   = "scan"
	OrderSpiral = "spiral"
)

// StreamerConfig bounds streaming extent and per-tick cost.
type StreamerConfig struct {
	ViewRadius     int
	VerticalLayers int
	MeshRadiusPad  int // mesh radius = ViewRadius + pad
	GenBudget      int
	MeshBudget     int
	MaxLoaded      int // cap on active+scheduled; excess is deferred, not failed
	Order          string
	Prewarm        bool
}

// TickStats summarizes one scheduler tick for logs and the observer feed.
type TickStats struct {
	Generated int
	Meshed    int
	Released  int
	Deferred  int
	GenQueue  int
	MeshQueue int
	Active    int
}

// Streamer reconciles the target chunk set around a tracked center against
// the world's active set, and drains the generation and mesh queues under
// fixed per-tick budgets. Runs on the single scheduling thread.
type Streamer struct {
	w      *World
	cfg    StreamerConfig
	mesher Mesher

	target map[geom.ChunkCoord]struct{}

	genQueue  []geom.ChunkCoord
	scheduled map[geom.ChunkCoord]struct{}

	meshQueue  []geom.ChunkCoord
	meshQueued map[geom.ChunkCoord]struct{}

	center     geom.ChunkCoord
	haveCenter bool
}

// NewStreamer attaches a scheduler to a world. mesher may be nil for headless
// pipelines; mesh queue entries are then dropped at drain time.
func NewStreamer(w *World, cfg StreamerConfig, mesher Mesher) *Streamer {
	s := &Streamer{
		w:          w,
		cfg:        cfg,
		mesher:     mesher,
		target:     make(map[geom.ChunkCoord]struct{}),
		scheduled:  make(map[geom.ChunkCoord]struct{}),
		meshQueued: make(map[geom.ChunkCoord]struct{}),
	}
	w.stream = s
	return s
}

// Tick advances streaming for the tracked viewer position: retarget, release,
// prune, enqueue, then the two budgeted drains.
func (s *Streamer) Tick(viewer geom.Vec3) TickStats {
	var st TickStats

	center := geom.ChunkOf(geom.BlockAtWorld(viewer))
	center.Y = 0 // target layers are fixed; only horizontal movement matters
	centerChanged := !s.haveCenter || center != s.center
	s.center = center
	s.haveCenter = true

	s.rebuildTarget()

	// Prewarm the two outermost rings ahead of the normal enqueue order so
	// generation latency hides in the direction of travel.
	if centerChanged && s.cfg.Prewarm {
		s.schedulePrewarmRings(&st)
	}

	// Release everything that left the target set.
	var leaving []geom.ChunkCoord
	for coord := range s.w.active {
		if _, ok := s.target[coord]; !ok {
			leaving = append(leaving, coord)
		}
	}
	for _, coord := range leaving {
		s.release(coord)
		st.Released++
	}

	s.pruneGenQueue()
	s.enqueueTargets(&st)

	st.Generated = s.drainGeneration()
	st.Meshed = s.drainMeshing()

	st.GenQueue = len(s.genQueue)
	st.MeshQueue = len(s.meshQueue)
	st.Active = s.w.ActiveCount()

	observability.ActiveChunks.Set(float64(st.Active))
	observability.GenQueueDepth.Set(float64(st.GenQueue))
	observability.MeshQueueDepth.Set(float64(st.MeshQueue))
	return st
}

// Center returns the tracked center chunk.
func (s *Streamer) Center() geom.ChunkCoord { return s.center }

func (s *Streamer) rebuildTarget() {
	for coord := range s.target {
		delete(s.target, coord)
	}
	r := s.cfg.ViewRadius
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dz*dz > r*r {
				continue
			}
			for cy := 0; cy < s.cfg.VerticalLayers; cy++ {
				s.target[geom.ChunkCoord{X: s.center.X + dx, Y: cy, Z: s.center.Z + dz}] = struct{}{}
			}
		}
	}
}

func (s *Streamer) schedulePrewarmRings(st *TickStats) {
	r := s.cfg.ViewRadius
	inner := r - 2
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			rr := dx*dx + dz*dz
			if rr > r*r || rr <= inner*inner {
				continue
			}
			for cy := 0; cy < s.cfg.VerticalLayers; cy++ {
				s.tryEnqueue(geom.ChunkCoord{X: s.center.X + dx, Y: cy, Z: s.center.Z + dz}, st)
			}
		}
	}
}

// pruneGenQueue drops queued coordinates that left the target set; no partial
// state exists for them, so dropping is the whole cancellation story.
func (s *Streamer) pruneGenQueue() {
	kept := s.genQueue[:0]
	for _, coord := range s.genQueue {
		if _, ok := s.target[coord]; !ok {
			delete(s.scheduled, coord)
			continue
		}
		kept = append(kept, coord)
	}
	s.genQueue = kept
}

func (s *Streamer) enqueueTargets(st *TickStats) {
	r := s.cfg.ViewRadius
	if s.cfg.Order == OrderSpiral {
		for ring := 0; ring <= r; ring++ {
			s.walkRing(ring, func(dx, dz int) {
				if dx*dx+dz*dz > r*r {
					return
				}
				for cy := 0; cy < s.cfg.VerticalLayers; cy++ {
					s.tryEnqueue(geom.ChunkCoord{X: s.center.X + dx, Y: cy, Z: s.center.Z + dz}, st)
				}
			})
		}
		return
	}
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dz*dz > r*r {
				continue
			}
			for cy := 0; cy < s.cfg.VerticalLayers; cy++ {
				s.tryEnqueue(geom.ChunkCoord{X: s.center.X + dx, Y: cy, Z: s.center.Z + dz}, st)
			}
		}
	}
}

// walkRing visits the square ring at Chebyshev distance `ring` around the
// center, clockwise from the top-left corner.
func (s *Streamer) walkRing(ring int, visit func(dx, dz int)) {
	if ring == 0 {
		visit(0, 0)
		return
	}
	for dx := -ring; dx <= ring; dx++ {
		visit(dx, -ring)
	}
	for dz := -ring + 1; dz <= ring-1; dz++ {
		visit(ring, dz)
	}
	for dx := ring; dx >= -ring; dx-- {
		visit(dx, ring)
	}
	for dz := ring - 1; dz >= -ring+1; dz-- {
		visit(-ring, dz)
	}
}

// tryEnqueue schedules a target coordinate unless it is already active or
// scheduled, or the load cap is hit. Hitting the cap defers silently; the
// coordinate is retried on a later tick.
func (s *Streamer) tryEnqueue(coord geom.ChunkCoord, st *TickStats) {
	if _, ok := s.w.active[coord]; ok {
		return
	}
	if _, ok := s.scheduled[coord]; ok {
		return
	}
	if s.w.ActiveCount()+len(s.scheduled) >= s.cfg.MaxLoaded {
		st.Deferred++
		observability.SchedulingDeferred.Inc()
		return
	}
	s.scheduled[coord] = struct{}{}
	s.genQueue = append(s.genQueue, coord)
}

func (s *Streamer) drainGeneration() int {
	generated := 0
	for i := 0; i < s.cfg.GenBudget && len(s.genQueue) > 0; i++ {
		coord := s.genQueue[0]
		s.genQueue = s.genQueue[1:]
		delete(s.scheduled, coord)

		// The coordinate may have left the target set or been force-loaded by
		// a direct edit since it was enqueued.
		if _, ok := s.target[coord]; !ok {
			continue
		}
		if _, ok := s.w.active[coord]; ok {
			continue
		}
		c, ok := s.w.activate(coord)
		if !ok {
			// Arena exhausted; behave like the cap and retry later.
			continue
		}
		generated++
		observability.ChunksGenerated.Inc()
		if s.withinMeshRadius(coord) {
			s.queueMesh(c)
		}
	}
	return generated
}

func (s *Streamer) drainMeshing() int {
	meshed := 0
	for i := 0; i < s.cfg.MeshBudget && len(s.meshQueue) > 0; i++ {
		coord := s.meshQueue[0]
		s.meshQueue = s.meshQueue[1:]
		delete(s.meshQueued, coord)

		c, ok := s.w.ChunkAt(coord)
		if !ok {
			continue
		}
		if s.mesher != nil {
			s.mesher.Remesh(c)
			observability.ChunksMeshed.Inc()
		}
		c.clearMeshDirty()
		meshed++
	}
	return meshed
}

// withinMeshRadius keeps chunks on the streaming rim from being meshed just
// before they leave view.
func (s *Streamer) withinMeshRadius(coord geom.ChunkCoord) bool {
	mr := s.cfg.ViewRadius + s.cfg.MeshRadiusPad
	dx := coord.X - s.center.X
	dz := coord.Z - s.center.Z
	return dx*dx+dz*dz <= mr*mr
}

// queueMesh enqueues a chunk for remeshing, deduplicated by coordinate.
func (s *Streamer) queueMesh(c *Chunk) {
	if _, ok := s.meshQueued[c.Coord]; ok {
		return
	}
	s.meshQueued[c.Coord] = struct{}{}
	s.meshQueue = append(s.meshQueue, c.Coord)
}

// noteForcedActivation keeps the guards coherent when a direct edit bypasses
// the queue: the coordinate is no longer scheduled, and it needs geometry.
func (s *Streamer) noteForcedActivation(coord geom.ChunkCoord, c *Chunk) {
	delete(s.scheduled, coord)
	s.queueMesh(c)
}

// release drops a coordinate from every queue and guard, discards its
// geometry, and hands the container back to the pool.
func (s *Streamer) release(coord geom.ChunkCoord) {
	delete(s.scheduled, coord)
	delete(s.meshQueued, coord)
	if s.mesher != nil {
		s.mesher.Drop(coord)
	}
	s.w.release(coord)
	observability.ChunksReleased.Inc()
}
