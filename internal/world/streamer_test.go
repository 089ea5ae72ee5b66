package world

import (
	"testing"

	"voxelforge.dev/internal/catalogs"
	"voxelforge.dev/internal/geom"
)

// recordingMesher counts scheduler callbacks without building geometry.
type recordingMesher struct {
	remeshed map[geom.ChunkCoord]int
	dropped  map[geom.ChunkCoord]int
}

func newRecordingMesher() *recordingMesher {
	return &recordingMesher{
		remeshed: make(map[geom.ChunkCoord]int),
		dropped:  make(map[geom.ChunkCoord]int),
	}
}

func (m *recordingMesher) Remesh(c *Chunk)            { m.remeshed[c.Coord]++ }
func (m *recordingMesher) Drop(coord geom.ChunkCoord) { m.dropped[coord]++ }

func streamCfg() StreamerConfig {
	return StreamerConfig{
		ViewRadius:     2,
		VerticalLayers: 1,
		MeshRadiusPad:  1,
		GenBudget:      4,
		MeshBudget:     4,
		MaxLoaded:      64,
		Order:          OrderSpiral,
		Prewarm:        false,
	}
}

// targetSize is the disc population for ViewRadius 2: dx^2+dz^2 <= 4.
const targetSize = 13

func tickUntilSettled(t *testing.T, s *Streamer, viewer geom.Vec3, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		st := s.Tick(viewer)
		if st.Generated == 0 && st.GenQueue == 0 && st.MeshQueue == 0 {
			return
		}
	}
	t.Fatal("streaming did not settle")
}

func TestStreamer_ConvergesToTargetSet(t *testing.T) {
	w := newTestWorld(64)
	m := newRecordingMesher()
	s := NewStreamer(w, streamCfg(), m)

	viewer := geom.Vec3{}
	st := s.Tick(viewer)
	if st.Generated > streamCfg().GenBudget {
		t.Fatalf("first tick generated %d chunks, budget %d", st.Generated, streamCfg().GenBudget)
	}
	tickUntilSettled(t, s, viewer, 20)

	if got := w.ActiveCount(); got != targetSize {
		t.Fatalf("settled active set %d, want %d", got, targetSize)
	}
	for coord := range s.target {
		if m.remeshed[coord] == 0 {
			t.Fatalf("target chunk %v was never meshed", coord)
		}
	}

	// A settled world ticks to a no-op.
	st = s.Tick(viewer)
	if st.Generated != 0 || st.Released != 0 || st.Meshed != 0 {
		t.Fatalf("settled tick did work: %+v", st)
	}
}

func TestStreamer_BudgetIsRespectedEveryTick(t *testing.T) {
	w := newTestWorld(64)
	cfg := streamCfg()
	cfg.GenBudget = 2
	cfg.MeshBudget = 3
	s := NewStreamer(w, cfg, newRecordingMesher())

	viewer := geom.Vec3{}
	for i := 0; i < 30; i++ {
		st := s.Tick(viewer)
		if st.Generated > cfg.GenBudget {
			t.Fatalf("tick %d generated %d > budget %d", i, st.Generated, cfg.GenBudget)
		}
		if st.Meshed > cfg.MeshBudget {
			t.Fatalf("tick %d meshed %d > budget %d", i, st.Meshed, cfg.MeshBudget)
		}
	}
	if w.ActiveCount() != targetSize {
		t.Fatalf("active %d after 30 ticks", w.ActiveCount())
	}
}

func TestStreamer_SpiralGeneratesCenterFirst(t *testing.T) {
	w := newTestWorld(64)
	cfg := streamCfg()
	cfg.GenBudget = 1
	s := NewStreamer(w, cfg, nil)

	s.Tick(geom.Vec3{})
	if w.ActiveCount() != 1 {
		t.Fatalf("active %d after one tick of budget 1", w.ActiveCount())
	}
	if _, ok := w.ChunkAt(geom.ChunkCoord{}); !ok {
		t.Fatal("first generated chunk is not the center")
	}
}

func TestStreamer_MoveReleasesLeaversAndDropsMeshes(t *testing.T) {
	w := newTestWorld(64)
	m := newRecordingMesher()
	s := NewStreamer(w, streamCfg(), m)

	home := geom.Vec3{}
	tickUntilSettled(t, s, home, 20)

	// Jump far enough that the old and new discs are disjoint.
	far := geom.Vec3{X: 100 * geom.ChunkDimX * geom.VoxelScale}
	st := s.Tick(far)
	if st.Released != targetSize {
		t.Fatalf("released %d, want %d", st.Released, targetSize)
	}
	if w.ActiveCount() > streamCfg().GenBudget {
		t.Fatalf("stale chunks survived the move: %d active", w.ActiveCount())
	}
	if got := len(m.dropped); got != targetSize {
		t.Fatalf("dropped %d meshes, want %d", got, targetSize)
	}

	tickUntilSettled(t, s, far, 20)
	if w.ActiveCount() != targetSize {
		t.Fatalf("new disc incomplete: %d active", w.ActiveCount())
	}
	if _, ok := w.ChunkAt(geom.ChunkCoord{X: 100}); !ok {
		t.Fatal("new center chunk not active")
	}
}

func TestStreamer_CapDefersInsteadOfFailing(t *testing.T) {
	w := newTestWorld(64)
	cfg := streamCfg()
	cfg.MaxLoaded = 5
	s := NewStreamer(w, cfg, nil)

	viewer := geom.Vec3{}
	var deferred int
	for i := 0; i < 10; i++ {
		st := s.Tick(viewer)
		deferred += st.Deferred
		if got := w.ActiveCount() + len(s.scheduled); got > cfg.MaxLoaded {
			t.Fatalf("tick %d: active+scheduled %d exceeds cap %d", i, got, cfg.MaxLoaded)
		}
	}
	if deferred == 0 {
		t.Fatal("cap never deferred despite a target larger than MaxLoaded")
	}
	if w.ActiveCount() != cfg.MaxLoaded {
		t.Fatalf("active %d, want the cap %d", w.ActiveCount(), cfg.MaxLoaded)
	}
}

func TestStreamer_PrewarmSchedulesOuterRingsOnMove(t *testing.T) {
	w := newTestWorld(64)
	cfg := streamCfg()
	cfg.Prewarm = true
	cfg.GenBudget = 1
	s := NewStreamer(w, cfg, nil)

	s.Tick(geom.Vec3{})
	// With prewarm on, the single generation slot goes to a rim chunk ahead
	// of the spiral's center-out order.
	for coord := range w.active {
		dx, dz := coord.X, coord.Z
		rr := dx*dx + dz*dz
		inner := cfg.ViewRadius - 2
		if rr <= inner*inner {
			t.Fatalf("prewarm generated inner chunk %v first", coord)
		}
	}
}

func TestStreamer_ReleaseKeepsEdits(t *testing.T) {
	w := newTestWorld(64)
	s := NewStreamer(w, streamCfg(), newRecordingMesher())

	home := geom.Vec3{}
	tickUntilSettled(t, s, home, 20)

	b := geom.Vec3i{X: 5, Y: 3, Z: 5}
	w.SetBlockGlobal(b, catalogs.Air) // carve one floor-band block

	far := geom.Vec3{X: 100 * geom.ChunkDimX * geom.VoxelScale}
	tickUntilSettled(t, s, far, 20)
	tickUntilSettled(t, s, home, 20)

	c, ok := w.ChunkAt(geom.ChunkOf(b))
	if !ok {
		t.Fatal("edited chunk not reloaded")
	}
	if got := c.Get(geom.LocalOf(b)); got != catalogs.Air {
		t.Fatalf("edit lost across release and reload: %d", got)
	}
}
