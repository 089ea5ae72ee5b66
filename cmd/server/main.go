package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voxelforge.dev/internal/catalogs"
	"voxelforge.dev/internal/geom"
	"voxelforge.dev/internal/mesh"
	"voxelforge.dev/internal/observerproto"
	"voxelforge.dev/internal/persistence/indexdb"
	eventlog "voxelforge.dev/internal/persistence/log"
	"voxelforge.dev/internal/persistence/savefile"
	"voxelforge.dev/internal/terrain"
	"voxelforge.dev/internal/transport/observer"
	"voxelforge.dev/internal/tuning"
	"voxelforge.dev/internal/world"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		seed       = flag.Int64("seed", 1337, "world seed (used only when starting fresh)")
		configDir  = flag.String("configs", "./configs", "config directory")
		schemaDir  = flag.String("schemas", "./schemas", "json schema directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		savePath   = flag.String("save", "", "savefile to load (optional)")
		loadLatest = flag.Bool("load_latest_save", true, "load the newest savefile for this seed if present (when -save is empty)")
		disableDB  = flag.Bool("disable_db", false, "disable the save index db")
		headless   = flag.Bool("headless", false, "stream and simulate without building meshes")
		orbitR     = flag.Float64("orbit", 96, "viewer orbit radius in world units (0 pins the viewer at the origin)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir, *schemaDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	saveDir := filepath.Join(*dataDir, "saves")
	_ = os.MkdirAll(saveDir, 0o755)

	var idx *indexdb.SaveIndex
	if !*disableDB {
		idx, err = indexdb.Open(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open save index: %v", err)
		}
		defer idx.Close()
	}

	events, err := eventlog.Open(filepath.Join(*dataDir, "events.jsonl.zst"))
	if err != nil {
		logger.Fatalf("open event log: %v", err)
	}
	defer events.Close()

	w := world.New(*seed, cats, tune.MaxLoaded)
	var mesher *mesh.Mesher
	var streamMesher world.Mesher
	if !*headless {
		mesher = mesh.NewMesher(cats)
		streamMesher = mesher
	}
	stream := world.NewStreamer(w, world.StreamerConfig{
		ViewRadius:     tune.ViewRadius,
		VerticalLayers: tune.VerticalLayers,
		MeshRadiusPad:  tune.MeshRadiusPad,
		GenBudget:      tune.GenBudget,
		MeshBudget:     tune.MeshBudget,
		MaxLoaded:      tune.MaxLoaded,
		Order:          tune.EnqueueOrder,
		Prewarm:        tune.PrewarmRings,
	}, streamMesher)

	toLoad := strings.TrimSpace(*savePath)
	if toLoad == "" && *loadLatest {
		toLoad = latestSave(saveDir, idx, *seed)
	}
	if toLoad != "" {
		n, err := savefile.Load(toLoad, w)
		if err != nil {
			logger.Fatalf("load savefile: %v", err)
		}
		logger.Printf("resumed from save=%s chunks=%d", filepath.Base(toLoad), n)
	}

	ctx, cancel := signalContext()
	defer cancel()

	var tick atomic.Uint64
	obsSrv := observer.NewServer(func() observerproto.BootstrapResponse {
		return observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			Tick:            tick.Load(),
			WorldParams: observerproto.WorldParams{
				TickRateHz: tune.TickRateHz,
				ChunkSize:  [3]int{geom.ChunkDimX, geom.ChunkDimY, geom.ChunkDimZ},
				VoxelScale: geom.VoxelScale,
				SeaLevel:   terrain.SeaLevel,
				Seed:       w.Seed(),
				ViewRadius: tune.ViewRadius,
			},
			BlockPalette: cats.Palette,
		}
	}, logger)

	// Edit requests are closures executed on the engine goroutine; all world
	// state stays single-threaded.
	edits := make(chan func(*world.World), 64)

	eng := &engine{
		w:       w,
		stream:  stream,
		mesher:  mesher,
		obs:     obsSrv,
		events:  events,
		idx:     idx,
		edits:   edits,
		tune:    tune,
		saveDir: saveDir,
		orbitR:  *orbitR,
		tick:    &tick,
		log:     logger,
		done:    make(chan struct{}),
	}
	go eng.run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/observer/v1/bootstrap", obsSrv.BootstrapHandler())
	mux.HandleFunc("/observer/v1/ws", obsSrv.WSHandler())
	mux.HandleFunc("/admin/v1/edit", editHandler(edits))
	if envBool("VF_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (VF_ENABLE_PPROF_HTTP=false)")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s seed=%d view_radius=%d", *addr, w.Seed(), tune.ViewRadius)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	<-eng.done
}

// engine owns the tick loop. Everything it touches besides the channels is
// confined to its goroutine.
type engine struct {
	w       *world.World
	stream  *world.Streamer
	mesher  *mesh.Mesher
	obs     *observer.Server
	events  *eventlog.EventLog
	idx     *indexdb.SaveIndex
	edits   chan func(*world.World)
	tune    tuning.Tuning
	saveDir string
	orbitR  float64
	tick    *atomic.Uint64
	log     *log.Logger

	// done is created before the engine goroutine starts so main can always
	// wait on it, even when shutdown beats the first tick.
	done chan struct{}
}

func (e *engine) run(ctx context.Context) {
	defer close(e.done)

	interval := time.Second / time.Duration(e.tune.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	viewer := geom.Vec3{}
	viewSteered := false

	for {
		select {
		case <-ctx.Done():
			e.saveNow("shutdown")
			return
		case <-ticker.C:
		}

		// Latest observer viewpoint wins; without one the viewer orbits so
		// streaming keeps exercising load and release.
	drain:
		for {
			select {
			case pos := <-e.obs.Views():
				viewer = geom.Vec3{X: pos[0], Y: pos[1], Z: pos[2]}
				viewSteered = true
			case fn := <-e.edits:
				fn(e.w)
			default:
				break drain
			}
		}
		t := e.tick.Add(1)
		if !viewSteered && e.orbitR > 0 {
			ang := float64(t) / float64(e.tune.TickRateHz) * 0.02 * 2 * math.Pi
			viewer = geom.Vec3{X: e.orbitR * math.Cos(ang), Z: e.orbitR * math.Sin(ang)}
		}

		stats := e.stream.Tick(viewer)

		if e.tune.AutosaveTicks > 0 && t%uint64(e.tune.AutosaveTicks) == 0 {
			e.saveNow("autosave")
		}
		if e.tune.StatsEveryTick > 0 && t%uint64(e.tune.StatsEveryTick) == 0 {
			_ = e.events.Write(eventlog.StatsEntry{
				TS:        eventlog.Now(),
				Tick:      t,
				Active:    stats.Active,
				Generated: stats.Generated,
				Meshed:    stats.Meshed,
				Released:  stats.Released,
				Deferred:  stats.Deferred,
				GenQueue:  stats.GenQueue,
				MeshQueue: stats.MeshQueue,
				Pending:   e.w.PendingDiffCount(),
			})
		}

		center := geom.ChunkOf(geom.BlockAtWorld(viewer))
		quads := 0
		if e.mesher != nil {
			quads = e.mesher.TotalQuads()
		}
		e.obs.Broadcast(observerproto.StatusMsg{
			Type:            "STATUS",
			ProtocolVersion: observerproto.Version,
			Tick:            t,
			Center:          [3]int{center.X, center.Y, center.Z},
			Active:          stats.Active,
			Generated:       stats.Generated,
			Meshed:          stats.Meshed,
			Released:        stats.Released,
			Deferred:        stats.Deferred,
			GenQueue:        stats.GenQueue,
			MeshQueue:       stats.MeshQueue,
			Quads:           quads,
		})
	}
}

func (e *engine) saveNow(reason string) {
	t := e.tick.Load()
	path := filepath.Join(e.saveDir, fmt.Sprintf("%d.save.vxlf", t))
	n, err := savefile.Save(path, e.w)
	if err != nil {
		e.log.Printf("%s save: %v", reason, err)
		return
	}
	if n == 0 {
		// Nothing diverged from the generator; Save leaves no file behind.
		return
	}
	e.log.Printf("%s save: %s chunks=%d", reason, filepath.Base(path), n)
	_ = e.events.Write(eventlog.SaveEntry{TS: eventlog.Now(), Tick: t, Path: path, Chunks: n})
	if e.idx != nil {
		if _, err := e.idx.RecordSave(path, e.w.Seed(), n); err != nil {
			e.log.Printf("record save: %v", err)
		}
	}
}

type editRequest struct {
	Op     string     `json:"op"` // "set", "carve" or "explode"
	Pos    [3]int     `json:"pos,omitempty"`
	Center [3]float64 `json:"center,omitempty"`
	Radius float64    `json:"radius,omitempty"`
	Block  string     `json:"block,omitempty"`
}

func editHandler(edits chan<- func(*world.World)) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req editRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(rw, "bad request", http.StatusBadRequest)
			return
		}
		var fn func(*world.World)
		switch req.Op {
		case "set":
			pos := geom.Vec3i{X: req.Pos[0], Y: req.Pos[1], Z: req.Pos[2]}
			block := req.Block
			fn = func(w *world.World) {
				id, ok := w.Catalog().ByName(block)
				if !ok {
					return
				}
				w.SetBlockGlobal(pos, id)
			}
		case "carve":
			c := geom.Vec3{X: req.Center[0], Y: req.Center[1], Z: req.Center[2]}
			radius := req.Radius
			fn = func(w *world.World) { w.RemoveSphere(c, radius) }
		case "explode":
			c := geom.Vec3{X: req.Center[0], Y: req.Center[1], Z: req.Center[2]}
			radius := req.Radius
			fn = func(w *world.World) { w.Explode(c, radius) }
		default:
			http.Error(rw, "unknown op", http.StatusBadRequest)
			return
		}
		select {
		case edits <- fn:
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true})
		default:
			http.Error(rw, "busy", http.StatusServiceUnavailable)
		}
	}
}

// latestSave prefers the index db record; without one it falls back to
// scanning the save directory for the highest tick number.
func latestSave(saveDir string, idx *indexdb.SaveIndex, seed int64) string {
	if idx != nil {
		if rec, ok, err := idx.Latest(seed); err == nil && ok {
			if _, statErr := os.Stat(rec.Path); statErr == nil {
				return rec.Path
			}
		}
	}
	ents, err := os.ReadDir(saveDir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".save.vxlf") {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, ".save.vxlf"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(saveDir, name)
		}
	}
	return best
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
