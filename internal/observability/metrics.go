// Package observability exposes prometheus counters for the streaming
// scheduler and mesher. Purely additive: the engine behaves identically with
// no scrape target attached.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChunksGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelforge_chunks_generated_total",
		Help: "Chunks filled by the generation pipeline.",
	})
	ChunksMeshed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelforge_chunks_meshed_total",
		Help: "Chunk geometry rebuilds.",
	})
	ChunksReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelforge_chunks_released_total",
		Help: "Chunks returned to the recycling pool.",
	})
	SchedulingDeferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelforge_scheduling_deferred_total",
		Help: "Target coordinates whose activation was deferred by the load cap.",
	})
	ActiveChunks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxelforge_active_chunks",
		Help: "Currently active chunks.",
	})
	GenQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxelforge_gen_queue_depth",
		Help: "Coordinates waiting for generation.",
	})
	MeshQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxelforge_mesh_queue_depth",
		Help: "Chunks waiting for remeshing.",
	})
	QuadsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxelforge_mesh_quads_total",
		Help: "Merged quads emitted by the greedy mesher.",
	})
)
