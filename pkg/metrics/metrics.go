package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tileview_frames_rendered_total",
		Help: "Total number of frames computed by the tile cache",
	})

	TileFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tileview_tile_fetches_total",
		Help: "Total number of tile fetches started",
	})

	TileFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tileview_tile_failures_total",
		Help: "Total number of tiles marked unavailable",
	}, []string{"kind"})

	TileCancellations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tileview_tile_cancellations_total",
		Help: "Total number of in-flight tiles dropped because they were evicted",
	})

	TileEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tileview_tile_evictions_total",
		Help: "Total number of evicted cache entries",
	}, []string{"state"})

	TileEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tileview_tile_entries",
		Help: "Number of cache entries per state",
	}, []string{"state"})

	FetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tileview_fetch_latency_seconds",
		Help:    "Latency of upstream tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	})

	DecodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tileview_decode_duration_seconds",
		Help:    "Duration of tile decodes on the worker pool in seconds",
		Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	BusyWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tileview_busy_workers",
		Help: "Number of decode workers currently running a task",
	})

	StoreHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tileview_store_hits_total",
		Help: "Total number of byte store hits",
	})

	StoreMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tileview_store_misses_total",
		Help: "Total number of byte store misses",
	})

	StoreStores = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tileview_store_stores_total",
		Help: "Total number of byte store write operations",
	})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tileview_store_errors_total",
		Help: "Total number of byte store errors",
	}, []string{"operation"})
)
