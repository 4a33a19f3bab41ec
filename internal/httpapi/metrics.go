package httpapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/maprender/maprender/internal/registry"
)

var (
	tileRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maprender_tile_requests_total",
			Help: "Tile requests by HTTP status code.",
		},
		[]string{"status"},
	)
	tileRenderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maprender_tile_render_seconds",
			Help:    "Time spent reading, styling, and encoding one tile.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

var metricsOnce sync.Once

// registerMetrics exposes the registry size, per-status tile request count,
// and tile render duration as Prometheus collectors (SPEC_FULL.md §6.1's
// ambient observability additions). The registry size gauge samples live
// state on every scrape, grounded on qrank-webserver's NewGaugeFunc pattern;
// the counter/histogram pair is updated per request by recordTileMetrics.
// Guarded by sync.Once since the default registry is process-global and
// NewRouter may be constructed more than once in tests.
func registerMetrics(reg *registry.Registry) {
	metricsOnce.Do(func() {
		prometheus.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "maprender_registered_maps",
				Help: "Number of maps currently registered.",
			},
			func() float64 { return float64(reg.Len()) },
		))
		prometheus.MustRegister(tileRequestsTotal, tileRenderDuration)
	})
}

// statusRecorder captures the status code an http.ResponseWriter was
// eventually written with, so tile metrics can be recorded after the
// handler runs without changing its control flow.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// recordTileMetrics times fn and records its outcome against
// tileRequestsTotal/tileRenderDuration.
func recordTileMetrics(w http.ResponseWriter, fn func(http.ResponseWriter)) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	fn(rec)
	tileRenderDuration.Observe(time.Since(start).Seconds())
	tileRequestsTotal.WithLabelValues(strconv.Itoa(rec.status)).Inc()
}
