package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder on a Prometheus registry.
type PrometheusRecorder struct {
	pagesBuilt  prometheus.Counter
	diagnostics *prometheus.CounterVec
	assetEvents prometheus.Counter
	buildTime   prometheus.Histogram
}

// NewPrometheusRecorder creates and registers the pipeline's collectors.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		pagesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docforge_pages_built_total",
			Help: "Pages built, including incremental rebuilds.",
		}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docforge_diagnostics_total",
			Help: "Diagnostics reported, by severity.",
		}, []string{"severity"}),
		assetEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docforge_asset_events_total",
			Help: "Filesystem change events on watched static assets.",
		}),
		buildTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docforge_build_duration_seconds",
			Help:    "Full build wall time.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(r.pagesBuilt, r.diagnostics, r.assetEvents, r.buildTime)
	return r
}

func (r *PrometheusRecorder) PageBuilt() { r.pagesBuilt.Inc() }

func (r *PrometheusRecorder) DiagnosticsReported(severity string, count int) {
	r.diagnostics.WithLabelValues(severity).Add(float64(count))
}

func (r *PrometheusRecorder) AssetEvent() { r.assetEvents.Inc() }

func (r *PrometheusRecorder) BuildCompleted(seconds float64) { r.buildTime.Observe(seconds) }
