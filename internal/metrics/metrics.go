package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes admin operation metrics on its own registry.
type Recorder struct {
	registry   *prom.Registry
	operations *prom.CounterVec
	duration   *prom.HistogramVec
	photos     *prom.CounterVec
}

// NewRecorder constructs and registers the gallery metrics. A nil registry gets a fresh one.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		registry: reg,
		operations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gallerist",
			Name:      "operations_total",
			Help:      "Admin operations by name and outcome",
		}, []string{"op", "status"}),
		duration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "gallerist",
			Name:      "operation_duration_seconds",
			Help:      "Duration of admin operations",
			Buckets:   prom.DefBuckets,
		}, []string{"op"}),
		photos: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gallerist",
			Name:      "photos_processed_total",
			Help:      "Photos normalized or rotated, by result",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(r.operations, r.duration, r.photos,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return r
}

// ObserveOperation records one finished operation.
func (r *Recorder) ObserveOperation(op, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(op, status).Inc()
	r.duration.WithLabelValues(op).Observe(d.Seconds())
}

// IncPhoto counts one processed photo. kind is "upload" or "rotate".
func (r *Recorder) IncPhoto(kind string, success bool) {
	if r == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	r.photos.WithLabelValues(kind, res).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
