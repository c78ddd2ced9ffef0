package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder captures generation metrics per vendor.
type Recorder interface {
	IncSubmitted(vendor string)
	IncCompleted(vendor, status string)
	AddChunks(vendor string, n int)
	ObserveDuration(vendor string, seconds float64)
}

const (
	StatusOK          = "ok"
	StatusFailed      = "failed"
	StatusRejected    = "rejected"
	StatusUnavailable = "unavailable"
)

// Noop implements Recorder without emitting anything.
type Noop struct{}

func (Noop) IncSubmitted(string)            {}
func (Noop) IncCompleted(string, string)    {}
func (Noop) AddChunks(string, int)          {}
func (Noop) ObserveDuration(string, float64) {}

// Prom implements Recorder backed by Prometheus collectors.
type Prom struct {
	submitted *prometheus.CounterVec
	completed *prometheus.CounterVec
	chunks    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	gatherer  prometheus.Gatherer
}

// NewProm registers the collectors on reg. A nil reg gets a fresh registry,
// which keeps tests from colliding on the default one.
func NewProm(namespace string, reg *prometheus.Registry) (*Prom, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	p := &Prom{
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_submitted_total",
			Help:      "Prompts submitted for generation by vendor",
		}, []string{"vendor"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_completed_total",
			Help:      "Generations finished by vendor and status",
		}, []string{"vendor", "status"}),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_chunks_total",
			Help:      "Streamed chunks applied to the response by vendor",
		}, []string{"vendor"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time from submit to completion or failure",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"vendor"}),
		gatherer: reg,
	}
	for _, c := range []prometheus.Collector{p.submitted, p.completed, p.chunks, p.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prom) IncSubmitted(vendor string) {
	p.submitted.WithLabelValues(vendor).Inc()
}

func (p *Prom) IncCompleted(vendor, status string) {
	p.completed.WithLabelValues(vendor, status).Inc()
}

func (p *Prom) AddChunks(vendor string, n int) {
	if n <= 0 {
		return
	}
	p.chunks.WithLabelValues(vendor).Add(float64(n))
}

func (p *Prom) ObserveDuration(vendor string, seconds float64) {
	p.duration.WithLabelValues(vendor).Observe(seconds)
}

// Handler exposes the registry the collectors were registered on.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}
