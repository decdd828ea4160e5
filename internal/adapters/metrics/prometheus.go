// Package metrics records scoring and serving observations as Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/baditaflorin/go_typing_similarity/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const namespace = "typingsim"

// Recorder implements ports.MetricsRecorder on a private registry.
type Recorder struct {
	registry   *prometheus.Registry
	decisions  *prometheus.CounterVec
	similarity prometheus.Histogram
	breaches   prometheus.Counter
	requests   *prometheus.HistogramVec
}

// NewRecorder creates a recorder and registers its collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Authenticity decisions by outcome and score source.",
		}, []string{"outcome", "source"}),
		similarity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "similarity_score",
			Help:      "Scores of decisions that passed the length gate.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		breaches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "security_breaches_total",
			Help:      "Attempts that exhausted the failed-attempt limit.",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by path and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "status"}),
	}

	r.registry.MustRegister(r.decisions, r.similarity, r.breaches, r.requests)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveDecision counts a decision and records its score.
func (r *Recorder) ObserveDecision(d domain.Decision) {
	r.decisions.WithLabelValues(d.Outcome.String(), string(d.Source)).Inc()
	if !d.Insufficient() {
		r.similarity.Observe(d.Score)
	}
}

// ObserveBreach counts a security breach.
func (r *Recorder) ObserveBreach() {
	r.breaches.Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (r *Recorder) ObserveRequest(path string, status int, duration time.Duration) {
	r.requests.WithLabelValues(path, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
}
