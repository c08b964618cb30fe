package metric

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/tsqr-go/internal/core/domain"
	"github.com/yndnr/tsqr-go/internal/qrdecode"
)

const namespace = "tsqr"

// Registry holds all application metrics on a private prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	Verifications   *prometheus.CounterVec
	DecodeVariants  *prometheus.CounterVec
	DecodeDuration  prometheus.Histogram
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Token verifications by outcome reason.",
		}, []string{"reason"}),
		DecodeVariants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decode",
			Name:      "variants_total",
			Help:      "Detector runs by pipeline stage and result.",
		}, []string{"stage", "result"}),
		DecodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "decode",
			Name:      "duration_seconds",
			Help:      "Time spent extracting candidates from one image.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(r.Verifications, r.DecodeVariants, r.DecodeDuration, r.RequestsTotal, r.RequestDuration)

	// Pre-create every reason so dashboards see zeros instead of gaps.
	for _, reason := range domain.Reasons {
		r.Verifications.WithLabelValues(reason.String())
	}
	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() { global = NewRegistry() })
	return global
}

// ObserveVerdict counts one verification outcome.
func (r *Registry) ObserveVerdict(reason domain.Reason) {
	r.Verifications.WithLabelValues(reason.String()).Inc()
}

// ObserveDecodeStage counts one detector run.
func (r *Registry) ObserveDecodeStage(stage qrdecode.Stage, _ string, found int) {
	result := "miss"
	if found > 0 {
		result = "hit"
	}
	r.DecodeVariants.WithLabelValues(string(stage), result).Inc()
}

// ObserveDecode records the duration of one candidate extraction.
func (r *Registry) ObserveDecode(d time.Duration) {
	r.DecodeDuration.Observe(d.Seconds())
}

// ObserveRequest records one served HTTP request.
func (r *Registry) ObserveRequest(method, route string, code int, d time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// MustRegister adds extra collectors to the registry.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// Handler serves the registry in Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
