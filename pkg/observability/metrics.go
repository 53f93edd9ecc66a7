package observability

import (
	"net/http"
	"strconv"

	"workspacediff/domain/selection"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Selection metrics
	MarkChanges  *prometheus.CounterVec
	CascadeSizes *prometheus.HistogramVec

	// Submission metrics
	Submissions        *prometheus.CounterVec
	SubmissionSize     *prometheus.HistogramVec
	SubmissionDuration *prometheus.HistogramVec

	// Session metrics
	SessionLoads prometheus.Counter
	DiffsLoaded  prometheus.Histogram
	DiffsSkipped prometheus.Counter
	LoadDuration prometheus.Histogram
}

// NewCollector creates a metrics collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		MarkChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mark_changes_total",
				Help:      "Total number of diff mark transitions",
			},
			[]string{"action", "state"},
		),
		CascadeSizes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cascade_changes",
				Help:      "Number of mark transitions applied by one toggle",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
			},
			[]string{"action"},
		),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Total number of publish and undo submissions",
			},
			[]string{"action", "outcome"},
		),
		SubmissionSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "submission_instructions",
				Help:      "Number of instructions per submission",
				Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000},
			},
			[]string{"action"},
		),
		SubmissionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "submission_duration_seconds",
				Help:      "Submission round trip in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		SessionLoads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_loads_total",
				Help:      "Total number of workspace diff loads",
			},
		),
		DiffsLoaded: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "session_diffs",
				Help:      "Number of diffs per loaded workspace",
				Buckets:   []float64{0, 10, 50, 100, 500, 1000, 5000},
			},
		),
		DiffsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diffs_skipped_total",
				Help:      "Total number of diff items that could not be classified",
			},
		),
		LoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "session_load_duration_seconds",
				Help:      "Workspace diff load duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.MarkChanges,
		c.CascadeSizes,
		c.Submissions,
		c.SubmissionSize,
		c.SubmissionDuration,
		c.SessionLoads,
		c.DiffsLoaded,
		c.DiffsSkipped,
		c.LoadDuration,
	)

	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, seconds float64) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}

// MarkChanged implements selection.Recorder
func (c *Collector) MarkChanged(action selection.Action, state bool) {
	c.MarkChanges.WithLabelValues(action.String(), strconv.FormatBool(state)).Inc()
}

// CascadeApplied implements selection.Recorder
func (c *Collector) CascadeApplied(action selection.Action, changes int) {
	c.CascadeSizes.WithLabelValues(action.String()).Observe(float64(changes))
}

// SubmissionCompleted records a finished submission
func (c *Collector) SubmissionCompleted(action string, instructions int, outcome string, seconds float64) {
	c.Submissions.WithLabelValues(action, outcome).Inc()
	c.SubmissionSize.WithLabelValues(action).Observe(float64(instructions))
	c.SubmissionDuration.WithLabelValues(action).Observe(seconds)
}

// SessionLoaded records a workspace diff load
func (c *Collector) SessionLoaded(diffs, skipped int, seconds float64) {
	c.SessionLoads.Inc()
	c.DiffsLoaded.Observe(float64(diffs))
	c.DiffsSkipped.Add(float64(skipped))
	c.LoadDuration.Observe(seconds)
}
