// Package metrics provides Prometheus-based metrics recording for
// provider requests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records provider request outcomes.
type Recorder interface {
	ObserveRequest(model, jobID, status string, duration time.Duration)
	ObserveTokens(model, jobID string, promptTokens, completionTokens int)
}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	requestsTotal   *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

//nolint:gochecknoglobals // promauto registers collectors once per process.
var (
	defaultRecorder *PrometheusRecorder
)

// NewPrometheusRecorder returns the process-wide Prometheus recorder.
// Collectors are registered once; subsequent calls reuse them.
func NewPrometheusRecorder() *PrometheusRecorder {
	if defaultRecorder != nil {
		return defaultRecorder
	}
	defaultRecorder = &PrometheusRecorder{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of provider requests by model, job, and status",
			},
			[]string{"model", "job_id", "status"},
		),
		tokensTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total number of tokens used in provider requests",
			},
			[]string{"model", "job_id", "type"},
		),
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Duration of provider requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "job_id"},
		),
	}
	return defaultRecorder
}

// ObserveRequest records a completed provider request.
func (r *PrometheusRecorder) ObserveRequest(model, jobID, status string, duration time.Duration) {
	r.requestsTotal.WithLabelValues(model, jobID, status).Inc()
	r.requestDuration.WithLabelValues(model, jobID).Observe(duration.Seconds())
}

// ObserveTokens records token usage for a provider request.
func (r *PrometheusRecorder) ObserveTokens(model, jobID string, promptTokens, completionTokens int) {
	r.tokensTotal.WithLabelValues(model, jobID, "prompt").Add(float64(promptTokens))
	r.tokensTotal.WithLabelValues(model, jobID, "completion").Add(float64(completionTokens))
}

// NopRecorder discards all observations. Used in tests.
type NopRecorder struct{}

// ObserveRequest implements Recorder.
func (NopRecorder) ObserveRequest(string, string, string, time.Duration) {}

// ObserveTokens implements Recorder.
func (NopRecorder) ObserveTokens(string, string, int, int) {}
