package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the pipeline
type Metrics struct {
	PipelineRuns     *prometheus.CounterVec
	PipelineDuration *prometheus.HistogramVec
	StageExecutions  *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	RetryAttempts    *prometheus.CounterVec
	ErrorsTotal      *prometheus.CounterVec

	registry *prometheus.Registry
}

// Config holds metrics configuration
type Config struct {
	Namespace string `json:"namespace"`
	Enabled   bool   `json:"enabled"`
}

// DefaultConfig returns default metrics configuration
func DefaultConfig() *Config {
	return &Config{
		Namespace: "pressbot",
		Enabled:   true,
	}
}

// NewMetrics creates and registers all Prometheus metrics on a dedicated
// registry
func NewMetrics(config *Config) *Metrics {
	if config == nil {
		config = DefaultConfig()
	}

	if !config.Enabled {
		return &Metrics{}
	}

	m := &Metrics{
		PipelineRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "pipeline_runs_total",
				Help:      "Total number of pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		PipelineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Name:      "pipeline_duration_seconds",
				Help:      "Pipeline run duration in seconds",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"outcome"},
		),
		StageExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "stage_executions_total",
				Help:      "Total number of stage executions by stage and status",
			},
			[]string{"stage", "status"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Name:      "stage_duration_seconds",
				Help:      "Stage execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		RetryAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "retry_attempts_total",
				Help:      "Total number of retry attempts by operation",
			},
			[]string{"operation"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Name:      "errors_total",
				Help:      "Total number of errors by category and severity",
			},
			[]string{"category", "severity"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.PipelineRuns,
		m.PipelineDuration,
		m.StageExecutions,
		m.StageDuration,
		m.RetryAttempts,
		m.ErrorsTotal,
	)

	return m
}

// RecordPipelineRun records a completed pipeline run
func (m *Metrics) RecordPipelineRun(outcome string, duration time.Duration) {
	if m.PipelineRuns == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(outcome).Inc()
	m.PipelineDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordStage records a stage execution
func (m *Metrics) RecordStage(stage, status string, duration time.Duration) {
	if m.StageExecutions == nil {
		return
	}
	m.StageExecutions.WithLabelValues(stage, status).Inc()
	if status != "skipped" {
		m.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	}
}

// RecordRetry records a retry attempt for an operation
func (m *Metrics) RecordRetry(operation string) {
	if m.RetryAttempts == nil {
		return
	}
	m.RetryAttempts.WithLabelValues(operation).Inc()
}

// RecordError records an error by category and severity
func (m *Metrics) RecordError(category, severity string) {
	if m.ErrorsTotal == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(category, severity).Inc()
}

// Handler returns a gin handler serving the metrics endpoint
func (m *Metrics) Handler() gin.HandlerFunc {
	if m.registry == nil {
		return func(c *gin.Context) { c.Status(204) }
	}
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
