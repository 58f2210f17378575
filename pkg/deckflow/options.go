package deckflow

import (
	"log/slog"

	"github.com/randalmurphal/deckflow/pkg/deckflow/observability"
)

// runConfig holds configuration for pipeline execution.
type runConfig struct {
	maxIterations  int
	pipelineName   string
	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool
}

// defaultRunConfig returns the default execution configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		maxIterations: 150,
		pipelineName:  "deckflow",
		metrics:       observability.NoopMetrics{},
		spans:         observability.NoopSpanManager{},
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxIterations sets the maximum number of stage executions.
// Default: 150
//
// This prevents infinite loops from hanging forever. If a run
// exceeds this limit, Run returns a MaxIterationsError.
func WithMaxIterations(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithPipelineName sets the name used in run-level logs and spans.
func WithPipelineName(name string) RunOption {
	return func(c *runConfig) {
		if name != "" {
			c.pipelineName = name
		}
	}
}

// WithRunLogger sets the logger for run-level and stage-level logging.
func WithRunLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder for the run.
func WithMetrics(m observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables span creation via the given span manager.
func WithTracing(spans observability.SpanManager) RunOption {
	return func(c *runConfig) {
		if spans != nil {
			c.spans = spans
			c.tracingEnabled = true
		}
	}
}
