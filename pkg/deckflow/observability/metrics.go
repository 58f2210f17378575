package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records pipeline metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordStageExecution records a stage execution with its duration and error status.
	RecordStageExecution(ctx context.Context, stage string, duration time.Duration, err error)

	// RecordRun records a pipeline run completion.
	RecordRun(ctx context.Context, success bool, duration time.Duration)

	// RecordModelCall records a structured generation call, counting each
	// attempt made and the total latency including retries.
	RecordModelCall(ctx context.Context, attempts int, duration time.Duration, err error)

	// RecordImagesResolved records a batch of resolved image URLs.
	RecordImagesResolved(ctx context.Context, resolved, fallbacks int)

	// RecordSlidesCompiled records the size of a compiled document.
	RecordSlidesCompiled(ctx context.Context, count int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	stageExecutions metric.Int64Counter
	stageLatency    metric.Float64Histogram
	stageErrors     metric.Int64Counter
	runs            metric.Int64Counter
	runLatency      metric.Float64Histogram
	llmCalls        metric.Int64Counter
	llmLatency      metric.Float64Histogram
	imagesResolved  metric.Int64Counter
	imageFallbacks  metric.Int64Counter
	slidesCompiled  metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("deckflow")

	stageExecutions, err := meter.Int64Counter("deckflow.stage.executions",
		metric.WithDescription("Number of stage executions"),
	)
	if err != nil {
		return nil, err
	}

	stageLatency, err := meter.Float64Histogram("deckflow.stage.latency_ms",
		metric.WithDescription("Stage execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	stageErrors, err := meter.Int64Counter("deckflow.stage.errors",
		metric.WithDescription("Number of stage execution errors"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter("deckflow.run.count",
		metric.WithDescription("Number of pipeline runs"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram("deckflow.run.latency_ms",
		metric.WithDescription("Pipeline run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	llmCalls, err := meter.Int64Counter("deckflow.llm.calls",
		metric.WithDescription("Number of model call attempts"),
	)
	if err != nil {
		return nil, err
	}

	llmLatency, err := meter.Float64Histogram("deckflow.llm.latency_ms",
		metric.WithDescription("Model call latency in milliseconds, including retries"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	imagesResolved, err := meter.Int64Counter("deckflow.images.resolved",
		metric.WithDescription("Number of image URLs resolved"),
	)
	if err != nil {
		return nil, err
	}

	imageFallbacks, err := meter.Int64Counter("deckflow.images.fallbacks",
		metric.WithDescription("Number of fallback image substitutions"),
	)
	if err != nil {
		return nil, err
	}

	slidesCompiled, err := meter.Int64Histogram("deckflow.document.slides",
		metric.WithDescription("Slides per compiled document"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		stageExecutions: stageExecutions,
		stageLatency:    stageLatency,
		stageErrors:     stageErrors,
		runs:            runs,
		runLatency:      runLatency,
		llmCalls:        llmCalls,
		llmLatency:      llmLatency,
		imagesResolved:  imagesResolved,
		imageFallbacks:  imageFallbacks,
		slidesCompiled:  slidesCompiled,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordStageExecution records a stage execution.
func (m *otelMetrics) RecordStageExecution(ctx context.Context, stage string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("stage", stage),
	}

	m.stageExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.stageLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.stageErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordRun records a pipeline run.
func (m *otelMetrics) RecordRun(ctx context.Context, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.runLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordModelCall records a structured generation call.
func (m *otelMetrics) RecordModelCall(ctx context.Context, attempts int, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", err == nil),
	}
	m.llmCalls.Add(ctx, int64(attempts), metric.WithAttributes(attrs...))
	m.llmLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordImagesResolved records a resolved image batch.
func (m *otelMetrics) RecordImagesResolved(ctx context.Context, resolved, fallbacks int) {
	m.imagesResolved.Add(ctx, int64(resolved))
	m.imageFallbacks.Add(ctx, int64(fallbacks))
}

// RecordSlidesCompiled records a compiled document size.
func (m *otelMetrics) RecordSlidesCompiled(ctx context.Context, count int) {
	m.slidesCompiled.Record(ctx, int64(count))
}
