// Package tracing provides OpenTelemetry-based tracing infrastructure for
// probe runs. It supports stdout and OTLP exporters and provides
// domain-specific span helpers for run and step execution.
package tracing

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// TracerName is the name used for the ctxprobe tracer.
	TracerName = "github.com/jbctechsolutions/ctxprobe"

	// Version is the semantic version of the tracer.
	Version = "1.0.0"
)

// ExporterType defines the type of trace exporter.
type ExporterType string

const (
	ExporterNone   ExporterType = "none"
	ExporterStdout ExporterType = "stdout"
	ExporterOTLP   ExporterType = "otlp"
)

// Config holds tracing configuration.
type Config struct {
	Enabled      bool         // Whether tracing is enabled
	ExporterType ExporterType // Type of exporter to use
	OTLPEndpoint string       // OTLP collector endpoint (for OTLP exporter)
	ServiceName  string       // Service name for traces
	Environment  string       // Deployment environment (development, production)
	SampleRate   float64      // Sampling rate (0.0 to 1.0)
	Output       io.Writer    // Output for stdout exporter (defaults to os.Stdout)
}

// DefaultConfig returns sensible default tracing configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		ExporterType: ExporterNone,
		ServiceName:  "ctxprobe",
		Environment:  "development",
		SampleRate:   1.0,
	}
}

// Tracer wraps an OpenTelemetry tracer with domain-specific functionality.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	config   Config
}

// Noop returns a tracer that records nothing. Useful as a default when
// tracing is not configured.
func Noop() *Tracer {
	return &Tracer{
		tracer: noop.NewTracerProvider().Tracer(TracerName),
		config: DefaultConfig(),
	}
}

// New creates a new Tracer with the provided configuration.
func New(ctx context.Context, cfg Config) (*Tracer, error) {
	if !cfg.Enabled || cfg.ExporterType == ExporterNone {
		return &Tracer{
			tracer: noop.NewTracerProvider().Tracer(TracerName),
			config: cfg,
		}, nil
	}

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	// Create resource without merging with Default() to avoid schema URL conflicts.
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(Version),
			attribute.String("deployment.environment", cfg.Environment),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.SampleRate <= 0.0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(provider)

	return &Tracer{
		tracer:   provider.Tracer(TracerName, trace.WithInstrumentationVersion(Version)),
		provider: provider,
		config:   cfg,
	}, nil
}

// createExporter creates the appropriate exporter based on configuration.
func createExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		opts := []stdouttrace.Option{
			stdouttrace.WithPrettyPrint(),
		}
		if cfg.Output != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Output))
		}
		return stdouttrace.New(opts...)

	case ExporterOTLP:
		opts := []otlptracehttp.Option{
			otlptracehttp.WithInsecure(),
		}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		return otlptracehttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.ExporterType)
	}
}

// Shutdown gracefully shuts down the tracer provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// Start starts a new span with the given name.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// SpanFromContext returns the current span from context.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// --- Domain-specific span helpers ---

// RunSpan represents a probe run span.
type RunSpan struct {
	span trace.Span
	ctx  context.Context
}

// StartRunSpan starts a span for a probe run.
func (t *Tracer) StartRunSpan(ctx context.Context, runID, modelID, strategy string) (context.Context, *RunSpan) {
	ctx, span := t.tracer.Start(ctx, "probe.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("probe.run_id", runID),
			attribute.String("probe.model", modelID),
			attribute.String("probe.strategy", strategy),
		),
	)

	return ctx, &RunSpan{span: span, ctx: ctx}
}

// SetBoundary sets the discovered boundary on the run span.
func (rs *RunSpan) SetBoundary(boundary int) {
	rs.span.SetAttributes(attribute.Int("probe.boundary", boundary))
}

// SetStepCount sets the executed step count.
func (rs *RunSpan) SetStepCount(count int) {
	rs.span.SetAttributes(attribute.Int("probe.steps", count))
}

// SetCost sets the total cost of the run.
func (rs *RunSpan) SetCost(cost float64) {
	rs.span.SetAttributes(attribute.Float64("probe.cost_usd", cost))
}

// End ends the run span with success status.
func (rs *RunSpan) End() {
	rs.span.SetStatus(codes.Ok, "probe run completed")
	rs.span.End()
}

// EndWithError ends the run span with error status.
func (rs *RunSpan) EndWithError(err error) {
	rs.span.RecordError(err)
	rs.span.SetStatus(codes.Error, err.Error())
	rs.span.End()
}

// StepSpan represents a probe step span.
type StepSpan struct {
	span trace.Span
	ctx  context.Context
}

// StartStepSpan starts a span for a single probe step.
func (t *Tracer) StartStepSpan(ctx context.Context, targetTokens int) (context.Context, *StepSpan) {
	ctx, span := t.tracer.Start(ctx, "probe.step",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int("step.target_tokens", targetTokens),
		),
	)

	return ctx, &StepSpan{span: span, ctx: ctx}
}

// SetOutcome records the step outcome and measured sizes.
func (ss *StepSpan) SetOutcome(outcome string, inputTokens, outputTokens int, latency time.Duration) {
	ss.span.SetAttributes(
		attribute.String("step.outcome", outcome),
		attribute.Int("step.tokens.input", inputTokens),
		attribute.Int("step.tokens.output", outputTokens),
		attribute.Int64("step.latency_ms", latency.Milliseconds()),
	)
}

// End ends the step span.
func (ss *StepSpan) End() {
	ss.span.SetStatus(codes.Ok, "step completed")
	ss.span.End()
}

// EndWithError ends the step span with error status.
func (ss *StepSpan) EndWithError(err error) {
	ss.span.RecordError(err)
	ss.span.SetStatus(codes.Error, err.Error())
	ss.span.End()
}
