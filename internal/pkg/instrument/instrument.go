// Package instrument sets up OpenTelemetry tracing, metrics and log export,
// and installs the process-wide slog logger.
package instrument

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Instrumentation hands out tracers and meters.
type Instrumentation interface {
	Tracer(name string) trace.Tracer
	Meter(name string) metric.Meter
	Shutdown(ctx context.Context) error
}

type Config struct {
	// Enabled turns on OTLP export. Logging to stdout is always configured.
	Enabled          bool
	ServiceName      string
	ServiceVersion   string
	Environment      string
	OTLPEndpoint     string
	OTLPSecure       bool
	TraceSampleRatio float64
	MetricsInterval  time.Duration
	LogLevel         string
	// MaskFields are attribute and JSON keys whose values are replaced by "***".
	MaskFields []string
}

type otelInstrumentation struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
	lp *sdklog.LoggerProvider
}

// New installs the default logger and, when enabled, OTLP exporters. A
// disabled config yields a no-op Instrumentation.
func New(ctx context.Context, cfg Config) (Instrumentation, error) {
	if !cfg.Enabled {
		SetupLogging(LogOptions{Service: cfg.ServiceName, Level: cfg.LogLevel, MaskFields: cfg.MaskFields})
		return NewNoop(), nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	))
	if err != nil {
		return nil, err
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if !cfg.OTLPSecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		logOpts = append(logOpts, otlploggrpc.WithInsecure())
	}

	traceExp, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, err
	}
	metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return nil, err
	}
	logExp, err := otlploggrpc.New(ctx, logOpts...)
	if err != nil {
		return nil, err
	}

	interval := cfg.MetricsInterval
	if interval <= 0 {
		interval = time.Minute
	}

	o := &otelInstrumentation{
		tp: sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(cfg.TraceSampleRatio)))),
			sdktrace.WithBatcher(traceExp),
		),
		mp: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(interval))),
		),
		lp: sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		),
	}

	SetupLogging(LogOptions{
		Service:    cfg.ServiceName,
		Level:      cfg.LogLevel,
		MaskFields: cfg.MaskFields,
		Provider:   o.lp,
	})

	return o, nil
}

func clampRatio(r float64) float64 {
	return min(max(r, 0), 1)
}

func (o *otelInstrumentation) Tracer(name string) trace.Tracer { return o.tp.Tracer(name) }
func (o *otelInstrumentation) Meter(name string) metric.Meter  { return o.mp.Meter(name) }

// Shutdown flushes pending spans, metrics and logs.
func (o *otelInstrumentation) Shutdown(ctx context.Context) error {
	return errors.Join(
		o.tp.Shutdown(ctx),
		o.mp.Shutdown(ctx),
		o.lp.Shutdown(ctx),
	)
}

type noopInstrumentation struct {
	tp trace.TracerProvider
	mp metric.MeterProvider
}

// NewNoop returns an Instrumentation that records nothing.
func NewNoop() Instrumentation {
	return &noopInstrumentation{
		tp: tracenoop.NewTracerProvider(),
		mp: metricnoop.NewMeterProvider(),
	}
}

func (n *noopInstrumentation) Tracer(name string) trace.Tracer { return n.tp.Tracer(name) }
func (n *noopInstrumentation) Meter(name string) metric.Meter  { return n.mp.Meter(name) }
func (*noopInstrumentation) Shutdown(context.Context) error    { return nil }
