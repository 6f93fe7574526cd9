package observability

import (
	"context"
	"log"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Observability struct {
	meterProvider   *metric.MeterProvider
	tracerProvider  *sdktrace.TracerProvider
	meter           otelmetric.Meter
	tracer          trace.Tracer
	requestCounter  otelmetric.Int64Counter
	requestDuration otelmetric.Float64Histogram
	stageCounter    otelmetric.Int64Counter
}

type settings struct {
	registerer    promclient.Registerer
	spanProcessor sdktrace.SpanProcessor
	setGlobal     bool
}

// Option configures New.
type Option func(*settings)

// WithRegisterer exports meter instruments to reg instead of the default registry.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(s *settings) { s.registerer = reg }
}

// WithSpanProcessor attaches sp to the tracer provider (tests pass a tracetest.SpanRecorder).
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(s *settings) { s.spanProcessor = sp }
}

// WithoutGlobal keeps the providers out of the otel globals.
func WithoutGlobal() Option {
	return func(s *settings) { s.setGlobal = false }
}

func New(serviceName string, opts ...Option) *Observability {
	s := settings{registerer: promclient.DefaultRegisterer, setGlobal: true}
	for _, opt := range opts {
		opt(&s)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if s.spanProcessor != nil {
		traceOpts = append(traceOpts, sdktrace.WithSpanProcessor(s.spanProcessor))
	}
	tracerProvider := sdktrace.NewTracerProvider(traceOpts...)
	if s.setGlobal {
		otel.SetTracerProvider(tracerProvider)
	}

	o := &Observability{
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(s.registerer))
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	if s.setGlobal {
		otel.SetMeterProvider(provider)
	}

	meter := provider.Meter(serviceName)

	requestCounter, _ := meter.Int64Counter(
		"asha.requests.processed",
		otelmetric.WithDescription("Number of pipeline requests processed"),
	)

	requestDuration, _ := meter.Float64Histogram(
		"asha.requests.duration",
		otelmetric.WithDescription("Pipeline request duration"),
		otelmetric.WithUnit("ms"),
	)

	stageCounter, _ := meter.Int64Counter(
		"asha.stages.reached",
		otelmetric.WithDescription("Number of times each pipeline stage was reached"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.requestCounter = requestCounter
	o.requestDuration = requestDuration
	o.stageCounter = stageCounter
	return o
}

// Tracer returns the service tracer, or a no-op tracer on a nil receiver.
func (o *Observability) Tracer() trace.Tracer {
	if o == nil || o.tracer == nil {
		return noop.NewTracerProvider().Tracer("")
	}
	return o.tracer
}

// StartSpan starts a span named name as a child of ctx.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return o.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordRequestProcessed(ctx context.Context, outcome, topic string) {
	if o != nil && o.requestCounter != nil {
		o.requestCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.String("topic", topic),
		))
	}
}

func (o *Observability) RecordRequestDuration(ctx context.Context, duration time.Duration, outcome string) {
	if o != nil && o.requestDuration != nil {
		o.requestDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) RecordStage(ctx context.Context, stage string) {
	if o != nil && o.stageCounter != nil {
		o.stageCounter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("stage", stage)))
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
