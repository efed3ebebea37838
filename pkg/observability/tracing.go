// Package observability provides OpenTelemetry tracing for DAP2 transfers.
//
// Tracing is off until Init installs a tracer provider. Until then spans
// come from the global no-op provider and cost almost nothing, so the
// codec paths start spans unconditionally.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ajitpratap0/dap2/pkg/daperrors"
)

const instrumentationName = "github.com/ajitpratap0/dap2"

// Config configures tracing.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// SamplingRate is the fraction of traces kept, 0.0 to 1.0
	SamplingRate float64
	// Writer receives exported spans; nil means stderr
	Writer      io.Writer
	PrettyPrint bool
}

var (
	mu       sync.Mutex
	provider *sdktrace.TracerProvider
)

// Init installs a tracer provider exporting to cfg.Writer. Calling Init
// again replaces the previous provider after flushing it.
func Init(cfg Config) error {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	return install(sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SamplingRate)),
		sdktrace.WithBatcher(exporter),
	))
}

// InitWithProcessor installs a provider that hands every span to p. It is
// used to collect spans in memory.
func InitWithProcessor(p sdktrace.SpanProcessor) error {
	return install(sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(p),
	))
}

func install(tp *sdktrace.TracerProvider) error {
	mu.Lock()
	old := provider
	provider = tp
	mu.Unlock()

	otel.SetTracerProvider(tp)
	if old != nil {
		return old.Shutdown(context.Background())
	}
	return nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate <= 0:
		return sdktrace.NeverSample()
	case rate >= 1:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// Shutdown flushes pending spans and removes the provider installed by
// Init. It is a no-op when tracing was never initialized.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	tp := provider
	provider = nil
	mu.Unlock()

	if tp == nil {
		return nil
	}
	otel.SetTracerProvider(noop.NewTracerProvider())
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer: %w", err)
	}
	return nil
}

// Tracer returns the tracer for dap2 spans.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Span wraps an OpenTelemetry span with attribute batching.
type Span struct {
	span       trace.Span
	startTime  time.Time
	attributes []attribute.KeyValue
	once       sync.Once
}

// StartSpan starts a span named name as a child of any span in ctx.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Span) {
	ctx, span := Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, &Span{span: span, startTime: time.Now()}
}

// SetAttribute adds an attribute to the span. Attributes are sent when the
// span ends.
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// AddEvent adds an event to the span
func (s *Span) AddEvent(name string, attrs ...attribute.KeyValue) {
	s.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SpanContext returns the span's identity.
func (s *Span) SpanContext() trace.SpanContext { return s.span.SpanContext() }

// End records the outcome and ends the span. A non-nil err marks the span
// failed and tags it with its DAP2 error code. Only the first call has an
// effect.
func (s *Span) End(err error) time.Duration {
	elapsed := time.Since(s.startTime)
	s.once.Do(func() {
		if err != nil {
			s.attributes = append(s.attributes,
				attribute.String("dap2.error_code", daperrors.CodeOf(err).String()))
			s.span.RecordError(err)
			s.span.SetStatus(codes.Error, err.Error())
		} else {
			s.span.SetStatus(codes.Ok, "")
		}
		if len(s.attributes) > 0 {
			s.span.SetAttributes(s.attributes...)
		}
		s.span.End()
	})
	return elapsed
}
