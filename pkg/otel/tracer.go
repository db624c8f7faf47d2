package otel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var ErrUnsupportedEndpoint = errors.New("unsupported tracing endpoint")

type transport int

const (
	transportGRPC transport = iota
	transportHTTP
)

var (
	mu       sync.Mutex
	provider *sdktrace.TracerProvider
)

// InitTracer registers the global tracer provider and W3C propagators and
// returns a tracer named after the service. An inactive config installs a
// no-op provider. Calling it again replaces, and shuts down, the previous
// exporting provider.
func InitTracer(cfg Config) (trace.Tracer, error) {
	mu.Lock()
	defer mu.Unlock()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Active() {
		noopProvider := noop.NewTracerProvider()
		otel.SetTracerProvider(noopProvider)
		return noopProvider.Tracer(cfg.ServiceName), nil
	}

	ctx := context.Background()
	next, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if provider != nil {
		_ = provider.Shutdown(ctx)
	}
	provider = next
	otel.SetTracerProvider(next)

	return next.Tracer(cfg.ServiceName), nil
}

func newProvider(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(cfg.toResourceAttributes()...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(samplerFor(cfg.SampleRatio))),
	), nil
}

func samplerFor(ratio float64) sdktrace.Sampler {
	if ratio <= 0 {
		return sdktrace.NeverSample()
	}
	if ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.TraceIDRatioBased(ratio)
}

// parseEndpoint maps grpc://host:port to an OTLP/gRPC target and http(s)://
// URLs to OTLP/HTTP. Anything else is rejected.
func parseEndpoint(raw string) (transport, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %w", ErrUnsupportedEndpoint, err)
	}

	switch u.Scheme {
	case "grpc":
		if u.Host == "" {
			return 0, "", fmt.Errorf("%w: %q has no host", ErrUnsupportedEndpoint, raw)
		}
		return transportGRPC, u.Host, nil
	case "http", "https":
		return transportHTTP, raw, nil
	default:
		return 0, "", fmt.Errorf("%w: %q", ErrUnsupportedEndpoint, raw)
	}
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	kind, target, err := parseEndpoint(cfg.EndpointURL)
	if err != nil {
		return nil, err
	}

	var exporter sdktrace.SpanExporter
	if kind == transportGRPC {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(target)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	} else {
		// The URL scheme already decides TLS for OTLP/HTTP.
		exporter, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(target))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create span exporter for %s: %w", cfg.EndpointURL, err)
	}

	return exporter, nil
}

// Shutdown flushes pending spans. It is a no-op when nothing is exporting.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	provider = nil
	if err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	return nil
}
