package tracer

import (
	"context"
	"sync"

	"github.com/astro-web3/dashboard-gate/pkg/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	defaultTracer trace.Tracer = noop.NewTracerProvider().Tracer("noop")
	initOnce      sync.Once
	errInit       error
)

// InitTracer installs the process-wide tracer. Until it succeeds, Start
// returns non-recording spans.
func InitTracer(cfg otel.Config) error {
	initOnce.Do(func() {
		t, err := otel.InitTracer(cfg)
		if err != nil {
			errInit = err
			return
		}

		defaultTracer = t
	})

	return errInit
}

func Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return defaultTracer.Start(ctx, spanName, opts...)
}
