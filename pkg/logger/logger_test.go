package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/astro-web3/dashboard-gate/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

func TestNew_JSONRenamesTimeKey(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, "info", "json", false)

	log.Info("hello")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if _, ok := record["timestamp"]; !ok {
		t.Errorf("expected timestamp key, got %v", record)
	}
	if _, ok := record["time"]; ok {
		t.Errorf("unexpected time key, got %v", record)
	}
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, "warn", "text", false)

	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info record should be filtered, got %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn record missing, got %q", out)
	}
}

func TestNew_AddsTraceContext(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, "info", "json", false).With("component", "test")

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	log.InfoContext(ctx, "traced")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if record["trace_id"] != traceID.String() {
		t.Errorf("trace_id = %v, want %s", record["trace_id"], traceID)
	}
	if record["trace_sampled"] != true {
		t.Errorf("trace_sampled = %v, want true", record["trace_sampled"])
	}
	if record["component"] != "test" {
		t.Errorf("component = %v, want test", record["component"])
	}
}

func TestLogger_FallsBackToDefault(t *testing.T) {
	if logger.Logger() == nil {
		t.Fatal("Logger() must never be nil")
	}
}
