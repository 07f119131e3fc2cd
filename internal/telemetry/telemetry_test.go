package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitTracerWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracer("autoapprove-test", &buf)
	if err != nil {
		t.Fatalf("init tracer: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "telegram.sendMessage")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "telegram.sendMessage") {
		t.Errorf("span not exported: %s", buf.String())
	}
}

func TestInitSentryDisabled(t *testing.T) {
	flush, err := InitSentry("", "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flush()
}

func TestInitSentryBadDSN(t *testing.T) {
	if _, err := InitSentry("not a dsn", "test"); err == nil {
		t.Error("expected error for invalid DSN")
	}
}
