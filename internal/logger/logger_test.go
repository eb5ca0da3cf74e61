package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestWithContext_CorrelationID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "info", &buf)

	ctx := WithCorrelationID(context.Background(), "req-42")
	WithContext(ctx, l).Info("hello")

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if got := out["correlation_id"]; got != "req-42" {
		t.Errorf("correlation_id = %v, want %q", got, "req-42")
	}
	if got := out["service"]; got != "test" {
		t.Errorf("service = %v, want %q", got, "test")
	}
}

func TestFromContext_Default(t *testing.T) {
	if got := FromContext(context.Background()); got != slog.Default() {
		t.Error("expected slog.Default() for empty context")
	}
}

func TestFromContext_Stored(t *testing.T) {
	l := NewWithWriter("test", "debug", &bytes.Buffer{})
	ctx := NewContext(context.Background(), l)
	if got := FromContext(ctx); got != l {
		t.Error("expected stored logger")
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "warn", &buf)

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info line should be filtered at warn level, got %q", buf.String())
	}

	l.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn line should be written")
	}
}
