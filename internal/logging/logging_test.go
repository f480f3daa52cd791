package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestContextWithLogger(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := ContextWithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected logger from context")
	}
	if FromContext(context.Background()) != nil {
		t.Fatal("expected nil logger for bare context")
	}
	if ContextWithLogger(context.Background(), nil) != context.Background() {
		t.Fatal("nil logger should leave the context unchanged")
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	fromCtx := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	fallback := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	if Default(ContextWithLogger(context.Background(), fromCtx), fallback) != fromCtx {
		t.Fatal("context logger should win")
	}
	if Default(context.Background(), fallback) != fallback {
		t.Fatal("fallback should be used without a context logger")
	}
	if Default(context.Background(), nil) != slog.Default() {
		t.Fatal("expected slog.Default")
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)
	logger.Info("hidden")
	logger.Warn("shown", "login", "engineer001")

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "shown" || record["login"] != "engineer001" {
		t.Fatalf("unexpected record %v", record)
	}
}
