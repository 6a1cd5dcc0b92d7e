package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := Default(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}
	if got := Default(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestComponentPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var base, scoped bytes.Buffer
	baseLogger := New(&base, "json", "info")
	ctx := ContextWithLogger(context.Background(), New(&scoped, "json", "info"))

	Component(ctx, baseLogger, "session", "Save", "key", "token").Info("saved")

	if base.Len() != 0 {
		t.Fatalf("expected base logger to stay silent, got %q", base.String())
	}
	line := scoped.String()
	for _, want := range []string{`"component":"session"`, `"operation":"Save"`, `"key":"token"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %q", want, line)
		}
	}
}

func TestFromContextWithoutLogger(t *testing.T) {
	t.Parallel()

	if FromContext(context.Background()) != nil {
		t.Fatalf("expected nil logger for bare context")
	}
	ctx := ContextWithLogger(context.Background(), nil)
	if FromContext(ctx) != nil {
		t.Fatalf("expected nil logger when nil was attached")
	}
}
