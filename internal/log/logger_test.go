package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo}, // unknown falls back to info
		{" Error ", slog.LevelError},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Component: ComponentWorker,
		Handler:   slog.NewTextHandler(&buf, nil),
	})

	logger.Info("sweep finished", "wallets", 3)

	out := buf.String()
	if !strings.Contains(out, "component=worker") {
		t.Fatalf("entry missing component attribute: %s", out)
	}
	if !strings.Contains(out, "wallets=3") {
		t.Fatalf("entry missing caller attribute: %s", out)
	}
}

func TestWithComponentOverrides(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Component: ComponentApp,
		Handler:   slog.NewTextHandler(&buf, nil),
	})

	amqpLogger := logger.WithComponent(ComponentAMQP)
	if amqpLogger.Component() != ComponentAMQP {
		t.Fatalf("Component() = %q, want %q", amqpLogger.Component(), ComponentAMQP)
	}
	if logger.Component() != ComponentApp {
		t.Fatal("WithComponent must not mutate the parent logger")
	}
}
