package logger_i

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/akolanti/DocChat/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelDebug},
		{"verbose", slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerCarriesComponentAndTrace(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", true)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "trace-42")
	NewLogger("Document Loader").WithTrace(ctx).Info("loaded", "files", 2)

	out := buf.String()
	for _, want := range []string{`"component":"Document Loader"`, `"traceId":"trace-42"`, `"files":2`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %s missing %s", out, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "warn", false)

	l := NewLogger("test")
	l.Debug("hidden")
	l.Info("hidden too")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug/info should be filtered: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn missing: %s", out)
	}
}
