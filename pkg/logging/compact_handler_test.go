package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCompactHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	log.Info("Building CSS...", "phase", "styles", "durationMs", int64(42), "error", errors.New("boom"))

	line := buf.String()
	if !strings.HasPrefix(line, "[INFO]  ") {
		t.Errorf("expected INFO prefix, got %q", line)
	}
	for _, want := range []string{"Building CSS...", " | ", "phase=styles", "duration=42ms", `error="boom"`} {
		if !strings.Contains(line, want) {
			t.Errorf("output %q missing %q", line, want)
		}
	}
}

func TestCompactHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("hidden")
	log.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("info message should be filtered: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "[WARN]  ") {
		t.Errorf("warn message missing: %q", buf.String())
	}
}

func TestCompactHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, nil)).With("artifact", "sw")

	log.Info("bundled", "outfile", "public/sw.js")

	line := buf.String()
	if !strings.Contains(line, "artifact=sw") || !strings.Contains(line, "outfile=public/sw.js") {
		t.Errorf("attributes missing from %q", line)
	}
}

func TestContextIDsAreShortened(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, slog.LevelInfo)
	defer SetOutput(&bytes.Buffer{}, slog.LevelInfo)

	ctx := WithBuildID(context.Background(), "0123456789abcdef")
	InfoContext(ctx, "Starting build")

	if !strings.Contains(buf.String(), "build=01234567") {
		t.Errorf("expected shortened build ID in %q", buf.String())
	}
	if strings.Contains(buf.String(), "89abcdef") {
		t.Errorf("build ID should be truncated in %q", buf.String())
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  slog.Level
	}{
		{"", 0, slog.LevelInfo},
		{"", 1, slog.LevelDebug},
		{"", 3, LevelTrace},
		{"warn", 2, slog.LevelWarn},
		{"error", 0, slog.LevelError},
		{"debug", 0, slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.name, tt.count); got != tt.want {
			t.Errorf("LevelFromVerbosity(%q, %d) = %v, want %v", tt.name, tt.count, got, tt.want)
		}
	}
}

func TestErrorsGoToErrorWriter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	SetOutputs(&stdout, &stderr, slog.LevelInfo)
	defer SetOutput(&bytes.Buffer{}, slog.LevelInfo)

	Info("Building CSS...")
	Warn("Rebuild failed, waiting for further changes")
	Error("Build failed", "phase", "styles")

	if !strings.Contains(stdout.String(), "Building CSS...") || !strings.Contains(stdout.String(), "[WARN]") {
		t.Errorf("info and warn should go to stdout, got %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "Build failed") {
		t.Errorf("error leaked to stdout: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "[ERROR]") || !strings.Contains(stderr.String(), "phase=styles") {
		t.Errorf("error missing from stderr: %q", stderr.String())
	}
}
