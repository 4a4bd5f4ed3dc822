package output

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetupLogger_DefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(LogOptions{}, &buf)

	logger.Info("info message")
	if bytes.Contains(buf.Bytes(), []byte("info message")) {
		t.Error("expected Info message to be suppressed at default level (Warn), but it appeared in output")
	}

	buf.Reset()
	logger.Warn("warn message")
	if !bytes.Contains(buf.Bytes(), []byte("warn message")) {
		t.Error("expected Warn message to appear at default level, but it was suppressed")
	}
}

func TestSetupLogger_Quiet(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(LogOptions{Quiet: true}, &buf)

	logger.Warn("warn message")
	logger.Error("error message")
	if buf.Len() != 0 {
		t.Errorf("expected no output in quiet mode, got %q", buf.String())
	}
}

func TestSetupLogger_Levels(t *testing.T) {
	tests := []struct {
		name string
		opts LogOptions
		want slog.Level
	}{
		{"default", LogOptions{}, slog.LevelWarn},
		{"verbose", LogOptions{Verbose: true}, slog.LevelInfo},
		{"debug", LogOptions{Debug: true}, slog.LevelDebug},
		{"debug beats verbose", LogOptions{Verbose: true, Debug: true}, slog.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.Level(); got != tt.want {
				t.Errorf("Level() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetupLogger_QuietOverridesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(LogOptions{Quiet: true, Debug: true}, &buf)

	logger.Error("error message")
	if bytes.Contains(buf.Bytes(), []byte("error message")) {
		t.Error("expected quiet to override debug, but Error message appeared in output")
	}
}

func TestSetupLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(LogOptions{JSON: true}, &buf)

	logger.Warn("parse failed", "path", "A.java")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "parse failed" || rec["path"] != "A.java" {
		t.Errorf("unexpected record: %v", rec)
	}
}
