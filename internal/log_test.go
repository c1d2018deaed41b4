package internal

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"ERROR", LogLevelError},
		{"warn", LogLevelWarn},
		{" Info ", LogLevelInfo},
		{"DEBUG", LogLevelDebug},
		{"trace", LogLevelTrace},
		{"", LogLevelWarn},
		{"verbose", LogLevelWarn},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in, LogLevelWarn); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(LogLevelInfo, &buf)

	logger.Info("candidate %d", 316)
	logger.Debug("hidden %d", 1)
	logger.Error("failed")

	out := buf.String()
	if !strings.Contains(out, "[INFO] candidate 316") {
		t.Errorf("missing info line in %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should be filtered: %q", out)
	}
	if !strings.Contains(out, "[ERROR] failed") {
		t.Errorf("missing error line in %q", out)
	}
}

func TestLogger_NilIsDisabled(t *testing.T) {
	var logger *Logger
	if logger.Enabled(LogLevelError) {
		t.Error("nil logger should be disabled")
	}
	logger.Info("does not panic")
}
