package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"debug2", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"none", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tc := range tests {
		if got := parseLevel(tc.in); got != tc.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLoggerWritesToConfiguredFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "error.log")
	Configure(path, "debug", 0)
	defer Configure("stderr", "info", 0)

	log := Logger("dest")
	log.Info().Str("printer", "office").Msg("snapshot fetched")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"component":"dest"`) || !strings.Contains(line, "snapshot fetched") {
		t.Fatalf("unexpected log line: %s", line)
	}
}

func TestToolLoggerUsesConfiguredSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "error.log")
	Configure(path, "warn", 0)
	defer Configure("stderr", "info", 0)

	log := ToolLogger("destinfo", false)
	log.Warn().Msg("destination cache unavailable")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"component":"destinfo"`) || !strings.Contains(line, "destination cache unavailable") {
		t.Fatalf("unexpected log line: %s", line)
	}
}

func TestRotatingFileRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "error.log")
	r := NewRotatingFile(path, 64)

	line := []byte(strings.Repeat("x", 60) + "\n")
	if _, err := r.Write(line); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := r.Write(line); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := os.Stat(path + ".O"); err != nil {
		t.Fatalf("expected rotated backup: %v", err)
	}
	data, _ := os.ReadFile(path)
	if len(data) != 61 {
		t.Fatalf("current log should hold the latest line, got %d bytes", len(data))
	}
}

func TestRotatingFileSpecialTargets(t *testing.T) {
	if NewRotatingFile("none", 0).Enabled() {
		t.Fatal("none should disable the log")
	}
	if !NewRotatingFile("stderr", 0).Enabled() {
		t.Fatal("stderr is a valid target")
	}
	if !NewRotatingFile("/tmp/x.log", 0).Enabled() {
		t.Fatal("file is a valid target")
	}
}
