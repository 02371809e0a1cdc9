package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"beyondwords/pkg/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"garbage", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "server.log")

	cfg := &config.LogConfig{
		Server: config.LogSettings{Path: logPath, Level: "INFO"},
	}

	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	defer cleanup()

	slog.Info("test entry", "key", "value")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log file to contain the test entry")
	}
}

func TestInit_RotatesExisting(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "server.log")
	if err := os.WriteFile(logPath, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cleanup, err := Init(&config.LogConfig{
		Server: config.LogSettings{Path: logPath, Level: "INFO"},
	})
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	defer cleanup()

	if _, err := os.Stat(logPath + ".old"); err != nil {
		t.Errorf("expected rotated log file: %v", err)
	}
}
