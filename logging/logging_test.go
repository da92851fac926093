package logging

import (
	"log/slog"
	"os"
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
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetupWritesLogFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	dir := t.TempDir()
	closer, err := Setup(dir, slog.LevelInfo)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	slog.Debug("hidden message")
	slog.Info("Conversion finished", "target", "word")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(Path(dir))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "Conversion finished") || !strings.Contains(out, "target=word") {
		t.Errorf("log file = %q, want the info record", out)
	}
	if strings.Contains(out, "hidden message") {
		t.Error("debug record written at info level")
	}
}
