package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	FileName   = "pastemd.log"
	maxSizeMB  = 3
	maxBackups = 3
)

// ParseLevel maps a config level name to a slog.Level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Setup installs the default slog logger writing to stdout and to a
// rotating pastemd.log in dir. When the log file cannot be created it
// logs to stdout only and returns the error alongside a usable closer.
func Setup(dir string, level slog.Level) (io.Closer, error) {
	opts := &slog.HandlerOptions{Level: level}

	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)))
		return io.NopCloser(nil), fmt.Errorf("failed to create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(io.MultiWriter(os.Stdout, file), opts)))
	return file, nil
}

// Path returns the log file location for dir
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}
