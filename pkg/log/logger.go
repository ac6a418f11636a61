package log

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.RWMutex
	base    *slog.Logger
	rotator *lumberjack.Logger
)

func init() {
	// Usable before Setup runs (tests, early startup errors).
	base = slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// Setup initializes the global logger: a text handler writing to stdout and a
// size-rotated file under dir. Safe to call once at startup.
func Setup(dir string, level slog.Level) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	lj := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "exultbot.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, lj), &slog.HandlerOptions{
		Level: level,
	})

	mu.Lock()
	base = slog.New(handler)
	rotator = lj
	mu.Unlock()
	return nil
}

// Close closes the rotated log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	return err
}

// Each scope tags its records with a "scope" attribute so the rotated log file
// stays greppable per subsystem.
func scoped(scope string) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With("scope", scope)
}

// Application returns the logger for startup/shutdown and general bot lifecycle.
func Application() *slog.Logger { return scoped("app") }

// Discord returns the logger for gateway events and interaction handling.
func Discord() *slog.Logger { return scoped("discord") }

// Database returns the logger for the persistence layer.
func Database() *slog.Logger { return scoped("database") }

// API returns the logger for the dashboard HTTP API.
func API() *slog.Logger { return scoped("api") }

// ParseLevel converts a level string to a slog.Level, defaulting to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
