package config

import (
	"log/slog"
	"math"
	"strings"
	"time"

	"chronos/internal/core/timekeeper"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Tick interval bounds.
const (
	MinTickInterval = 10 * time.Millisecond
	MaxTickInterval = time.Second
)

// Chime volume bounds, in powers of two relative to the rendered level.
const (
	MinChimeVolume = -4.0
	MaxChimeVolume = 1.0
)

// Settings defines editable user preferences.
type Settings struct {
	TickInterval     time.Duration
	AutosaveInterval time.Duration
	StorageBackend   string
	DataDir          string
	ChimeEnabled     bool
	ChimeVolume      float64
	AlertEnabled     bool
	LaunchAtLogin    bool
	LogLevel         string
}

// DefaultSettings returns default settings for Chronos.
// An empty DataDir is resolved by the platform package at startup.
func DefaultSettings() Settings {
	return Settings{
		TickInterval:     timekeeper.DefaultTickInterval,
		AutosaveInterval: 5 * time.Second,
		StorageBackend:   BackendFile,
		ChimeEnabled:     true,
		AlertEnabled:     true,
		LogLevel:         "info",
	}
}

// SchedulerConfig converts settings to the scheduler configuration.
func (settings Settings) SchedulerConfig() timekeeper.Config {
	return timekeeper.Config{TickInterval: ClampTickInterval(settings.TickInterval)}
}

// SlogLevel maps LogLevel to a slog level, defaulting to Info.
func (settings Settings) SlogLevel() slog.Level {
	switch strings.ToLower(settings.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ClampTickInterval keeps the tick period within supported bounds.
func ClampTickInterval(interval time.Duration) time.Duration {
	if interval < MinTickInterval {
		return MinTickInterval
	}
	if interval > MaxTickInterval {
		return MaxTickInterval
	}
	return interval
}

// ClampChimeVolume keeps the chime gain within supported bounds.
func ClampChimeVolume(volume float64) float64 {
	return math.Min(math.Max(volume, MinChimeVolume), MaxChimeVolume)
}

// ValidBackend reports whether name is a supported storage backend.
func ValidBackend(name string) bool {
	return name == BackendFile || name == BackendSQLite
}
