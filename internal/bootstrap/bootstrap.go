// Package bootstrap assembles the Chronos runtime shared by the desktop app
// and the shell: logger, data directory, instance lock, storage gateway,
// registry, action service and scheduler.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"chronos/internal/config"
	"chronos/internal/core/actions"
	"chronos/internal/core/registry"
	"chronos/internal/core/timekeeper"
	"chronos/internal/platform"
	"chronos/internal/storage"
)

// AppName names the settings directory, lock and autostart entry.
const AppName = "Chronos"

// Options configures Start.
type Options struct {
	Settings  config.Settings
	LogOutput io.Writer
	Platform  platform.Service
	// SkipLock disables the single-instance lock, for tests.
	SkipLock bool
}

// Runtime is a running Chronos core.
type Runtime struct {
	Logger   *slog.Logger
	Registry *registry.Registry
	Service  *actions.Service
	Keeper   *timekeeper.TimeKeeper

	gateway storage.Gateway
	guard   *platform.InstanceGuard

	mu       sync.RWMutex
	settings config.Settings
	level    *slog.LevelVar

	closeOnce sync.Once
	closeErr  error
}

// NewLogger builds the text logger used by both binaries.
func NewLogger(output io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))
}

// ResolveDataDir fills in the default data directory when settings leave it empty.
func ResolveDataDir(settings config.Settings, service platform.Service) (config.Settings, error) {
	if settings.DataDir != "" {
		return settings, nil
	}
	dir, err := service.DataDir(AppName)
	if err != nil {
		return settings, err
	}
	settings.DataDir = dir
	return settings, nil
}

// Start resolves the data directory, takes the instance lock, opens storage
// and loads saved state. The scheduler is created stopped so callers can
// subscribe before calling Keeper.Start.
func Start(options Options) (*Runtime, error) {
	if options.LogOutput == nil {
		options.LogOutput = io.Discard
	}
	if options.Platform == nil {
		options.Platform = platform.NewService()
	}

	settings, err := ResolveDataDir(options.Settings, options.Platform)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	level := new(slog.LevelVar)
	level.Set(settings.SlogLevel())
	logger := NewLogger(options.LogOutput, level)

	runtime := &Runtime{settings: settings, level: level, Logger: logger}
	if !options.SkipLock {
		runtime.guard, err = platform.AcquireSingleInstance(AppName, settings.DataDir)
		if err != nil {
			return nil, err
		}
	}

	runtime.gateway, err = storage.Open(settings)
	if err != nil {
		_ = runtime.guard.Release()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	runtime.Registry = registry.New()
	runtime.Service = actions.New(runtime.Registry, runtime.gateway, actions.WithLogger(logger.With("component", "actions")))
	runtime.Service.Load()

	runtime.Keeper = timekeeper.New(runtime.Registry, settings.SchedulerConfig())
	runtime.Keeper.SetLogger(logger.With("component", "timekeeper"))

	logger.Info("chronos started",
		"data_dir", settings.DataDir,
		"backend", settings.StorageBackend,
		"tick", runtime.Keeper.TickInterval(),
	)
	return runtime, nil
}

// Apply switches to new settings. Tick interval and log level take effect
// immediately; storage changes need a restart.
func (runtime *Runtime) Apply(settings config.Settings) {
	runtime.mu.Lock()
	previous := runtime.settings
	if settings.DataDir == "" {
		settings.DataDir = previous.DataDir
	}
	runtime.settings = settings
	runtime.mu.Unlock()

	if settings.DataDir != previous.DataDir || settings.StorageBackend != previous.StorageBackend {
		runtime.Logger.Info("storage change takes effect after restart",
			"data_dir", settings.DataDir, "backend", settings.StorageBackend)
	}
	runtime.level.Set(settings.SlogLevel())
	runtime.Keeper.UpdateConfig(settings.SchedulerConfig())
}

// Settings returns the settings in effect.
func (runtime *Runtime) Settings() config.Settings {
	runtime.mu.RLock()
	defer runtime.mu.RUnlock()
	return runtime.settings
}

// Watch consumes scheduler events until ctx ends or the scheduler stops. It
// persists after every phase change or completion and, while any timer runs,
// at most once per autosave interval. Every event is passed to handler.
func (runtime *Runtime) Watch(ctx context.Context, events <-chan timekeeper.Event, handler func(timekeeper.Event)) {
	var lastSave time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			switch event.Type {
			case timekeeper.EventPhaseAdvanced, timekeeper.EventCompleted:
				runtime.Service.Persist()
				lastSave = event.At
			case timekeeper.EventTick:
				if event.Running > 0 && event.At.Sub(lastSave) >= runtime.Settings().AutosaveInterval {
					runtime.Service.Persist()
					lastSave = event.At
				}
			}
			if handler != nil {
				handler(event)
			}
		}
	}
}

// Close stops the scheduler, flushes state, closes storage and releases the
// lock. It is safe to call more than once.
func (runtime *Runtime) Close() error {
	runtime.closeOnce.Do(func() {
		runtime.Keeper.Stop()
		var errs []error
		if err := runtime.Service.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush: %w", err))
		}
		if err := runtime.gateway.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
		if err := runtime.guard.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release lock: %w", err))
		}
		runtime.closeErr = errors.Join(errs...)
		runtime.Logger.Info("chronos stopped")
	})
	return runtime.closeErr
}
