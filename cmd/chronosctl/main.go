// Command chronosctl is an interactive shell over the Chronos timer core. It
// shares the desktop app's settings file and data directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/viper"

	"chronos/internal/bootstrap"
	"chronos/internal/config"
	"chronos/internal/core/timekeeper"
	"chronos/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "chronosctl:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "settings file (defaults to the desktop app's settings.yaml)")
	dataDir := flag.String("data-dir", "", "data directory override")
	backend := flag.String("backend", "", "storage backend override (file|sqlite)")
	flag.Parse()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "chronos> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	v := viper.New()
	if *dataDir != "" {
		v.Set("data_dir", *dataDir)
	}
	if *backend != "" {
		v.Set("storage_backend", *backend)
	}
	settings, err := loadSettings(*configPath, v)
	if err != nil {
		fmt.Fprintf(rl.Stderr(), "settings: %v (using defaults)\n", err)
	}

	runtime, err := bootstrap.Start(bootstrap.Options{
		Settings:  settings,
		LogOutput: rl.Stderr(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := runtime.Close(); err != nil {
			fmt.Fprintln(rl.Stderr(), "shutdown:", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := runtime.Keeper.Subscribe(256)
	go runtime.Watch(ctx, events, func(event timekeeper.Event) {
		switch event.Type {
		case timekeeper.EventCompleted:
			fmt.Fprintf(rl.Stdout(), "finished: %s\n", event.Label)
		case timekeeper.EventPhaseAdvanced:
			fmt.Fprintf(rl.Stdout(), "next phase: %s\n", event.Label)
		}
	})
	runtime.Keeper.Start()

	shell := NewShell(runtime.Service, rl.Stdout())
	shell.printHelp()
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return nil
		}
		if shell.Exec(line) {
			return nil
		}
	}
}

// loadSettings reads the YAML settings file and layers CHRONOS_* environment
// variables and values already set on v over it.
func loadSettings(configPath string, v *viper.Viper) (config.Settings, error) {
	var (
		settings config.Settings
		err      error
	)
	if configPath == "" {
		configPath, err = storage.SettingsPath(bootstrap.AppName)
	}
	if err == nil {
		settings, err = storage.LoadSettingsFile(configPath)
	} else {
		settings = config.DefaultSettings()
	}

	v.SetEnvPrefix("CHRONOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"data_dir", "storage_backend", "log_level", "tick_interval_ms"} {
		_ = v.BindEnv(key)
	}

	if v.IsSet("data_dir") {
		settings.DataDir = v.GetString("data_dir")
	}
	if v.IsSet("storage_backend") {
		if name := strings.ToLower(v.GetString("storage_backend")); config.ValidBackend(name) {
			settings.StorageBackend = name
		} else {
			err = errors.Join(err, fmt.Errorf("unknown storage backend %q", name))
		}
	}
	if v.IsSet("log_level") {
		settings.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("tick_interval_ms") {
		if millis := v.GetInt("tick_interval_ms"); millis > 0 {
			settings.TickInterval = config.ClampTickInterval(time.Duration(millis) * time.Millisecond)
		}
	}
	return settings, err
}
