package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chronos/internal/config"
	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	TickIntervalMillis      int     `yaml:"tick_interval_ms"`
	AutosaveIntervalSeconds int     `yaml:"autosave_interval_seconds"`
	StorageBackend          string  `yaml:"storage_backend"`
	DataDir                 string  `yaml:"data_dir"`
	ChimeEnabled            *bool   `yaml:"chime_enabled"`
	ChimeVolume             float64 `yaml:"chime_volume"`
	AlertEnabled            *bool   `yaml:"alert_enabled"`
	LaunchAtLogin           bool    `yaml:"launch_at_login"`
	LogLevel                string  `yaml:"log_level"`
}

// LoadSettings reads user preferences from YAML.
// If the config file does not exist, default settings are returned.
func LoadSettings(appName string) (config.Settings, error) {
	configPath, err := SettingsPath(appName)
	if err != nil {
		return config.DefaultSettings(), err
	}
	return LoadSettingsFile(configPath)
}

// LoadSettingsFile reads preferences from an explicit path.
func LoadSettingsFile(configPath string) (config.Settings, error) {
	settings := config.DefaultSettings()

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to YAML.
func SaveSettings(appName string, settings config.Settings) error {
	configPath, err := SettingsPath(appName)
	if err != nil {
		return err
	}
	return SaveSettingsFile(configPath, settings)
}

// SaveSettingsFile writes preferences to an explicit path.
func SaveSettingsFile(configPath string, settings config.Settings) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	chime := settings.ChimeEnabled
	alert := settings.AlertEnabled
	fileData := yamlSettings{
		TickIntervalMillis:      int(settings.TickInterval / time.Millisecond),
		AutosaveIntervalSeconds: int(settings.AutosaveInterval / time.Second),
		StorageBackend:          settings.StorageBackend,
		DataDir:                 settings.DataDir,
		ChimeEnabled:            &chime,
		ChimeVolume:             settings.ChimeVolume,
		AlertEnabled:            &alert,
		LaunchAtLogin:           settings.LaunchAtLogin,
		LogLevel:                settings.LogLevel,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// SettingsPath returns the settings file location for appName.
func SettingsPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *config.Settings, fileData yamlSettings) {
	if fileData.TickIntervalMillis > 0 {
		settings.TickInterval = config.ClampTickInterval(time.Duration(fileData.TickIntervalMillis) * time.Millisecond)
	}
	if fileData.AutosaveIntervalSeconds > 0 {
		settings.AutosaveInterval = time.Duration(fileData.AutosaveIntervalSeconds) * time.Second
	}
	if config.ValidBackend(fileData.StorageBackend) {
		settings.StorageBackend = fileData.StorageBackend
	}
	if fileData.DataDir != "" {
		settings.DataDir = fileData.DataDir
	}
	if fileData.ChimeEnabled != nil {
		settings.ChimeEnabled = *fileData.ChimeEnabled
	}
	settings.ChimeVolume = config.ClampChimeVolume(fileData.ChimeVolume)
	if fileData.AlertEnabled != nil {
		settings.AlertEnabled = *fileData.AlertEnabled
	}
	settings.LaunchAtLogin = fileData.LaunchAtLogin
	if fileData.LogLevel != "" {
		settings.LogLevel = fileData.LogLevel
	}
}
