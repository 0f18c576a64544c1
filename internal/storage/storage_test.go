package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronos/internal/config"
	"chronos/internal/core/model"
)

func exerciseGateway(t *testing.T, gateway Gateway) {
	t.Helper()

	_, ok, err := gateway.Load(KeyTimers)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, gateway.Save(KeyTimers, []byte("first")))
	require.NoError(t, gateway.Save(KeyTimers, []byte("second")))

	blob, ok, err := gateway.Load(KeyTimers)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("second"), blob)

	assert.ErrorIs(t, gateway.Save("../escape", nil), ErrInvalidKey)
	_, _, err = gateway.Load("a/b")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestFileGateway(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	gateway, err := NewFileGateway(dir)
	require.NoError(t, err)
	defer gateway.Close()

	exerciseGateway(t, gateway)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KeyTimers+".cbor", entries[0].Name())
}

func TestSQLiteGateway(t *testing.T) {
	gateway, err := NewSQLiteGateway(filepath.Join(t.TempDir(), "chronos.db"))
	require.NoError(t, err)
	defer gateway.Close()

	exerciseGateway(t, gateway)
}

func TestOpenSelectsBackend(t *testing.T) {
	settings := config.DefaultSettings()
	settings.DataDir = t.TempDir()

	gateway, err := Open(settings)
	require.NoError(t, err)
	assert.IsType(t, &FileGateway{}, gateway)
	gateway.Close()

	settings.StorageBackend = config.BackendSQLite
	gateway, err = Open(settings)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteGateway{}, gateway)
	gateway.Close()

	settings.StorageBackend = "tape"
	_, err = Open(settings)
	assert.Error(t, err)
}

func TestTimerCodec(t *testing.T) {
	created := time.Date(2026, 5, 6, 7, 8, 9, 10, time.UTC)
	timers := []model.Timer{
		{
			ID:              "a",
			Kind:            model.KindPomodoro,
			Pomodoro:        model.PomodoroFocus,
			Label:           "Pomodoro",
			InitialDuration: 25 * time.Minute,
			Remaining:       1500*time.Second - 250*time.Millisecond,
			IsRunning:       true,
			CreatedAt:       created,
		},
		{
			ID:              "b",
			Kind:            model.KindCountdown,
			Label:           "Run - Sprint",
			InitialDuration: 30 * time.Second,
			Remaining:       30 * time.Second,
			CreatedAt:       created.Add(time.Second),
			Stack: &model.StackProgress{
				StackID:   "s",
				StackName: "Run",
				Phases: []model.StackedTimer{
					{ID: "p1", Duration: 30 * time.Second, Note: "Sprint"},
					{ID: "p2", Duration: time.Minute, Description: "walk", Order: 1},
				},
			},
		},
	}

	blob, err := EncodeTimers(timers)
	require.NoError(t, err)
	got, err := DecodeTimers(blob)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, timers[0].Remaining, got[0].Remaining)
	assert.True(t, timers[0].CreatedAt.Equal(got[0].CreatedAt))
	assert.Equal(t, timers[1].Stack, got[1].Stack)

	_, err = DecodeTimers(nil)
	assert.ErrorIs(t, err, ErrEmptyBlob)
	_, err = DecodeTimers([]byte("not cbor at all"))
	assert.Error(t, err)
}

func TestSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Chronos", "settings.yaml")

	settings, err := LoadSettingsFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSettings(), settings)

	settings.TickInterval = 250 * time.Millisecond
	settings.StorageBackend = config.BackendSQLite
	settings.DataDir = "/tmp/chronos-data"
	settings.ChimeEnabled = false
	settings.ChimeVolume = -1.5
	settings.LaunchAtLogin = true
	settings.LogLevel = "debug"
	require.NoError(t, SaveSettingsFile(path, settings))

	loaded, err := LoadSettingsFile(path)
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)
}

func TestSettingsFileIgnoresBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	raw := "tick_interval_ms: 5\nstorage_backend: floppy\nautosave_interval_seconds: -3\nchime_volume: 9\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	settings, err := LoadSettingsFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.MinTickInterval, settings.TickInterval)
	assert.Equal(t, config.BackendFile, settings.StorageBackend)
	assert.Equal(t, 5*time.Second, settings.AutosaveInterval)
	assert.True(t, settings.ChimeEnabled)
	assert.Equal(t, config.MaxChimeVolume, settings.ChimeVolume)

	require.NoError(t, os.WriteFile(path, []byte("tick_interval_ms: [unclosed"), 0o644))
	_, err = LoadSettingsFile(path)
	assert.Error(t, err)
}
