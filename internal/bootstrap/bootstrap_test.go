package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronos/internal/config"
	"chronos/internal/core/model"
	"chronos/internal/core/timekeeper"
	"chronos/internal/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) advance(delta time.Duration) {
	clock.mu.Lock()
	clock.now = clock.now.Add(delta)
	clock.mu.Unlock()
}

type fakePlatform struct {
	dir string
	err error
}

func (service fakePlatform) GetConfigDir() (string, error) { return service.dir, service.err }
func (service fakePlatform) DataDir(string) (string, error) { return service.dir, service.err }
func (service fakePlatform) EnableAutostart(string, string) error { return nil }
func (service fakePlatform) DisableAutostart(string) error { return nil }

func startTest(t *testing.T, backend string) (*Runtime, string) {
	t.Helper()
	settings := config.DefaultSettings()
	settings.DataDir = t.TempDir()
	settings.StorageBackend = backend
	runtime, err := Start(Options{Settings: settings, SkipLock: true})
	require.NoError(t, err)
	return runtime, settings.DataDir
}

func TestResolveDataDir(t *testing.T) {
	settings, err := ResolveDataDir(config.DefaultSettings(), fakePlatform{dir: "/x/Chronos/data"})
	require.NoError(t, err)
	assert.Equal(t, "/x/Chronos/data", settings.DataDir)

	explicit := config.DefaultSettings()
	explicit.DataDir = "/mine"
	settings, err = ResolveDataDir(explicit, fakePlatform{err: errors.New("no home")})
	require.NoError(t, err)
	assert.Equal(t, "/mine", settings.DataDir)

	_, err = ResolveDataDir(config.DefaultSettings(), fakePlatform{err: errors.New("no home")})
	assert.Error(t, err)
}

func TestStartSeedsDefaultTimer(t *testing.T) {
	for _, backend := range []string{config.BackendFile, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			runtime, _ := startTest(t, backend)
			defer runtime.Close()

			timers := runtime.Service.Timers()
			require.Len(t, timers, 1)
			assert.Equal(t, model.DefaultTimer.Label, timers[0].Label)
		})
	}
}

func TestWatchPersistsCompletion(t *testing.T) {
	runtime, dir := startTest(t, config.BackendFile)
	defer runtime.Close()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	runtime.Keeper.SetClock(clock)

	id, err := runtime.Service.AddTimer(model.KindCountdown, 2*time.Second, "short", "")
	require.NoError(t, err)
	runtime.Service.ToggleTimer(id)

	events := runtime.Keeper.Subscribe(64)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	completed := make(chan timekeeper.Event, 1)
	go runtime.Watch(ctx, events, func(event timekeeper.Event) {
		if event.Type == timekeeper.EventCompleted {
			completed <- event
		}
	})

	runtime.Keeper.Tick()
	clock.advance(3 * time.Second)
	runtime.Keeper.Tick()

	select {
	case event := <-completed:
		assert.Equal(t, id, event.TimerID)
	case <-time.After(2 * time.Second):
		t.Fatal("no completion event")
	}

	blob, err := os.ReadFile(filepath.Join(dir, storage.KeyTimers+".cbor"))
	require.NoError(t, err)
	saved, err := storage.DecodeTimers(blob)
	require.NoError(t, err)
	var found bool
	for _, timer := range saved {
		if timer.ID == id {
			found = true
			assert.True(t, timer.IsCompleted)
			assert.False(t, timer.IsRunning)
		}
	}
	assert.True(t, found)
}

func TestCloseFlushesAndReloads(t *testing.T) {
	settings := config.DefaultSettings()
	settings.DataDir = t.TempDir()
	settings.StorageBackend = config.BackendSQLite

	first, err := Start(Options{Settings: settings, SkipLock: true})
	require.NoError(t, err)
	_, err = first.Service.CreateStack("Run", []model.StackedTimer{{Duration: time.Minute}}, false)
	require.NoError(t, err)
	require.NoError(t, first.Close())
	require.NoError(t, first.Close())

	second, err := Start(Options{Settings: settings, SkipLock: true})
	require.NoError(t, err)
	defer second.Close()
	require.Len(t, second.Service.Stacks(), 1)
	assert.Equal(t, "Run", second.Service.Stacks()[0].Name)
}

func TestApplyUpdatesTickInterval(t *testing.T) {
	runtime, dir := startTest(t, config.BackendFile)
	defer runtime.Close()

	updated := runtime.Settings()
	updated.TickInterval = 250 * time.Millisecond
	updated.DataDir = ""
	runtime.Apply(updated)

	assert.Equal(t, 250*time.Millisecond, runtime.Keeper.TickInterval())
	assert.Equal(t, dir, runtime.Settings().DataDir)
}
