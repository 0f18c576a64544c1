package registry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronos/internal/core/model"
)

func newTestRegistry() *Registry {
	counter := 0
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return New(
		WithIDGenerator(func() string {
			counter++
			return fmt.Sprintf("id-%d", counter)
		}),
		WithNow(func() time.Time { return base }),
	)
}

func TestCreate(t *testing.T) {
	t.Run("Countdown", func(t *testing.T) {
		registry := newTestRegistry()
		id, err := registry.Create(model.KindCountdown, time.Minute, "Tea", "green", nil)
		require.NoError(t, err)

		timer, ok := registry.Timer(id)
		require.True(t, ok)
		assert.Equal(t, time.Minute, timer.InitialDuration)
		assert.Equal(t, time.Minute, timer.Remaining)
		assert.Zero(t, timer.Elapsed)
		assert.False(t, timer.IsRunning)
		assert.False(t, timer.IsCompleted)
		assert.Equal(t, "green", timer.Note)
		assert.Empty(t, timer.Pomodoro)
	})

	t.Run("PomodoroDefaultsToFocus", func(t *testing.T) {
		registry := newTestRegistry()
		id, err := registry.Create(model.KindPomodoro, 25*time.Minute, "Pomodoro", "", nil)
		require.NoError(t, err)
		timer, _ := registry.Timer(id)
		assert.Equal(t, model.PomodoroFocus, timer.Pomodoro)
	})

	t.Run("StopwatchHasNoRemaining", func(t *testing.T) {
		registry := newTestRegistry()
		id, err := registry.Create(model.KindStopwatch, 0, "Run", "", nil)
		require.NoError(t, err)
		timer, _ := registry.Timer(id)
		assert.Zero(t, timer.Remaining)
		assert.Zero(t, timer.Elapsed)
	})

	t.Run("PhaseSourceSeedsFirstPhase", func(t *testing.T) {
		registry := newTestRegistry()
		source := &model.StackProgress{
			StackID:   "s",
			StackName: "Workout",
			Phases: []model.StackedTimer{
				{ID: "a", Duration: 10 * time.Second},
				{ID: "b", Duration: 20 * time.Second, Order: 1},
			},
			CurrentPhase: 1,
		}
		id, err := registry.Create(model.KindCountdown, time.Hour, "Anything", "", source)
		require.NoError(t, err)

		timer, _ := registry.Timer(id)
		assert.Equal(t, 10*time.Second, timer.Remaining)
		assert.Equal(t, 10*time.Second, timer.InitialDuration)
		assert.Equal(t, "Workout - Phase 1", timer.Label)
		assert.Equal(t, 0, timer.Stack.CurrentPhase)
		assert.NotSame(t, source, timer.Stack)
	})

	t.Run("PhaseSourceNamedFromLabel", func(t *testing.T) {
		registry := newTestRegistry()
		source := &model.StackProgress{
			Phases: []model.StackedTimer{{Duration: time.Minute, Note: "Warm up"}},
		}
		id, err := registry.Create(model.KindCountdown, 0, "Run - old phase", "", source)
		require.NoError(t, err)

		timer, _ := registry.Timer(id)
		assert.Equal(t, "Run", timer.Stack.StackName)
		assert.Equal(t, "Run - Warm up", timer.Label)
		assert.Empty(t, source.StackName)
	})

	t.Run("PhaseSourceWithoutAnyName", func(t *testing.T) {
		registry := newTestRegistry()
		source := &model.StackProgress{Phases: []model.StackedTimer{{Duration: time.Minute}}}
		id, err := registry.Create(model.KindCountdown, 0, "", "", source)
		require.NoError(t, err)

		timer, _ := registry.Timer(id)
		assert.Equal(t, "Stack - Phase 1", timer.Label)
	})

	t.Run("StopwatchWithPhasesRejected", func(t *testing.T) {
		registry := newTestRegistry()
		_, err := registry.Create(model.KindStopwatch, 0, "x", "", &model.StackProgress{
			Phases: []model.StackedTimer{{Duration: time.Second}},
		})
		assert.ErrorIs(t, err, ErrInvalidTimer)
		assert.Empty(t, registry.Timers())
	})

	t.Run("CreatedAtIncreases", func(t *testing.T) {
		registry := newTestRegistry()
		first, _ := registry.Create(model.KindCountdown, time.Second, "a", "", nil)
		second, _ := registry.Create(model.KindCountdown, time.Second, "b", "", nil)
		a, _ := registry.Timer(first)
		b, _ := registry.Timer(second)
		assert.True(t, b.CreatedAt.After(a.CreatedAt))
	})
}

func TestToggleKeepsTimeValues(t *testing.T) {
	registry := newTestRegistry()
	id, _ := registry.Create(model.KindCountdown, time.Minute, "Tea", "", nil)
	require.NoError(t, registry.Patch(id, model.Patch{Remaining: ptr(42 * time.Second)}))

	require.NoError(t, registry.Toggle(id))
	timer, _ := registry.Timer(id)
	assert.True(t, timer.IsRunning)
	assert.Equal(t, 42*time.Second, timer.Remaining)

	require.NoError(t, registry.Toggle(id))
	timer, _ = registry.Timer(id)
	assert.False(t, timer.IsRunning)
	assert.Equal(t, 42*time.Second, timer.Remaining)
}

func TestToggleLeavesCompletedTimerStopped(t *testing.T) {
	registry := newTestRegistry()
	id, _ := registry.Create(model.KindCountdown, time.Second, "Tea", "", nil)
	require.NoError(t, registry.Patch(id, model.Patch{Remaining: ptr(time.Duration(0)), IsCompleted: ptr(true)}))

	require.NoError(t, registry.Toggle(id))
	timer, _ := registry.Timer(id)
	assert.False(t, timer.IsRunning)
	assert.True(t, timer.IsCompleted)
	assert.Zero(t, timer.Remaining)
}

func TestResetIsIdempotent(t *testing.T) {
	registry := newTestRegistry()
	id, _ := registry.Create(model.KindCountdown, time.Minute, "Tea", "", nil)
	require.NoError(t, registry.Patch(id, model.Patch{Remaining: ptr(time.Second), IsRunning: ptr(true)}))

	require.NoError(t, registry.Reset(id))
	once, _ := registry.Timer(id)
	require.NoError(t, registry.Reset(id))
	twice, _ := registry.Timer(id)

	assert.Equal(t, once, twice)
	assert.Equal(t, time.Minute, once.Remaining)
	assert.False(t, once.IsRunning)
}

func TestUnknownIDs(t *testing.T) {
	registry := newTestRegistry()
	assert.ErrorIs(t, registry.Toggle("nope"), ErrTimerNotFound)
	assert.ErrorIs(t, registry.Reset("nope"), ErrTimerNotFound)
	assert.ErrorIs(t, registry.Delete("nope"), ErrTimerNotFound)
	assert.ErrorIs(t, registry.Patch("nope", model.Patch{}), ErrTimerNotFound)
}

func TestDelete(t *testing.T) {
	registry := newTestRegistry()
	first, _ := registry.Create(model.KindCountdown, time.Minute, "a", "", nil)
	second, _ := registry.Create(model.KindCountdown, time.Minute, "b", "", nil)

	require.NoError(t, registry.Delete(first))
	timers := registry.Timers()
	require.Len(t, timers, 1)
	assert.Equal(t, second, timers[0].ID)
}

func TestPatchRejectsConflict(t *testing.T) {
	registry := newTestRegistry()
	id, _ := registry.Create(model.KindCountdown, time.Minute, "a", "", nil)
	err := registry.Patch(id, model.Patch{IsRunning: ptr(true), IsCompleted: ptr(true)})
	assert.ErrorIs(t, err, model.ErrConflictingState)

	timer, _ := registry.Timer(id)
	assert.False(t, timer.IsRunning)
}

func TestSnapshotsAreIsolated(t *testing.T) {
	registry := newTestRegistry()
	id, _ := registry.Create(model.KindCountdown, time.Minute, "a", "", nil)
	snapshot := registry.Timers()

	require.NoError(t, registry.Toggle(id))
	assert.False(t, snapshot[0].IsRunning)

	snapshot[0].Label = "mutated"
	timer, _ := registry.Timer(id)
	assert.Equal(t, "a", timer.Label)
}

func TestUpdateCommitsBatch(t *testing.T) {
	registry := newTestRegistry()
	registry.Create(model.KindCountdown, time.Minute, "a", "", nil)
	registry.Create(model.KindCountdown, time.Minute, "b", "", nil)
	before := registry.Version()

	registry.Update(func(timers []model.Timer) []model.Timer {
		for index := range timers {
			timers[index].Remaining -= time.Second
		}
		return timers
	})

	assert.Equal(t, before+1, registry.Version())
	for _, timer := range registry.Timers() {
		assert.Equal(t, 59*time.Second, timer.Remaining)
	}
}

func TestStacks(t *testing.T) {
	registry := newTestRegistry()
	stack, err := registry.CreateStack(model.TimerStack{
		Name: "  Workout ",
		Timers: []model.StackedTimer{
			{Duration: 10 * time.Second, Order: 7},
			{Duration: 20 * time.Second},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Workout", stack.Name)
	assert.NotEmpty(t, stack.ID)
	assert.False(t, stack.CreatedAt.IsZero())
	for index, phase := range stack.Timers {
		assert.Equal(t, index, phase.Order)
		assert.NotEmpty(t, phase.ID)
	}

	got, ok := registry.Stack(stack.ID)
	require.True(t, ok)
	assert.Equal(t, stack, got)

	_, err = registry.CreateStack(model.TimerStack{Name: "Empty"})
	assert.ErrorIs(t, err, ErrInvalidStack)

	_, err = registry.CreateStack(model.TimerStack{Name: "Zero", Timers: []model.StackedTimer{{Duration: 0}}})
	assert.ErrorIs(t, err, ErrInvalidStack)

	require.NoError(t, registry.DeleteStack(stack.ID))
	assert.ErrorIs(t, registry.DeleteStack(stack.ID), ErrStackNotFound)
	assert.Empty(t, registry.Stacks())
}

func TestPresets(t *testing.T) {
	registry := newTestRegistry()
	registry.SavePreset(model.Preset{Label: "Tea", Duration: 3 * time.Minute, Kind: model.KindCountdown, BuiltIn: true})
	presets := registry.Presets()
	require.Len(t, presets, 1)
	assert.False(t, presets[0].BuiltIn)

	require.NoError(t, registry.DeletePreset("Tea"))
	assert.ErrorIs(t, registry.DeletePreset("Tea"), ErrPresetNotFound)
}

func TestInsertValidates(t *testing.T) {
	registry := newTestRegistry()
	err := registry.Insert(model.Timer{ID: "x", Kind: model.KindCountdown, IsRunning: true, IsCompleted: true})
	assert.ErrorIs(t, err, ErrInvalidTimer)

	require.NoError(t, registry.Insert(model.Timer{ID: "y", Kind: model.KindStopwatch}))
	assert.ErrorIs(t, registry.Insert(model.Timer{ID: "y", Kind: model.KindStopwatch}), ErrInvalidTimer)
}

func ptr[T any](value T) *T {
	return &value
}
