package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronos/internal/core/model"
)

func TestNewView(t *testing.T) {
	t.Run("RunningCountdown", func(t *testing.T) {
		view := NewView(model.Timer{
			Label:           "Tea",
			Kind:            model.KindCountdown,
			InitialDuration: 4 * time.Minute,
			Remaining:       time.Minute + 500*time.Millisecond,
			IsRunning:       true,
		})
		assert.Equal(t, "01:01", view.Clock)
		assert.Equal(t, "Pause", view.Toggle)
		assert.Equal(t, "Timer", view.Badge)
		assert.Empty(t, view.Phase)
		assert.InDelta(t, 0.745, view.Progress, 0.01)
	})

	t.Run("StackPhase", func(t *testing.T) {
		view := NewView(model.Timer{
			Label:     "Run - Walk",
			Kind:      model.KindCountdown,
			Remaining: 20 * time.Second,
			Stack: &model.StackProgress{
				Phases:       []model.StackedTimer{{Duration: 10 * time.Second}, {Duration: 20 * time.Second, Order: 1}},
				CurrentPhase: 1,
			},
		})
		assert.Equal(t, "Phase 2/2", view.Phase)
		assert.Equal(t, "Stack", view.Badge)
		assert.Equal(t, "Start", view.Toggle)
	})

	t.Run("CompletedAndStopwatch", func(t *testing.T) {
		assert.Equal(t, "Restart", NewView(model.Timer{Kind: model.KindCountdown, IsCompleted: true}).Toggle)

		view := NewView(model.Timer{Kind: model.KindStopwatch, Elapsed: 3723 * time.Second})
		assert.Equal(t, "01:02:03", view.Clock)
		assert.Equal(t, "Stopwatch", view.Badge)
		assert.Zero(t, view.Progress)
	})

	t.Run("PomodoroBadges", func(t *testing.T) {
		assert.Equal(t, "Focus", NewView(model.Timer{Kind: model.KindPomodoro, Pomodoro: model.PomodoroFocus}).Badge)
		assert.Equal(t, "Long break", NewView(model.Timer{Kind: model.KindPomodoro, Pomodoro: model.PomodoroLongBreak}).Badge)
	})
}

func TestParsePhases(t *testing.T) {
	phases, err := ParsePhases("25m Deep Focus | no chat\n\n  5m\n1:30 Cool down\n")
	require.NoError(t, err)
	require.Len(t, phases, 3)
	assert.Equal(t, model.StackedTimer{Duration: 25 * time.Minute, Note: "Deep Focus", Description: "no chat"}, phases[0])
	assert.Equal(t, model.StackedTimer{Duration: 5 * time.Minute}, phases[1])
	assert.Equal(t, "Cool down", phases[2].Note)
	assert.Equal(t, 90*time.Second, phases[2].Duration)

	_, err = ParsePhases(" \n ")
	assert.ErrorIs(t, err, model.ErrEmptyPhases)

	_, err = ParsePhases("5m ok\nsoon later")
	assert.ErrorContains(t, err, "line 2")

	_, err = ParsePhases("| only a description")
	assert.ErrorContains(t, err, "missing duration")
}

func TestKindFromOption(t *testing.T) {
	assert.Equal(t, model.KindCountdown, KindFromOption("Timer"))
	assert.Equal(t, model.KindStopwatch, KindFromOption("Stopwatch"))
	assert.Equal(t, model.KindPomodoro, KindFromOption("Pomodoro"))
	assert.Equal(t, model.KindCountdown, KindFromOption(""))
}
