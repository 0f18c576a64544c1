package phase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronos/internal/core/model"
)

func workout(recurring bool) model.TimerStack {
	return model.TimerStack{
		ID:   "stack-1",
		Name: "Workout",
		Timers: []model.StackedTimer{
			{ID: "a", Duration: 5 * time.Minute, Note: "Warmup", Description: "easy pace", Order: 0},
			{ID: "b", Duration: 10 * time.Minute, Order: 1},
		},
		IsRecurring: recurring,
	}
}

func TestMaterializeRecurring(t *testing.T) {
	draft, err := Materialize(workout(true))
	require.NoError(t, err)

	assert.Equal(t, model.KindCountdown, draft.Kind)
	assert.Equal(t, 900*time.Second, draft.Duration)
	assert.Equal(t, "Workout", draft.Label)
	assert.Equal(t, "Recurring Stack\n\n1. Warmup (5m)\n2. Phase 2 (10m)", draft.Note)
	assert.Nil(t, draft.Source)
}

func TestMaterializeSequential(t *testing.T) {
	stack := workout(false)
	draft, err := Materialize(stack)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, draft.Duration)
	assert.Equal(t, "Workout - Warmup", draft.Label)
	assert.Equal(t, "easy pace", draft.Note)
	require.NotNil(t, draft.Source)
	assert.Equal(t, "stack-1", draft.Source.StackID)
	assert.Equal(t, "Workout", draft.Source.StackName)
	assert.Equal(t, 0, draft.Source.CurrentPhase)
	assert.Len(t, draft.Source.Phases, 2)

	// The draft must not alias the stack definition.
	draft.Source.Phases[0].Note = "changed"
	assert.Equal(t, "Warmup", stack.Timers[0].Note)
}

func TestMaterializeEmpty(t *testing.T) {
	_, err := Materialize(model.TimerStack{Name: "Nothing"})
	assert.ErrorIs(t, err, ErrEmptyStack)
}

func stackTimer(t *testing.T) model.Timer {
	t.Helper()
	draft, err := Materialize(workout(false))
	require.NoError(t, err)
	return model.Timer{
		ID:              "timer-1",
		Kind:            draft.Kind,
		Label:           draft.Label,
		Note:            draft.Note,
		InitialDuration: draft.Duration,
		Remaining:       0,
		IsRunning:       true,
		Stack:           draft.Source,
	}
}

func TestAdvance(t *testing.T) {
	t.Run("NextPhase", func(t *testing.T) {
		timer := stackTimer(t)
		got := Advance(timer)

		assert.Equal(t, 1, got.Stack.CurrentPhase)
		assert.Equal(t, 10*time.Minute, got.Remaining)
		assert.Equal(t, 10*time.Minute, got.InitialDuration)
		assert.Equal(t, "Workout - Phase 2", got.Label)
		assert.Empty(t, got.Note)
		assert.True(t, got.IsRunning)
		assert.False(t, got.IsCompleted)

		// The input snapshot keeps its own phase index.
		assert.Equal(t, 0, timer.Stack.CurrentPhase)
	})

	t.Run("LastPhaseCompletes", func(t *testing.T) {
		timer := Advance(stackTimer(t))
		timer.Remaining = 0
		got := Advance(timer)

		assert.True(t, got.IsCompleted)
		assert.False(t, got.IsRunning)
		assert.Zero(t, got.Remaining)
		assert.Equal(t, 1, got.Stack.CurrentPhase)
		assert.NoError(t, got.Validate())
	})

	t.Run("PanicsWithoutPhases", func(t *testing.T) {
		assert.Panics(t, func() {
			Advance(model.Timer{ID: "plain", Kind: model.KindCountdown})
		})
	})
}

func TestStackNameSurvivesSeparatorInName(t *testing.T) {
	stack := workout(false)
	stack.Name = "Legs - Day"
	draft, err := Materialize(stack)
	require.NoError(t, err)

	timer := model.Timer{ID: "x", Kind: model.KindCountdown, Label: draft.Label, Stack: draft.Source}
	got := Advance(timer)
	assert.Equal(t, "Legs - Day - Phase 2", got.Label)
}

func TestStackNameLegacyFallback(t *testing.T) {
	timer := model.Timer{
		Label: "Run - Sprint",
		Stack: &model.StackProgress{Phases: []model.StackedTimer{{Duration: time.Second}}},
	}
	assert.Equal(t, "Run", StackName(timer))
}
