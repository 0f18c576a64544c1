package model

import (
	"errors"
	"fmt"
	"time"
)

// Timer validation errors.
var (
	ErrInvalidDuration   = errors.New("invalid duration")
	ErrConflictingState  = errors.New("timer cannot be both running and completed")
	ErrPhasesOnStopwatch = errors.New("stopwatch cannot carry stack phases")
	ErrUnknownKind       = errors.New("unknown timer kind")
)

// Kind discriminates how a timer ticks.
type Kind string

const (
	KindCountdown Kind = "TIMER"
	KindStopwatch Kind = "STOPWATCH"
	KindPomodoro  Kind = "POMODORO"
)

// ParseKind accepts the wire names and a few shell-friendly aliases.
func ParseKind(value string) (Kind, error) {
	switch value {
	case "TIMER", "timer", "countdown", "cd":
		return KindCountdown, nil
	case "STOPWATCH", "stopwatch", "sw":
		return KindStopwatch, nil
	case "POMODORO", "pomodoro", "pomo":
		return KindPomodoro, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, value)
}

// CountsDown reports whether the kind decrements remaining time.
func (kind Kind) CountsDown() bool {
	return kind == KindCountdown || kind == KindPomodoro
}

// Valid reports whether kind is one of the known kinds.
func (kind Kind) Valid() bool {
	return kind == KindCountdown || kind == KindStopwatch || kind == KindPomodoro
}

// PomodoroType sub-classifies a Pomodoro countdown.
type PomodoroType string

const (
	PomodoroFocus      PomodoroType = "FOCUS"
	PomodoroShortBreak PomodoroType = "SHORT_BREAK"
	PomodoroLongBreak  PomodoroType = "LONG_BREAK"
)

// StackProgress is the phase state of a timer materialized from a sequential stack.
// Phases is shared between snapshots and must never be mutated in place.
type StackProgress struct {
	StackID      string         `cbor:"stack_id"`
	StackName    string         `cbor:"stack_name,omitempty"`
	Phases       []StackedTimer `cbor:"phases"`
	CurrentPhase int            `cbor:"current_phase"`
}

// Current returns the active phase descriptor.
func (progress *StackProgress) Current() StackedTimer {
	return progress.Phases[progress.CurrentPhase]
}

// Timer is one running or stopped time entity.
type Timer struct {
	ID              string         `cbor:"id"`
	Kind            Kind           `cbor:"kind"`
	Pomodoro        PomodoroType   `cbor:"pomodoro,omitempty"`
	Label           string         `cbor:"label"`
	Note            string         `cbor:"note,omitempty"`
	InitialDuration time.Duration  `cbor:"initial_duration"`
	Remaining       time.Duration  `cbor:"remaining"`
	Elapsed         time.Duration  `cbor:"elapsed"`
	IsRunning       bool           `cbor:"running"`
	IsCompleted     bool           `cbor:"completed"`
	CreatedAt       time.Time      `cbor:"created_at"`
	Stack           *StackProgress `cbor:"stack,omitempty"`
}

// HasPhases reports whether the timer advances through stack phases.
func (timer Timer) HasPhases() bool {
	return timer.Stack != nil && len(timer.Stack.Phases) > 0
}

// PhaseCount returns the number of phases, or zero for plain timers.
func (timer Timer) PhaseCount() int {
	if timer.Stack == nil {
		return 0
	}
	return len(timer.Stack.Phases)
}

// Display returns the time value shown for the timer.
func (timer Timer) Display() time.Duration {
	if timer.Kind == KindStopwatch {
		return timer.Elapsed
	}
	return timer.Remaining
}

// Progress returns the completed fraction of a countdown in [0, 1].
func (timer Timer) Progress() float64 {
	if !timer.Kind.CountsDown() || timer.InitialDuration <= 0 {
		return 0
	}
	progress := float64(timer.InitialDuration-timer.Remaining) / float64(timer.InitialDuration)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// Validate checks the structural invariants of a timer.
func (timer Timer) Validate() error {
	if timer.ID == "" {
		return errors.New("timer id is empty")
	}
	if !timer.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, timer.Kind)
	}
	if timer.IsRunning && timer.IsCompleted {
		return ErrConflictingState
	}
	if timer.Kind == KindStopwatch {
		if timer.Stack != nil {
			return ErrPhasesOnStopwatch
		}
		if timer.IsCompleted {
			return errors.New("stopwatch cannot complete")
		}
		if timer.Elapsed < 0 {
			return fmt.Errorf("%w: negative elapsed time", ErrInvalidDuration)
		}
		return nil
	}
	if timer.Remaining < 0 || timer.InitialDuration < 0 {
		return fmt.Errorf("%w: negative countdown value", ErrInvalidDuration)
	}
	if timer.IsCompleted && timer.Remaining != 0 {
		return errors.New("completed countdown must have zero remaining time")
	}
	if timer.Stack != nil {
		count := len(timer.Stack.Phases)
		if count == 0 {
			return ErrEmptyPhases
		}
		if timer.Stack.CurrentPhase < 0 || timer.Stack.CurrentPhase >= count {
			return fmt.Errorf("phase index %d out of range [0,%d)", timer.Stack.CurrentPhase, count)
		}
	}
	return nil
}

// Patch is a partial update merged into a timer. Nil fields are left untouched.
type Patch struct {
	Label           *string
	Note            *string
	Pomodoro        *PomodoroType
	InitialDuration *time.Duration
	Remaining       *time.Duration
	Elapsed         *time.Duration
	IsRunning       *bool
	IsCompleted     *bool
}

// Apply merges the patch into timer and normalizes the running/completed pair.
// A patch that sets both flags true is rejected.
func (patch Patch) Apply(timer Timer) (Timer, error) {
	if patch.IsRunning != nil && patch.IsCompleted != nil && *patch.IsRunning && *patch.IsCompleted {
		return timer, ErrConflictingState
	}
	if patch.Label != nil {
		timer.Label = *patch.Label
	}
	if patch.Note != nil {
		timer.Note = *patch.Note
	}
	if patch.Pomodoro != nil && timer.Kind == KindPomodoro {
		timer.Pomodoro = *patch.Pomodoro
	}
	if patch.InitialDuration != nil {
		if *patch.InitialDuration < 0 {
			return timer, ErrInvalidDuration
		}
		timer.InitialDuration = *patch.InitialDuration
	}
	if patch.Remaining != nil {
		if *patch.Remaining < 0 {
			return timer, ErrInvalidDuration
		}
		timer.Remaining = *patch.Remaining
	}
	if patch.Elapsed != nil {
		if *patch.Elapsed < 0 {
			return timer, ErrInvalidDuration
		}
		timer.Elapsed = *patch.Elapsed
	}
	if patch.IsCompleted != nil {
		if *patch.IsCompleted && timer.Kind == KindStopwatch {
			return timer, errors.New("stopwatch cannot complete")
		}
		timer.IsCompleted = *patch.IsCompleted
		if timer.IsCompleted {
			timer.IsRunning = false
		}
	}
	if patch.IsRunning != nil {
		timer.IsRunning = *patch.IsRunning
		if timer.IsRunning {
			timer.IsCompleted = false
		}
	}
	if timer.IsCompleted && timer.Kind.CountsDown() {
		timer.Remaining = 0
	}
	return timer, nil
}
