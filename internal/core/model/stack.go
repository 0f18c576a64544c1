package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyPhases indicates a stack or stack timer without phases.
var ErrEmptyPhases = errors.New("stack has no phases")

// StackedTimer describes one phase of a TimerStack.
type StackedTimer struct {
	ID          string        `cbor:"id"`
	Duration    time.Duration `cbor:"duration"`
	Note        string        `cbor:"note,omitempty"`
	Description string        `cbor:"description,omitempty"`
	Order       int           `cbor:"order"`
}

// TimerStack is an ordered list of phases that can be run as one timer.
type TimerStack struct {
	ID          string         `cbor:"id"`
	Name        string         `cbor:"name"`
	Timers      []StackedTimer `cbor:"timers"`
	IsRecurring bool           `cbor:"recurring"`
	CreatedAt   time.Time      `cbor:"created_at"`
}

// TotalDuration sums all phase durations.
func (stack TimerStack) TotalDuration() time.Duration {
	var total time.Duration
	for _, phase := range stack.Timers {
		total += phase.Duration
	}
	return total
}

// Validate checks that the stack can be materialized.
func (stack TimerStack) Validate() error {
	if strings.TrimSpace(stack.Name) == "" {
		return errors.New("stack name is empty")
	}
	if len(stack.Timers) == 0 {
		return ErrEmptyPhases
	}
	for index, phase := range stack.Timers {
		if phase.Duration <= 0 {
			return fmt.Errorf("phase %d: %w", index+1, ErrInvalidDuration)
		}
		if phase.Order != index {
			return fmt.Errorf("phase %d: order %d does not match position", index+1, phase.Order)
		}
	}
	return nil
}

// PhaseName returns the display name of the phase at index.
func PhaseName(phase StackedTimer, index int) string {
	if phase.Note != "" {
		return phase.Note
	}
	return fmt.Sprintf("Phase %d", index+1)
}

// Preset is a reusable timer template.
type Preset struct {
	Label    string        `cbor:"label"`
	Duration time.Duration `cbor:"duration"`
	Kind     Kind          `cbor:"kind"`
	Pomodoro PomodoroType  `cbor:"pomodoro,omitempty"`
	Note     string        `cbor:"note,omitempty"`
	BuiltIn  bool          `cbor:"-"`
}

// BuiltinPresets returns the presets shipped with the application.
func BuiltinPresets() []Preset {
	return []Preset{
		{Label: "Pomodoro", Duration: 25 * time.Minute, Kind: KindPomodoro, Pomodoro: PomodoroFocus, BuiltIn: true},
		{Label: "Short Break", Duration: 5 * time.Minute, Kind: KindPomodoro, Pomodoro: PomodoroShortBreak, BuiltIn: true},
		{Label: "Long Break", Duration: 15 * time.Minute, Kind: KindPomodoro, Pomodoro: PomodoroLongBreak, BuiltIn: true},
		{Label: "1 Hour", Duration: time.Hour, Kind: KindCountdown, BuiltIn: true},
		{Label: "3 Hours", Duration: 3 * time.Hour, Kind: KindCountdown, BuiltIn: true},
		{Label: "Stopwatch", Duration: 0, Kind: KindStopwatch, BuiltIn: true},
	}
}
