// Package phase turns timer stacks into runnable timers and advances
// stack timers from one phase to the next.
//
// Both operations are pure: they take values and return values, and never
// touch the registry.
package phase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"chronos/internal/core/model"
)

// LabelSeparator joins a stack name and a phase name in timer labels.
const LabelSeparator = " - "

// ErrEmptyStack indicates a stack without phases was materialized.
var ErrEmptyStack = errors.New("cannot materialize stack without phases")

// Draft describes a timer to be created from a stack.
type Draft struct {
	Kind     model.Kind
	Duration time.Duration
	Label    string
	Note     string
	Source   *model.StackProgress
}

// Materialize expands a stack into the timer that runs it.
//
// A recurring stack becomes one flat countdown of the summed durations, with
// a note listing the phases. A sequential stack becomes a countdown seeded with
// the first phase that carries all phases for the scheduler to step through.
func Materialize(stack model.TimerStack) (Draft, error) {
	if len(stack.Timers) == 0 {
		return Draft{}, ErrEmptyStack
	}

	if stack.IsRecurring {
		return Draft{
			Kind:     model.KindCountdown,
			Duration: stack.TotalDuration(),
			Label:    stack.Name,
			Note:     recurringNote(stack.Timers),
		}, nil
	}

	phases := append([]model.StackedTimer(nil), stack.Timers...)
	first := phases[0]
	return Draft{
		Kind:     model.KindCountdown,
		Duration: first.Duration,
		Label:    Label(stack.Name, first, 0),
		Note:     first.Description,
		Source: &model.StackProgress{
			StackID:      stack.ID,
			StackName:    stack.Name,
			Phases:       phases,
			CurrentPhase: 0,
		},
	}, nil
}

// Advance computes the state of a stack timer whose current phase reached zero.
// It panics if the timer carries no phases; the scheduler never calls it for those.
func Advance(timer model.Timer) model.Timer {
	if !timer.HasPhases() {
		panic(fmt.Sprintf("phase: advance called on timer %s without stack phases", timer.ID))
	}

	next := timer.Stack.CurrentPhase + 1
	if next >= len(timer.Stack.Phases) {
		timer.Remaining = 0
		timer.IsCompleted = true
		timer.IsRunning = false
		return timer
	}

	progress := *timer.Stack
	progress.CurrentPhase = next
	phase := progress.Phases[next]

	timer.Label = Label(StackName(timer), phase, next)
	timer.Note = phase.Description
	timer.InitialDuration = phase.Duration
	timer.Remaining = phase.Duration
	timer.Stack = &progress
	timer.IsCompleted = false
	timer.IsRunning = true
	return timer
}

// Label builds the display label of phase index within the named stack.
func Label(stackName string, phase model.StackedTimer, index int) string {
	return stackName + LabelSeparator + model.PhaseName(phase, index)
}

// StackName returns the originating stack name of a stack timer. Snapshots
// written before the name was stored fall back to the label prefix.
func StackName(timer model.Timer) string {
	if timer.Stack != nil && timer.Stack.StackName != "" {
		return timer.Stack.StackName
	}
	name, _, _ := strings.Cut(timer.Label, LabelSeparator)
	return name
}

func recurringNote(phases []model.StackedTimer) string {
	lines := make([]string, 0, len(phases))
	for index, phase := range phases {
		minutes := int(phase.Duration / time.Minute)
		lines = append(lines, fmt.Sprintf("%d. %s (%dm)", index+1, model.PhaseName(phase, index), minutes))
	}
	return "Recurring Stack\n\n" + strings.Join(lines, "\n")
}
