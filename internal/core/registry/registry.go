// Package registry owns the in-memory timer, stack and preset collections.
//
// Every mutation builds a new slice and swaps it in under a single mutex, so a
// snapshot handed out by Timers never changes underneath its reader and a
// scheduler batch (Update) is never interleaved with a command.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chronos/internal/core/model"
	"chronos/internal/core/phase"
)

const defaultStackName = "Stack"

// Registry errors.
var (
	ErrTimerNotFound  = errors.New("timer not found")
	ErrStackNotFound  = errors.New("stack not found")
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidTimer   = errors.New("invalid timer")
	ErrInvalidStack   = errors.New("invalid stack")
)

// Option configures a Registry.
type Option func(*Registry)

// WithIDGenerator replaces the uuid-based id generator.
func WithIDGenerator(next func() string) Option {
	return func(registry *Registry) {
		registry.newID = next
	}
}

// WithNow replaces the creation timestamp source.
func WithNow(now func() time.Time) Option {
	return func(registry *Registry) {
		registry.now = now
	}
}

// Registry holds timers, stacks and custom presets.
type Registry struct {
	mu      sync.RWMutex
	timers  []model.Timer
	stacks  []model.TimerStack
	presets []model.Preset
	newID   func() string
	now     func() time.Time
	version uint64
}

// New creates an empty registry.
func New(options ...Option) *Registry {
	registry := &Registry{
		newID: func() string { return uuid.New().String() },
		now:   time.Now,
	}
	for _, option := range options {
		option(registry)
	}
	return registry
}

// NewID returns a fresh identifier from the registry's generator.
func (registry *Registry) NewID() string {
	return registry.newID()
}

// Version increases with every committed change to any collection.
func (registry *Registry) Version() uint64 {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.version
}

// Timers returns a snapshot of all timers in creation order.
func (registry *Registry) Timers() []model.Timer {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return append([]model.Timer(nil), registry.timers...)
}

// Timer returns the timer with id.
func (registry *Registry) Timer(id string) (model.Timer, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	index := registry.indexLocked(id)
	if index < 0 {
		return model.Timer{}, false
	}
	return registry.timers[index], true
}

// Create builds a stopped timer and returns its id. When source is set the
// timer becomes a stack timer seeded from the first phase: duration and label
// come from that phase, and label only supplies the stack name when the
// source carries none.
func (registry *Registry) Create(kind model.Kind, duration time.Duration, label, note string, source *model.StackProgress) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %w", ErrInvalidTimer, model.ErrUnknownKind)
	}
	if duration < 0 {
		return "", fmt.Errorf("%w: %w", ErrInvalidTimer, model.ErrInvalidDuration)
	}
	if source != nil {
		if kind == model.KindStopwatch {
			return "", fmt.Errorf("%w: %w", ErrInvalidTimer, model.ErrPhasesOnStopwatch)
		}
		if len(source.Phases) == 0 {
			return "", fmt.Errorf("%w: %w", ErrInvalidTimer, model.ErrEmptyPhases)
		}
		progress := *source
		progress.Phases = append([]model.StackedTimer(nil), source.Phases...)
		progress.CurrentPhase = 0
		if progress.StackName == "" {
			progress.StackName, _, _ = strings.Cut(strings.TrimSpace(label), phase.LabelSeparator)
		}
		if progress.StackName == "" {
			progress.StackName = defaultStackName
		}
		source = &progress
		duration = progress.Phases[0].Duration
		label = phase.Label(progress.StackName, progress.Phases[0], 0)
	}

	timer := model.Timer{
		ID:              registry.newID(),
		Kind:            kind,
		Label:           label,
		Note:            note,
		InitialDuration: duration,
		Stack:           source,
	}
	if kind.CountsDown() {
		timer.Remaining = duration
	}
	if kind == model.KindPomodoro {
		timer.Pomodoro = model.PomodoroFocus
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	timer.CreatedAt = registry.nextCreatedAtLocked()
	registry.commitTimersLocked(append(append([]model.Timer(nil), registry.timers...), timer))
	return timer.ID, nil
}

// Insert adds a restored timer after validating its invariants. Duplicate ids
// are rejected.
func (registry *Registry) Insert(timer model.Timer) error {
	if err := timer.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTimer, err)
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if registry.indexLocked(timer.ID) >= 0 {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalidTimer, timer.ID)
	}
	registry.commitTimersLocked(append(append([]model.Timer(nil), registry.timers...), timer))
	return nil
}

// Toggle flips the running flag without touching time values. A completed
// timer stays stopped until it is reset.
func (registry *Registry) Toggle(id string) error {
	return registry.modify(id, func(timer model.Timer) (model.Timer, error) {
		if !timer.IsCompleted {
			timer.IsRunning = !timer.IsRunning
		}
		return timer, nil
	})
}

// Reset restores the current phase to its full duration and stops the timer.
func (registry *Registry) Reset(id string) error {
	return registry.modify(id, func(timer model.Timer) (model.Timer, error) {
		if timer.Kind.CountsDown() {
			timer.Remaining = timer.InitialDuration
		}
		timer.Elapsed = 0
		timer.IsRunning = false
		timer.IsCompleted = false
		return timer, nil
	})
}

// Delete removes the timer.
func (registry *Registry) Delete(id string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	index := registry.indexLocked(id)
	if index < 0 {
		return ErrTimerNotFound
	}
	next := make([]model.Timer, 0, len(registry.timers)-1)
	next = append(next, registry.timers[:index]...)
	next = append(next, registry.timers[index+1:]...)
	registry.commitTimersLocked(next)
	return nil
}

// Patch merges partial fields into the timer.
func (registry *Registry) Patch(id string, patch model.Patch) error {
	return registry.modify(id, func(timer model.Timer) (model.Timer, error) {
		return patch.Apply(timer)
	})
}

// Update replaces the whole timer collection with the result of fn in one
// atomic step. fn receives a private copy and must not retain it.
func (registry *Registry) Update(fn func([]model.Timer) []model.Timer) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	next := fn(append([]model.Timer(nil), registry.timers...))
	registry.commitTimersLocked(next)
}

// Replace swaps in a loaded collection of timers, stacks and presets.
func (registry *Registry) Replace(timers []model.Timer, stacks []model.TimerStack, presets []model.Preset) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.timers = append([]model.Timer(nil), timers...)
	registry.stacks = append([]model.TimerStack(nil), stacks...)
	registry.presets = append([]model.Preset(nil), presets...)
	registry.version++
}

// Stacks returns a snapshot of all stacks.
func (registry *Registry) Stacks() []model.TimerStack {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return append([]model.TimerStack(nil), registry.stacks...)
}

// Stack returns the stack with id.
func (registry *Registry) Stack(id string) (model.TimerStack, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	for _, stack := range registry.stacks {
		if stack.ID == id {
			return stack, true
		}
	}
	return model.TimerStack{}, false
}

// CreateStack stores a stack, assigning ids, phase order and creation time.
func (registry *Registry) CreateStack(stack model.TimerStack) (model.TimerStack, error) {
	stack.Name = strings.TrimSpace(stack.Name)
	phases := make([]model.StackedTimer, len(stack.Timers))
	for index, entry := range stack.Timers {
		if entry.ID == "" {
			entry.ID = registry.newID()
		}
		entry.Order = index
		phases[index] = entry
	}
	stack.Timers = phases
	if err := stack.Validate(); err != nil {
		return model.TimerStack{}, fmt.Errorf("%w: %w", ErrInvalidStack, err)
	}
	if stack.ID == "" {
		stack.ID = registry.newID()
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	for _, existing := range registry.stacks {
		if existing.ID == stack.ID {
			return model.TimerStack{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidStack, stack.ID)
		}
	}
	if stack.CreatedAt.IsZero() {
		stack.CreatedAt = registry.now()
	}
	registry.stacks = append(append([]model.TimerStack(nil), registry.stacks...), stack)
	registry.version++
	return stack, nil
}

// DeleteStack removes a stack. Timers already materialized from it are unaffected.
func (registry *Registry) DeleteStack(id string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	next := make([]model.TimerStack, 0, len(registry.stacks))
	for _, stack := range registry.stacks {
		if stack.ID != id {
			next = append(next, stack)
		}
	}
	if len(next) == len(registry.stacks) {
		return ErrStackNotFound
	}
	registry.stacks = next
	registry.version++
	return nil
}

// Presets returns the custom presets.
func (registry *Registry) Presets() []model.Preset {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return append([]model.Preset(nil), registry.presets...)
}

// SavePreset appends a custom preset.
func (registry *Registry) SavePreset(preset model.Preset) {
	preset.BuiltIn = false
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.presets = append(append([]model.Preset(nil), registry.presets...), preset)
	registry.version++
}

// DeletePreset removes all custom presets with label.
func (registry *Registry) DeletePreset(label string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	next := make([]model.Preset, 0, len(registry.presets))
	for _, preset := range registry.presets {
		if preset.Label != label {
			next = append(next, preset)
		}
	}
	if len(next) == len(registry.presets) {
		return ErrPresetNotFound
	}
	registry.presets = next
	registry.version++
	return nil
}

func (registry *Registry) modify(id string, fn func(model.Timer) (model.Timer, error)) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	index := registry.indexLocked(id)
	if index < 0 {
		return ErrTimerNotFound
	}
	updated, err := fn(registry.timers[index])
	if err != nil {
		return err
	}
	next := append([]model.Timer(nil), registry.timers...)
	next[index] = updated
	registry.commitTimersLocked(next)
	return nil
}

func (registry *Registry) commitTimersLocked(next []model.Timer) {
	registry.timers = next
	registry.version++
}

func (registry *Registry) indexLocked(id string) int {
	for index, timer := range registry.timers {
		if timer.ID == id {
			return index
		}
	}
	return -1
}

// nextCreatedAtLocked keeps creation stamps strictly increasing even when the
// wall clock repeats or steps back.
func (registry *Registry) nextCreatedAtLocked() time.Time {
	now := registry.now()
	for _, timer := range registry.timers {
		if !now.After(timer.CreatedAt) {
			now = timer.CreatedAt.Add(time.Nanosecond)
		}
	}
	return now
}
