// Package actions is the command surface used by the desktop window, the tray
// and the shell. It validates input at the boundary, forwards commands to the
// registry and snapshots the collections through a storage gateway.
package actions

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"chronos/internal/core/model"
	"chronos/internal/core/phase"
	"chronos/internal/core/registry"
	"chronos/internal/storage"
)

// Boundary validation errors.
var (
	ErrNonPositiveDuration = errors.New("duration must be positive")
	ErrBuiltinPreset       = errors.New("built-in presets cannot be deleted")
	ErrEmptyLabel          = errors.New("label is empty")
)

// Service orchestrates registry commands and persistence.
type Service struct {
	registry *registry.Registry
	gateway  storage.Gateway
	logger   *slog.Logger

	persistMu sync.Mutex
	persisted uint64
}

// Option configures a Service.
type Option func(*Service)

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(service *Service) {
		if logger != nil {
			service.logger = logger
		}
	}
}

// New creates a Service. gateway may be nil, in which case nothing is persisted.
func New(reg *registry.Registry, gateway storage.Gateway, options ...Option) *Service {
	service := &Service{
		registry: reg,
		gateway:  gateway,
		logger:   slog.Default(),
	}
	for _, option := range options {
		option(service)
	}
	return service
}

// Registry exposes the underlying registry for read access and scheduling.
func (service *Service) Registry() *registry.Registry {
	return service.registry
}

// Timers returns the current timer snapshot.
func (service *Service) Timers() []model.Timer {
	return service.registry.Timers()
}

// Stacks returns the current stack snapshot.
func (service *Service) Stacks() []model.TimerStack {
	return service.registry.Stacks()
}

// AddOption configures AddTimer.
type AddOption func(*addRequest)

type addRequest struct {
	source *model.StackProgress
}

// WithStackSource makes the new timer step through the phases of source. The
// duration and label then come from the first phase.
func WithStackSource(source *model.StackProgress) AddOption {
	return func(request *addRequest) {
		request.source = source
	}
}

// AddTimer creates a stopped timer. Countdown and Pomodoro timers need a
// positive duration; a stopwatch ignores it.
func (service *Service) AddTimer(kind model.Kind, duration time.Duration, label, note string, options ...AddOption) (string, error) {
	var request addRequest
	for _, option := range options {
		option(&request)
	}
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", model.ErrUnknownKind, kind)
	}
	if request.source != nil {
		if err := validateSource(kind, request.source); err != nil {
			return "", err
		}
		duration = request.source.Phases[0].Duration
	}
	if kind == model.KindStopwatch {
		duration = 0
	} else if duration <= 0 {
		return "", fmt.Errorf("%w: %s", ErrNonPositiveDuration, duration)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = defaultLabel(kind)
	}

	id, err := service.registry.Create(kind, duration, label, note, request.source)
	if err != nil {
		return "", err
	}
	service.logger.Debug("timer added", "timer", id, "kind", kind, "duration", duration, "stack", request.source != nil)
	service.Persist()
	return id, nil
}

func validateSource(kind model.Kind, source *model.StackProgress) error {
	if kind == model.KindStopwatch {
		return model.ErrPhasesOnStopwatch
	}
	if len(source.Phases) == 0 {
		return model.ErrEmptyPhases
	}
	for index, entry := range source.Phases {
		if entry.Duration <= 0 {
			return fmt.Errorf("phase %d: %w", index+1, ErrNonPositiveDuration)
		}
	}
	return nil
}

// AddFromPreset creates a timer from the built-in or custom preset with label.
func (service *Service) AddFromPreset(label string) (string, error) {
	for _, preset := range service.Presets() {
		if preset.Label != label {
			continue
		}
		id, err := service.AddTimer(preset.Kind, preset.Duration, preset.Label, preset.Note)
		if err != nil {
			return "", err
		}
		if preset.Kind == model.KindPomodoro && preset.Pomodoro != "" && preset.Pomodoro != model.PomodoroFocus {
			pomodoro := preset.Pomodoro
			service.absorb("preset type", id, service.registry.Patch(id, model.Patch{Pomodoro: &pomodoro}))
			service.Persist()
		}
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", registry.ErrPresetNotFound, label)
}

// ToggleTimer starts or pauses a timer. A completed timer is reset and
// started again. Unknown ids are ignored.
func (service *Service) ToggleTimer(id string) {
	if timer, ok := service.registry.Timer(id); ok && timer.IsCompleted {
		if !service.absorb("restart", id, service.registry.Reset(id)) {
			return
		}
	}
	if service.absorb("toggle", id, service.registry.Toggle(id)) {
		service.Persist()
	}
}

// ResetTimer stops a timer and restores its current phase. Unknown ids are ignored.
func (service *Service) ResetTimer(id string) {
	if service.absorb("reset", id, service.registry.Reset(id)) {
		service.Persist()
	}
}

// DeleteTimer removes a timer. Unknown ids are ignored.
func (service *Service) DeleteTimer(id string) {
	if service.absorb("delete", id, service.registry.Delete(id)) {
		service.Persist()
	}
}

// UpdateTimer merges a partial update. Unknown ids are ignored; a patch that
// breaks the timer invariants is returned as an error.
func (service *Service) UpdateTimer(id string, patch model.Patch) error {
	err := service.registry.Patch(id, patch)
	if errors.Is(err, registry.ErrTimerNotFound) {
		service.absorb("update", id, err)
		return nil
	}
	if err != nil {
		return err
	}
	service.Persist()
	return nil
}

// RunStack materializes a stack into a timer and starts it. It returns the new
// timer id, or "" when the stack is unknown.
func (service *Service) RunStack(stackID string) string {
	stack, ok := service.registry.Stack(stackID)
	if !ok {
		service.logger.Debug("run of unknown stack ignored", "stack", stackID)
		return ""
	}

	draft, err := phase.Materialize(stack)
	if err != nil {
		service.logger.Warn("stack cannot be materialized", "stack", stackID, "error", err)
		return ""
	}
	id, err := service.registry.Create(draft.Kind, draft.Duration, draft.Label, draft.Note, draft.Source)
	if err != nil {
		service.logger.Warn("stack timer rejected", "stack", stackID, "error", err)
		return ""
	}
	service.absorb("start stack", id, service.registry.Toggle(id))
	service.logger.Info("stack started", "stack", stack.Name, "timer", id, "recurring", stack.IsRecurring)
	service.Persist()
	return id
}

// CreateStack validates and stores a new stack.
func (service *Service) CreateStack(name string, phases []model.StackedTimer, recurring bool) (model.TimerStack, error) {
	for index, phaseDef := range phases {
		if phaseDef.Duration <= 0 {
			return model.TimerStack{}, fmt.Errorf("phase %d: %w", index+1, ErrNonPositiveDuration)
		}
	}
	stack, err := service.registry.CreateStack(model.TimerStack{
		Name:        name,
		Timers:      phases,
		IsRecurring: recurring,
	})
	if err != nil {
		return model.TimerStack{}, err
	}
	service.Persist()
	return stack, nil
}

// DeleteStack removes a stack. Unknown ids are ignored.
func (service *Service) DeleteStack(stackID string) {
	err := service.registry.DeleteStack(stackID)
	if errors.Is(err, registry.ErrStackNotFound) {
		service.logger.Debug("delete of unknown stack ignored", "stack", stackID)
		return
	}
	service.Persist()
}

// Presets returns built-in presets followed by custom presets.
func (service *Service) Presets() []model.Preset {
	return append(model.BuiltinPresets(), service.registry.Presets()...)
}

// SavePreset stores a custom preset.
func (service *Service) SavePreset(preset model.Preset) error {
	preset.Label = strings.TrimSpace(preset.Label)
	if preset.Label == "" {
		return ErrEmptyLabel
	}
	if !preset.Kind.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownKind, preset.Kind)
	}
	if preset.Kind == model.KindStopwatch {
		preset.Duration = 0
	} else if preset.Duration <= 0 {
		return fmt.Errorf("%w: %s", ErrNonPositiveDuration, preset.Duration)
	}
	if preset.Kind == model.KindPomodoro && preset.Pomodoro == "" {
		preset.Pomodoro = model.PomodoroFocus
	}
	service.registry.SavePreset(preset)
	service.Persist()
	return nil
}

// DeletePreset removes custom presets with label. Built-ins are protected and
// unknown labels are ignored.
func (service *Service) DeletePreset(label string) error {
	for _, preset := range model.BuiltinPresets() {
		if preset.Label == label {
			if !service.hasCustomPreset(label) {
				return fmt.Errorf("%w: %q", ErrBuiltinPreset, label)
			}
			break
		}
	}
	err := service.registry.DeletePreset(label)
	if errors.Is(err, registry.ErrPresetNotFound) {
		service.logger.Debug("delete of unknown preset ignored", "preset", label)
		return nil
	}
	service.Persist()
	return nil
}

// FocusedTimer returns the first running timer, or the first timer when none
// runs.
func (service *Service) FocusedTimer() (model.Timer, bool) {
	timers := service.registry.Timers()
	for _, timer := range timers {
		if timer.IsRunning {
			return timer, true
		}
	}
	if len(timers) == 0 {
		return model.Timer{}, false
	}
	return timers[0], true
}

// ToggleFocused toggles the focused timer.
func (service *Service) ToggleFocused() {
	if timer, ok := service.FocusedTimer(); ok {
		service.ToggleTimer(timer.ID)
	}
}

// ResetFocused resets the focused timer.
func (service *Service) ResetFocused() {
	if timer, ok := service.FocusedTimer(); ok {
		service.ResetTimer(timer.ID)
	}
}

func (service *Service) hasCustomPreset(label string) bool {
	for _, preset := range service.registry.Presets() {
		if preset.Label == label {
			return true
		}
	}
	return false
}

// absorb turns a not-found miss into a logged no-op. It reports whether the
// command took effect.
func (service *Service) absorb(action, id string, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, registry.ErrTimerNotFound) {
		service.logger.Debug("command on unknown timer ignored", "action", action, "timer", id)
		return false
	}
	service.logger.Error("command failed", "action", action, "timer", id, "error", err)
	return false
}

func defaultLabel(kind model.Kind) string {
	switch kind {
	case model.KindStopwatch:
		return "Stopwatch"
	case model.KindPomodoro:
		return "Pomodoro"
	default:
		return "Timer"
	}
}
