package actions

import (
	"errors"
	"fmt"

	"chronos/internal/core/model"
	"chronos/internal/storage"
)

// Load seeds the registry from the gateway. Unreadable timer state falls back
// to a single default countdown; unreadable stacks and presets fall back to
// empty collections. Load never fails.
func (service *Service) Load() {
	timers := service.loadTimers()
	stacks := service.loadStacks()
	presets := service.loadPresets()

	service.registry.Replace(nil, stacks, presets)
	restored := 0
	for _, timer := range timers {
		if err := service.registry.Insert(timer); err != nil {
			service.logger.Warn("dropping saved timer", "timer", timer.ID, "error", err)
			continue
		}
		restored++
	}
	if restored == 0 {
		defaults := model.DefaultTimer
		if _, err := service.registry.Create(model.KindCountdown, defaults.Duration, defaults.Label, "", nil); err != nil {
			service.logger.Error("failed to create default timer", "error", err)
		}
	}

	service.persistMu.Lock()
	service.persisted = service.registry.Version()
	service.persistMu.Unlock()

	service.logger.Info("state loaded",
		"timers", len(service.registry.Timers()),
		"stacks", len(stacks),
		"presets", len(presets),
	)
}

// Persist snapshots all collections when they changed since the last snapshot.
func (service *Service) Persist() {
	if err := service.persist(false); err != nil {
		service.logger.Error("failed to persist state", "error", err)
	}
}

// Flush snapshots all collections unconditionally.
func (service *Service) Flush() error {
	return service.persist(true)
}

func (service *Service) persist(force bool) error {
	if service.gateway == nil {
		return nil
	}

	service.persistMu.Lock()
	defer service.persistMu.Unlock()

	version := service.registry.Version()
	if !force && version == service.persisted {
		return nil
	}

	timers, err := storage.EncodeTimers(service.registry.Timers())
	if err != nil {
		return err
	}
	stacks, err := storage.EncodeStacks(service.registry.Stacks())
	if err != nil {
		return err
	}
	presets, err := storage.EncodePresets(service.registry.Presets())
	if err != nil {
		return err
	}

	var errs []error
	for _, entry := range []struct {
		key  string
		blob []byte
	}{
		{storage.KeyTimers, timers},
		{storage.KeyStacks, stacks},
		{storage.KeyPresets, presets},
	} {
		if err := service.gateway.Save(entry.key, entry.blob); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", entry.key, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	service.persisted = version
	return nil
}

func (service *Service) loadTimers() []model.Timer {
	blob, ok := service.loadBlob(storage.KeyTimers)
	if !ok {
		return nil
	}
	timers, err := storage.DecodeTimers(blob)
	if err != nil {
		service.logger.Warn("saved timers unreadable, using default timer", "error", err)
		return nil
	}
	return timers
}

func (service *Service) loadStacks() []model.TimerStack {
	blob, ok := service.loadBlob(storage.KeyStacks)
	if !ok {
		return nil
	}
	decoded, err := storage.DecodeStacks(blob)
	if err != nil {
		service.logger.Warn("saved stacks unreadable", "error", err)
		return nil
	}

	stacks := make([]model.TimerStack, 0, len(decoded))
	for _, stack := range decoded {
		if stack.ID == "" {
			service.logger.Warn("dropping saved stack without id", "stack", stack.Name)
			continue
		}
		if err := stack.Validate(); err != nil {
			service.logger.Warn("dropping invalid saved stack", "stack", stack.ID, "error", err)
			continue
		}
		stacks = append(stacks, stack)
	}
	return stacks
}

func (service *Service) loadPresets() []model.Preset {
	blob, ok := service.loadBlob(storage.KeyPresets)
	if !ok {
		return nil
	}
	decoded, err := storage.DecodePresets(blob)
	if err != nil {
		service.logger.Warn("saved presets unreadable", "error", err)
		return nil
	}

	presets := make([]model.Preset, 0, len(decoded))
	for _, preset := range decoded {
		if preset.Label == "" || !preset.Kind.Valid() || preset.Duration < 0 {
			service.logger.Warn("dropping invalid saved preset", "preset", preset.Label)
			continue
		}
		presets = append(presets, preset)
	}
	return presets
}

func (service *Service) loadBlob(key string) ([]byte, bool) {
	if service.gateway == nil {
		return nil, false
	}
	blob, ok, err := service.gateway.Load(key)
	if err != nil {
		service.logger.Warn("failed to read saved state", "key", key, "error", err)
		return nil, false
	}
	if !ok || len(blob) == 0 {
		return nil, false
	}
	return blob, true
}
