package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"chronos/internal/core/model"
)

const menuTitle = "Chronos"

// StackEntry is one runnable stack in the tray submenu.
type StackEntry struct {
	ID   string
	Name string
}

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShow          func()
	OnToggleFocused func()
	OnResetFocused  func()
	OnRunStack      func(stackID string)
	OnPreferences   func()
	OnQuit          func()
}

// Manager handles system tray state.
type Manager struct {
	app         desktop.App
	statusItem  *fyne.MenuItem
	toggleItem  *fyne.MenuItem
	resetItem   *fyne.MenuItem
	stacksItem  *fyne.MenuItem
	callbacks   Callbacks
	stacks      []StackEntry
	statusLabel string
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:         app,
		callbacks:   callbacks,
		statusLabel: "starting...",
	}

	manager.statusItem = fyne.NewMenuItem("", nil)
	manager.statusItem.Disabled = true

	manager.toggleItem = fyne.NewMenuItem("Start / pause focused timer", func() {
		if manager.callbacks.OnToggleFocused != nil {
			manager.callbacks.OnToggleFocused()
		}
	})
	manager.resetItem = fyne.NewMenuItem("Reset focused timer", func() {
		if manager.callbacks.OnResetFocused != nil {
			manager.callbacks.OnResetFocused()
		}
	})
	manager.stacksItem = fyne.NewMenuItem("Run stack", nil)

	manager.refreshStatus()
	return manager
}

// SetStatus updates the status label.
func (manager *Manager) SetStatus(status string) {
	if status == manager.statusLabel {
		return
	}
	manager.statusLabel = status
	manager.refreshStatus()
}

// SetStacks replaces the run-stack submenu.
func (manager *Manager) SetStacks(stacks []StackEntry) {
	manager.stacks = append([]StackEntry(nil), stacks...)
	manager.refreshMenu()
}

// Status summarizes timers for the tray: the focused running timer, or a count.
func Status(timers []model.Timer) string {
	var running []model.Timer
	for _, timer := range timers {
		if timer.IsRunning {
			running = append(running, timer)
		}
	}
	switch len(running) {
	case 0:
		return fmt.Sprintf("idle (%d timers)", len(timers))
	case 1:
		timer := running[0]
		return fmt.Sprintf("%s %s", timer.Label, model.FormatClock(timer.Display(), timer.Kind.CountsDown()))
	default:
		timer := running[0]
		return fmt.Sprintf("%s %s (+%d running)", timer.Label, model.FormatClock(timer.Display(), timer.Kind.CountsDown()), len(running)-1)
	}
}

func (manager *Manager) refreshStatus() {
	manager.statusItem.Label = fmt.Sprintf("Status: %s", manager.statusLabel)
	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}

	stackItems := make([]*fyne.MenuItem, 0, len(manager.stacks))
	for _, stack := range manager.stacks {
		id := stack.ID
		stackItems = append(stackItems, fyne.NewMenuItem(stack.Name, func() {
			if manager.callbacks.OnRunStack != nil {
				manager.callbacks.OnRunStack(id)
			}
		}))
	}
	if len(stackItems) == 0 {
		empty := fyne.NewMenuItem("No stacks", nil)
		empty.Disabled = true
		stackItems = append(stackItems, empty)
	}
	manager.stacksItem.ChildMenu = fyne.NewMenu("", stackItems...)

	manager.app.SetSystemTrayMenu(fyne.NewMenu(menuTitle,
		manager.statusItem,
		fyne.NewMenuItem("Show timers", func() {
			if manager.callbacks.OnShow != nil {
				manager.callbacks.OnShow()
			}
		}),
		fyne.NewMenuItemSeparator(),
		manager.toggleItem,
		manager.resetItem,
		manager.stacksItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences", func() {
			if manager.callbacks.OnPreferences != nil {
				manager.callbacks.OnPreferences()
			}
		}),
		fyne.NewMenuItem("Quit", func() {
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
		}),
	))
}
