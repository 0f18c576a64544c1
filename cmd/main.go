package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"chronos/internal/bootstrap"
	"chronos/internal/config"
	"chronos/internal/core/model"
	"chronos/internal/core/timekeeper"
	"chronos/internal/notify"
	"chronos/internal/platform"
	"chronos/internal/storage"
	"chronos/internal/ui/animation"
	"chronos/internal/ui/board"
	"chronos/internal/ui/overlay"
	"chronos/internal/ui/preferences"
	"chronos/internal/ui/tray"
	"chronos/resources"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
)

const alertOpacity = uint8(235)

func main() {
	settings, err := storage.LoadSettings(bootstrap.AppName)
	if err != nil {
		log.Printf("settings: %v (using defaults)", err)
	}

	runtime, err := bootstrap.Start(bootstrap.Options{
		Settings:  settings,
		LogOutput: os.Stderr,
	})
	if err != nil {
		if errors.Is(err, platform.ErrAlreadyRunning) {
			log.Printf("single instance: %v", err)
			return
		}
		log.Fatalf("start: %v", err)
	}
	defer func() {
		if err := runtime.Close(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()
	logger := runtime.Logger
	service := runtime.Service
	platformService := platform.NewService()

	fyneApp := app.NewWithID("com.chronos.app")
	idleIcon := resources.MustLogo(resources.LogoIdle)
	activeIcon := resources.MustLogo(resources.LogoActive)
	fyneApp.SetIcon(idleIcon)

	mainBoard := board.New(fyneApp, service, logger.With("component", "board"))

	alert := overlay.New(fyneApp, overlay.Config{
		Opacity: alertOpacity,
		Pulse: animation.PulseSpec{
			On:  resources.MustIcon(resources.IconBell),
			Off: resources.MustIcon(resources.IconBellDim),
		},
	})
	alert.SetOnRestart(func(timerID string) {
		if timer, ok := service.Registry().Timer(timerID); ok && timer.IsRunning {
			return
		}
		service.ResetTimer(timerID)
		service.ToggleTimer(timerID)
		mainBoard.Refresh()
	})

	chime := notify.NewChime(logger.With("component", "chime"))
	chime.SetVolume(runtime.Settings().ChimeVolume)

	prefsWindow := preferences.New(fyneApp, runtime.Settings(), func(updated config.Settings) {
		previous := runtime.Settings()
		runtime.Apply(updated)
		chime.SetVolume(updated.ChimeVolume)
		if err := storage.SaveSettings(bootstrap.AppName, updated); err != nil {
			logger.Error("failed to save settings", "error", err)
		}
		if updated.LaunchAtLogin != previous.LaunchAtLogin {
			if err := platform.SetAutostart(platformService, bootstrap.AppName, updated.LaunchAtLogin); err != nil {
				logger.Error("failed to update autostart", "error", err)
			}
		}
		logger.Info("settings updated", "summary", preferences.Summary(updated))
	})

	var trayManager *tray.Manager
	refreshStacks := func() {
		if trayManager == nil {
			return
		}
		stacks := service.Stacks()
		entries := make([]tray.StackEntry, 0, len(stacks))
		for _, stack := range stacks {
			entries = append(entries, tray.StackEntry{ID: stack.ID, Name: stack.Name})
		}
		trayManager.SetStacks(entries)
	}
	mainBoard.SetOnStacksChanged(refreshStacks)

	quit := func() {
		runtime.Keeper.Stop()
		fyneApp.Quit()
	}

	desktopApp, hasTray := fyneApp.(desktop.App)
	if hasTray {
		trayManager = tray.New(desktopApp, tray.Callbacks{
			OnShow: mainBoard.Show,
			OnToggleFocused: func() {
				service.ToggleFocused()
				mainBoard.Refresh()
			},
			OnResetFocused: func() {
				service.ResetFocused()
				mainBoard.Refresh()
			},
			OnRunStack: func(stackID string) {
				service.RunStack(stackID)
				mainBoard.Refresh()
			},
			OnPreferences: prefsWindow.Show,
			OnQuit:        quit,
		})
		desktopApp.SetSystemTrayIcon(idleIcon)
		refreshStacks()
	} else {
		logger.Warn("system tray unsupported on this platform")
		mainBoard.Window().SetCloseIntercept(quit)
	}

	events := runtime.Keeper.Subscribe(256)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trayActive := false
	var lastRefresh time.Time
	go runtime.Watch(ctx, events, func(event timekeeper.Event) {
		switch event.Type {
		case timekeeper.EventCompleted:
			current := runtime.Settings()
			if current.ChimeEnabled {
				if err := chime.Play(notify.SoundCompleted); err != nil {
					logger.Debug("chime skipped", "error", err)
				}
			}
			if current.AlertEnabled {
				timer, _ := service.Registry().Timer(event.TimerID)
				alert.Show(overlay.Alert{
					TimerID: event.TimerID,
					Label:   event.Label,
					Note:    timer.Note,
					At:      event.At,
				})
			}
		case timekeeper.EventPhaseAdvanced:
			if runtime.Settings().ChimeEnabled {
				if err := chime.Play(notify.SoundPhase); err != nil {
					logger.Debug("chime skipped", "error", err)
				}
			}
		case timekeeper.EventTick:
			// Cards show whole seconds; redrawing a few times a second is enough.
			if event.At.Sub(lastRefresh) < 200*time.Millisecond {
				return
			}
			lastRefresh = event.At
		}

		fyne.Do(func() {
			mainBoard.Refresh()
			if trayManager == nil {
				return
			}
			timers := service.Timers()
			trayManager.SetStatus(tray.Status(timers))
			active := anyRunning(timers)
			if active != trayActive {
				trayActive = active
				if active {
					desktopApp.SetSystemTrayIcon(activeIcon)
				} else {
					desktopApp.SetSystemTrayIcon(idleIcon)
				}
			}
		})
	})
	runtime.Keeper.Start()

	mainBoard.Show()
	fyneApp.Run()
}

func anyRunning(timers []model.Timer) bool {
	for _, timer := range timers {
		if timer.IsRunning {
			return true
		}
	}
	return false
}
