package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"chronos/internal/config"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Window handles the preferences UI.
type Window struct {
	window    fyne.Window
	settings  config.Settings
	onSave    func(config.Settings)
	tickMs    *widget.Entry
	autosave  *widget.Entry
	backend   *widget.RadioGroup
	dataDir   *widget.Entry
	chime     *widget.Check
	volume    *widget.Slider
	alert     *widget.Check
	autostart *widget.Check
	logLevel  *widget.Select
}

// New creates a preferences window.
func New(app fyne.App, settings config.Settings, onSave func(config.Settings)) *Window {
	window := app.NewWindow("Chronos Settings")

	prefs := &Window{
		window:    window,
		onSave:    onSave,
		tickMs:    widget.NewEntry(),
		autosave:  widget.NewEntry(),
		backend:   widget.NewRadioGroup([]string{config.BackendFile, config.BackendSQLite}, nil),
		dataDir:   widget.NewEntry(),
		chime:     widget.NewCheck("Play a chime when a timer finishes", nil),
		volume:    widget.NewSlider(config.MinChimeVolume, config.MaxChimeVolume),
		alert:     widget.NewCheck("Show an alert when a timer finishes", nil),
		autostart: widget.NewCheck("Launch at login", nil),
		logLevel:  widget.NewSelect(logLevels, nil),
	}
	prefs.backend.Horizontal = true
	prefs.volume.Step = 0.5
	prefs.UpdateSettings(settings)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Timing", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Tick every"), prefs.tickMs, widget.NewLabel("ms")),
		container.NewHBox(widget.NewLabel("Autosave every"), prefs.autosave, widget.NewLabel("sec")),
		widget.NewLabelWithStyle("Storage", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.backend,
		widget.NewLabel("Data directory (restart to apply)"),
		prefs.dataDir,
		widget.NewLabelWithStyle("Notifications", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.chime,
		container.NewBorder(nil, nil, widget.NewLabel("Volume"), nil, prefs.volume),
		prefs.alert,
		widget.NewLabelWithStyle("System", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.autostart,
		container.NewHBox(widget.NewLabel("Log level"), prefs.logLevel),
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		prefs.UpdateSettings(prefs.settings)
		window.Hide()
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(440, 460))
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings config.Settings) {
	prefs.settings = settings
	prefs.tickMs.SetText(strconv.Itoa(int(settings.TickInterval / time.Millisecond)))
	prefs.autosave.SetText(strconv.Itoa(int(settings.AutosaveInterval / time.Second)))
	prefs.backend.SetSelected(settings.StorageBackend)
	prefs.dataDir.SetText(settings.DataDir)
	prefs.chime.SetChecked(settings.ChimeEnabled)
	prefs.volume.SetValue(settings.ChimeVolume)
	prefs.alert.SetChecked(settings.AlertEnabled)
	prefs.autostart.SetChecked(settings.LaunchAtLogin)
	prefs.logLevel.SetSelected(strings.ToLower(settings.LogLevel))
}

func (prefs *Window) handleSave() {
	settings := Apply(prefs.settings, Form{
		TickMillis:      prefs.tickMs.Text,
		AutosaveSeconds: prefs.autosave.Text,
		Backend:         prefs.backend.Selected,
		DataDir:         prefs.dataDir.Text,
		Chime:           prefs.chime.Checked,
		ChimeVolume:     prefs.volume.Value,
		Alert:           prefs.alert.Checked,
		LaunchAtLogin:   prefs.autostart.Checked,
		LogLevel:        prefs.logLevel.Selected,
	})

	prefs.settings = settings
	prefs.UpdateSettings(settings)
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

// Form carries raw widget values.
type Form struct {
	TickMillis      string
	AutosaveSeconds string
	Backend         string
	DataDir         string
	Chime           bool
	ChimeVolume     float64
	Alert           bool
	LaunchAtLogin   bool
	LogLevel        string
}

// Apply merges form values into settings. Unparseable numbers and unknown
// choices keep the previous value.
func Apply(settings config.Settings, form Form) config.Settings {
	if millis, ok := parsePositiveInt(form.TickMillis); ok {
		settings.TickInterval = config.ClampTickInterval(time.Duration(millis) * time.Millisecond)
	}
	if seconds, ok := parsePositiveInt(form.AutosaveSeconds); ok {
		settings.AutosaveInterval = time.Duration(seconds) * time.Second
	}
	if config.ValidBackend(form.Backend) {
		settings.StorageBackend = form.Backend
	}
	if dir := strings.TrimSpace(form.DataDir); dir != "" {
		settings.DataDir = dir
	}
	for _, level := range logLevels {
		if form.LogLevel == level {
			settings.LogLevel = level
		}
	}
	settings.ChimeEnabled = form.Chime
	settings.ChimeVolume = config.ClampChimeVolume(form.ChimeVolume)
	settings.AlertEnabled = form.Alert
	settings.LaunchAtLogin = form.LaunchAtLogin
	return settings
}

// Summary describes settings in one line for logs.
func Summary(settings config.Settings) string {
	return fmt.Sprintf("tick=%s autosave=%s backend=%s chime=%t volume=%.1f alert=%t",
		settings.TickInterval, settings.AutosaveInterval, settings.StorageBackend,
		settings.ChimeEnabled, settings.ChimeVolume, settings.AlertEnabled)
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
