// Package board is the main Chronos window: timer cards, the add form with
// presets, and the stacks tab.
package board

import (
	"image/color"
	"log/slog"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"chronos/internal/core/actions"
	"chronos/internal/core/model"
)

var (
	clockColor     = color.NRGBA{R: 242, G: 178, B: 74, A: 255}
	completedColor = color.NRGBA{R: 120, G: 200, B: 120, A: 255}
)

// Board owns the main window. All methods must run on the fyne main goroutine.
type Board struct {
	window  fyne.Window
	service *actions.Service
	logger  *slog.Logger

	cardsBox  *fyne.Container
	cards     []*card
	rendered  bool
	stacksBox *fyne.Container

	kindSelect   *widget.Select
	durationIn   *widget.Entry
	labelIn      *widget.Entry
	noteIn       *widget.Entry
	presetSelect *widget.Select

	onStacksChanged func()
}

type card struct {
	id       string
	title    *widget.Label
	badge    *widget.Label
	note     *widget.Label
	phase    *widget.Label
	clock    *canvas.Text
	progress *widget.ProgressBar
	toggle   *widget.Button
	root     fyne.CanvasObject
}

// New builds the main window.
func New(app fyne.App, service *actions.Service, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	board := &Board{
		window:    app.NewWindow("Chronos"),
		service:   service,
		logger:    logger,
		cardsBox:  container.NewVBox(),
		stacksBox: container.NewVBox(),
	}

	tabs := container.NewAppTabs(
		container.NewTabItemWithIcon("Timers", theme.HistoryIcon(), board.buildTimersTab()),
		container.NewTabItemWithIcon("Stacks", theme.ListIcon(), board.buildStacksTab()),
	)
	board.window.SetContent(tabs)
	board.window.Resize(fyne.NewSize(560, 640))
	board.window.SetCloseIntercept(func() {
		board.window.Hide()
	})
	board.window.Canvas().SetOnTypedKey(board.handleKey)

	board.Refresh()
	board.RefreshStacks()
	return board
}

// Window returns the underlying fyne window.
func (board *Board) Window() fyne.Window {
	return board.window
}

// Show displays the main window.
func (board *Board) Show() {
	board.window.Show()
	board.window.RequestFocus()
}

// SetOnStacksChanged registers a hook run after stacks are created or deleted.
func (board *Board) SetOnStacksChanged(handler func()) {
	board.onStacksChanged = handler
}

// Refresh re-renders timer cards from the current snapshot. Cards are rebuilt
// only when the set of timers changed.
func (board *Board) Refresh() {
	timers := board.service.Timers()
	if !board.rendered || !sameIDs(timers, board.cards) {
		board.rendered = true
		board.cards = board.cards[:0]
		objects := make([]fyne.CanvasObject, 0, len(timers))
		for _, timer := range timers {
			item := board.newCard(timer.ID)
			board.cards = append(board.cards, item)
			objects = append(objects, item.root)
		}
		if len(objects) == 0 {
			objects = append(objects, widget.NewLabel("No timers. Add one below or run a stack."))
		}
		board.cardsBox.Objects = objects
		board.cardsBox.Refresh()
	}
	for index, timer := range timers {
		board.cards[index].update(NewView(timer))
	}
}

// RefreshStacks re-renders the stacks list.
func (board *Board) RefreshStacks() {
	stacks := board.service.Stacks()
	objects := make([]fyne.CanvasObject, 0, len(stacks))
	for _, stack := range stacks {
		mode := "sequential"
		if stack.IsRecurring {
			mode = "recurring"
		}
		summary := widget.NewLabel(stack.Name + "  ·  " + model.FormatClock(stack.TotalDuration(), false) + "  ·  " + mode)
		run := widget.NewButtonWithIcon("Run", theme.MediaPlayIcon(), func() {
			board.service.RunStack(stack.ID)
			board.Refresh()
		})
		remove := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
			board.service.DeleteStack(stack.ID)
			board.stacksChanged()
		})
		objects = append(objects, container.NewBorder(nil, nil, nil, container.NewHBox(run, remove), summary))
	}
	if len(objects) == 0 {
		objects = append(objects, widget.NewLabel("No stacks yet."))
	}
	board.stacksBox.Objects = objects
	board.stacksBox.Refresh()
}

func (board *Board) buildTimersTab() fyne.CanvasObject {
	board.kindSelect = widget.NewSelect(KindOptions, nil)
	board.kindSelect.SetSelected(KindOptions[0])
	board.durationIn = widget.NewEntry()
	board.durationIn.SetPlaceHolder("5m, 90, 1:30")
	board.labelIn = widget.NewEntry()
	board.labelIn.SetPlaceHolder("Label")
	board.noteIn = widget.NewEntry()
	board.noteIn.SetPlaceHolder("Note (optional)")

	add := widget.NewButtonWithIcon("Add", theme.ContentAddIcon(), board.addFromForm)
	add.Importance = widget.HighImportance

	board.presetSelect = widget.NewSelect(nil, nil)
	board.refreshPresets()
	usePreset := widget.NewButton("Add preset", func() {
		if _, err := board.service.AddFromPreset(board.presetSelect.Selected); err != nil {
			board.showError(err)
			return
		}
		board.Refresh()
	})
	savePreset := widget.NewButton("Save as preset", board.savePresetFromForm)
	dropPreset := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		if err := board.service.DeletePreset(board.presetSelect.Selected); err != nil {
			board.showError(err)
			return
		}
		board.refreshPresets()
	})

	form := container.NewVBox(
		widget.NewLabelWithStyle("New timer", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewGridWithColumns(2, board.kindSelect, board.durationIn),
		board.labelIn,
		board.noteIn,
		container.NewHBox(layout.NewSpacer(), add),
		widget.NewSeparator(),
		container.NewBorder(nil, nil, nil, container.NewHBox(usePreset, savePreset, dropPreset), board.presetSelect),
		widget.NewLabel("Space toggles and R resets the running timer."),
	)

	return container.NewBorder(nil, form, nil, nil, container.NewVScroll(board.cardsBox))
}

func (board *Board) buildStacksTab() fyne.CanvasObject {
	name := widget.NewEntry()
	name.SetPlaceHolder("Stack name")
	recurring := widget.NewCheck("Recurring (run as one countdown)", nil)
	phases := widget.NewMultiLineEntry()
	phases.SetPlaceHolder("25m Focus | deep work\n5m Break\n25m Focus")
	phases.SetMinRowsVisible(4)

	create := widget.NewButtonWithIcon("Create stack", theme.ContentAddIcon(), func() {
		parsed, err := ParsePhases(phases.Text)
		if err != nil {
			board.showError(err)
			return
		}
		if _, err := board.service.CreateStack(name.Text, parsed, recurring.Checked); err != nil {
			board.showError(err)
			return
		}
		name.SetText("")
		phases.SetText("")
		recurring.SetChecked(false)
		board.stacksChanged()
	})

	form := container.NewVBox(
		widget.NewLabelWithStyle("New stack", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		name,
		phases,
		recurring,
		container.NewHBox(layout.NewSpacer(), create),
	)
	return container.NewBorder(nil, form, nil, nil, container.NewVScroll(board.stacksBox))
}

func (board *Board) addFromForm() {
	kind := KindFromOption(board.kindSelect.Selected)
	duration, err := model.ParseDuration(board.durationIn.Text)
	if err != nil && kind != model.KindStopwatch {
		board.showError(err)
		return
	}
	if _, err := board.service.AddTimer(kind, duration, board.labelIn.Text, strings.TrimSpace(board.noteIn.Text)); err != nil {
		board.showError(err)
		return
	}
	board.labelIn.SetText("")
	board.noteIn.SetText("")
	board.Refresh()
}

func (board *Board) savePresetFromForm() {
	kind := KindFromOption(board.kindSelect.Selected)
	duration, err := model.ParseDuration(board.durationIn.Text)
	if err != nil && kind != model.KindStopwatch {
		board.showError(err)
		return
	}
	preset := model.Preset{
		Label:    board.labelIn.Text,
		Duration: duration,
		Kind:     kind,
		Note:     strings.TrimSpace(board.noteIn.Text),
	}
	if err := board.service.SavePreset(preset); err != nil {
		board.showError(err)
		return
	}
	board.refreshPresets()
}

func (board *Board) refreshPresets() {
	presets := board.service.Presets()
	labels := make([]string, 0, len(presets))
	for _, preset := range presets {
		labels = append(labels, preset.Label)
	}
	board.presetSelect.Options = labels
	if len(labels) > 0 {
		board.presetSelect.SetSelected(labels[0])
	}
	board.presetSelect.Refresh()
}

func (board *Board) stacksChanged() {
	board.RefreshStacks()
	if board.onStacksChanged != nil {
		board.onStacksChanged()
	}
}

func (board *Board) handleKey(event *fyne.KeyEvent) {
	switch event.Name {
	case fyne.KeySpace:
		board.service.ToggleFocused()
	case fyne.KeyR:
		board.service.ResetFocused()
	default:
		return
	}
	board.Refresh()
}

func (board *Board) newCard(id string) *card {
	item := &card{
		id:       id,
		title:    widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		badge:    widget.NewLabel(""),
		note:     widget.NewLabel(""),
		phase:    widget.NewLabel(""),
		clock:    canvas.NewText("", clockColor),
		progress: widget.NewProgressBar(),
	}
	item.note.Wrapping = fyne.TextWrapWord
	item.clock.TextSize = 32
	item.clock.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}

	item.toggle = widget.NewButton("", func() {
		board.service.ToggleTimer(id)
		board.Refresh()
	})
	reset := widget.NewButtonWithIcon("", theme.MediaReplayIcon(), func() {
		board.service.ResetTimer(id)
		board.Refresh()
	})
	remove := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		board.service.DeleteTimer(id)
		board.Refresh()
	})

	header := container.NewBorder(nil, nil, nil, container.NewHBox(item.phase, item.badge), item.title)
	controls := container.NewHBox(item.toggle, reset, layout.NewSpacer(), remove)
	item.root = widget.NewCard("", "", container.NewVBox(header, item.clock, item.progress, item.note, controls))
	return item
}

func (item *card) update(view View) {
	item.title.SetText(view.Title)
	item.badge.SetText(view.Badge)
	item.phase.SetText(view.Phase)
	item.note.SetText(view.Note)
	if view.Note == "" {
		item.note.Hide()
	} else {
		item.note.Show()
	}

	clockText := view.Clock
	textColor := color.Color(clockColor)
	if view.Completed {
		textColor = completedColor
	}
	if item.clock.Text != clockText || item.clock.Color != textColor {
		item.clock.Text = clockText
		item.clock.Color = textColor
		item.clock.Refresh()
	}

	item.progress.SetValue(view.Progress)
	if view.Badge == "Stopwatch" {
		item.progress.Hide()
	} else {
		item.progress.Show()
	}

	item.toggle.SetText(view.Toggle)
	if view.Running {
		item.toggle.SetIcon(theme.MediaPauseIcon())
	} else {
		item.toggle.SetIcon(theme.MediaPlayIcon())
	}
}

func (board *Board) showError(err error) {
	board.logger.Debug("input rejected", "error", err)
	dialog.ShowError(err, board.window)
}
