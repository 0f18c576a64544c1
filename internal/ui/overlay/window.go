package overlay

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"chronos/internal/ui/animation"
)

// Config defines alert visuals.
type Config struct {
	Opacity uint8
	Pulse   animation.PulseSpec
}

// Alert describes one finished timer.
type Alert struct {
	TimerID string
	Label   string
	Note    string
	At      time.Time
}

// Window is the "timer finished" alert. Alerts that arrive while one is
// showing are queued and shown after it is dismissed.
type Window struct {
	app           fyne.App
	window        fyne.Window
	config        Config
	image         *canvas.Image
	titleLabel    *canvas.Text
	subtitleLabel *canvas.Text
	noteLabel     *widget.Label
	clockLabel    *canvas.Text
	dismissButton *widget.Button
	restartButton *widget.Button
	background    *canvas.Rectangle
	engine        *animation.Engine
	cancelCtx     context.CancelFunc
	queue         []Alert
	current       *Alert
	onRestart     func(timerID string)
}

const (
	alertWidth  = float32(380)
	alertHeight = float32(190)
)

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates the alert window. It must be called on the fyne main goroutine.
func New(app fyne.App, config Config) *Window {
	window := app.NewWindow("Chronos")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash window is undecorated (no native frame/buttons).
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	background := canvas.NewRectangle(color.NRGBA{R: 18, G: 22, B: 30, A: config.Opacity})

	image := canvas.NewImageFromResource(config.Pulse.On)
	image.FillMode = canvas.ImageFillContain
	image.SetMinSize(fyne.NewSize(72, 72))

	titleLabel := canvas.NewText("Timer finished", color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	titleLabel.TextSize = 20

	subtitleLabel := canvas.NewText("", color.NRGBA{R: 242, G: 178, B: 74, A: 255})
	subtitleLabel.TextStyle = fyne.TextStyle{Bold: true}
	subtitleLabel.TextSize = 16

	noteLabel := widget.NewLabel("")
	noteLabel.Wrapping = fyne.TextWrapWord
	noteLabel.Truncation = fyne.TextTruncateEllipsis

	clockLabel := canvas.NewText("", color.NRGBA{R: 190, G: 196, B: 206, A: 255})
	clockLabel.TextSize = 12

	overlay := &Window{
		app:           app,
		window:        window,
		config:        config,
		image:         image,
		titleLabel:    titleLabel,
		subtitleLabel: subtitleLabel,
		noteLabel:     noteLabel,
		clockLabel:    clockLabel,
		background:    background,
	}
	overlay.engine = animation.New(animation.DefaultConfig(), overlay.setFrame)
	overlay.dismissButton = widget.NewButton("Dismiss", overlay.dismiss)
	overlay.restartButton = widget.NewButton("Restart", overlay.restart)
	overlay.dismissButton.Importance = widget.HighImportance

	text := container.NewVBox(titleLabel, subtitleLabel, noteLabel, clockLabel)
	buttons := container.NewHBox(overlay.restartButton, overlay.dismissButton)
	content := container.NewBorder(nil, container.NewPadded(buttons), container.NewPadded(image), nil, container.NewPadded(text))
	window.SetContent(container.NewStack(background, content))
	window.SetCloseIntercept(overlay.dismiss)
	window.Resize(fyne.NewSize(alertWidth, alertHeight))

	return overlay
}

// SetOnRestart sets the handler of the Restart button.
func (overlay *Window) SetOnRestart(handler func(timerID string)) {
	overlay.onRestart = handler
}

// Show displays alert, or queues it behind the one already showing. Safe to
// call from any goroutine.
func (overlay *Window) Show(alert Alert) {
	fyne.Do(func() {
		if overlay.current != nil {
			overlay.queue = append(overlay.queue, alert)
			overlay.refreshQueueUnsafe()
			return
		}
		overlay.presentUnsafe(alert)
	})
}

// Pending returns the number of queued alerts behind the visible one.
func (overlay *Window) Pending() int {
	return len(overlay.queue)
}

// UpdateConfig updates alert visuals.
func (overlay *Window) UpdateConfig(config Config) {
	overlay.config = config
	overlay.background.FillColor = color.NRGBA{R: 18, G: 22, B: 30, A: config.Opacity}
	canvas.Refresh(overlay.background)
}

// Hide closes the alert, drops the queue and stops the pulse.
func (overlay *Window) Hide() {
	overlay.stopEngine()
	overlay.queue = nil
	overlay.current = nil
	overlay.window.Hide()
}

func (overlay *Window) presentUnsafe(alert Alert) {
	overlay.current = &alert
	overlay.subtitleLabel.Text = alert.Label
	overlay.subtitleLabel.Refresh()
	overlay.noteLabel.SetText(alert.Note)
	overlay.refreshQueueUnsafe()

	overlay.window.Resize(fyne.NewSize(alertWidth, alertHeight))
	overlay.window.CenterOnScreen()
	overlay.window.Show()
	overlay.window.RequestFocus()
	overlay.applyNativeOpacity(overlay.config.Opacity)

	overlay.stopEngine()
	ctx, cancel := context.WithCancel(context.Background())
	overlay.cancelCtx = cancel
	overlay.engine.StartPulse(ctx, overlay.config.Pulse)
}

func (overlay *Window) refreshQueueUnsafe() {
	if overlay.current == nil {
		return
	}
	text := "Finished at " + overlay.current.At.Format("15:04:05")
	if pending := len(overlay.queue); pending > 0 {
		text += fmt.Sprintf("  (+%d more)", pending)
	}
	overlay.clockLabel.Text = text
	overlay.clockLabel.Refresh()
}

func (overlay *Window) dismiss() {
	overlay.stopEngine()
	if len(overlay.queue) > 0 {
		next := overlay.queue[0]
		overlay.queue = overlay.queue[1:]
		overlay.presentUnsafe(next)
		return
	}
	overlay.current = nil
	overlay.window.Hide()
}

func (overlay *Window) restart() {
	if overlay.current != nil && overlay.onRestart != nil {
		overlay.onRestart(overlay.current.TimerID)
	}
	overlay.dismiss()
}

func (overlay *Window) setFrame(resource fyne.Resource) {
	if resource == nil {
		return
	}
	fyne.Do(func() {
		overlay.image.Resource = resource
		overlay.image.Refresh()
	})
}

func (overlay *Window) stopEngine() {
	if overlay.cancelCtx != nil {
		overlay.cancelCtx()
		overlay.cancelCtx = nil
	}
}
