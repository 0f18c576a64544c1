package timekeeper

import (
	"log/slog"
	"sync"
	"time"

	"chronos/internal/core/model"
	"chronos/internal/core/phase"
)

// DefaultTickInterval is the scheduler period used when none is configured.
const DefaultTickInterval = 100 * time.Millisecond

// TimerStore is the collection the scheduler advances. Update must apply fn
// and commit its result atomically.
type TimerStore interface {
	Update(fn func([]model.Timer) []model.Timer)
}

// Config contains runtime options for TimeKeeper.
type Config struct {
	TickInterval time.Duration
}

// TimeKeeper periodically applies elapsed wall-clock time to every running timer.
type TimeKeeper struct {
	mu       sync.Mutex
	options  Config
	store    TimerStore
	clock    Clock
	logger   *slog.Logger
	lastTick time.Time
	events   []chan Event
	stopCh   chan struct{}
	resetCh  chan time.Duration
	running  bool
}

// New creates a TimeKeeper driving store.
func New(store TimerStore, options Config) *TimeKeeper {
	if options.TickInterval <= 0 {
		options.TickInterval = DefaultTickInterval
	}
	return &TimeKeeper{
		options: options,
		store:   store,
		clock:   SystemClock,
		logger:  slog.Default(),
		resetCh: make(chan time.Duration, 1),
	}
}

// SetClock injects the clock ticks are measured against.
func (keeper *TimeKeeper) SetClock(clock Clock) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.clock = clock
}

// SetLogger replaces the default logger.
func (keeper *TimeKeeper) SetLogger(logger *slog.Logger) {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	keeper.logger = logger
}

// Subscribe registers a new observer channel.
func (keeper *TimeKeeper) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	keeper.mu.Lock()
	keeper.events = append(keeper.events, ch)
	keeper.mu.Unlock()
	return ch
}

// Start launches the ticking loop. The first tick measures from now.
func (keeper *TimeKeeper) Start() {
	keeper.mu.Lock()
	if keeper.running {
		keeper.mu.Unlock()
		return
	}
	keeper.running = true
	keeper.stopCh = make(chan struct{})
	keeper.lastTick = keeper.clock.Now()
	interval := keeper.options.TickInterval
	stopCh := keeper.stopCh
	keeper.logger.Debug("timekeeper started", "interval", interval)
	keeper.mu.Unlock()

	go keeper.run(interval, stopCh)
}

// Stop terminates the ticking loop and closes observers.
func (keeper *TimeKeeper) Stop() {
	keeper.mu.Lock()
	if !keeper.running {
		keeper.mu.Unlock()
		return
	}
	close(keeper.stopCh)
	keeper.running = false
	events := keeper.events
	keeper.events = nil
	keeper.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// UpdateConfig changes the tick interval, taking effect on a running loop.
func (keeper *TimeKeeper) UpdateConfig(options Config) {
	if options.TickInterval <= 0 {
		options.TickInterval = DefaultTickInterval
	}
	keeper.mu.Lock()
	keeper.options = options
	running := keeper.running
	keeper.mu.Unlock()

	if !running {
		return
	}
	select {
	case keeper.resetCh <- options.TickInterval:
	default:
		// A pending reset is already queued; drain and replace it.
		select {
		case <-keeper.resetCh:
		default:
		}
		keeper.resetCh <- options.TickInterval
	}
}

// TickInterval returns the configured period.
func (keeper *TimeKeeper) TickInterval() time.Duration {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()
	return keeper.options.TickInterval
}

func (keeper *TimeKeeper) run(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case next := <-keeper.resetCh:
			ticker.Reset(next)
		case <-ticker.C:
			keeper.Tick()
		}
	}
}

// Tick performs one scheduler firing: it measures the real time since the
// previous firing and applies it to all running timers in one batch.
func (keeper *TimeKeeper) Tick() {
	keeper.mu.Lock()
	defer keeper.mu.Unlock()

	now := keeper.clock.Now()
	var delta time.Duration
	if !keeper.lastTick.IsZero() {
		delta = now.Sub(keeper.lastTick)
	}
	if delta < 0 {
		keeper.logger.Warn("clock moved backwards", "delta", delta)
		delta = 0
	}
	keeper.lastTick = now

	var transitions []Event
	running := 0
	keeper.store.Update(func(timers []model.Timer) []model.Timer {
		for index, timer := range timers {
			if !timer.IsRunning || timer.IsCompleted {
				continue
			}
			updated, event, changed := advanceTimer(timer, delta)
			timers[index] = updated
			if changed {
				event.At = now
				transitions = append(transitions, event)
			}
			if updated.IsRunning {
				running++
			}
		}
		return timers
	})

	keeper.emitLocked(Event{
		Type:    EventTick,
		Delta:   delta,
		Running: running,
		At:      now,
	})
	for _, event := range transitions {
		keeper.logger.Info("timer transition", "event", event.Type, "timer", event.TimerID, "label", event.Label)
		keeper.emitLocked(event)
	}
}

// advanceTimer applies delta to one running timer. It reports whether the
// timer changed phase or completed.
func advanceTimer(timer model.Timer, delta time.Duration) (model.Timer, Event, bool) {
	if timer.Kind == model.KindStopwatch {
		timer.Elapsed += delta
		return timer, Event{}, false
	}

	remaining := timer.Remaining - delta
	if remaining > 0 {
		timer.Remaining = remaining
		return timer, Event{}, false
	}

	if timer.HasPhases() {
		timer.Remaining = 0
		next := phase.Advance(timer)
		if next.IsCompleted {
			return next, Event{Type: EventCompleted, TimerID: next.ID, Label: next.Label, Phase: next.Stack.CurrentPhase}, true
		}
		return next, Event{Type: EventPhaseAdvanced, TimerID: next.ID, Label: next.Label, Phase: next.Stack.CurrentPhase}, true
	}

	timer.Remaining = 0
	timer.IsCompleted = true
	timer.IsRunning = false
	return timer, Event{Type: EventCompleted, TimerID: timer.ID, Label: timer.Label}, true
}

func (keeper *TimeKeeper) emitLocked(event Event) {
	for _, ch := range keeper.events {
		select {
		case ch <- event:
		default:
		}
	}
}
