package animation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"fyne.io/fyne/v2"
)

// Range defines a duration range with random sampling.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Random returns a random duration within the range.
func (value Range) Random(rng *rand.Rand) time.Duration {
	if value.Max <= value.Min {
		return value.Min
	}
	delta := value.Max - value.Min
	return value.Min + time.Duration(rng.Int63n(int64(delta)))
}

// Config contains pulse timing values.
type Config struct {
	OnDuration  Range
	OffDuration Range
	// Pulses bounds the number of on/off cycles; zero pulses until stopped.
	Pulses     int
	RestAfter  int
	RestLength Range
}

// DefaultConfig returns the alert pulse used when a timer finishes.
func DefaultConfig() Config {
	return Config{
		OnDuration:  Range{Min: 450 * time.Millisecond, Max: 550 * time.Millisecond},
		OffDuration: Range{Min: 250 * time.Millisecond, Max: 300 * time.Millisecond},
		RestAfter:   3,
		RestLength:  Range{Min: 1200 * time.Millisecond, Max: 1500 * time.Millisecond},
	}
}

// PulseSpec is the pair of frames a pulse alternates between.
type PulseSpec struct {
	On  fyne.Resource
	Off fyne.Resource
}

// Engine swaps frames on a background goroutine until stopped.
type Engine struct {
	mu           sync.Mutex
	config       Config
	updateSprite func(fyne.Resource)
	cancel       context.CancelFunc
	done         chan struct{}
	rng          *rand.Rand
}

// New creates a new animation engine.
func New(config Config, updateSprite func(fyne.Resource)) *Engine {
	return &Engine{
		config:       config,
		updateSprite: updateSprite,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// StartPulse alternates the two frames, resting for a while every RestAfter
// pulses. The On frame is left showing when the pulse ends.
func (engine *Engine) StartPulse(ctx context.Context, spec PulseSpec) {
	engine.start(ctx, func(runCtx context.Context) {
		defer engine.updateSprite(spec.On)
		for pulse := 1; engine.config.Pulses == 0 || pulse <= engine.config.Pulses; pulse++ {
			engine.updateSprite(spec.On)
			if !sleepWithContext(runCtx, engine.config.OnDuration.Random(engine.rng)) {
				return
			}
			engine.updateSprite(spec.Off)
			if !sleepWithContext(runCtx, engine.config.OffDuration.Random(engine.rng)) {
				return
			}
			if engine.config.RestAfter > 0 && pulse%engine.config.RestAfter == 0 {
				engine.updateSprite(spec.On)
				if !sleepWithContext(runCtx, engine.config.RestLength.Random(engine.rng)) {
					return
				}
			}
		}
	})
}

// Stop terminates any active animation and waits for its last frame.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	cancel, done := engine.cancel, engine.done
	engine.cancel, engine.done = nil, nil
	engine.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Wait blocks until the active animation ends on its own or is stopped.
func (engine *Engine) Wait() {
	engine.mu.Lock()
	done := engine.done
	engine.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (engine *Engine) start(parent context.Context, run func(context.Context)) {
	engine.Stop()

	runCtx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	engine.mu.Lock()
	engine.cancel = cancel
	engine.done = done
	engine.mu.Unlock()

	go func() {
		defer close(done)
		run(runCtx)
	}()
}

func sleepWithContext(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
