package animation

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameRecorder struct {
	mu     sync.Mutex
	frames []string
}

func (recorder *frameRecorder) update(resource fyne.Resource) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.frames = append(recorder.frames, resource.Name())
}

func (recorder *frameRecorder) snapshot() []string {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return append([]string(nil), recorder.frames...)
}

var testSpec = PulseSpec{
	On:  fyne.NewStaticResource("on", nil),
	Off: fyne.NewStaticResource("off", nil),
}

func TestRangeRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	fixed := Range{Min: time.Second, Max: time.Second}
	assert.Equal(t, time.Second, fixed.Random(rng))

	spread := Range{Min: time.Second, Max: 2 * time.Second}
	for i := 0; i < 50; i++ {
		value := spread.Random(rng)
		assert.GreaterOrEqual(t, value, time.Second)
		assert.Less(t, value, 2*time.Second)
	}
}

func TestPulseEndsOnFrame(t *testing.T) {
	recorder := &frameRecorder{}
	engine := New(Config{
		OnDuration:  Range{Min: time.Millisecond, Max: time.Millisecond},
		OffDuration: Range{Min: time.Millisecond, Max: time.Millisecond},
		Pulses:      2,
	}, recorder.update)

	engine.StartPulse(context.Background(), testSpec)
	engine.Wait()

	assert.Equal(t, []string{"on", "off", "on", "off", "on"}, recorder.snapshot())
}

func TestPulseStop(t *testing.T) {
	recorder := &frameRecorder{}
	engine := New(Config{
		OnDuration:  Range{Min: time.Hour, Max: time.Hour},
		OffDuration: Range{Min: time.Hour, Max: time.Hour},
	}, recorder.update)

	engine.StartPulse(context.Background(), testSpec)
	require.Eventually(t, func() bool { return len(recorder.snapshot()) > 0 }, time.Second, time.Millisecond)
	engine.Stop()

	frames := recorder.snapshot()
	assert.Equal(t, "on", frames[len(frames)-1])
	engine.Stop()
}
