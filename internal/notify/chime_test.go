package notify

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func drain(t *testing.T, streamer interface {
	Stream([][2]float64) (int, bool)
}) (int, float64) {
	t.Helper()
	samples := make([][2]float64, 512)
	total := 0
	peak := 0.0
	for {
		n, ok := streamer.Stream(samples)
		for _, sample := range samples[:n] {
			assert.Equal(t, sample[0], sample[1])
			peak = math.Max(peak, math.Abs(sample[0]))
		}
		total += n
		if !ok {
			return total, peak
		}
	}
}

func TestToneLength(t *testing.T) {
	total, peak := drain(t, Tone(SampleRate, 440, 250*time.Millisecond, 0.5))
	assert.Equal(t, SampleRate.N(250*time.Millisecond), total)
	assert.LessOrEqual(t, peak, 0.5)
	assert.Greater(t, peak, 0.4)
}

func TestToneFadesAtEdges(t *testing.T) {
	samples := make([][2]float64, SampleRate.N(100*time.Millisecond))
	n, ok := Tone(SampleRate, 1000, 100*time.Millisecond, 1).Stream(samples)
	assert.True(t, ok)
	assert.Equal(t, len(samples), n)
	assert.Zero(t, samples[0][0])
	assert.Zero(t, samples[n-1][0])
}

func TestRender(t *testing.T) {
	completed := Render(SoundCompleted)
	phase := Render(SoundPhase)
	assert.Equal(t, SampleRate.N(180*time.Millisecond)*2+SampleRate.N(420*time.Millisecond), completed.Len())
	assert.Less(t, phase.Len(), completed.Len())
	assert.Equal(t, SampleRate, completed.Format().SampleRate)
}

func TestVolumeScalesCue(t *testing.T) {
	chime := NewChime(nil)
	buffer := Render(SoundPhase)
	_, full := drain(t, chime.stream(buffer))

	chime.SetVolume(-1)
	cue := chime.stream(buffer)
	assert.Equal(t, -1.0, cue.Volume)
	_, half := drain(t, cue)
	assert.InDelta(t, full/2, half, 1e-9)
}
