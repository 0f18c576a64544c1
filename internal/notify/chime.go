// Package notify plays the audible cues for timer transitions.
package notify

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
)

// Sound identifies a cue.
type Sound int

const (
	SoundCompleted Sound = iota
	SoundPhase
)

// SampleRate is the rate every cue is synthesized at.
const SampleRate = beep.SampleRate(44100)

type note struct {
	frequency float64
	length    time.Duration
}

var melodies = map[Sound][]note{
	SoundCompleted: {{880, 180 * time.Millisecond}, {1175, 180 * time.Millisecond}, {1760, 420 * time.Millisecond}},
	SoundPhase:     {{660, 150 * time.Millisecond}, {990, 260 * time.Millisecond}},
}

// Chime renders the cues once and plays them through the system speaker.
type Chime struct {
	once    sync.Once
	initErr error
	buffers map[Sound]*beep.Buffer
	logger  *slog.Logger

	mu     sync.Mutex
	volume float64
}

// NewChime creates a chime. The speaker is opened on the first Play.
func NewChime(logger *slog.Logger) *Chime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chime{logger: logger}
}

// SetVolume sets the gain in beep's exponential scale; 0 is unchanged.
func (chime *Chime) SetVolume(volume float64) {
	chime.mu.Lock()
	chime.volume = volume
	chime.mu.Unlock()
}

// Play starts the cue without waiting for it to finish.
func (chime *Chime) Play(sound Sound) error {
	chime.once.Do(func() {
		chime.initErr = chime.init()
		if chime.initErr != nil {
			chime.logger.Warn("audio unavailable", "error", chime.initErr)
		}
	})
	if chime.initErr != nil {
		return chime.initErr
	}

	buffer, ok := chime.buffers[sound]
	if !ok {
		return fmt.Errorf("unknown sound %d", sound)
	}

	speaker.Play(chime.stream(buffer))
	return nil
}

func (chime *Chime) stream(buffer *beep.Buffer) *effects.Volume {
	chime.mu.Lock()
	volume := chime.volume
	chime.mu.Unlock()
	return &effects.Volume{
		Streamer: buffer.Streamer(0, buffer.Len()),
		Base:     2,
		Volume:   volume,
	}
}

func (chime *Chime) init() error {
	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	chime.buffers = make(map[Sound]*beep.Buffer, len(melodies))
	for sound := range melodies {
		chime.buffers[sound] = Render(sound)
	}
	return nil
}

// Render synthesizes the cue into a buffer.
func Render(sound Sound) *beep.Buffer {
	format := beep.Format{SampleRate: SampleRate, NumChannels: 2, Precision: 2}
	buffer := beep.NewBuffer(format)
	notes := melodies[sound]
	streamers := make([]beep.Streamer, 0, len(notes))
	for _, tone := range notes {
		streamers = append(streamers, Tone(SampleRate, tone.frequency, tone.length, 0.4))
	}
	buffer.Append(beep.Seq(streamers...))
	return buffer
}

// Tone returns a sine wave of the given length with a short linear fade at
// both ends.
func Tone(sampleRate beep.SampleRate, frequency float64, length time.Duration, gain float64) beep.Streamer {
	total := sampleRate.N(length)
	fade := sampleRate.N(5 * time.Millisecond)
	position := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if position >= total {
			return 0, false
		}
		n := 0
		for n < len(samples) && position < total {
			envelope := 1.0
			if fade > 0 {
				if position < fade {
					envelope = float64(position) / float64(fade)
				} else if left := total - position - 1; left < fade {
					envelope = float64(left) / float64(fade)
				}
			}
			elapsed := float64(position) / float64(sampleRate)
			value := gain * envelope * math.Sin(2*math.Pi*frequency*elapsed)
			samples[n][0] = value
			samples[n][1] = value
			n++
			position++
		}
		return n, true
	})
}
