package beep

import (
	"math"
	"sync/atomic"
)

// Cue is one audible event in the interview flow.
type Cue int

const (
	RecordStart Cue = iota
	RecordStop
	Submitted
	Error
)

const sampleRate = 44100

type tone struct {
	freq     float64
	duration float64
	volume   float64
	decay    float64
	// repeat > 1 plays the tick again after gap seconds
	repeat int
	gap    float64
}

var tones = map[Cue]tone{
	RecordStart: {freq: 1200, duration: 0.2, volume: 0.5, decay: 60},
	RecordStop:  {freq: 900, duration: 0.2, volume: 0.5, decay: 40},
	Submitted:   {freq: 1500, duration: 0.06, volume: 0.4, decay: 50, repeat: 2, gap: 0.04},
	Error:       {freq: 350, duration: 0.08, volume: 0.6, decay: 30, repeat: 2, gap: 0.05},
}

var disabled atomic.Bool

func Disable() { disabled.Store(true) }

func Enabled() bool { return !disabled.Load() }

// Play sounds the cue in the background. It never blocks and silently does
// nothing when no output device is available.
func Play(c Cue) {
	if disabled.Load() {
		return
	}
	samples := Samples(c, sampleRate)
	if len(samples) == 0 {
		return
	}
	go play(samples)
}

// Samples renders the cue as mono 16-bit PCM.
func Samples(c Cue, rate int) []int16 {
	t, ok := tones[c]
	if !ok || rate <= 0 {
		return nil
	}
	tick := generateTick(rate, t.freq, t.duration, t.volume, t.decay)
	if t.repeat < 2 {
		return tick
	}
	gap := make([]int16, int(float64(rate)*t.gap))
	out := make([]int16, 0, t.repeat*len(tick)+(t.repeat-1)*len(gap))
	for i := 0; i < t.repeat; i++ {
		if i > 0 {
			out = append(out, gap...)
		}
		out = append(out, tick...)
	}
	return out
}

func generateTick(rate int, freq, duration, volume, decay float64) []int16 {
	n := int(float64(rate) * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(rate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}
