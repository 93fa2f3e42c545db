package tone

import (
	"math"
	"math/rand"

	"github.com/cbegin/scoredraft-go/internal/buffer"
	"github.com/cbegin/scoredraft-go/internal/lfo"
	"github.com/cbegin/scoredraft-go/internal/voice"
)

const twoPi = math.Pi * 2

const defaultTableLen = 64

// Params controls the tone voice.
type Params struct {
	AttackSec    float64
	ReleaseSec   float64
	VibratoDepth float64 // semitones
	VibratoRate  float64 // Hz
	VibratoWave  lfo.Waveform
}

// DefaultParams returns a short attack and release with no vibrato.
func DefaultParams() Params {
	return Params{
		AttackSec:   0.005,
		ReleaseSec:  0.05,
		VibratoRate: 5,
		VibratoWave: lfo.WaveTriangle,
	}
}

// Voice is a pitched single-cycle wavetable oscillator. It is the simplest
// voice that actually uses the phase increment handed to Synthesize.
type Voice struct {
	*voice.Silence
	sampleRate float64
	params     Params
	table      []float64
	vibrato    *lfo.LFO
}

// New returns a sine tone voice for the given sample rate. rng feeds the
// random vibrato waveform and may be nil.
func New(sampleRate int, params Params, rng *rand.Rand) *Voice {
	sine := make([]float64, defaultTableLen)
	for i := range sine {
		sine[i] = math.Sin(twoPi * float64(i) / float64(len(sine)))
	}
	return &Voice{
		Silence:    voice.NewSilence(),
		sampleRate: float64(sampleRate),
		params:     params,
		table:      sine,
		vibrato:    lfo.New(params.VibratoDepth, params.VibratoRate, params.VibratoWave, rng),
	}
}

// SetWavetable replaces the single-cycle waveform. Tables shorter than two
// samples are ignored.
func (v *Voice) SetWavetable(samples []float64) {
	if len(samples) < 2 {
		return
	}
	cp := make([]float64, len(samples))
	copy(cp, samples)
	v.table = cp
}

func (v *Voice) Params() Params { return v.params }

// Synthesize renders ceil(estimate) samples at phaseIncrement cycles per
// sample.
func (v *Voice) Synthesize(estimate float64, phaseIncrement float64) *buffer.SampleBuffer {
	n := voice.SampleCount(estimate)
	out := &buffer.SampleBuffer{}
	out.Allocate(n)
	if n == 0 {
		return out
	}
	attack, release := v.envelopeFrames(n)
	tableLen := float64(len(v.table))
	gain := float64(v.Volume())
	v.vibrato.Reset()
	phase := 0.0
	for i := 0; i < n; i++ {
		idx := math.Floor(phase)
		frac := phase - idx
		i0 := int(idx) % len(v.table)
		i1 := (i0 + 1) % len(v.table)
		sig := v.table[i0]*(1-frac) + v.table[i1]*frac

		env := 1.0
		if i < attack {
			env = float64(i) / float64(attack)
		}
		if left := n - i; left <= release {
			env = math.Min(env, float64(left-1)/float64(release))
		}
		out.Samples[i] = float32(sig * env * gain)

		mul := 1.0
		if mod := v.vibrato.Sample(v.sampleRate); mod != 0 {
			mul = math.Pow(2, mod/12)
		}
		phase += phaseIncrement * mul * tableLen
		for phase >= tableLen {
			phase -= tableLen
		}
		for phase < 0 {
			phase += tableLen
		}
	}
	return out
}

// envelopeFrames converts attack and release times to samples, shrinking
// both proportionally when the note is too short to hold them.
func (v *Voice) envelopeFrames(n int) (int, int) {
	attack := int(v.params.AttackSec * v.sampleRate)
	release := int(v.params.ReleaseSec * v.sampleRate)
	if attack < 0 {
		attack = 0
	}
	if release < 0 {
		release = 0
	}
	if total := attack + release; total > n {
		attack = attack * n / total
		release = n - attack
	}
	return attack, release
}

// Tune understands "attack", "release", "vibrato" and "vibrato_rate" on top of
// the base "volume" command.
func (v *Voice) Tune(cmd string) bool {
	name, value, ok := voice.ParseTuning(cmd)
	if !ok {
		return false
	}
	switch name {
	case "attack":
		if value < 0 {
			return false
		}
		v.params.AttackSec = value
	case "release":
		if value < 0 {
			return false
		}
		v.params.ReleaseSec = value
	case "vibrato":
		v.params.VibratoDepth = value
		v.vibrato.SetDepth(value)
	case "vibrato_rate":
		if value < 0 {
			return false
		}
		v.params.VibratoRate = value
		v.vibrato.SetRate(value)
	default:
		return v.Silence.Tune(cmd)
	}
	return true
}
