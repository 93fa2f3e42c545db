package chiptune

import (
	"math"

	"github.com/cbegin/scoredraft-go/internal/buffer"
	"github.com/cbegin/scoredraft-go/internal/voice"
)

const twoPi = math.Pi * 2

type Wave int

const (
	WavePulse Wave = iota
	WaveTriangle
	WaveNoise
)

type Params struct {
	Wave       Wave
	PulseDuty  float64
	AttackSec  float64
	DecaySec   float64
	SustainLvl float64
	ReleaseSec float64
	StepLevels int
	LPFCutoff  float64 // lowpass filter cutoff in Hz (0 = disabled)
}

func DefaultParams() Params {
	return Params{
		Wave:       WavePulse,
		PulseDuty:  0.25,
		AttackSec:  0.005,
		DecaySec:   0.15,
		SustainLvl: 0.65,
		ReleaseSec: 0.05,
		StepLevels: 16,
		LPFCutoff:  12000,
	}
}

type envState int

const (
	envAttack envState = iota
	envDecay
	envSustain
	envRelease
	envOff
)

// Voice is a monophonic chip oscillator: band-limited pulse, triangle or
// LFSR noise with a stepped ADSR envelope.
type Voice struct {
	*voice.Silence
	sampleRate float64
	params     Params
}

func New(sampleRate int, params Params) *Voice {
	return &Voice{
		Silence:    voice.NewSilence(),
		sampleRate: float64(sampleRate),
		params:     params,
	}
}

func (v *Voice) Params() Params { return v.params }

// note is the per-trigger oscillator state.
type note struct {
	phase     float64
	env       float64
	envState  envState
	noiseLFSR uint16
	dcPrevIn  float64
	dcPrevOut float64
	lpf       float64
	lpfAlpha  float64
}

// Synthesize renders one note. The release starts ReleaseSec before the
// end so the note decays to silence inside its own length.
func (v *Voice) Synthesize(estimate float64, phaseIncrement float64) *buffer.SampleBuffer {
	n := voice.SampleCount(estimate)
	out := &buffer.SampleBuffer{}
	out.Allocate(n)
	if n == 0 {
		return out
	}
	st := note{noiseLFSR: 0xACE1}
	if c := v.params.LPFCutoff; c > 0 && c < v.sampleRate/2 {
		rc := 1.0 / (twoPi * c)
		dt := 1.0 / v.sampleRate
		st.lpfAlpha = dt / (rc + dt)
	}
	releaseAt := n - int(v.params.ReleaseSec*v.sampleRate)
	if releaseAt < n/2 {
		releaseAt = n / 2
	}
	gain := float64(v.Volume())
	for i := 0; i < n; i++ {
		if i == releaseAt {
			st.envState = envRelease
		}
		env := v.advanceEnv(&st, n-i)
		sig := v.renderWave(&st, phaseIncrement) * quantize(env, v.params.StepLevels)
		sig = st.dcBlock(sig)
		if st.lpfAlpha > 0 {
			st.lpf += st.lpfAlpha * (sig - st.lpf)
			sig = st.lpf
		}
		out.Samples[i] = float32(clamp(sig*gain, -1, 1))
	}
	return out
}

func (st *note) dcBlock(x float64) float64 {
	const r = 0.995
	y := x - st.dcPrevIn + r*st.dcPrevOut
	st.dcPrevIn = x
	st.dcPrevOut = y
	return y
}

// polyBLEP reduces aliasing at waveform discontinuities.
// t is the phase position [0,1), dt is the phase increment per sample.
func polyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func (v *Voice) renderWave(st *note, dt float64) float64 {
	st.phase += dt
	if st.phase >= 1 {
		st.phase -= math.Floor(st.phase)
	}
	switch v.params.Wave {
	case WavePulse:
		duty := v.params.PulseDuty
		out := -1.0
		if st.phase < duty {
			out = 1
		}
		out += polyBLEP(st.phase, dt)
		out -= polyBLEP(math.Mod(st.phase-duty+1, 1), dt)
		return out
	case WaveTriangle:
		return 2*math.Abs(2*st.phase-1) - 1
	case WaveNoise:
		if st.phase < dt {
			bit := (st.noiseLFSR ^ (st.noiseLFSR >> 1)) & 1
			st.noiseLFSR = (st.noiseLFSR >> 1) | (bit << 15)
		}
		if st.noiseLFSR&1 == 1 {
			return 1
		}
		return -1
	default:
		return 0
	}
}

// advanceEnv steps the envelope; left is the number of samples remaining,
// which sets the release slope so the note ends at zero.
func (v *Voice) advanceEnv(st *note, left int) float64 {
	switch st.envState {
	case envAttack:
		step := 1.0
		if a := v.params.AttackSec * v.sampleRate; a > 1 {
			step = 1 / a
		}
		st.env += step
		if st.env >= 1 {
			st.env = 1
			st.envState = envDecay
		}
	case envDecay:
		step := 1.0
		if d := v.params.DecaySec * v.sampleRate; d > 1 {
			step = (1 - v.params.SustainLvl) / d
		}
		st.env -= step
		if st.env <= v.params.SustainLvl {
			st.env = v.params.SustainLvl
			st.envState = envSustain
		}
	case envSustain:
	case envRelease:
		st.env -= st.env / float64(left)
		if left <= 1 || st.env <= 0.0001 {
			st.env = 0
			st.envState = envOff
		}
	case envOff:
		st.env = 0
	}
	return st.env
}

func quantize(v float64, steps int) float64 {
	if steps <= 1 {
		return v
	}
	n := math.Round(v*float64(steps-1)) / float64(steps-1)
	return clamp(n, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Tune understands wave (0 pulse, 1 triangle, 2 noise), duty, attack,
// decay, sustain, release, steps and cutoff, then falls back to volume.
func (v *Voice) Tune(cmd string) bool {
	name, value, ok := voice.ParseTuning(cmd)
	if !ok {
		return false
	}
	switch name {
	case "wave":
		w := Wave(value)
		if float64(w) != value || w < WavePulse || w > WaveNoise {
			return false
		}
		v.params.Wave = w
	case "duty":
		if value <= 0 || value >= 1 {
			return false
		}
		v.params.PulseDuty = value
	case "attack", "decay", "release", "cutoff":
		if value < 0 {
			return false
		}
		switch name {
		case "attack":
			v.params.AttackSec = value
		case "decay":
			v.params.DecaySec = value
		case "release":
			v.params.ReleaseSec = value
		default:
			v.params.LPFCutoff = value
		}
	case "sustain":
		if value < 0 || value > 1 {
			return false
		}
		v.params.SustainLvl = value
	case "steps":
		if value < 0 {
			return false
		}
		v.params.StepLevels = int(value)
	default:
		return v.Silence.Tune(cmd)
	}
	return true
}
