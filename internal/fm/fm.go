package fm

import (
	"math"

	"github.com/cbegin/scoredraft-go/internal/buffer"
	"github.com/cbegin/scoredraft-go/internal/voice"
)

const twoPi = math.Pi * 2

// Operator connections.
const (
	AlgSerial   = 0 // modulator -> carrier
	AlgParallel = 1 // modulator + carrier
)

type Params struct {
	Algorithm  int
	CarrierMul float64
	ModMul     float64
	ModIndex   float64 // peak phase deviation in radians
	Feedback   float64 // modulator self-feedback, 0-1
	AttackSec  float64
	DecaySec   float64
	SustainLvl float64
	ModSustain float64 // modulator sustain level; below SustainLvl the tone darkens after the attack
	ReleaseSec float64
	LPFCutoff  float64 // lowpass filter cutoff in Hz (0 = disabled)
}

func DefaultParams() Params {
	return Params{
		Algorithm:  AlgSerial,
		CarrierMul: 1.0,
		ModMul:     2.0,
		ModIndex:   1.6,
		AttackSec:  0.005,
		DecaySec:   0.12,
		SustainLvl: 0.75,
		ModSustain: 0.5,
		ReleaseSec: 0.05,
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

type operator struct {
	phase    float64
	env      float64
	envState envState
	mul      float64
	sl       float64
	prevOut  float64
}

// Voice is a two-operator FM voice. Each Synthesize call is one note with
// fresh operator state.
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

// Synthesize renders one note. phaseIncrement is in cycles per sample and
// is scaled by each operator's multiplier. Both operators enter release
// ReleaseSec before the end, never before the midpoint.
func (v *Voice) Synthesize(estimate float64, phaseIncrement float64) *buffer.SampleBuffer {
	n := voice.SampleCount(estimate)
	out := &buffer.SampleBuffer{}
	out.Allocate(n)
	if n == 0 {
		return out
	}
	ops := [2]operator{
		{mul: v.params.CarrierMul, sl: v.params.SustainLvl},
		{mul: v.params.ModMul, sl: v.params.ModSustain},
	}
	var lpf, lpfAlpha float64
	if c := v.params.LPFCutoff; c > 0 && c < v.sampleRate/2 {
		rc := 1.0 / (twoPi * c)
		dt := 1.0 / v.sampleRate
		lpfAlpha = dt / (rc + dt)
	}
	releaseAt := n - int(v.params.ReleaseSec*v.sampleRate)
	if releaseAt < n/2 {
		releaseAt = n / 2
	}
	gain := float64(v.Volume())
	for i := 0; i < n; i++ {
		if i == releaseAt {
			ops[0].envState = envRelease
			ops[1].envState = envRelease
		}
		for oi := range ops {
			v.advanceEnv(&ops[oi], n-i)
		}
		sig := v.render(&ops)
		if lpfAlpha > 0 {
			lpf += lpfAlpha * (sig - lpf)
			sig = lpf
		}
		out.Samples[i] = float32(clamp(sig*gain, -1, 1))
		for oi := range ops {
			op := &ops[oi]
			op.phase = math.Mod(op.phase+twoPi*phaseIncrement*op.mul, twoPi)
		}
	}
	return out
}

// render computes one sample from the current operator phases and levels.
func (v *Voice) render(ops *[2]operator) float64 {
	car, mod := &ops[0], &ops[1]
	fb := mod.prevOut * v.params.Feedback * math.Pi
	m := math.Sin(mod.phase+fb) * mod.env
	mod.prevOut = m
	if v.params.Algorithm == AlgParallel {
		return (math.Sin(car.phase)*car.env + m) * (1.0 / math.Sqrt2)
	}
	return math.Sin(car.phase+m*v.params.ModIndex) * car.env
}

// advanceEnv steps one operator's envelope. left is the number of samples
// remaining, so the release lands on zero at the last one.
func (v *Voice) advanceEnv(op *operator, left int) {
	switch op.envState {
	case envAttack:
		step := 1.0
		if a := v.params.AttackSec * v.sampleRate; a > 1 {
			step = 1 / a
		}
		op.env += step
		if op.env >= 1 {
			op.env = 1
			op.envState = envDecay
		}
	case envDecay:
		step := 1.0
		if d := v.params.DecaySec * v.sampleRate; d > 1 {
			step = (1 - op.sl) / d
		}
		op.env -= step
		if op.env <= op.sl {
			op.env = op.sl
			op.envState = envSustain
		}
	case envSustain:
	case envRelease:
		op.env -= op.env / float64(left)
		if left <= 1 || op.env <= 0.0001 {
			op.env = 0
			op.envState = envOff
		}
	case envOff:
		op.env = 0
	}
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

// Tune understands algorithm (0 serial, 1 parallel), carrier and modulator
// frequency multipliers, index, feedback, attack, decay, sustain,
// modsustain, release and cutoff, then falls back to volume.
func (v *Voice) Tune(cmd string) bool {
	name, value, ok := voice.ParseTuning(cmd)
	if !ok {
		return false
	}
	switch name {
	case "algorithm":
		if value != AlgSerial && value != AlgParallel {
			return false
		}
		v.params.Algorithm = int(value)
	case "carrier", "modulator":
		if value <= 0 {
			return false
		}
		if name == "carrier" {
			v.params.CarrierMul = value
		} else {
			v.params.ModMul = value
		}
	case "feedback", "sustain", "modsustain":
		if value < 0 || value > 1 {
			return false
		}
		switch name {
		case "feedback":
			v.params.Feedback = value
		case "sustain":
			v.params.SustainLvl = value
		default:
			v.params.ModSustain = value
		}
	case "index", "attack", "decay", "release", "cutoff":
		if value < 0 {
			return false
		}
		switch name {
		case "index":
			v.params.ModIndex = value
		case "attack":
			v.params.AttackSec = value
		case "decay":
			v.params.DecaySec = value
		case "release":
			v.params.ReleaseSec = value
		default:
			v.params.LPFCutoff = value
		}
	default:
		return v.Silence.Tune(cmd)
	}
	return true
}
