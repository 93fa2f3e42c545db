package lfo

import (
	"math/rand"
)

type Waveform int

const (
	WaveSaw Waveform = iota
	WaveSquare
	WaveTriangle
	// WaveRandom is sample-and-hold noise, re-drawn once per cycle.
	WaveRandom
)

// LFO is a low-frequency oscillator producing one modulation value per
// audio sample.
type LFO struct {
	depth    float64
	rateHz   float64
	waveform Waveform
	phase    float64 // [0, 1)
	held     float64
	rng      *rand.Rand
}

// New returns an LFO. rng is only consulted by WaveRandom and may be nil for
// the other waveforms; a nil rng makes WaveRandom hold at zero.
func New(depth, rateHz float64, waveform Waveform, rng *rand.Rand) *LFO {
	l := &LFO{rng: rng}
	l.Set(depth, rateHz, waveform)
	return l
}

func (l *LFO) Set(depth, rateHz float64, waveform Waveform) {
	l.depth = depth
	l.rateHz = rateHz
	if waveform < WaveSaw || waveform > WaveRandom {
		waveform = WaveTriangle
	}
	l.waveform = waveform
}

func (l *LFO) SetDepth(depth float64) { l.depth = depth }
func (l *LFO) SetRate(rateHz float64) { l.rateHz = rateHz }

func (l *LFO) Depth() float64 { return l.depth }
func (l *LFO) Rate() float64  { return l.rateHz }

// Sample returns the current value in [-depth, depth] and advances one sample.
func (l *LFO) Sample(sampleRate float64) float64 {
	if !l.Active() || sampleRate <= 0 {
		return 0
	}
	var v float64
	switch l.waveform {
	case WaveSaw:
		v = 1 - 2*l.phase
	case WaveSquare:
		if l.phase < 0.5 {
			v = 1
		} else {
			v = -1
		}
	case WaveRandom:
		v = l.held
	default:
		if l.phase < 0.5 {
			v = 4*l.phase - 1
		} else {
			v = 3 - 4*l.phase
		}
	}

	old := l.phase
	l.phase += l.rateHz / sampleRate
	for l.phase >= 1 {
		l.phase--
	}
	if l.waveform == WaveRandom && l.phase < old && l.rng != nil {
		l.held = l.rng.Float64()*2 - 1
	}
	return v * l.depth
}

func (l *LFO) Active() bool {
	return l.depth != 0 && l.rateHz != 0
}

// Reset restarts the cycle.
func (l *LFO) Reset() {
	l.phase = 0
	l.held = 0
}
