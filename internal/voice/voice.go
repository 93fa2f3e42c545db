package voice

import (
	"math"
	"strconv"
	"strings"

	"github.com/cbegin/scoredraft-go/internal/buffer"
)

// Voice renders one note or percussion trigger into a fresh buffer.
//
// estimate is the requested length in samples before rounding; phaseIncrement
// is the target pitch divided by the sample rate, for voices that oscillate.
type Voice interface {
	Synthesize(estimate float64, phaseIncrement float64) *buffer.SampleBuffer
	// Tune applies a "<name> <value>" command and reports whether it was understood.
	Tune(cmd string) bool
}

const DefaultVolume = 1.0

// Silence is the base voice: it renders silence of the requested length and
// understands the "volume" tuning command. Variant voices embed it.
type Silence struct {
	volume float32
}

func NewSilence() *Silence {
	return &Silence{volume: DefaultVolume}
}

func (s *Silence) Synthesize(estimate float64, _ float64) *buffer.SampleBuffer {
	return buffer.New(SampleCount(estimate))
}

func (s *Silence) Tune(cmd string) bool {
	name, value, ok := ParseTuning(cmd)
	if !ok || name != "volume" {
		return false
	}
	s.volume = float32(value)
	return true
}

// Volume returns the gain set by the "volume" command.
func (s *Silence) Volume() float32 {
	return s.volume
}

// SetVolume sets the gain directly.
func (s *Silence) SetVolume(v float32) {
	s.volume = v
}

// SampleCount rounds a continuous length up to whole samples.
func SampleCount(estimate float64) int {
	if estimate <= 0 || math.IsNaN(estimate) {
		return 0
	}
	return int(math.Ceil(estimate))
}

// ParseTuning splits "<name> <float>" into its parts. Extra fields are
// ignored; a missing or non-numeric value fails.
func ParseTuning(cmd string) (string, float64, bool) {
	fields := strings.Fields(cmd)
	if len(fields) < 2 {
		return "", 0, false
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return "", 0, false
	}
	return fields[0], v, true
}
