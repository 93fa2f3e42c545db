package sequencer

import (
	"errors"
	"fmt"
	"math"

	"github.com/cbegin/scoredraft-go/internal/log"
	"github.com/cbegin/scoredraft-go/internal/voice"
)

// SubdivisionsPerBeat is the number of duration units in one beat.
const SubdivisionsPerBeat = 48

// ErrTempo is returned for a zero or negative tempo.
var ErrTempo = errors.New("tempo must be positive")

// Event is one symbolic note or rest.
//
// Duration is in 1/48 beat units; a negative duration on a rest moves the
// cursor backwards. Pitch is a multiplier on the reference frequency, and
// any negative pitch marks a rest.
type Event struct {
	Duration int
	Pitch    float64
}

// Rest returns a rest of the given duration.
func Rest(duration int) Event {
	return Event{Duration: duration, Pitch: -1}
}

func Note(duration int, pitch float64) Event {
	return Event{Duration: duration, Pitch: pitch}
}

func (e Event) IsRest() bool { return e.Pitch < 0 }

func (e Event) String() string {
	if e.IsRest() {
		return fmt.Sprintf("rest(%d)", e.Duration)
	}
	return fmt.Sprintf("note(%d, %.4f)", e.Duration, e.Pitch)
}

// Timeline is where rendered events end up. It owns the write cursor.
// MoveCursor must be additive: a rewind followed by an equal advance
// returns to the same position, even when the rewind passed the start.
type Timeline interface {
	Rate() int
	MoveCursor(delta float64)
	// WriteBlend mixes samples in at the cursor, then advances the cursor
	// by width, which may be fractional.
	WriteBlend(samples []float32, width float64)
}

// Duration returns the length of ev in seconds at tempo beats per minute.
func Duration(ev Event, tempo int) float64 {
	return math.Abs(float64(ev.Duration*60)) / float64(tempo*SubdivisionsPerBeat)
}

// SampleCount returns the unrounded length of ev in samples.
func SampleCount(rate int, ev Event, tempo int) float64 {
	return float64(rate) * Duration(ev, tempo)
}

type Options struct {
	// OnProgress is called as a sequence crosses each 10% milestone. The
	// last call always has done == total.
	OnProgress func(done, total int)
	Logger     *log.Logger
}

// Sequencer plays events through one voice onto a timeline.
type Sequencer struct {
	voice      voice.Voice
	onProgress func(done, total int)
	logger     *log.Logger
}

func New(v voice.Voice) *Sequencer {
	return NewWithOptions(v, Options{})
}

func NewWithOptions(v voice.Voice, opts Options) *Sequencer {
	return &Sequencer{
		voice:      v,
		onProgress: opts.OnProgress,
		logger:     opts.Logger,
	}
}

func (s *Sequencer) Voice() voice.Voice { return s.voice }

// PlayEvent renders one event at the timeline cursor. Rests only move the
// cursor. Notes are synthesized and blended in, with the cursor advanced by
// the exact (unrounded) note length so timing does not drift.
func (s *Sequencer) PlayEvent(tl Timeline, ev Event, tempo int, ref float64) error {
	if tempo <= 0 {
		return ErrTempo
	}
	n := SampleCount(tl.Rate(), ev, tempo)
	if ev.IsRest() {
		switch {
		case ev.Duration > 0:
			tl.MoveCursor(n)
		case ev.Duration < 0:
			tl.MoveCursor(-n)
		}
		return nil
	}
	freq := ref * ev.Pitch
	inc := freq / float64(tl.Rate())
	buf := s.voice.Synthesize(n, inc)
	tl.WriteBlend(buf.Samples, n)
	return nil
}

// PlaySequence plays events in order.
func (s *Sequencer) PlaySequence(tl Timeline, events []Event, tempo int, ref float64) error {
	if tempo <= 0 {
		return ErrTempo
	}
	total := len(events)
	s.logger.Debugf("playing %d events at tempo %d, reference %.3f Hz", total, tempo, ref)
	prog := 0
	for i, ev := range events {
		if err := s.PlayEvent(tl, ev, tempo, ref); err != nil {
			return err
		}
		if next := (i + 1) * 10 / total; next > prog {
			prog = next
			if s.onProgress != nil {
				s.onProgress(i+1, total)
			}
		}
	}
	s.logger.Debugf("sequence done")
	return nil
}
