package mml

import "github.com/cbegin/scoredraft-go/internal/sequencer"

// Score is a parsed single-voice phrase.
type Score struct {
	// Tempo is the t command value, or the configured default.
	Tempo  int
	Events []sequencer.Event
}

// Units is the total length of the score in 1/48 beat units, counting
// rewinds as negative.
func (s *Score) Units() int {
	n := 0
	for _, ev := range s.Events {
		n += ev.Duration
	}
	return n
}

// Notes counts the non-rest events.
func (s *Score) Notes() int {
	n := 0
	for _, ev := range s.Events {
		if !ev.IsRest() {
			n++
		}
	}
	return n
}

type ParserConfig struct {
	DefaultTempo  int
	DefaultLValue int
	DefaultOctave int
	MinOctave     int
	MaxOctave     int
	// ReferenceNote is the note number (o5 c = 60) whose relative pitch is 1.
	ReferenceNote int
}

func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		DefaultTempo:  120,
		DefaultLValue: 4,
		DefaultOctave: 5,
		MinOctave:     0,
		MaxOctave:     9,
		ReferenceNote: 60,
	}
}
