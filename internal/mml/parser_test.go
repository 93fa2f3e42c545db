package mml

import (
	"math"
	"strings"
	"testing"

	"github.com/cbegin/scoredraft-go/internal/sequencer"
)

func parse(t *testing.T, src string) *Score {
	t.Helper()
	score, err := NewParser(DefaultParserConfig()).Parse(src)
	if err != nil {
		t.Fatalf("parse %q failed: %v", src, err)
	}
	return score
}

func semis(pitch float64) int {
	return int(math.Round(12 * math.Log2(pitch)))
}

func TestParseNoteByNumber(t *testing.T) {
	score := parse(t, "o5 l4 n60n64n67")
	want := []int{0, 4, 7}
	if len(score.Events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(score.Events))
	}
	for i, ev := range score.Events {
		if got := semis(ev.Pitch); got != want[i] {
			t.Errorf("event %d: %d semitones, want %d", i, got, want[i])
		}
		if ev.Duration != sequencer.SubdivisionsPerBeat {
			t.Errorf("event %d: duration %d, want one beat", i, ev.Duration)
		}
	}
}

func TestParseBasicMelody(t *testing.T) {
	score := parse(t, "t90 o5 l4 cdefgab>c;")
	if score.Tempo != 90 {
		t.Fatalf("tempo = %d, want 90", score.Tempo)
	}
	want := []int{0, 2, 4, 5, 7, 9, 11, 12}
	if score.Notes() != len(want) {
		t.Fatalf("expected %d notes, got %d", len(want), score.Notes())
	}
	for i, ev := range score.Events {
		if got := semis(ev.Pitch); got != want[i] {
			t.Errorf("note %d: %d semitones, want %d", i, got, want[i])
		}
	}
	if score.Units() != 8*48 {
		t.Fatalf("units = %d, want %d", score.Units(), 8*48)
	}
}

func TestReferenceNoteHasUnitPitch(t *testing.T) {
	score := parse(t, "c")
	if p := score.Events[0].Pitch; math.Abs(p-1) > 1e-12 {
		t.Fatalf("o5 c pitch = %v, want 1", p)
	}
	score = parse(t, "o4 a")
	if p := score.Events[0].Pitch; math.Abs(p-math.Pow(2, -3.0/12)) > 1e-12 {
		t.Fatalf("o4 a pitch = %v", p)
	}
}

func TestParseAccidentals(t *testing.T) {
	score := parse(t, "c+ c# d- e--")
	want := []int{1, 1, 1, 2}
	for i, ev := range score.Events {
		if got := semis(ev.Pitch); got != want[i] {
			t.Errorf("event %d: %d semitones, want %d", i, got, want[i])
		}
	}
}

func TestParseLengths(t *testing.T) {
	cases := []struct {
		src  string
		want int
	}{
		{"c", 48},
		{"c1", 192},
		{"c8", 24},
		{"c4.", 72},
		{"c4..", 84},
		{"c2^8", 120},
		{"l16 c", 12},
		{"l8. c", 36},
		{"c3", 64},
		{"c64", 3},
		{"C4", 48},
	}
	for _, tc := range cases {
		score := parse(t, tc.src)
		if got := score.Events[0].Duration; got != tc.want {
			t.Errorf("%q: duration %d, want %d", tc.src, got, tc.want)
		}
	}
}

func TestParseRestsAndHits(t *testing.T) {
	score := parse(t, "x8 r4 r-8 x")
	want := []sequencer.Event{
		sequencer.Note(24, 1),
		sequencer.Rest(48),
		sequencer.Rest(-24),
		sequencer.Note(48, 1),
	}
	if len(score.Events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(score.Events))
	}
	for i := range want {
		if score.Events[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, score.Events[i], want[i])
		}
	}
	if score.Notes() != 2 {
		t.Fatalf("notes = %d, want 2", score.Notes())
	}
}

func TestParseOctaveShifts(t *testing.T) {
	score := parse(t, "o4 c > c < < c >2 c")
	want := []int{-12, 0, -24, 0}
	for i, ev := range score.Events {
		if got := semis(ev.Pitch); got != want[i] {
			t.Errorf("event %d: %d semitones, want %d", i, got, want[i])
		}
	}
}

func TestParseLoopAlternate(t *testing.T) {
	score := parse(t, "o4 l8 [cdef|gab]2")
	if score.Notes() != 7 {
		t.Fatalf("expected 7 notes, got %d", score.Notes())
	}
	score = parse(t, "[c[de]3]2")
	if score.Notes() != 14 {
		t.Fatalf("expected 14 notes, got %d", score.Notes())
	}
}

func TestParseComments(t *testing.T) {
	score := parse(t, "c // d e\n/* f\ng */ a")
	if score.Notes() != 2 {
		t.Fatalf("expected 2 notes, got %d", score.Notes())
	}
}

func TestTempoDefaultsAndRepeats(t *testing.T) {
	if got := parse(t, "c").Tempo; got != 120 {
		t.Fatalf("default tempo = %d, want 120", got)
	}
	if got := parse(t, "t100 c t100 d").Tempo; got != 100 {
		t.Fatalf("tempo = %d, want 100", got)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"c5", "whole number"},
		{"c64.", "dotted"},
		{"c0", "zero length"},
		{"t120 c t90 d", "single tempo"},
		{"t0 c", "positive"},
		{"o12 c", "octave"},
		{"[cd", "unclosed"},
		{"cd]", "unmatched"},
		{"c q", "unexpected"},
	}
	for _, tc := range cases {
		_, err := NewParser(DefaultParserConfig()).Parse(tc.src)
		if err == nil {
			t.Errorf("%q: expected error", tc.src)
			continue
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%q: error %q does not mention %q", tc.src, err, tc.want)
		}
	}
}

func TestBadDefaultLength(t *testing.T) {
	cfg := DefaultParserConfig()
	cfg.DefaultLValue = 5
	if _, err := NewParser(cfg).Parse("c"); err == nil {
		t.Fatal("expected error for l5 default")
	}
}
