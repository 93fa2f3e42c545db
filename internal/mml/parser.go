package mml

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/cbegin/scoredraft-go/internal/sequencer"
)

// wholeNote is the length of l1 in 1/48 beat units.
const wholeNote = 4 * sequencer.SubdivisionsPerBeat

var noteOffsets = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

type Parser struct{ cfg ParserConfig }

func NewParser(cfg ParserConfig) *Parser { return &Parser{cfg: cfg} }

type parseState struct {
	octave     int
	defaultLen int
	tempo      int
	tempoSet   bool
}

// Parse converts MML text into events.
//
//	t<n>          tempo (once, before or between notes)
//	o<n> < >      octave set / down / up
//	l<n>          default length (4 = quarter note = one beat)
//	c d e f g a b notes, with + # - accidentals, optional length, dots and ^ ties
//	n<n>          note by number (60 = o5 c)
//	x             unpitched hit
//	r  r-         rest, rewind
//	[ ... | ... ]n repeat n times, skipping after | on the last pass
func (p *Parser) Parse(input string) (*Score, error) {
	expanded, err := expandLoops(stripComments(input))
	if err != nil {
		return nil, err
	}
	if p.cfg.DefaultLValue <= 0 || wholeNote%p.cfg.DefaultLValue != 0 {
		return nil, fmt.Errorf("default length l%d is not a whole number of units", p.cfg.DefaultLValue)
	}
	st := parseState{
		octave:     p.cfg.DefaultOctave,
		defaultLen: wholeNote / p.cfg.DefaultLValue,
		tempo:      p.cfg.DefaultTempo,
	}
	events := make([]sequencer.Event, 0, 64)
	i := 0
	for i < len(expanded) {
		ch := lower(expanded[i])
		if isSpace(ch) || ch == ';' {
			i++
			continue
		}
		switch {
		case ch == 'n' && i+1 < len(expanded) && unicode.IsDigit(rune(expanded[i+1])):
			nn, next, e := parseNumberDefault(expanded, i+1, p.cfg.ReferenceNote)
			if e != nil {
				return nil, e
			}
			dur, next, e := parseLengthWithTie(expanded, next, st)
			if e != nil {
				return nil, e
			}
			events = append(events, sequencer.Note(dur, p.relativePitch(nn)))
			i = next
		case isNote(ch):
			ev, next, e := p.parseNote(expanded, i, st)
			if e != nil {
				return nil, e
			}
			events = append(events, ev)
			i = next
		case ch == 'x':
			dur, next, e := parseLengthWithTie(expanded, i+1, st)
			if e != nil {
				return nil, e
			}
			events = append(events, sequencer.Note(dur, 1))
			i = next
		case ch == 'r':
			sign, at := 1, i+1
			if at < len(expanded) && expanded[at] == '-' {
				sign, at = -1, at+1
			}
			dur, next, e := parseLengthWithTie(expanded, at, st)
			if e != nil {
				return nil, e
			}
			events = append(events, sequencer.Rest(sign*dur))
			i = next
		case ch == 'l':
			length, next, e := parseLengthToken(expanded, i+1, st)
			if e != nil {
				return nil, e
			}
			st.defaultLen = length
			i = next
		case ch == 't':
			val, next, e := parseNumberDefault(expanded, i+1, -1)
			if e != nil {
				return nil, e
			}
			if val <= 0 {
				return nil, fmt.Errorf("tempo at %d must be positive", i)
			}
			if st.tempoSet && val != st.tempo {
				return nil, fmt.Errorf("tempo change at %d: a phrase has a single tempo", i)
			}
			st.tempo, st.tempoSet = val, true
			i = next
		case ch == 'o':
			val, next, e := parseNumberDefault(expanded, i+1, st.octave)
			if e != nil {
				return nil, e
			}
			if val < p.cfg.MinOctave || val > p.cfg.MaxOctave {
				return nil, fmt.Errorf("octave out of range at %d", i)
			}
			st.octave = val
			i = next
		case ch == '<':
			val, next, e := parseNumberDefault(expanded, i+1, 1)
			if e != nil {
				return nil, e
			}
			st.octave = clampInt(st.octave-val, p.cfg.MinOctave, p.cfg.MaxOctave)
			i = next
		case ch == '>':
			val, next, e := parseNumberDefault(expanded, i+1, 1)
			if e != nil {
				return nil, e
			}
			st.octave = clampInt(st.octave+val, p.cfg.MinOctave, p.cfg.MaxOctave)
			i = next
		default:
			return nil, fmt.Errorf("unexpected %q at %d", expanded[i], i)
		}
	}
	return &Score{Tempo: st.tempo, Events: events}, nil
}

func (p *Parser) parseNote(s string, at int, st parseState) (sequencer.Event, int, error) {
	base := noteOffsets[lower(s[at])]
	i, shift := at+1, 0
accidentals:
	for ; i < len(s); i++ {
		switch s[i] {
		case '#', '+':
			shift++
		case '-':
			shift--
		default:
			break accidentals
		}
	}
	dur, next, err := parseLengthWithTie(s, i, st)
	if err != nil {
		return sequencer.Event{}, at, err
	}
	nn := st.octave*12 + base + shift
	return sequencer.Note(dur, p.relativePitch(nn)), next, nil
}

// relativePitch is the frequency ratio of note nn to the reference note.
func (p *Parser) relativePitch(nn int) float64 {
	return math.Pow(2, float64(nn-p.cfg.ReferenceNote)/12)
}

func parseLengthWithTie(s string, at int, st parseState) (int, int, error) {
	dur, i, err := parseLengthToken(s, at, st)
	if err != nil {
		return 0, at, err
	}
	for i < len(s) && s[i] == '^' {
		extra, next, e := parseLengthToken(s, i+1, st)
		if e != nil {
			return 0, at, e
		}
		dur += extra
		i = next
	}
	return dur, i, nil
}

func parseLengthToken(s string, at int, st parseState) (int, int, error) {
	val, i, err := parseNumberOptional(s, at)
	if err != nil {
		return 0, at, err
	}
	base := st.defaultLen
	if val == 0 {
		return 0, at, fmt.Errorf("zero length at %d", at)
	}
	if val > 0 {
		if wholeNote%val != 0 {
			return 0, at, fmt.Errorf("length %d at %d is not a whole number of units", val, at)
		}
		base = wholeNote / val
	}
	dur, term := base, base
	for i < len(s) && s[i] == '.' {
		if term%2 != 0 {
			return 0, at, fmt.Errorf("dotted length at %d is not a whole number of units", at)
		}
		term /= 2
		dur += term
		i++
	}
	return dur, i, nil
}

func parseNumberDefault(s string, at int, def int) (int, int, error) {
	v, i, err := parseNumberOptional(s, at)
	if err != nil {
		return 0, at, err
	}
	if v == -1 {
		return def, i, nil
	}
	return v, i, nil
}

func parseNumberOptional(s string, at int) (int, int, error) {
	i, start := at, at
	for i < len(s) && unicode.IsDigit(rune(s[i])) {
		i++
	}
	if start == i {
		return -1, i, nil
	}
	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0, at, err
	}
	return n, i, nil
}

func stripComments(src string) string {
	var out strings.Builder
	out.Grow(len(src))
	for i := 0; i < len(src); i++ {
		if i+1 < len(src) && src[i] == '/' && src[i+1] == '*' {
			i += 2
			for i < len(src) {
				if i+1 < len(src) && src[i] == '*' && src[i+1] == '/' {
					i++
					break
				}
				i++
			}
			continue
		}
		if i+1 < len(src) && src[i] == '/' && src[i+1] == '/' {
			i += 2
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) && src[i] == '\n' {
				out.WriteByte('\n')
			}
			continue
		}
		out.WriteByte(src[i])
	}
	return out.String()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 32
	}
	return b
}

func isSpace(b byte) bool { return b == ' ' || b == '\n' || b == '\r' || b == '\t' }
func isNote(b byte) bool  { _, ok := noteOffsets[b]; return ok }

func expandLoops(src string) (string, error) {
	out, i, err := parseExpanded(src, 0, 0)
	if err != nil {
		return "", err
	}
	if i != len(src) {
		return "", fmt.Errorf("unexpected parser position: %d", i)
	}
	return out, nil
}

func parseExpanded(src string, at, depth int) (string, int, error) {
	var out strings.Builder
	for at < len(src) {
		ch := src[at]
		if ch == ']' {
			if depth == 0 {
				return "", at, fmt.Errorf("unmatched ']' at %d", at)
			}
			return out.String(), at, nil
		}
		if ch != '[' {
			out.WriteByte(ch)
			at++
			continue
		}
		body, next, err := parseLoopBody(src, at+1, depth+1)
		if err != nil {
			return "", at, err
		}
		out.WriteString(body)
		at = next
	}
	if depth > 0 {
		return "", at, fmt.Errorf("unclosed '['")
	}
	return out.String(), at, nil
}

func parseLoopBody(src string, at, depth int) (string, int, error) {
	var pre, post strings.Builder
	breakHit := false
	for at < len(src) {
		ch := src[at]
		if ch == '[' {
			body, next, err := parseLoopBody(src, at+1, depth+1)
			if err != nil {
				return "", at, err
			}
			if breakHit {
				post.WriteString(body)
			} else {
				pre.WriteString(body)
			}
			at = next
			continue
		}
		if ch == '|' && depth == 1 {
			breakHit = true
			at++
			continue
		}
		if ch == ']' {
			repeat, next, err := parseNumberDefault(src, at+1, 2)
			if err != nil {
				return "", at, err
			}
			if repeat < 1 {
				repeat = 1
			}
			preS, postS := pre.String(), post.String()
			var out strings.Builder
			if breakHit {
				for i := 0; i < repeat-1; i++ {
					out.WriteString(preS)
				}
				out.WriteString(postS)
			} else {
				for i := 0; i < repeat; i++ {
					out.WriteString(preS)
				}
			}
			return out.String(), next, nil
		}
		if breakHit {
			post.WriteByte(ch)
		} else {
			pre.WriteByte(ch)
		}
		at++
	}
	return "", at, fmt.Errorf("unclosed loop block")
}
