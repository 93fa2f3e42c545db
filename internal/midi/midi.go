// Package midi imports a single melodic line from a Standard MIDI File.
package midi

import (
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/scoredraft-go/internal/log"
	"github.com/cbegin/scoredraft-go/internal/sequencer"
)

// ErrTimeFormat is returned for SMPTE timed files.
var ErrTimeFormat = errors.New("midi: only metric time format is supported")

// ErrNoNotes is returned when no track holds a note.
var ErrNoNotes = errors.New("midi: no notes found")

const defaultTempo = 120

type Config struct {
	// Track selects a track by index; -1 picks the first track with notes.
	Track int
	// ReferenceKey is the key whose pitch is 1.0.
	ReferenceKey int
	Logger       *log.Logger
}

func DefaultConfig() Config {
	return Config{Track: -1, ReferenceKey: 60}
}

// Import is the result of reading a file.
type Import struct {
	Tempo  int
	Track  int
	Events []sequencer.Event
}

type noteSpan struct {
	start, end uint64
	key        uint8
}

func ReadFile(path string, cfg Config) (*Import, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return Read(f, cfg)
}

// Read decodes an SMF and flattens the chosen track into sequential events.
// A new note-on cuts off the sounding note, and gaps become rests.
func Read(r io.Reader, cfg Config) (*Import, error) {
	file, err := smf.ReadFrom(r)
	if err != nil {
		return nil, errors.Wrap(err, "midi: read")
	}
	mt, ok := file.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, ErrTimeFormat
	}
	res := uint64(mt.Resolution())
	if res == 0 {
		return nil, ErrTimeFormat
	}

	tempo := defaultTempo
	tempoFound := false
	spans := make([][]noteSpan, len(file.Tracks))
	for ti, tr := range file.Tracks {
		var abs uint64
		open := map[uint8]int{}
		for _, ev := range tr {
			abs += uint64(ev.Delta)
			var bpm float64
			if !tempoFound && ev.Message.GetMetaTempo(&bpm) {
				tempo = int(math.Round(bpm))
				tempoFound = true
				continue
			}
			msg := gomidi.Message(ev.Message)
			var ch, key, vel uint8
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				open[key] = len(spans[ti])
				spans[ti] = append(spans[ti], noteSpan{start: abs, end: abs, key: key})
			case msg.GetNoteEnd(&ch, &key):
				if idx, ok := open[key]; ok {
					spans[ti][idx].end = abs
					delete(open, key)
				}
			}
		}
	}
	if tempo <= 0 {
		tempo = defaultTempo
	}

	pick := cfg.Track
	if pick < 0 {
		for i, s := range spans {
			if len(s) > 0 {
				pick = i
				break
			}
		}
	}
	if pick < 0 || pick >= len(spans) || len(spans[pick]) == 0 {
		return nil, ErrNoNotes
	}

	events := flatten(spans[pick], res, cfg.ReferenceKey)
	cfg.Logger.Debugf("midi: track %d, %d events, tempo %d", pick, len(events), tempo)
	return &Import{Tempo: tempo, Track: pick, Events: events}, nil
}

func flatten(spans []noteSpan, res uint64, refKey int) []sequencer.Event {
	units := func(ticks uint64) int {
		return int((ticks*sequencer.SubdivisionsPerBeat + res/2) / res)
	}
	events := make([]sequencer.Event, 0, len(spans)*2)
	cursor := 0
	for i, sp := range spans {
		start := units(sp.start)
		end := units(sp.end)
		if i+1 < len(spans) {
			if next := units(spans[i+1].start); next < end {
				end = next
			}
		}
		if start > cursor {
			events = append(events, sequencer.Rest(start-cursor))
			cursor = start
		}
		if end <= cursor {
			continue
		}
		pitch := math.Pow(2, float64(int(sp.key)-refKey)/12)
		events = append(events, sequencer.Note(end-cursor, pitch))
		cursor = end
	}
	return events
}
