package track

import (
	"math"

	"github.com/cbegin/scoredraft-go/internal/buffer"
)

// Track is a mono accumulation buffer with a fractional write cursor. The
// cursor may be rewound past the start; writes land at sample 0 until it
// moves forward again, so rewinds and advances always cancel exactly.
type Track struct {
	rate    int
	cursor  float64
	samples []float32
}

func New(rate int) *Track {
	return &Track{rate: rate}
}

func (t *Track) Rate() int { return t.rate }

// Cursor is the current write position in samples.
func (t *Track) Cursor() float64 { return t.pos() }

// MoveCursor shifts the cursor by delta samples.
func (t *Track) MoveCursor(delta float64) { t.cursor += delta }

func (t *Track) pos() float64 { return max(t.cursor, 0) }

// WriteBlend mixes samples into the track at the cursor and then advances the
// cursor by width. A fractional cursor is honoured by linearly interpolating
// the samples between neighbouring output positions.
func (t *Track) WriteBlend(samples []float32, width float64) {
	if len(samples) > 0 {
		at := t.pos()
		start := int(math.Floor(at))
		frac := float32(at - float64(start))
		end := start + len(samples)
		if frac > 0 {
			end++
		}
		t.grow(end)
		dst := t.samples[start:end]
		if frac == 0 {
			for i, s := range samples {
				dst[i] += s
			}
		} else {
			var prev float32
			for i, s := range samples {
				dst[i] += (1-frac)*s + frac*prev
				prev = s
			}
			dst[len(samples)] += frac * prev
		}
	}
	t.MoveCursor(width)
}

// PadToCursor extends the track with silence up to the cursor, so trailing
// rests are kept.
func (t *Track) PadToCursor() {
	t.grow(int(math.Ceil(t.pos())))
}

func (t *Track) grow(n int) {
	if n <= len(t.samples) {
		return
	}
	if n <= cap(t.samples) {
		old := len(t.samples)
		t.samples = t.samples[:n]
		clear(t.samples[old:])
		return
	}
	grown := make([]float32, n, max(n, 2*cap(t.samples)))
	copy(grown, t.samples)
	t.samples = grown
}

// Len is the number of samples written so far, including any tail past the
// cursor.
func (t *Track) Len() int { return len(t.samples) }

// Samples returns the accumulated audio. The slice is shared with the track.
func (t *Track) Samples() []float32 { return t.samples }

// Normalize scales the track so its largest magnitude equals peak. Silent
// tracks are left alone.
func (t *Track) Normalize(peak float32) {
	cur := buffer.Peak(t.samples)
	if cur == 0 {
		return
	}
	b := buffer.SampleBuffer{Samples: t.samples}
	b.Scale(peak / cur)
}

// Seconds is the track length in seconds.
func (t *Track) Seconds() float64 {
	if t.rate <= 0 {
		return 0
	}
	return float64(len(t.samples)) / float64(t.rate)
}
