package buffer

import "github.com/viterin/vek/vek32"

// SampleBuffer owns the mono float samples produced by one voice trigger.
type SampleBuffer struct {
	Samples []float32
}

// New returns a zero-filled buffer of n samples.
func New(n int) *SampleBuffer {
	b := &SampleBuffer{}
	b.AllocateZeroed(n)
	return b
}

// Len is the sample count.
func (b *SampleBuffer) Len() int {
	return len(b.Samples)
}

// Allocate sizes the buffer to n samples. When the existing backing array is
// large enough it is reused as-is, so prior contents are not cleared; callers
// must overwrite every sample or use AllocateZeroed.
func (b *SampleBuffer) Allocate(n int) {
	if n < 0 {
		n = 0
	}
	if n <= cap(b.Samples) {
		b.Samples = b.Samples[:n]
		return
	}
	b.Samples = make([]float32, n)
}

// AllocateZeroed sizes the buffer to n samples of silence.
func (b *SampleBuffer) AllocateZeroed(n int) {
	b.Allocate(n)
	clear(b.Samples)
}

// Scale multiplies every sample by gain.
func (b *SampleBuffer) Scale(gain float32) {
	if len(b.Samples) == 0 {
		return
	}
	vek32.MulNumber_Inplace(b.Samples, gain)
}

// Peak returns the largest absolute sample value, or 0 for an empty buffer.
func (b *SampleBuffer) Peak() float32 {
	return Peak(b.Samples)
}

// Peak returns the largest absolute value in samples.
func Peak(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	return vek32.Max(vek32.Abs(samples))
}
