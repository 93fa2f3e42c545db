package lfo

import (
	"math"
	"math/rand"
	"testing"
)

func TestTriangleShape(t *testing.T) {
	l := New(1, 1, WaveTriangle, nil)
	sr := 100.0 // one cycle per 100 samples
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = l.Sample(sr)
	}
	checks := []struct {
		at   int
		want float64
	}{{0, -1}, {25, 0}, {50, 1}, {75, 0}}
	for _, c := range checks {
		if math.Abs(samples[c.at]-c.want) > 0.05 {
			t.Errorf("triangle[%d] = %f, want %f", c.at, samples[c.at], c.want)
		}
	}
}

func TestSquareAndSaw(t *testing.T) {
	sq := New(2, 1, WaveSquare, nil)
	if v := sq.Sample(100); math.Abs(v-2) > 0.01 {
		t.Errorf("square first half = %f, want 2", v)
	}
	for i := 1; i < 50; i++ {
		sq.Sample(100)
	}
	if v := sq.Sample(100); math.Abs(v+2) > 0.01 {
		t.Errorf("square second half = %f, want -2", v)
	}
	saw := New(1, 1, WaveSaw, nil)
	if v := saw.Sample(100); math.Abs(v-1) > 0.05 {
		t.Errorf("saw at phase 0 = %f, want 1", v)
	}
}

func TestInactiveReturnsZero(t *testing.T) {
	for _, l := range []*LFO{New(0, 5, WaveTriangle, nil), New(1, 0, WaveTriangle, nil), {}} {
		if l.Active() {
			t.Errorf("lfo %+v should be inactive", l)
		}
		if v := l.Sample(44100); v != 0 {
			t.Errorf("inactive lfo sample = %f, want 0", v)
		}
	}
}

func TestUnknownWaveformFallsBackToTriangle(t *testing.T) {
	l := New(1, 1, Waveform(42), nil)
	if v := l.Sample(100); math.Abs(v+1) > 1e-9 {
		t.Fatalf("fallback sample = %f, want -1", v)
	}
}

func TestRandomIsDrivenByInjectedSource(t *testing.T) {
	a := New(1, 10, WaveRandom, rand.New(rand.NewSource(7)))
	b := New(1, 10, WaveRandom, rand.New(rand.NewSource(7)))
	nonZero := 0
	for i := 0; i < 500; i++ {
		va, vb := a.Sample(1000), b.Sample(1000)
		if va != vb {
			t.Fatalf("sample %d differs: %f vs %f", i, va, vb)
		}
		if math.Abs(va) > 1 {
			t.Fatalf("sample %d = %f exceeds depth", i, va)
		}
		if va != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Fatalf("random lfo never left zero")
	}
}

func TestRandomWithoutSourceHolds(t *testing.T) {
	l := New(1, 50, WaveRandom, nil)
	for i := 0; i < 200; i++ {
		if v := l.Sample(1000); v != 0 {
			t.Fatalf("sample %d = %f, want 0 without a source", i, v)
		}
	}
}
