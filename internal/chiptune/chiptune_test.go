package chiptune

import (
	"testing"
)

func TestSynthesizePulse(t *testing.T) {
	v := New(44100, DefaultParams())
	buf := v.Synthesize(22050.5, 440.0/44100)
	if buf.Len() != 22051 {
		t.Fatalf("len = %d, want 22051", buf.Len())
	}
	if p := buf.Peak(); p < 0.3 || p > 1 {
		t.Fatalf("peak = %v, want audible and within [-1, 1]", p)
	}
	tail := buf.Samples[buf.Len()-10:]
	for i, s := range tail {
		if s > 0.2 || s < -0.2 {
			t.Fatalf("tail[%d] = %v, want near silence after release", i, s)
		}
	}
	if got := v.Synthesize(-3, 0.01).Len(); got != 0 {
		t.Fatalf("negative estimate len = %d, want 0", got)
	}
}

func TestSynthesizeIsRepeatable(t *testing.T) {
	for _, w := range []Wave{WavePulse, WaveTriangle, WaveNoise} {
		p := DefaultParams()
		p.Wave = w
		v := New(44100, p)
		a := v.Synthesize(1000, 0.02)
		b := v.Synthesize(1000, 0.02)
		for i := range a.Samples {
			if a.Samples[i] != b.Samples[i] {
				t.Fatalf("wave %d sample %d differs between triggers", w, i)
			}
		}
	}
}

func TestZeroVolumeIsSilent(t *testing.T) {
	v := New(44100, DefaultParams())
	if !v.Tune("volume 0") {
		t.Fatal("volume rejected")
	}
	if p := v.Synthesize(500, 0.01).Peak(); p != 0 {
		t.Fatalf("peak = %v, want 0", p)
	}
}

func TestQuantize(t *testing.T) {
	cases := []struct {
		v     float64
		steps int
		want  float64
	}{
		{0.5, 1, 0.5},
		{0.52, 3, 0.5},
		{0.9, 3, 1},
		{1.4, 16, 1},
	}
	for _, tc := range cases {
		if got := quantize(tc.v, tc.steps); got != tc.want {
			t.Errorf("quantize(%v, %d) = %v, want %v", tc.v, tc.steps, got, tc.want)
		}
	}
}

func TestTuneCommands(t *testing.T) {
	v := New(44100, DefaultParams())
	cases := []struct {
		cmd  string
		want bool
	}{
		{"wave 2", true},
		{"wave 1.5", false},
		{"wave 7", false},
		{"duty 0.5", true},
		{"duty 1", false},
		{"attack 0.01", true},
		{"decay 0.3", true},
		{"release -1", false},
		{"sustain 0.4", true},
		{"sustain 2", false},
		{"steps 8", true},
		{"cutoff 5000", true},
		{"volume 0.5", true},
		{"pan 3", false},
	}
	for _, tc := range cases {
		if got := v.Tune(tc.cmd); got != tc.want {
			t.Errorf("Tune(%q) = %v, want %v", tc.cmd, got, tc.want)
		}
	}
	p := v.Params()
	if p.Wave != WaveNoise || p.PulseDuty != 0.5 || p.SustainLvl != 0.4 || p.StepLevels != 8 || p.LPFCutoff != 5000 {
		t.Fatalf("params = %+v", p)
	}
}
