package voice

import "testing"

func TestSilenceRoundsUpAndZeroes(t *testing.T) {
	s := NewSilence()
	buf := s.Synthesize(10.2, 0.01)
	if buf.Len() != 11 {
		t.Fatalf("len = %d, want 11", buf.Len())
	}
	for i, v := range buf.Samples {
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0", i, v)
		}
	}
	if got := s.Synthesize(0, 0).Len(); got != 0 {
		t.Fatalf("zero estimate len = %d, want 0", got)
	}
}

func TestTuneVolume(t *testing.T) {
	s := NewSilence()
	if got := s.Volume(); got != DefaultVolume {
		t.Fatalf("default volume = %v, want %v", got, DefaultVolume)
	}
	if !s.Tune("volume 0.5") {
		t.Fatalf("volume command rejected")
	}
	if !s.Tune("volume 0.5") {
		t.Fatalf("repeated volume command rejected")
	}
	if got := s.Volume(); got != 0.5 {
		t.Fatalf("volume = %v, want 0.5", got)
	}
}

func TestTuneRejectsWithoutSideEffects(t *testing.T) {
	cases := []string{"bogus 1.0", "volume", "volume loud", "", "   "}
	for _, cmd := range cases {
		s := NewSilence()
		s.SetVolume(0.7)
		if s.Tune(cmd) {
			t.Errorf("Tune(%q) = true, want false", cmd)
		}
		if got := s.Volume(); got != 0.7 {
			t.Errorf("Tune(%q) changed volume to %v", cmd, got)
		}
	}
}

func TestParseTuning(t *testing.T) {
	name, v, ok := ParseTuning("  attack   0.25 trailing")
	if !ok || name != "attack" || v != 0.25 {
		t.Fatalf("ParseTuning = (%q, %v, %v), want (attack, 0.25, true)", name, v, ok)
	}
}
