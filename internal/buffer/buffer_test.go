package buffer

import "testing"

func TestAllocateZeroedClearsReusedStorage(t *testing.T) {
	b := New(8)
	for i := range b.Samples {
		b.Samples[i] = 1
	}
	b.AllocateZeroed(4)
	if b.Len() != 4 {
		t.Fatalf("len = %d, want 4", b.Len())
	}
	for i, s := range b.Samples {
		if s != 0 {
			t.Fatalf("sample %d = %v, want 0", i, s)
		}
	}
}

func TestAllocateKeepsStorageWithoutClearing(t *testing.T) {
	b := New(8)
	b.Samples[0] = 0.25
	b.Allocate(2)
	if b.Len() != 2 {
		t.Fatalf("len = %d, want 2", b.Len())
	}
	if b.Samples[0] != 0.25 {
		t.Fatalf("reused sample = %v, want 0.25", b.Samples[0])
	}
}

func TestAllocateReplacesWhenGrowing(t *testing.T) {
	b := New(2)
	b.Allocate(16)
	if b.Len() != 16 {
		t.Fatalf("len = %d, want 16", b.Len())
	}
	b.Allocate(-3)
	if b.Len() != 0 {
		t.Fatalf("negative allocate len = %d, want 0", b.Len())
	}
}

func TestScaleAndPeak(t *testing.T) {
	b := &SampleBuffer{Samples: []float32{0.1, -0.5, 0.25}}
	if got := b.Peak(); got != 0.5 {
		t.Fatalf("peak = %v, want 0.5", got)
	}
	b.Scale(2)
	if got := b.Peak(); got != 1 {
		t.Fatalf("scaled peak = %v, want 1", got)
	}
	if b.Samples[0] != 0.2 {
		t.Fatalf("scaled sample = %v, want 0.2", b.Samples[0])
	}
	empty := &SampleBuffer{}
	empty.Scale(3)
	if got := empty.Peak(); got != 0 {
		t.Fatalf("empty peak = %v, want 0", got)
	}
}
