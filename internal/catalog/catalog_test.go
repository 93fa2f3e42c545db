package catalog

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cbegin/scoredraft-go/internal/sampler"
)

func monoWAV(samples []int16) []byte {
	var buf bytes.Buffer
	dataSize := uint32(len(samples) * 2)
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(44100))
	binary.Write(&buf, binary.LittleEndian, uint32(44100*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

func setupDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"snare.wav":  monoWAV([]int16{1, 2, 3}),
		"kick.wav":   monoWAV([]int16{100, -100}),
		"broken.wav": []byte("not a wave file"),
		"notes.txt":  []byte("ignored"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "dir.wav"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return dir
}

func TestScanListsWavNamesSorted(t *testing.T) {
	c, err := Scan(setupDir(t), nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []string{"broken", "kick", "snare"}
	if got := c.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
}

func TestNewLoadsVoice(t *testing.T) {
	c, err := Scan(setupDir(t), nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	i, ok := c.Lookup("kick")
	if !ok {
		t.Fatalf("kick not found")
	}
	v, err := c.New(i)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if v.Len() != 2 || v.Name() != "kick" {
		t.Fatalf("voice len=%d name=%q, want 2 kick", v.Len(), v.Name())
	}
}

func TestNewReportsLoadFailure(t *testing.T) {
	c, err := Scan(setupDir(t), nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if _, err := c.NewByName("broken"); !errors.Is(err, sampler.ErrFormat) {
		t.Fatalf("err = %v, want ErrFormat", err)
	}
	if _, err := c.NewByName("missing"); !errors.Is(err, sampler.ErrFileNotFound) {
		t.Fatalf("err = %v, want ErrFileNotFound", err)
	}
	if _, err := c.New(-1); err == nil {
		t.Fatalf("expected index error")
	}
	if _, err := c.New(c.Len()); err == nil {
		t.Fatalf("expected index error")
	}
}

func TestScanMissingDirIsEmpty(t *testing.T) {
	c, err := Scan(filepath.Join(t.TempDir(), "absent"), nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("len = %d, want 0", c.Len())
	}
}
