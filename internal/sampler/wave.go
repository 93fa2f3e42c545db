package sampler

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/cbegin/scoredraft-go/internal/buffer"
)

var (
	// ErrFileNotFound is returned when a sample file cannot be opened.
	ErrFileNotFound = errors.New("sample file not found")
	// ErrFormat is returned when a file is not 44.1kHz 16-bit mono/stereo PCM WAVE.
	ErrFormat = errors.New("unsupported wave format")
)

const (
	RequiredSampleRate    = 44100
	RequiredBitsPerSample = 16
	pcmFormatCode         = 1
	maxChannels           = 2
	fullScale             = 32767
)

type chunkTag [4]byte

var (
	tagRIFF = chunkTag{'R', 'I', 'F', 'F'}
	tagWAVE = chunkTag{'W', 'A', 'V', 'E'}
	tagFmt  = chunkTag{'f', 'm', 't', ' '}
	tagData = chunkTag{'d', 'a', 't', 'a'}
)

// formatDescriptor is the body of the "fmt " chunk. Extended descriptors are
// not accepted, so the chunk size must equal formatDescriptorSize.
type formatDescriptor struct {
	FormatCode    uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

const formatDescriptorSize = 16

// Waveform is a decoded, down-mixed reference recording.
type Waveform struct {
	Samples  []float32
	Peak     float32
	Channels int
	// DeclaredBytes is the data chunk length from the header, which may
	// exceed what the file actually held.
	DeclaredBytes int
}

// Len is the number of mono samples.
func (w *Waveform) Len() int {
	return len(w.Samples)
}

// Decode reads a RIFF/WAVE stream, rejecting anything other than a plain
// 16-byte PCM descriptor at 44100 Hz, 16 bits, one or two channels, directly
// followed by the data chunk. Channels are averaged into one and scaled by
// 1/32767.
func Decode(r io.Reader) (*Waveform, error) {
	if err := expectTag(r, tagRIFF, "container"); err != nil {
		return nil, err
	}
	var riffSize uint32
	if err := binary.Read(r, binary.LittleEndian, &riffSize); err != nil {
		return nil, truncated(err, "riff size")
	}
	if err := expectTag(r, tagWAVE, "form type"); err != nil {
		return nil, err
	}
	if err := expectTag(r, tagFmt, "format chunk"); err != nil {
		return nil, err
	}
	var descSize uint32
	if err := binary.Read(r, binary.LittleEndian, &descSize); err != nil {
		return nil, truncated(err, "format chunk size")
	}
	if descSize != formatDescriptorSize {
		return nil, errors.Wrapf(ErrFormat, "format chunk size %d, want %d", descSize, formatDescriptorSize)
	}
	var desc formatDescriptor
	if err := binary.Read(r, binary.LittleEndian, &desc); err != nil {
		return nil, truncated(err, "format descriptor")
	}
	if desc.FormatCode != pcmFormatCode {
		return nil, errors.Wrapf(ErrFormat, "format code %d is not PCM", desc.FormatCode)
	}
	if desc.Channels < 1 || desc.Channels > maxChannels {
		return nil, errors.Wrapf(ErrFormat, "%d channels", desc.Channels)
	}
	if desc.SampleRate != RequiredSampleRate {
		return nil, errors.Wrapf(ErrFormat, "sample rate %d, want %d", desc.SampleRate, RequiredSampleRate)
	}
	if desc.BitsPerSample != RequiredBitsPerSample {
		return nil, errors.Wrapf(ErrFormat, "%d bits per sample, want %d", desc.BitsPerSample, RequiredBitsPerSample)
	}
	if err := expectTag(r, tagData, "data chunk"); err != nil {
		return nil, err
	}
	var dataSize uint32
	if err := binary.Read(r, binary.LittleEndian, &dataSize); err != nil {
		return nil, truncated(err, "data chunk size")
	}
	data, err := io.ReadAll(io.LimitReader(r, int64(dataSize)))
	if err != nil {
		return nil, errors.Wrap(err, "read sample data")
	}

	channels := int(desc.Channels)
	// A short file keeps only the whole frames it actually holds.
	frames := len(data) / 2 / channels
	if dataSize > 0 && frames == 0 {
		return nil, errors.Wrapf(ErrFormat, "data chunk declares %d bytes, holds no complete frame", dataSize)
	}
	w := &Waveform{
		Samples:       make([]float32, frames),
		Channels:      channels,
		DeclaredBytes: int(dataSize),
	}
	div := float32(fullScale) * float32(channels)
	for i := 0; i < frames; i++ {
		var v float32
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * 2
			v += float32(int16(binary.LittleEndian.Uint16(data[off:])))
		}
		w.Samples[i] = v / div
	}
	w.Peak = buffer.Peak(w.Samples)
	return w, nil
}

func expectTag(r io.Reader, want chunkTag, what string) error {
	var got chunkTag
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return truncated(err, what)
	}
	if got != want {
		return errors.Wrapf(ErrFormat, "%s tag %q, want %q", what, got[:], want[:])
	}
	return nil
}

func truncated(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrapf(ErrFormat, "truncated %s", what)
	}
	return errors.Wrapf(err, "read %s", what)
}
