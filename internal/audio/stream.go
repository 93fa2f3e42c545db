package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource fills interleaved stereo float32 frames.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// When Finished returns true, the stream will return io.EOF on the next Read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// BufferSource plays a finished mono render once, copying each sample to
// both channels.
type BufferSource struct {
	samples  []float32
	pos      int
	gain     atomic.Uint32
	finished atomic.Bool
	// Tap, if set, sees every stereo block after gain is applied.
	Tap func([]float32)
	// OnFinish runs once, on the audio thread, after the last sample.
	OnFinish func()
}

func NewBufferSource(samples []float32) *BufferSource {
	s := &BufferSource{samples: samples}
	s.SetGain(1)
	return s
}

func (s *BufferSource) SetGain(g float32) { s.gain.Store(math.Float32bits(g)) }
func (s *BufferSource) Gain() float32     { return math.Float32frombits(s.gain.Load()) }

func (s *BufferSource) Process(dst []float32) {
	g := s.Gain()
	frames := len(dst) / 2
	for i := 0; i < frames; i++ {
		var v float32
		if s.pos < len(s.samples) {
			v = s.samples[s.pos] * g
			s.pos++
		}
		dst[i*2] = v
		dst[i*2+1] = v
	}
	if s.Tap != nil {
		s.Tap(dst)
	}
	if s.pos >= len(s.samples) && !s.finished.Swap(true) && s.OnFinish != nil {
		s.OnFinish()
	}
}

func (s *BufferSource) Finished() bool { return s.finished.Load() }

type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	n := frames * 8
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return n, io.EOF
	}
	return n, nil
}

func (r *StreamReader) Close() error { return nil }

type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// ebiten allows one audio context per process, so every player shares it
// and must agree on the sample rate.
func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()           { p.player.Play() }
func (p *Player) Pause()          { p.player.Pause() }
func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Position returns what the listener actually hears.
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

func (p *Player) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}
