package scoredraft

import (
	"errors"
	"sync"

	intaudio "github.com/cbegin/scoredraft-go/internal/audio"
	intlog "github.com/cbegin/scoredraft-go/internal/log"
	intvoice "github.com/cbegin/scoredraft-go/internal/voice"
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	sampleTap func([]float32)
	logger    *intlog.Logger
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

func WithLogger(logger *intlog.Logger) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.logger = logger
	}
}

// Player plays finished renders through the system audio device.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	audio      *intaudio.Player
	source     *intaudio.BufferSource
	volume     float64
	sampleTap  func([]float32)
	logger     *intlog.Logger
	done       chan struct{}
}

// NewPlayer does not open the audio device; that happens on the first Play.
func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := playerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Player{
		sampleRate: sampleRate,
		volume:     1,
		sampleTap:  cfg.sampleTap,
		logger:     cfg.logger,
	}, nil
}

func (p *Player) SampleRate() int { return p.sampleRate }

// PlayMML renders mmlText with v at the player's sample rate and plays it.
func (p *Player) PlayMML(v intvoice.Voice, mmlText string) error {
	cfg := DefaultRenderConfig()
	cfg.SampleRate = p.sampleRate
	cfg.Logger = p.logger
	samples, err := RenderMML(v, mmlText, cfg)
	if err != nil {
		return err
	}
	return p.Play(samples)
}

// Play starts playing a mono render, replacing anything already playing.
func (p *Player) Play(samples []float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Signal any existing Wait() that the previous playback was replaced
	if p.done != nil {
		close(p.done)
	}
	done := make(chan struct{})
	p.done = done

	src := intaudio.NewBufferSource(samples)
	src.SetGain(float32(p.volume))
	src.Tap = p.sampleTap
	src.OnFinish = func() { go p.signalDone(done) }

	backend, err := intaudio.NewPlayer(p.sampleRate, src)
	if err != nil {
		p.done = nil
		close(done)
		return err
	}
	if p.audio != nil {
		_ = p.audio.Stop()
	}
	p.audio = backend
	p.source = src
	p.logger.Debugf("playing %d samples at %d Hz", len(samples), p.sampleRate)
	p.audio.Play()
	return nil
}

// signalDone closes done if it is still the current playback.
func (p *Player) signalDone(done chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == done {
		p.done = nil
		close(done)
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	p.source = nil
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
	return err
}

// Wait blocks until the current playback ends.
// Wait returns immediately if no playback is active or if it was stopped.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	if p.source != nil {
		p.source.SetGain(float32(volume))
	}
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// PlaybackPosition returns the current output position of the audio driver
// in samples, i.e. what the listener actually hears right now. Returns 0 if
// not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	return int64(a.Position().Seconds() * float64(p.sampleRate))
}
