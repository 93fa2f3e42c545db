package scoredraft

import (
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	intlog "github.com/cbegin/scoredraft-go/internal/log"
	intmml "github.com/cbegin/scoredraft-go/internal/mml"
	intseq "github.com/cbegin/scoredraft-go/internal/sequencer"
	inttrack "github.com/cbegin/scoredraft-go/internal/track"
	intvoice "github.com/cbegin/scoredraft-go/internal/voice"
)

const (
	DefaultSampleRate         = 44100
	DefaultTempo              = 120
	DefaultReferenceFrequency = 261.6256 // middle C
)

// RenderConfig controls an offline render.
type RenderConfig struct {
	SampleRate         int
	Tempo              int
	ReferenceFrequency float64
	// NormalizePeak, when positive, scales the finished track so its
	// largest sample has this magnitude.
	NormalizePeak float32
	// OnProgress is called at each 10% of the event list.
	OnProgress func(done, total int)
	Logger     *intlog.Logger
}

func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		SampleRate:         DefaultSampleRate,
		Tempo:              DefaultTempo,
		ReferenceFrequency: DefaultReferenceFrequency,
	}
}

func (c RenderConfig) validate() error {
	if c.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}
	if c.ReferenceFrequency <= 0 || math.IsNaN(c.ReferenceFrequency) {
		return errors.New("reference frequency must be positive")
	}
	return nil
}

// RenderEvents plays events through v onto a fresh track and returns the
// mono result.
func RenderEvents(v intvoice.Voice, events []intseq.Event, cfg RenderConfig) ([]float32, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	tr := inttrack.New(cfg.SampleRate)
	seq := intseq.NewWithOptions(v, intseq.Options{OnProgress: cfg.OnProgress, Logger: cfg.Logger})
	if err := seq.PlaySequence(tr, events, cfg.Tempo, cfg.ReferenceFrequency); err != nil {
		return nil, errors.Wrap(err, "render")
	}
	tr.PadToCursor()
	if cfg.NormalizePeak > 0 {
		tr.Normalize(cfg.NormalizePeak)
	}
	cfg.Logger.Infof("rendered %d events, %.2fs", len(events), tr.Seconds())
	return tr.Samples(), nil
}

// Compile parses MML with cfg.Tempo as the default tempo.
func Compile(mmlText string, tempo int) (*intmml.Score, error) {
	pc := intmml.DefaultParserConfig()
	if tempo > 0 {
		pc.DefaultTempo = tempo
	}
	return intmml.NewParser(pc).Parse(mmlText)
}

// RenderMML parses mmlText and renders it. A t command in the text
// overrides cfg.Tempo.
func RenderMML(v intvoice.Voice, mmlText string, cfg RenderConfig) ([]float32, error) {
	score, err := Compile(mmlText, cfg.Tempo)
	if err != nil {
		return nil, errors.Wrap(err, "parse mml")
	}
	cfg.Tempo = score.Tempo
	return RenderEvents(v, score.Events, cfg)
}

// EncodeWAV16 writes samples as mono 16-bit PCM. Values outside [-1, 1]
// are clipped and NaN is written as silence.
func EncodeWAV16(w io.WriteSeeker, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}
	data := make([]int, len(samples))
	for i, s := range samples {
		switch {
		case s != s:
			s = 0
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		data[i] = int(math.Round(float64(s) * math.MaxInt16))
	}
	enc := wav.NewEncoder(w, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return errors.Wrap(err, "encode wav")
	}
	return errors.Wrap(enc.Close(), "finish wav")
}
