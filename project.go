package scoredraft

import (
	"bytes"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	intcatalog "github.com/cbegin/scoredraft-go/internal/catalog"
	intchip "github.com/cbegin/scoredraft-go/internal/chiptune"
	intfm "github.com/cbegin/scoredraft-go/internal/fm"
	intlog "github.com/cbegin/scoredraft-go/internal/log"
	intmidi "github.com/cbegin/scoredraft-go/internal/midi"
	intsampler "github.com/cbegin/scoredraft-go/internal/sampler"
	intseq "github.com/cbegin/scoredraft-go/internal/sequencer"
	inttone "github.com/cbegin/scoredraft-go/internal/tone"
	intvoice "github.com/cbegin/scoredraft-go/internal/voice"
)

// Built-in voice names. Any other name is looked up in the samples
// directory.
const (
	VoiceTone    = "tone"
	VoiceChip    = "chip"
	VoiceFM      = "fm"
	VoiceSilence = "silence"
)

// Project describes one render in YAML:
//
//	sample_rate: 44100
//	tempo: 100
//	samples_dir: ./samples
//	voice: snare
//	tuning: ["volume 0.8"]
//	score: "l8 x x r x"
//	output: snare.wav
type Project struct {
	SampleRate         int      `yaml:"sample_rate"`
	Tempo              int      `yaml:"tempo"`
	ReferenceFrequency float64  `yaml:"reference_frequency"`
	SamplesDir         string   `yaml:"samples_dir"`
	Voice              string   `yaml:"voice"`
	Tuning             []string `yaml:"tuning"`
	Score              string   `yaml:"score"`
	MIDI               string   `yaml:"midi"`
	MIDITrack          *int     `yaml:"midi_track"`
	Seed               int64    `yaml:"seed"`
	Normalize          float32  `yaml:"normalize"`
	Output             string   `yaml:"output"`

	// base is the directory relative paths are resolved against.
	base string
}

// LoadProject reads a YAML project. Missing numeric fields take the
// render defaults, and relative paths are resolved against the file's
// directory.
func LoadProject(path string) (*Project, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read project %s", path)
	}
	p, err := ParseProject(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "project %s", path)
	}
	p.base = filepath.Dir(path)
	return p, nil
}

// ParseProject decodes YAML and fills in defaults. Unknown keys are
// rejected.
func ParseProject(raw []byte) (*Project, error) {
	p := &Project{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decode yaml")
	}
	if p.SampleRate == 0 {
		p.SampleRate = DefaultSampleRate
	}
	if p.Tempo == 0 {
		p.Tempo = DefaultTempo
	}
	if p.ReferenceFrequency == 0 {
		p.ReferenceFrequency = DefaultReferenceFrequency
	}
	if p.Voice == "" {
		p.Voice = VoiceTone
	}
	return p, nil
}

func (p *Project) Validate() error {
	switch {
	case p.SampleRate <= 0:
		return errors.Errorf("sample_rate %d must be positive", p.SampleRate)
	case p.Tempo <= 0:
		return errors.Errorf("tempo %d must be positive", p.Tempo)
	case p.ReferenceFrequency <= 0:
		return errors.Errorf("reference_frequency %v must be positive", p.ReferenceFrequency)
	case p.Normalize < 0:
		return errors.Errorf("normalize %v must not be negative", p.Normalize)
	case p.Score != "" && p.MIDI != "":
		return errors.New("score and midi are mutually exclusive")
	case p.Score == "" && p.MIDI == "":
		return errors.New("one of score or midi is required")
	}
	if !isBuiltinVoice(p.Voice) && p.SamplesDir == "" {
		return errors.Errorf("voice %q needs samples_dir", p.Voice)
	}
	if !isBuiltinVoice(p.Voice) && p.SampleRate != intsampler.RequiredSampleRate {
		return errors.Errorf("voice %q plays %d Hz samples; sample_rate %d would stretch them", p.Voice, intsampler.RequiredSampleRate, p.SampleRate)
	}
	return nil
}

func isBuiltinVoice(name string) bool {
	switch name {
	case VoiceTone, VoiceChip, VoiceFM, VoiceSilence:
		return true
	}
	return false
}

func (p *Project) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || p.base == "" {
		return path
	}
	return filepath.Join(p.base, path)
}

// OutputPath is the output file resolved against the project directory.
func (p *Project) OutputPath() string { return p.resolve(p.Output) }

// BuildVoice creates the configured voice and applies its tuning commands.
// Rejected commands are logged and skipped.
func (p *Project) BuildVoice(logger *intlog.Logger) (intvoice.Voice, error) {
	v, err := NewVoice(p.Voice, p.resolve(p.SamplesDir), p.SampleRate, p.Seed, logger)
	if err != nil {
		return nil, err
	}
	ApplyTuning(v, p.Tuning, logger)
	return v, nil
}

// Events returns the phrase and the tempo to play it at. A t command in
// the score, or a tempo event in the MIDI file, wins over the project
// tempo.
func (p *Project) Events(logger *intlog.Logger) ([]intseq.Event, int, error) {
	if p.MIDI != "" {
		cfg := intmidi.DefaultConfig()
		cfg.Logger = logger
		if p.MIDITrack != nil {
			cfg.Track = *p.MIDITrack
		}
		imp, err := intmidi.ReadFile(p.resolve(p.MIDI), cfg)
		if err != nil {
			return nil, 0, err
		}
		return imp.Events, imp.Tempo, nil
	}
	score, err := Compile(p.Score, p.Tempo)
	if err != nil {
		return nil, 0, errors.Wrap(err, "parse score")
	}
	return score.Events, score.Tempo, nil
}

// RenderConfig returns the render settings for this project.
func (p *Project) RenderConfig(logger *intlog.Logger) RenderConfig {
	return RenderConfig{
		SampleRate:         p.SampleRate,
		Tempo:              p.Tempo,
		ReferenceFrequency: p.ReferenceFrequency,
		NormalizePeak:      p.Normalize,
		Logger:             logger,
	}
}

// Render builds the voice and events and renders them.
func (p *Project) Render(logger *intlog.Logger, onProgress func(done, total int)) ([]float32, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	v, err := p.BuildVoice(logger)
	if err != nil {
		return nil, err
	}
	events, tempo, err := p.Events(logger)
	if err != nil {
		return nil, err
	}
	cfg := p.RenderConfig(logger)
	cfg.Tempo = tempo
	cfg.OnProgress = onProgress
	return RenderEvents(v, events, cfg)
}

// NewVoice resolves a voice name: "tone", "chip", "fm", "silence", or a
// sample in samplesDir. seed drives the tone voice's random vibrato.
func NewVoice(name, samplesDir string, sampleRate int, seed int64, logger *intlog.Logger) (intvoice.Voice, error) {
	switch name {
	case VoiceTone:
		return inttone.New(sampleRate, inttone.DefaultParams(), rand.New(rand.NewSource(seed))), nil
	case VoiceChip:
		return intchip.New(sampleRate, intchip.DefaultParams()), nil
	case VoiceFM:
		return intfm.New(sampleRate, intfm.DefaultParams()), nil
	case VoiceSilence:
		return intvoice.NewSilence(), nil
	}
	cat, err := intcatalog.Scan(samplesDir, logger)
	if err != nil {
		return nil, err
	}
	pv, err := cat.NewByName(name)
	if err != nil {
		return nil, err
	}
	return pv, nil
}

// ApplyTuning sends each command to v and returns how many were accepted.
func ApplyTuning(v intvoice.Voice, cmds []string, logger *intlog.Logger) int {
	ok := 0
	for _, cmd := range cmds {
		if v.Tune(cmd) {
			ok++
			continue
		}
		logger.Warnf("tuning %q rejected", cmd)
	}
	return ok
}
