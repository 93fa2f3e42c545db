package sampler

import (
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/viterin/vek/vek32"

	"github.com/cbegin/scoredraft-go/internal/buffer"
	"github.com/cbegin/scoredraft-go/internal/log"
	"github.com/cbegin/scoredraft-go/internal/voice"
)

// Extension is the file extension sample files are looked up with.
const Extension = ".wav"

// envelopeSharpness sets how late and how fast the trigger envelope tapers off.
const envelopeSharpness = 10

// Percussion is an unpitched voice that plays back a recorded hit. The
// reference waveform is decoded once by Load and only read afterwards.
type Percussion struct {
	*voice.Silence
	dir    string
	name   string
	wave   *Waveform
	logger *log.Logger
}

// NewPercussion returns an unloaded voice that looks for samples in dir.
func NewPercussion(dir string, logger *log.Logger) *Percussion {
	return &Percussion{
		Silence: voice.NewSilence(),
		dir:     dir,
		logger:  logger,
	}
}

// Path is where Load looks for the named sample.
func (p *Percussion) Path(name string) string {
	return filepath.Join(p.dir, name+Extension)
}

// Load decodes <dir>/<name>.wav as the reference waveform. Any previously
// loaded waveform is discarded first, so a failed load leaves the voice
// unloaded.
func (p *Percussion) Load(name string) error {
	p.wave = nil
	p.name = ""
	path := p.Path(name)
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(ErrFileNotFound, "%s: %v", path, err)
	}
	defer f.Close()
	w, err := Decode(f)
	if err != nil {
		return errors.Wrapf(err, "load %s", path)
	}
	if want := w.DeclaredBytes / 2 / w.Channels; w.Len() < want {
		p.logger.Warnf("%s: data chunk declares %d samples, file holds %d", path, want, w.Len())
	}
	p.wave = w
	p.name = name
	p.logger.Debugf("loaded %s: %d samples, %d channel(s), peak %.4f", name, w.Len(), w.Channels, w.Peak)
	return nil
}

func (p *Percussion) Loaded() bool { return p.wave != nil }

func (p *Percussion) Name() string { return p.name }

// Len is the reference waveform length in samples; 0 when unloaded.
func (p *Percussion) Len() int {
	if p.wave == nil {
		return 0
	}
	return p.wave.Len()
}

// Peak is the reference waveform's peak magnitude; 0 when unloaded.
func (p *Percussion) Peak() float32 {
	if p.wave == nil {
		return 0
	}
	return p.wave.Peak
}

// Synthesize copies the start of the reference waveform, at most estimate
// samples long, peak-normalized, scaled by the voice volume and shaped by
// Envelope. The pitch argument is ignored.
func (p *Percussion) Synthesize(estimate float64, _ float64) *buffer.SampleBuffer {
	out := &buffer.SampleBuffer{}
	if p.wave == nil || estimate <= 0 {
		return out
	}
	n := min(voice.SampleCount(estimate), p.wave.Len())
	out.Allocate(n)
	if p.wave.Peak == 0 {
		clear(out.Samples)
		return out
	}
	for j := range out.Samples {
		out.Samples[j] = float32(Envelope(j, estimate))
	}
	vek32.Mul_Inplace(out.Samples, p.wave.Samples[:n])
	out.Scale(p.Volume() / p.wave.Peak)
	return out
}

// Envelope is the amplitude at sample j of a trigger requested to last
// estimate samples: 1 - exp((j/estimate - 1) * 10). It starts just below 1
// and falls to 0 at j == estimate, so the curve is tied to the requested
// length even when the waveform runs out earlier.
func Envelope(j int, estimate float64) float64 {
	x := float64(j) / estimate
	return 1 - math.Exp((x-1)*envelopeSharpness)
}
