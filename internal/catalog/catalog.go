package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/cbegin/scoredraft-go/internal/log"
	"github.com/cbegin/scoredraft-go/internal/sampler"
)

// Catalog lists the sampled percussion voices available in a directory and
// constructs them on demand.
type Catalog struct {
	dir    string
	names  []string
	logger *log.Logger
}

// Scan lists every <name>.wav file in dir. Subdirectories are skipped.
func Scan(dir string, logger *log.Logger) (*Catalog, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+sampler.Extension))
	if err != nil {
		return nil, errors.Wrap(err, "listing files with wildcard pattern")
	}
	c := &Catalog{dir: dir, logger: logger}
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), sampler.Extension)
		c.names = append(c.names, name)
		logger.Debugf("found voice %q in %s", name, dir)
	}
	sort.Strings(c.names)
	return c, nil
}

func (c *Catalog) Dir() string { return c.dir }

// Names returns a copy of the voice names, sorted.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c *Catalog) Len() int { return len(c.names) }

// Lookup returns the index of name.
func (c *Catalog) Lookup(name string) (int, bool) {
	i := sort.SearchStrings(c.names, name)
	if i < len(c.names) && c.names[i] == name {
		return i, true
	}
	return 0, false
}

// New constructs the voice at index and loads its waveform. The load error,
// if any, is returned as-is.
func (c *Catalog) New(index int) (*sampler.Percussion, error) {
	if index < 0 || index >= len(c.names) {
		return nil, errors.Errorf("voice index (%d) must be >= 0 and < %d", index, len(c.names))
	}
	p := sampler.NewPercussion(c.dir, c.logger)
	if err := p.Load(c.names[index]); err != nil {
		return nil, err
	}
	return p, nil
}

// NewByName is New for a voice name.
func (c *Catalog) NewByName(name string) (*sampler.Percussion, error) {
	i, ok := c.Lookup(name)
	if !ok {
		return nil, errors.Wrapf(sampler.ErrFileNotFound, "voice %q not in %s", name, c.dir)
	}
	return c.New(i)
}
