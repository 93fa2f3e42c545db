package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cbegin/scoredraft-go"
	intcatalog "github.com/cbegin/scoredraft-go/internal/catalog"
	intlog "github.com/cbegin/scoredraft-go/internal/log"
)

const (
	defaultMML = "t120 o5 l8 cdefgab>c"
	barWidth   = 30
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	todoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

type tuningFlags []string

func (t *tuningFlags) String() string { return strings.Join(*t, "; ") }
func (t *tuningFlags) Set(v string) error {
	*t = append(*t, v)
	return nil
}

func main() {
	var (
		projectPath = flag.String("project", "", "YAML project file")
		samplesDir  = flag.String("samples", "samples", "directory of 44.1kHz 16-bit WAV percussion samples")
		list        = flag.Bool("list", false, "list the voices in -samples and exit")
		voiceName   = flag.String("voice", scoredraft.VoiceTone, "voice: tone|chip|fm|silence|<sample name>")
		mmlInline   = flag.String("mml", "", "inline MML string")
		mmlPath     = flag.String("file", "", "path to an MML file")
		midiPath    = flag.String("midi", "", "path to a Standard MIDI File")
		tempo       = flag.Int("tempo", scoredraft.DefaultTempo, "tempo in beats per minute")
		ref         = flag.Float64("ref", scoredraft.DefaultReferenceFrequency, "reference frequency in Hz for pitch 1.0")
		volume      = flag.Float64("volume", 1.0, "voice volume")
		outPath     = flag.String("out", "", "write the render to this WAV file")
		play        = flag.Bool("play", false, "play the render")
		logLevel    = flag.String("log-level", "info", "debug|info|warn|error|none")
		tuning      tuningFlags
	)
	flag.Var(&tuning, "tune", "tuning command such as \"volume 0.5\" (repeatable)")
	flag.Parse()

	logger := intlog.New(os.Stderr, intlog.LevelFromString(*logLevel))

	if *list {
		if err := listVoices(*samplesDir, logger); err != nil {
			log.Fatal(err)
		}
		return
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var proj *scoredraft.Project
	var err error
	if *projectPath != "" {
		proj, err = scoredraft.LoadProject(*projectPath)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		proj, err = scoredraft.ParseProject(nil)
		if err != nil {
			log.Fatal(err)
		}
		proj.SamplesDir = *samplesDir
	}

	// Paths given on the command line are relative to the working directory,
	// not the project file.
	if set["samples"] {
		proj.SamplesDir = absPath(*samplesDir)
	}
	if set["voice"] {
		proj.Voice = *voiceName
	}
	if set["tempo"] {
		proj.Tempo = *tempo
	}
	if set["ref"] {
		proj.ReferenceFrequency = *ref
	}
	if set["volume"] {
		proj.Tuning = append(proj.Tuning, "volume "+strconv.FormatFloat(*volume, 'g', -1, 64))
	}
	proj.Tuning = append(proj.Tuning, tuning...)
	if set["out"] {
		proj.Output = absPath(*outPath)
	}
	if err := resolveInput(proj, *mmlInline, *mmlPath, *midiPath); err != nil {
		log.Fatal(err)
	}

	fmt.Fprintln(os.Stderr, titleStyle.Render("scoredraft")+" "+dimStyle.Render(proj.Voice))
	samples, err := proj.Render(logger, printProgress)
	if err != nil {
		log.Fatal(err)
	}

	if out := proj.OutputPath(); out != "" {
		if err := writeWAV(out, samples, proj.SampleRate); err != nil {
			log.Fatal(err)
		}
		logger.Infof("wrote %s", out)
	}
	if *play || proj.Output == "" {
		pl, err := scoredraft.NewPlayer(proj.SampleRate, scoredraft.WithLogger(logger))
		if err != nil {
			log.Fatal(err)
		}
		if err := pl.Play(samples); err != nil {
			log.Fatal(err)
		}
		pl.Wait()
		fmt.Fprintln(os.Stderr, "playback completed")
	}
}

// resolveInput applies the score flags. Inline MML wins over a file, which
// wins over MIDI. With no score anywhere a short scale is played.
func resolveInput(p *scoredraft.Project, inline, path, midiPath string) error {
	switch {
	case strings.TrimSpace(inline) != "":
		p.Score, p.MIDI = inline, ""
	case strings.TrimSpace(path) != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		p.Score, p.MIDI = string(data), ""
	case strings.TrimSpace(midiPath) != "":
		p.Score, p.MIDI = "", absPath(midiPath)
	case p.Score == "" && p.MIDI == "":
		p.Score = defaultMML
	}
	return nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func listVoices(dir string, logger *intlog.Logger) error {
	cat, err := intcatalog.Scan(dir, logger)
	if err != nil {
		return err
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("%d voices in %s", cat.Len(), dir)))
	fmt.Println(dimStyle.Render("  " + scoredraft.VoiceTone + " (built in)"))
	fmt.Println(dimStyle.Render("  " + scoredraft.VoiceChip + " (built in)"))
	fmt.Println(dimStyle.Render("  " + scoredraft.VoiceFM + " (built in)"))
	fmt.Println(dimStyle.Render("  " + scoredraft.VoiceSilence + " (built in)"))
	for _, name := range cat.Names() {
		fmt.Println("  " + name)
	}
	return nil
}

func printProgress(done, total int) {
	filled := done * barWidth / total
	bar := doneStyle.Render(strings.Repeat("█", filled)) + todoStyle.Render(strings.Repeat("░", barWidth-filled))
	fmt.Fprintf(os.Stderr, "\r%s %3d%%", bar, done*100/total)
	if done == total {
		fmt.Fprintln(os.Stderr)
	}
}

func writeWAV(path string, samples []float32, rate int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := scoredraft.EncodeWAV16(f, samples, rate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
