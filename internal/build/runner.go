package build

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/edwardsmale/userscriptify"
	"github.com/edwardsmale/userscriptify/internal/config"
	"github.com/edwardsmale/userscriptify/internal/style"
)

var ErrNoInput = errors.New("no input file given and the project descriptor has no \"main\" entry")

// fileReader reads from disk
type fileReader struct{}

func (fileReader) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// Runner builds userscripts from files on disk
type Runner struct {
	transformer *userscriptify.Transformer
	projectPath string
	log         zerolog.Logger
	stderr      io.Writer
	verbose     bool
	quiet       bool
}

// RunnerConfig contains the settings shared by every build
type RunnerConfig struct {
	ProjectPath string
	SassBinary  string
	Logger      *zerolog.Logger
	Stderr      io.Writer
	Verbose     bool
	Quiet       bool
}

// NewRunner creates a new build runner
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.ProjectPath == "" {
		cfg.ProjectPath = config.ProjectFile
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &Runner{
		transformer: userscriptify.New(
			userscriptify.WithProjectPath(cfg.ProjectPath),
			userscriptify.WithReader(fileReader{}),
			userscriptify.WithCompiler(style.NewSassCompiler(cfg.SassBinary)),
			userscriptify.WithLogger(log),
		),
		projectPath: cfg.ProjectPath,
		log:         log,
		stderr:      cfg.Stderr,
		verbose:     cfg.Verbose,
		quiet:       cfg.Quiet,
	}
}

// Options contains options for a single build
type Options struct {
	Files     []string // Scripts to transform; defaults to the project's main
	Out       string   // Output file, or directory when building several files
	Overrides userscriptify.Options
}

// Build transforms every input and writes the results, returning the number
// of files written. Inputs are rewritten in place unless Out is set.
func (r *Runner) Build(opts Options) (int, error) {
	r.logf("Reading project descriptor %s", r.projectPath)

	project, err := config.LoadProject(fileReader{}, r.projectPath)
	if err != nil {
		return 0, err
	}
	if _, err := project.SemVer(); err != nil {
		r.log.Warn().Err(err).Msg("project version is not a semantic version")
	}

	files := opts.Files
	if len(files) == 0 {
		if project.Main == "" {
			return 0, ErrNoInput
		}
		files = []string{project.Main}
	}

	var bar *progressbar.ProgressBar
	if len(files) > 1 && !r.quiet && !r.verbose {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(r.stderr),
			progressbar.OptionSetDescription("Building userscripts"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	built := 0
	for _, file := range files {
		dest := outputPath(file, opts.Out, len(files))
		if err := r.buildFile(file, dest, &opts.Overrides); err != nil {
			return built, fmt.Errorf("failed to build %s: %w", file, err)
		}
		built++
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	return built, nil
}

// Inputs lists every file a build with opts reads, so a watcher can
// rebuild when one of them changes.
func (r *Runner) Inputs(opts Options) ([]string, error) {
	project, err := config.LoadProject(fileReader{}, r.projectPath)
	if err != nil {
		return nil, err
	}

	inputs := []string{r.projectPath}
	files := opts.Files
	if len(files) == 0 {
		if project.Main == "" {
			return nil, ErrNoInput
		}
		files = []string{project.Main}
	}
	inputs = append(inputs, files...)

	cfg := config.Resolve(config.Defaults(), project, &opts.Overrides)
	if cfg.Meta.Record == nil && cfg.Meta.Path != "" {
		inputs = append(inputs, cfg.Meta.Path)
	}
	if cfg.StyleRaw == "" && cfg.Style != "" {
		inputs = append(inputs, cfg.Style)
	}
	return inputs, nil
}

func (r *Runner) buildFile(src, dest string, overrides *userscriptify.Options) error {
	content, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("script not found: %w", err)
	}

	r.logf("Transforming %s", src)

	out, err := r.transformer.Transform(string(content), overrides)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(dest, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	r.logf("Wrote %s (%d bytes)", dest, len(out))
	return nil
}

// outputPath picks where the result for src goes
func outputPath(src, out string, count int) string {
	switch {
	case out == "":
		return src
	case count > 1:
		return filepath.Join(out, filepath.Base(src))
	default:
		return out
	}
}

func (r *Runner) logf(format string, args ...interface{}) {
	if r.verbose {
		fmt.Fprintf(r.stderr, "[userscriptify] "+format+"\n", args...)
	}
}
