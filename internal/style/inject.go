package style

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var ErrNoCompiler = errors.New("no style compiler configured")

// Reader reads a named file
type Reader interface {
	ReadFile(name string) ([]byte, error)
}

// Compiler turns a SASS/SCSS file into CSS
type Compiler interface {
	Compile(path string) (string, error)
}

// Options describes what to inject and where
type Options struct {
	Placeholder string
	Indent      int
	Source      string // path to a .css, .sass or .scss file
	Raw         string // literal CSS, takes precedence over Source
}

// Injector splices style text into a script body
type Injector struct {
	reader   Reader
	compiler Compiler
	log      zerolog.Logger
}

// NewInjector creates a new injector
func NewInjector(r Reader, c Compiler, log zerolog.Logger) *Injector {
	return &Injector{reader: r, compiler: c, log: log}
}

// Inject replaces the first occurrence of the placeholder in body with the
// configured style, one indented line per non-empty CSS line. The body is
// returned unchanged when no style is configured or the placeholder is absent.
func (in *Injector) Inject(body string, opts Options) (string, error) {
	if opts.Source == "" && opts.Raw == "" {
		return body, nil
	}

	if !strings.Contains(body, opts.Placeholder) {
		in.log.Warn().
			Str("placeholder", opts.Placeholder).
			Msg("style information is provided, but the placeholder was not found")
		return body, nil
	}

	css, err := in.load(opts)
	if err != nil {
		return "", err
	}

	return strings.Replace(body, opts.Placeholder, Indent(css, opts.Indent), 1), nil
}

// load resolves the style text
func (in *Injector) load(opts Options) (string, error) {
	if opts.Raw != "" {
		return opts.Raw, nil
	}

	if IsSass(opts.Source) {
		if in.compiler == nil {
			return "", ErrNoCompiler
		}
		in.log.Info().Str("style", opts.Source).Msg("compiling SASS/SCSS")
		css, err := in.compiler.Compile(opts.Source)
		if err != nil {
			return "", err
		}
		in.log.Debug().Str("style", opts.Source).Int("bytes", len(css)).Msg("compiled")
		return css, nil
	}

	data, err := in.reader.ReadFile(opts.Source)
	if err != nil {
		return "", fmt.Errorf("failed to read style %s: %w", opts.Source, err)
	}
	return string(data), nil
}

// IsSass reports whether path names a SASS or SCSS file
func IsSass(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".sass") || strings.HasSuffix(lower, ".scss")
}

// Indent drops empty lines from css and prefixes the rest with width spaces.
// Every line, including the first, starts on a new line.
func Indent(css string, width int) string {
	pad := strings.Repeat(" ", max(width, 0))

	var sb strings.Builder
	for _, line := range strings.Split(css, "\n") {
		if line == "" {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(pad)
		sb.WriteString(line)
	}
	return sb.String()
}
