// Package userscriptify turns a script into a userscript by prefixing a
// ==UserScript== metadata header and splicing style text into a
// placeholder in the body.
//
// Configuration comes from three layers: built-in defaults, the
// "userscriptify" object of the project descriptor (package.json by default)
// and the Options passed to Transform. A higher layer only overrides a
// setting when its value is non-zero.
package userscriptify

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/edwardsmale/userscriptify/internal/config"
	"github.com/edwardsmale/userscriptify/internal/metadata"
	"github.com/edwardsmale/userscriptify/internal/style"
)

type (
	// Options are the per-call overrides
	Options = config.Options
	// Meta points at the header directives: a file or an in-memory record
	Meta = config.Meta
	// Record is an ordered set of header directives
	Record = metadata.Record
	// Compiler turns a SASS/SCSS file into CSS
	Compiler = style.Compiler
)

// Reader reads a named file
type Reader interface {
	ReadFile(name string) ([]byte, error)
}

type osReader struct{}

func (osReader) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// NewRecord creates an empty directive record
func NewRecord() *Record {
	return metadata.NewRecord()
}

// Transformer runs the userscript pipeline
type Transformer struct {
	projectPath string
	reader      Reader
	compiler    Compiler
	log         zerolog.Logger
}

// Option configures a Transformer
type Option func(*Transformer)

// WithProjectPath sets the project descriptor to read options and version from
func WithProjectPath(path string) Option {
	return func(t *Transformer) { t.projectPath = path }
}

// WithReader sets how files are read
func WithReader(r Reader) Option {
	return func(t *Transformer) { t.reader = r }
}

// WithCompiler sets the SASS/SCSS compiler
func WithCompiler(c Compiler) Option {
	return func(t *Transformer) { t.compiler = c }
}

// WithLogger sets the sink for progress and warning messages
func WithLogger(l zerolog.Logger) Option {
	return func(t *Transformer) { t.log = l }
}

// New creates a Transformer. By default it reads package.json and other
// files from disk, compiles SASS/SCSS with the sass CLI and logs nothing.
func New(opts ...Option) *Transformer {
	t := &Transformer{
		projectPath: config.ProjectFile,
		reader:      osReader{},
		compiler:    style.NewSassCompiler(""),
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform returns body with style injected and the metadata header
// prepended. Any read, parse or compile failure aborts the whole call.
func (t *Transformer) Transform(body string, opts *Options) (string, error) {
	project, err := config.LoadProject(t.reader, t.projectPath)
	if err != nil {
		return "", err
	}
	cfg := config.Resolve(config.Defaults(), project, opts)

	// Inject before the header exists so the placeholder can't match inside it
	out, err := style.NewInjector(t.reader, t.compiler, t.log).Inject(body, style.Options{
		Placeholder: cfg.Replace,
		Indent:      cfg.Indent,
		Source:      cfg.Style,
		Raw:         cfg.StyleRaw,
	})
	if err != nil {
		return "", err
	}

	rec, err := t.record(cfg.Meta)
	if err != nil {
		return "", err
	}
	return metadata.Render(out, rec, cfg.Version)
}

func (t *Transformer) record(meta config.Meta) (*metadata.Record, error) {
	if meta.Record != nil {
		return meta.Record, nil
	}
	t.log.Debug().Str("meta", meta.Path).Msg("loading metadata")
	return metadata.Load(t.reader, meta.Path)
}

// Result is the outcome of an asynchronous transformation
type Result struct {
	Output string
	Err    error
}

// TransformAsync runs Transform in a goroutine and delivers a single Result.
// ctx is only checked before the work starts.
func (t *Transformer) TransformAsync(ctx context.Context, body string, opts *Options) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		if err := ctx.Err(); err != nil {
			ch <- Result{Err: err}
			return
		}
		out, err := t.Transform(body, opts)
		ch <- Result{Output: out, Err: err}
	}()
	return ch
}

// Transform runs the pipeline with the default Transformer
func Transform(body string, opts *Options) (string, error) {
	return New().Transform(body, opts)
}
