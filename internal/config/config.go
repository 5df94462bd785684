package config

import (
	"github.com/edwardsmale/userscriptify/internal/metadata"
)

const (
	DefaultMeta        = "meta.json"
	DefaultPlaceholder = "__<INSERTCSS>__"
	DefaultIndent      = 2
	DefaultVersion     = "1.0.0"
)

// Meta is where the header directives come from: a file path or an
// in-memory record. The record wins when both are set.
type Meta struct {
	Path   string
	Record *metadata.Record
}

// Options are the user-settable fields. A zero field means "not set".
type Options struct {
	Meta     Meta
	Replace  string
	Indent   int
	Style    string
	StyleRaw string
}

// Config is the effective configuration for one transformation
type Config struct {
	Options
	Version string
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		Options: Options{
			Meta:    Meta{Path: DefaultMeta},
			Replace: DefaultPlaceholder,
			Indent:  DefaultIndent,
		},
		Version: DefaultVersion,
	}
}

// IsPresent reports whether v may override a lower-precedence value. Zero
// values ("", 0, false, an empty Meta) never do, so an explicit zero cannot
// clear a setting.
func IsPresent[T comparable](v T) bool {
	var zero T
	return v != zero
}

// Resolve merges defaults, the project descriptor and call-site options, in
// increasing order of precedence. The version is only ever taken from the
// project itself.
func Resolve(defaults Config, project *Project, call *Options) Config {
	cfg := defaults
	if project != nil {
		if project.Options != nil {
			cfg.Options = apply(cfg.Options, *project.Options)
		}
		if IsPresent(project.Version) {
			cfg.Version = project.Version
		}
	}
	if call != nil {
		cfg.Options = apply(cfg.Options, *call)
	}
	return cfg
}

func apply(base, over Options) Options {
	out := base
	if IsPresent(over.Meta) {
		out.Meta = over.Meta
	}
	if IsPresent(over.Replace) {
		out.Replace = over.Replace
	}
	if IsPresent(over.Indent) {
		out.Indent = over.Indent
	}
	if IsPresent(over.Style) {
		out.Style = over.Style
	}
	if IsPresent(over.StyleRaw) {
		out.StyleRaw = over.StyleRaw
	}
	return out
}
