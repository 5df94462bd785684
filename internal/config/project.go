package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/edwardsmale/userscriptify/internal/metadata"
)

const (
	// ProjectFile is the default project descriptor
	ProjectFile = "package.json"
	// OptionsKey holds the tool's options inside the project descriptor
	OptionsKey = "userscriptify"
)

var ErrInvalidMeta = errors.New("meta must be a file path or an object")

// Project is the parsed project descriptor
type Project struct {
	Version string
	Main    string
	Options *Options
}

// SemVer parses the declared version
func (p *Project) SemVer() (*semver.Version, error) {
	v, err := semver.NewVersion(p.Version)
	if err != nil {
		return nil, fmt.Errorf("invalid project version '%s': %w", p.Version, err)
	}
	return v, nil
}

// LoadProject reads a project descriptor. Files ending in .toml are TOML,
// everything else is treated as package.json.
func LoadProject(r metadata.Reader, path string) (*Project, error) {
	data, err := r.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project descriptor %s: %w", path, err)
	}

	var p *Project
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		p, err = parseProjectTOML(data)
	} else {
		p, err = parseProjectJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse project descriptor %s: %w", path, err)
	}
	return p, nil
}

type jsonProject struct {
	Version string       `json:"version"`
	Main    string       `json:"main"`
	Options *jsonOptions `json:"userscriptify"`
}

type jsonOptions struct {
	Meta     json.RawMessage `json:"meta"`
	Replace  string          `json:"replace"`
	Indent   int             `json:"indent"`
	Style    string          `json:"style"`
	StyleRaw string          `json:"styleRaw"`
}

func parseProjectJSON(data []byte) (*Project, error) {
	var raw jsonProject
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	p := &Project{Version: raw.Version, Main: raw.Main}
	if raw.Options == nil {
		return p, nil
	}

	meta, err := jsonMeta(raw.Options.Meta)
	if err != nil {
		return nil, err
	}
	p.Options = &Options{
		Meta:     meta,
		Replace:  raw.Options.Replace,
		Indent:   raw.Options.Indent,
		Style:    raw.Options.Style,
		StyleRaw: raw.Options.StyleRaw,
	}
	return p, nil
}

func jsonMeta(raw json.RawMessage) (Meta, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Meta{}, nil
	}

	switch raw[0] {
	case '"':
		var path string
		if err := json.Unmarshal(raw, &path); err != nil {
			return Meta{}, err
		}
		return Meta{Path: path}, nil
	case '{':
		rec, err := metadata.DecodeJSON(raw)
		if err != nil {
			return Meta{}, fmt.Errorf("invalid meta object: %w", err)
		}
		return Meta{Record: rec}, nil
	default:
		return Meta{}, ErrInvalidMeta
	}
}

func parseProjectTOML(data []byte) (*Project, error) {
	var tree map[string]any
	md, err := toml.Decode(string(data), &tree)
	if err != nil {
		return nil, err
	}

	p := &Project{}
	if p.Version, err = tomlString(tree, "version"); err != nil {
		return nil, err
	}
	if p.Main, err = tomlString(tree, "main"); err != nil {
		return nil, err
	}

	raw, ok := tree[OptionsKey]
	if !ok {
		return p, nil
	}
	table, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a table", OptionsKey)
	}

	opts := &Options{}
	switch m := table["meta"].(type) {
	case nil:
	case string:
		opts.Meta = Meta{Path: m}
	case map[string]any:
		opts.Meta = Meta{Record: metadata.FromTOML(md, m, OptionsKey, "meta")}
	default:
		return nil, ErrInvalidMeta
	}
	if opts.Replace, err = tomlString(table, "replace"); err != nil {
		return nil, err
	}
	if opts.Style, err = tomlString(table, "style"); err != nil {
		return nil, err
	}
	if opts.StyleRaw, err = tomlString(table, "styleRaw"); err != nil {
		return nil, err
	}
	switch n := table["indent"].(type) {
	case nil:
	case int64:
		opts.Indent = int(n)
	default:
		return nil, fmt.Errorf("indent must be an integer, got %T", n)
	}

	p.Options = opts
	return p, nil
}

func tomlString(table map[string]any, key string) (string, error) {
	switch v := table[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
}
