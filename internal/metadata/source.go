package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Reader reads a named file
type Reader interface {
	ReadFile(name string) ([]byte, error)
}

// Load reads and parses the metadata file at path. The format is chosen
// by extension: .toml, .yaml/.yml, anything else is JSON.
func Load(r Reader, path string) (*Record, error) {
	path = strings.TrimSpace(path)
	data, err := r.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata %s: %w", path, err)
	}

	var rec *Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		rec, err = DecodeTOML(data)
	case ".yaml", ".yml":
		rec, err = DecodeYAML(data)
	default:
		rec, err = DecodeJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse metadata %s: %w", path, err)
	}
	return rec, nil
}

// DecodeJSON parses a JSON object, keeping key order.
func DecodeJSON(data []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("metadata must be a JSON object")
	}

	rec := NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("invalid value for %q: %w", key, err)
		}
		rec.Set(key, value)
	}

	// Closing brace
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after metadata object")
	}
	return rec, nil
}

// DecodeYAML parses a YAML mapping, keeping key order.
func DecodeYAML(data []byte) (*Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("metadata document is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("metadata must be a YAML mapping")
	}

	rec := NewRecord()
	for i := 0; i+1 < len(root.Content); i += 2 {
		var value any
		if err := root.Content[i+1].Decode(&value); err != nil {
			return nil, fmt.Errorf("invalid value for %q: %w", root.Content[i].Value, err)
		}
		rec.Set(root.Content[i].Value, value)
	}
	return rec, nil
}

// DecodeTOML parses a TOML document, keeping key order.
func DecodeTOML(data []byte) (*Record, error) {
	var tree map[string]any
	md, err := toml.Decode(string(data), &tree)
	if err != nil {
		return nil, err
	}
	return FromTOML(md, tree), nil
}

// FromTOML builds a record from the table found at prefix in a decoded TOML
// document. md supplies the key order that the map has lost.
func FromTOML(md toml.MetaData, table map[string]any, prefix ...string) *Record {
	rec := NewRecord()
	for _, key := range md.Keys() {
		if len(key) != len(prefix)+1 || !slices.Equal([]string(key[:len(prefix)]), prefix) {
			continue
		}
		name := key[len(prefix)]
		if v, ok := table[name]; ok {
			rec.Set(name, v)
		}
	}
	return rec
}
