package metadata

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	OpenMarker  = "// ==UserScript=="
	CloseMarker = "// ==/UserScript=="

	// SchemaKey is never rendered; editors use it to validate meta files.
	SchemaKey = "$schema"

	DefaultNamespace = "http://tampermonkey.net"
	DefaultGrant     = "none"

	minKeyWidth = 10
	gutter      = 2

	// Line indexes (open marker is 0) where synthetic directives are spliced.
	versionSlot   = 2
	namespaceSlot = 3
)

var ErrMissingName = errors.New("userscript metadata information must contain a name")

// Render prefixes body with the userscript header built from rec. A
// @version line carrying version is added when rec declares none, as are a
// default @namespace and @grant.
func Render(body string, rec *Record, version string) (string, error) {
	if rec == nil || !rec.Declares("name") {
		return "", ErrMissingName
	}

	b := newBlock(keyWidth(rec))
	for _, e := range rec.entries {
		if e.Key == SchemaKey || !present(e.Value) {
			continue
		}
		key := directive(e.Key)
		if items, ok := e.Value.([]any); ok {
			for _, item := range items {
				b.add(key, formatValue(item))
			}
			continue
		}
		b.add(key, formatValue(e.Value))
	}

	// Explicit version takes priority over the project one
	if !rec.Declares("version") {
		b.insertAfterFirstDirective("@version", version)
	}
	if !rec.Declares("namespace") {
		b.insertAfterVersion("@namespace", DefaultNamespace)
	}
	if !rec.Declares("grant") {
		b.add("@grant", DefaultGrant)
	}

	return b.String() + body, nil
}

// directive returns key with a leading @
func directive(key string) string {
	if strings.HasPrefix(key, "@") {
		return key
	}
	return "@" + key
}

// keyWidth is the column at which values start, relative to the key.
func keyWidth(rec *Record) int {
	width := minKeyWidth
	for _, e := range rec.entries {
		if e.Key == SchemaKey {
			continue
		}
		width = max(width, utf8.RuneCountInString(directive(e.Key)))
	}
	return width + gutter
}

type block struct {
	width int
	lines []string
}

func newBlock(width int) *block {
	return &block{width: width, lines: []string{OpenMarker}}
}

func (b *block) line(key, value string) string {
	pad := max(b.width-utf8.RuneCountInString(key), 0)
	return "// " + key + strings.Repeat(" ", pad) + value
}

func (b *block) add(key, value string) {
	b.lines = append(b.lines, b.line(key, value))
}

// insertAt splices a line at index i, clamped to the end of the block.
func (b *block) insertAt(i int, key, value string) {
	i = min(i, len(b.lines))
	b.lines = append(b.lines, "")
	copy(b.lines[i+1:], b.lines[i:])
	b.lines[i] = b.line(key, value)
}

func (b *block) insertAfterFirstDirective(key, value string) {
	b.insertAt(versionSlot, key, value)
}

func (b *block) insertAfterVersion(key, value string) {
	b.insertAt(namespaceSlot, key, value)
}

func (b *block) String() string {
	return strings.Join(append(b.lines, CloseMarker), "\n") + "\n\n"
}
