package metadata

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
)

var ErrUnterminatedHeader = errors.New("userscript header is missing its closing marker")

// Parse extracts the directives from a script's ==UserScript== block.
// Repeated directives are collected into a list. A script without a header
// yields an empty record.
func Parse(content []byte) (*Record, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	rec := NewRecord()
	inBlock := false

	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())

		// Look for the opening marker
		if !inBlock {
			if trimmed == OpenMarker {
				inBlock = true
			}
			continue
		}

		if trimmed == CloseMarker {
			return rec, nil
		}

		// Inside the block every line must be a comment
		if !strings.HasPrefix(trimmed, "//") {
			break
		}
		line := strings.TrimSpace(strings.TrimPrefix(trimmed, "//"))
		if !strings.HasPrefix(line, "@") {
			continue
		}

		key, value, _ := strings.Cut(line, " ")
		rec.Append(key, strings.TrimSpace(value))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if inBlock {
		return nil, ErrUnterminatedHeader
	}
	return rec, nil
}
