package style

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultSassBinary is the Dart Sass executable looked up on PATH
const DefaultSassBinary = "sass"

var ErrCompile = errors.New("style compilation failed")

// SassCompiler compiles SASS/SCSS by running the Dart Sass CLI
type SassCompiler struct {
	binary string
}

// NewSassCompiler creates a compiler using the given executable, or
// DefaultSassBinary when empty
func NewSassCompiler(binary string) *SassCompiler {
	if binary == "" {
		binary = DefaultSassBinary
	}
	return &SassCompiler{binary: binary}
}

// Compile returns the CSS produced for path
func (c *SassCompiler) Compile(path string) (string, error) {
	cmd := exec.Command(c.binary, "--no-source-map", path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s: %s", ErrCompile, path, msg)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrCompile, path, err)
	}

	return stdout.String(), nil
}
