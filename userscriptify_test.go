package userscriptify

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/edwardsmale/userscriptify/internal/metadata"
)

// stubReader serves files from memory
type stubReader map[string]string

func (s stubReader) ReadFile(name string) ([]byte, error) {
	data, ok := s[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return []byte(data), nil
}

type stubCompiler struct{ css string }

func (s stubCompiler) Compile(string) (string, error) { return s.css, nil }

const body = `(function () {
  GM_addStyle(` + "`__<INSERTCSS>__`" + `);
})();
`

func TestTransform(t *testing.T) {
	files := stubReader{
		"package.json": `{
			"version": "1.2.3",
			"userscriptify": {"style": "src/style.scss", "indent": 4}
		}`,
		"meta.json": `{"name": "Example", "match": ["https://example.com/*"]}`,
	}
	tr := New(WithReader(files), WithCompiler(stubCompiler{css: "a {\n  color: red;\n}\n"}))

	got, err := tr.Transform(body, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `// ==UserScript==
// @name       Example
// @version    1.2.3
// @namespace  http://tampermonkey.net
// @match      https://example.com/*
// @grant      none
// ==/UserScript==

(function () {
  GM_addStyle(` + "`" + `
    a {
      color: red;
    }` + "`" + `);
})();
`
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestTransform_call_options_override_project(t *testing.T) {
	files := stubReader{
		"package.json": `{"version": "1.0.0", "userscriptify": {"meta": "other.json", "styleRaw": "p{}"}}`,
	}
	rec := NewRecord().Set("name", "Inline").Set("version", "5.0.0")

	got, err := New(WithReader(files)).Transform("x __<INSERTCSS>__", &Options{
		Meta:     Meta{Record: rec},
		StyleRaw: "q{}",
		Indent:   1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasSuffix(got, "x \n q{}") {
		t.Errorf("style not injected from call options:\n%s", got)
	}
	if !strings.Contains(got, "@version    5.0.0") || strings.Contains(got, "1.0.0") {
		t.Errorf("explicit version should win:\n%s", got)
	}
}

func TestTransform_injects_before_prefixing_header(t *testing.T) {
	files := stubReader{
		"package.json": `{"version": "1.0.0"}`,
	}
	// The description itself contains the placeholder; only the body's copy
	// may be replaced.
	rec := NewRecord().Set("name", "x").Set("description", "uses __<INSERTCSS>__")

	got, err := New(WithReader(files)).Transform("css: __<INSERTCSS>__", &Options{
		Meta:     Meta{Record: rec},
		StyleRaw: "a{}",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(got, "@description  uses __<INSERTCSS>__") {
		t.Errorf("header placeholder was replaced:\n%s", got)
	}
	if !strings.HasSuffix(got, "css: \n  a{}") {
		t.Errorf("body placeholder was not replaced:\n%s", got)
	}
}

func TestTransform_missing_placeholder_still_renders_header(t *testing.T) {
	files := stubReader{
		"package.json": `{"version": "1.0.0", "userscriptify": {"styleRaw": "a{}"}}`,
		"meta.json":    `{"name": "x"}`,
	}
	var buf bytes.Buffer

	got, err := New(WithReader(files), WithLogger(zerolog.New(&buf))).Transform("plain body", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(got, metadata.OpenMarker) || !strings.HasSuffix(got, "\n\nplain body") {
		t.Errorf("unexpected output:\n%s", got)
	}
	if n := strings.Count(buf.String(), `"level":"warn"`); n != 1 {
		t.Errorf("got %d warnings, want 1", n)
	}
}

func TestTransform_errors(t *testing.T) {
	tests := []struct {
		name  string
		files stubReader
		want  error
	}{
		{
			name:  "missing project descriptor",
			files: stubReader{"meta.json": `{"name": "x"}`},
			want:  fs.ErrNotExist,
		},
		{
			name:  "missing metadata file",
			files: stubReader{"package.json": `{"version": "1.0.0"}`},
			want:  fs.ErrNotExist,
		},
		{
			name: "metadata without name",
			files: stubReader{
				"package.json": `{"version": "1.0.0"}`,
				"meta.json":    `{"description": "nameless"}`,
			},
			want: metadata.ErrMissingName,
		},
		{
			name: "missing style file",
			files: stubReader{
				"package.json": `{"version": "1.0.0", "userscriptify": {"style": "gone.css"}}`,
				"meta.json":    `{"name": "x"}`,
			},
			want: fs.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(WithReader(tt.files)).Transform("__<INSERTCSS>__", nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			if got != "" {
				t.Errorf("expected no output on failure, got %q", got)
			}
		})
	}
}

func TestTransformAsync_matches_Transform(t *testing.T) {
	files := stubReader{
		"package.json": `{"version": "0.9.0", "userscriptify": {"styleRaw": "a{}\nb{}"}}`,
		"meta.json":    `{"name": "async", "grant": ["GM_addStyle", "GM_getValue"]}`,
	}
	tr := New(WithReader(files))

	sync, syncErr := tr.Transform(body, nil)
	res := <-tr.TransformAsync(context.Background(), body, nil)

	if syncErr != nil || res.Err != nil {
		t.Fatalf("unexpected errors: %v, %v", syncErr, res.Err)
	}
	if sync != res.Output {
		t.Errorf("async output differs:\n%s\n---\n%s", sync, res.Output)
	}
}

func TestTransformAsync_reports_errors(t *testing.T) {
	tr := New(WithReader(stubReader{}))

	res := <-tr.TransformAsync(context.Background(), body, nil)
	if !errors.Is(res.Err, fs.ErrNotExist) {
		t.Errorf("got %v, want fs.ErrNotExist", res.Err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res = <-tr.TransformAsync(ctx, body, nil)
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", res.Err)
	}
}

func TestWithProjectPath(t *testing.T) {
	files := stubReader{
		"userscriptify.toml": "version = \"4.0.0\"\n\n[userscriptify.meta]\nname = \"toml\"\n",
	}

	got, err := New(WithReader(files), WithProjectPath("userscriptify.toml")).Transform("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "@version    4.0.0") {
		t.Errorf("version from TOML descriptor missing:\n%s", got)
	}
}
