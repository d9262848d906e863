// Package render turns a release note into a document using Go text
// templates with the sprig function library.
package render

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/ariel-frischer/relnotes/internal/commit"
	"github.com/ariel-frischer/relnotes/internal/notes"
)

//go:embed templates/release-notes.md.tmpl
var defaultTemplate string

// ErrTemplateNotFound is returned when a template path does not exist.
var ErrTemplateNotFound = errors.New("template not found")

// DefaultTemplate returns the embedded markdown template used when no
// template path is configured.
func DefaultTemplate() string {
	return defaultTemplate
}

// Options controls which template a Renderer uses.
type Options struct {
	// TemplatePath is a template file on disk. Empty selects the embedded
	// default.
	TemplatePath string
}

// Renderer executes a parsed release note template.
type Renderer struct {
	tmpl *template.Template
}

// FuncMap returns the functions available to templates: sprig's text
// functions plus newline.
func FuncMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["newline"] = Newline
	return funcs
}

// Newline HTML-escapes text and expands escaped "\n" sequences back into
// line breaks. Commit bodies are stored escaped so they survive as a single
// value until a template asks for them.
func Newline(text string) string {
	return commit.UnescapeNewlines(html.EscapeString(text))
}

// New loads the template selected by opts.
func New(opts Options) (*Renderer, error) {
	if opts.TemplatePath == "" {
		return Parse("release-notes", defaultTemplate)
	}

	data, err := os.ReadFile(opts.TemplatePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, opts.TemplatePath)
		}
		return nil, fmt.Errorf("reading template %s: %w", opts.TemplatePath, err)
	}

	return Parse(filepath.Base(opts.TemplatePath), string(data))
}

// Parse builds a Renderer from template text. Referencing a key the note
// does not provide is an execution error.
func Parse(name, text string) (*Renderer, error) {
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(FuncMap()).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Name returns the template name.
func (r *Renderer) Name() string {
	return r.tmpl.Name()
}

// Render executes the template against note.
func (r *Renderer) Render(note notes.ReleaseNote) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, note.TemplateData()); err != nil {
		return "", fmt.Errorf("executing template %s: %w", r.tmpl.Name(), err)
	}
	return buf.String(), nil
}

// RenderTo renders note and writes the result to w. Nothing is written if
// template execution fails.
func (r *Renderer) RenderTo(w io.Writer, note notes.ReleaseNote) error {
	out, err := r.Render(note)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
