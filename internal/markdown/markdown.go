// Package markdown converts Markdown snippets embedded in page templates to HTML.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Options controls the Markdown dialect.
type Options struct {
	// GFM enables tables, strikethrough, autolinks and task lists.
	GFM bool
	// Unsafe lets raw HTML in the source through to the output.
	Unsafe bool
}

// Converter renders Markdown with a fixed set of options. It is safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// New creates a converter.
func New(opts Options) *Converter {
	var gopts []goldmark.Option
	if opts.GFM {
		gopts = append(gopts, goldmark.WithExtensions(extension.GFM))
	}
	if opts.Unsafe {
		gopts = append(gopts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	return &Converter{md: goldmark.New(gopts...)}
}

// Default is the converter behind the markdown template function: GFM with raw HTML.
var Default = New(Options{GFM: true, Unsafe: true})

// ToHTML converts src to an HTML fragment.
func (c *Converter) ToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
