package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
)

// Output formats for replies.
const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatHTML     = "html"
)

// renderer turns reply text into the selected output format. Rendering
// failures fall back to the raw text.
type renderer struct {
	format string
	md     *glamour.TermRenderer
}

func newRenderer(format string, width int) (*renderer, error) {
	r := &renderer{format: format}
	switch format {
	case formatText, formatHTML:
	case formatMarkdown:
		if width <= 0 {
			width = 100
		}
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return nil, fmt.Errorf("markdown renderer: %w", err)
		}
		r.md = md
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, markdown or html)", format)
	}
	return r, nil
}

func (r *renderer) Render(text string) string {
	switch r.format {
	case formatMarkdown:
		out, err := r.md.Render(text)
		if err != nil {
			return text
		}
		return strings.TrimRight(out, "\n")
	case formatHTML:
		out, err := mdToHTML(text)
		if err != nil {
			return text
		}
		return out
	default:
		return text
	}
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
