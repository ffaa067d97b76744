package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer abstracts how markup source becomes an embeddable HTML fragment.
// The output is trusted as-is: callers never re-escape or sanitize it. This
// allows swapping the markdown engine with alternative strategies (no-op for
// tests, remote render service) without changing pipeline orchestration.
type Renderer interface {
	Render(src []byte) ([]byte, error)
}

// GoldmarkRenderer renders markdown via goldmark with GFM extensions,
// automatic heading IDs and raw HTML passthrough.
type GoldmarkRenderer struct {
	md goldmark.Markdown
}

// NewGoldmarkRenderer constructs the default markdown renderer.
func NewGoldmarkRenderer() *GoldmarkRenderer {
	return &GoldmarkRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(ghtml.WithUnsafe()),
		),
	}
}

func (r *GoldmarkRenderer) Render(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("markdown convert: %w", err)
	}
	return buf.Bytes(), nil
}

// NoopRenderer echoes the source unchanged; useful in tests where only the
// surrounding page assembly matters.
type NoopRenderer struct{}

func (NoopRenderer) Render(src []byte) ([]byte, error) { return src, nil }
