package site

import (
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/mdsite/internal/docs"
	"git.home.luguber.info/inful/mdsite/internal/foundation"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/nav"
	"git.home.luguber.info/inful/mdsite/internal/pathmap"
	"git.home.luguber.info/inful/mdsite/internal/render"
	serrors "git.home.luguber.info/inful/mdsite/internal/site/errors"
)

// Converter turns discovered documents into standalone HTML pages.
type Converter struct {
	renderer   render.Renderer
	nav        *nav.Builder
	sourceRoot string
	outputRoot string
}

// NewConverter wires a converter for one source/output root pair.
func NewConverter(renderer render.Renderer, navb *nav.Builder, sourceRoot, outputRoot string) *Converter {
	return &Converter{renderer: renderer, nav: navb, sourceRoot: sourceRoot, outputRoot: outputRoot}
}

// Convert renders one document and writes its page at the mirrored output
// path. A present return value carries the written page path; absence means
// the document was logged and skipped, never that the build should stop.
func (c *Converter) Convert(doc docs.Document) foundation.Option[string] {
	src, err := docs.ReadDocument(doc.Path)
	if err != nil {
		slog.Error("Skipping unreadable document", logfields.Path(doc.Path), logfields.Error(err))
		return foundation.None[string]()
	}

	body, err := c.renderer.Render(src)
	if err != nil {
		slog.Error("Skipping document that failed to render", logfields.Path(doc.Path), logfields.Error(err))
		return foundation.None[string]()
	}

	pagePath := pathmap.OutputPath(doc.Path, c.sourceRoot, c.outputRoot)
	if err := os.MkdirAll(filepath.Dir(pagePath), 0o750); err != nil {
		slog.Error("Skipping page with unwritable directory", logfields.Path(pagePath), logfields.Error(err))
		return foundation.None[string]()
	}

	page := renderPage(html.EscapeString(doc.Name), c.nav.Navbar(pagePath), string(body))

	// #nosec G306 -- generated pages are public content
	if err := os.WriteFile(pagePath, []byte(page), 0o644); err != nil {
		wrapped := fmt.Errorf("%w: %w", serrors.ErrPageWrite, err)
		slog.Error("Skipping page that failed to write", logfields.Path(pagePath), logfields.Error(wrapped))
		return foundation.None[string]()
	}
	return foundation.Some(pagePath)
}
