package nav

import (
	"fmt"
	"html"
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/pathmap"
)

// DefaultHomeLabel is the navbar text for the home link.
const DefaultHomeLabel = "Home"

// Builder holds the registered top-level site sections and the home page
// location. Registration happens in one preparatory pass; afterwards the
// builder is only read, shared by every page render.
type Builder struct {
	outputRoot string
	homeLabel  string
	sections   []string
	seen       map[string]struct{}
}

// NewBuilder creates a navigation builder rooted at outputRoot.
func NewBuilder(outputRoot string) *Builder {
	abs, err := filepath.Abs(outputRoot)
	if err != nil {
		abs = outputRoot
	}
	return &Builder{
		outputRoot: abs,
		homeLabel:  DefaultHomeLabel,
		seen:       make(map[string]struct{}),
	}
}

// WithHomeLabel overrides the home link text (fluent helper).
func (b *Builder) WithHomeLabel(label string) *Builder {
	if label != "" {
		b.homeLabel = label
	}
	return b
}

// RegisterSection appends a top-level section. Idempotent: re-registering an
// existing name is a no-op, so registration order is first-seen order.
func (b *Builder) RegisterSection(name string) {
	if _, ok := b.seen[name]; ok {
		return
	}
	b.seen[name] = struct{}{}
	b.sections = append(b.sections, name)
}

// Sections returns the registered section names in registration order.
func (b *Builder) Sections() []string {
	out := make([]string, len(b.sections))
	copy(out, b.sections)
	return out
}

// Navbar renders the navigation fragment for the page at pagePath: the home
// link first, then every section's index page in registration order, all
// relativized from the page's directory. Pure path arithmetic; the linked
// pages do not need to exist yet.
func (b *Builder) Navbar(pagePath string) string {
	dir := filepath.Dir(pagePath)

	home, err := pathmap.RelativeLink(dir, filepath.Join(b.outputRoot, pathmap.IndexPage))
	if err != nil {
		slog.Warn("Navbar home link fell back to index.html", logfields.Dir(dir), logfields.Error(err))
		home = pathmap.IndexPage
	}

	links := make([]string, 0, len(b.sections))
	for _, name := range b.sections {
		target := filepath.Join(b.outputRoot, name, pathmap.IndexPage)
		rel, err := pathmap.RelativeLink(dir, target)
		if err != nil {
			slog.Warn("Skipping navbar section link", logfields.Section(name), logfields.Error(err))
			continue
		}
		links = append(links, fmt.Sprintf("<a href=\"%s\">%s</a>", rel, html.EscapeString(name)))
	}

	return fmt.Sprintf("\n        <div class=\"navbar\">\n            <a href=\"%s\">%s</a> | \n            %s\n        </div>",
		home, html.EscapeString(b.homeLabel), strings.Join(links, " | "))
}
