package site

import (
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/nav"
	"git.home.luguber.info/inful/mdsite/internal/pathmap"
	serrors "git.home.luguber.info/inful/mdsite/internal/site/errors"
	"git.home.luguber.info/inful/mdsite/internal/util/sets"
)

// Titles on the root index, which aggregates every page on the site.
const (
	rootIndexTitle   = "All Articles"
	rootIndexHeading = "Latest Articles"
)

// Indexer writes per-directory and root index pages into a generated output
// tree. Page entries are admitted only when the mirrored source document
// still exists, so orphaned pages never appear in listings.
type Indexer struct {
	sourceRoot string
	outputRoot string
	nav        *nav.Builder
	reserved   sets.Set[string]
}

// NewIndexer wires an indexer for one source/output root pair.
func NewIndexer(navb *nav.Builder, sourceRoot, outputRoot string, reserved []string) *Indexer {
	return &Indexer{sourceRoot: sourceRoot, outputRoot: outputRoot, nav: navb, reserved: sets.New(reserved...)}
}

// SubIndex writes an index page for dir, recursing into child directories
// that do not yet carry one. It reports how many indexes were written and
// how many writes failed; individual failures are logged, not returned.
func (ix *Indexer) SubIndex(dir string) (written, failed int) {
	return ix.subIndex(dir, map[string]bool{})
}

func (ix *Indexer) subIndex(dir string, visited map[string]bool) (written, failed int) {
	// Symlinked directories are indexed once; cycles end here.
	key := dir
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		key = resolved
	}
	if visited[key] {
		return 0, 0
	}
	visited[key] = true

	listing, err := os.ReadDir(dir)
	if err != nil {
		slog.Error("Failed to read directory for indexing", logfields.Dir(dir), logfields.Error(err))
		return 0, 1
	}

	var entries []Entry
	for _, item := range listing {
		name := item.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		itemPath := filepath.Join(dir, name)
		if ix.isDir(item, itemPath) {
			if ix.isReservedChild(dir, name) {
				continue
			}
			childIndex := filepath.Join(itemPath, pathmap.IndexPage)
			if _, err := os.Stat(childIndex); err != nil {
				w, f := ix.subIndex(itemPath, visited)
				written += w
				failed += f
			}
			target, lerr := pathmap.RelativeLink(dir, childIndex)
			if lerr != nil {
				slog.Warn("Omitting directory entry without relative link", logfields.Dir(itemPath), logfields.Error(lerr))
				continue
			}
			entries = append(entries, Entry{Dir: true, Name: name, Target: target})
			continue
		}
		if name == pathmap.IndexPage || filepath.Ext(name) != pathmap.PageExt {
			continue
		}
		info, ok := ix.sourceInfo(itemPath)
		if !ok {
			continue
		}
		target, lerr := pathmap.RelativeLink(dir, itemPath)
		if lerr != nil {
			slog.Warn("Omitting page entry without relative link", logfields.Path(itemPath), logfields.Error(lerr))
			continue
		}
		entries = append(entries, Entry{Name: strings.TrimSuffix(name, pathmap.PageExt), Target: target, ModTime: info.ModTime()})
	}

	sortEntries(entries)

	title, heading := ix.indexTitles(dir)
	if err := ix.writeIndex(filepath.Join(dir, pathmap.IndexPage), title, heading, entries); err != nil {
		slog.Error("Failed to write index", logfields.Dir(dir), logfields.Error(err))
		return written, failed + 1
	}
	return written + 1, failed
}

// AggregateIndex writes the root index listing every page on the site,
// newest first. It runs after the per-directory indexes, so the root listing
// is the authoritative one.
func (ix *Indexer) AggregateIndex() error {
	var entries []Entry
	walkErr := filepath.WalkDir(ix.outputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("Skipping unreadable path during aggregation", logfields.Path(path), logfields.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path == ix.outputRoot {
				return nil
			}
			if strings.HasPrefix(name, ".") || ix.isReservedChild(filepath.Dir(path), name) {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || name == pathmap.IndexPage || filepath.Ext(name) != pathmap.PageExt {
			return nil
		}
		info, ok := ix.sourceInfo(path)
		if !ok {
			return nil
		}
		target, lerr := pathmap.RelativeLink(ix.outputRoot, path)
		if lerr != nil {
			slog.Warn("Omitting page entry without relative link", logfields.Path(path), logfields.Error(lerr))
			return nil
		}
		entries = append(entries, Entry{Name: strings.TrimSuffix(name, pathmap.PageExt), Target: target, ModTime: info.ModTime()})
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("%w: %w", serrors.ErrIndexWrite, walkErr)
	}

	sortEntries(entries)
	return ix.writeIndex(filepath.Join(ix.outputRoot, pathmap.IndexPage), rootIndexTitle, rootIndexHeading, entries)
}

// isDir reports whether item names a directory, following symlinks.
func (ix *Indexer) isDir(item fs.DirEntry, path string) bool {
	if item.IsDir() {
		return true
	}
	if item.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// isReservedChild reports whether name is a reserved subtree directly under
// the output root. Reserved names deeper in the tree are ordinary content.
func (ix *Indexer) isReservedChild(parent, name string) bool {
	return ix.reserved.Has(name) && filepath.Clean(parent) == filepath.Clean(ix.outputRoot)
}

// sourceInfo stats the source document mirrored by pagePath. Pages whose
// document is gone are orphans and stay out of every listing.
func (ix *Indexer) sourceInfo(pagePath string) (fs.FileInfo, bool) {
	info, err := os.Stat(pathmap.SourcePath(pagePath, ix.outputRoot, ix.sourceRoot))
	if err != nil {
		return nil, false
	}
	return info, true
}

func (ix *Indexer) indexTitles(dir string) (title, heading string) {
	if filepath.Clean(dir) == filepath.Clean(ix.outputRoot) {
		return rootIndexTitle, rootIndexHeading
	}
	name := html.EscapeString(filepath.Base(dir))
	return name, name
}

func (ix *Indexer) writeIndex(path, title, heading string, entries []Entry) error {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		items = append(items, formatEntry(e))
	}
	body := fmt.Sprintf("<h1>%s</h1>\n        <ul>\n            %s\n        </ul>", heading, strings.Join(items, "\n            "))
	page := renderPage(title, ix.nav.Navbar(path), body)

	// #nosec G306 -- index pages are public content
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return fmt.Errorf("%w: %w", serrors.ErrIndexWrite, err)
	}
	return nil
}
