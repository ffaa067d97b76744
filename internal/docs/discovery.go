package docs

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	derrors "git.home.luguber.info/inful/mdsite/internal/docs/errors"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/pathmap"
	"git.home.luguber.info/inful/mdsite/internal/util/sets"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Document represents a discovered markup source file.
type Document struct {
	Path         string    // Absolute path to the file
	RelativePath string    // Path relative to the source root
	Name         string    // File name without extension (the page title)
	ModTime      time.Time // Creation timestamp taken from stat
}

// Discovery enumerates documents and top-level sections of one source tree.
type Discovery struct {
	sourceRoot string
	reserved   sets.Set[string]
}

// NewDiscovery creates a discovery instance for the tree rooted at
// sourceRoot. Reserved names are top-level subtrees copied verbatim and
// never converted or indexed.
func NewDiscovery(sourceRoot string, reserved []string) *Discovery {
	return &Discovery{sourceRoot: sourceRoot, reserved: sets.New(reserved...)}
}

// Documents walks the source tree and returns every convertible document.
// Hidden entries and reserved top-level subtrees are skipped. The walk order
// is lexical per directory, which keeps discovery order deterministic.
func (d *Discovery) Documents() ([]Document, error) {
	if _, err := os.Stat(d.sourceRoot); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrSourceRootNotFound, d.sourceRoot, err)
	}

	var docs []Document
	err := filepath.WalkDir(d.sourceRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("Skipping unreadable entry during discovery", logfields.Path(path), logfields.Error(err))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		name := entry.Name()
		if entry.IsDir() {
			if path == d.sourceRoot {
				return nil
			}
			if strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			if d.isReservedTopLevel(path) {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, pathmap.SourceExt) {
			return nil
		}
		info, statErr := entry.Info()
		if statErr != nil {
			slog.Warn("Skipping document with failed stat", logfields.Path(path), logfields.Error(statErr))
			return nil
		}
		rel, relErr := filepath.Rel(d.sourceRoot, path)
		if relErr != nil {
			rel = name
		}
		docs = append(docs, Document{
			Path:         path,
			RelativePath: rel,
			Name:         strings.TrimSuffix(name, pathmap.SourceExt),
			ModTime:      info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", derrors.ErrWalkFailed, err)
	}
	return docs, nil
}

// TopLevelSections returns the names of the source root's immediate
// subdirectories, excluding hidden entries and reserved names, in lexical
// order. These become the navigation sections.
func (d *Discovery) TopLevelSections() ([]string, error) {
	entries, err := os.ReadDir(d.sourceRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrSourceRootNotFound, d.sourceRoot, err)
	}
	var sections []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if d.reserved.Has(name) {
			continue
		}
		sections = append(sections, name)
	}
	return sections, nil
}

func (d *Discovery) isReservedTopLevel(path string) bool {
	return filepath.Dir(path) == d.sourceRoot && d.reserved.Has(filepath.Base(path))
}

// ReadDocument loads a document's raw text. A leading UTF-8 byte order mark
// is stripped so editors that emit one do not leak it into rendered pages.
func ReadDocument(path string) ([]byte, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrDocumentReadFailed, path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(transform.NewReader(f, unicode.UTF8BOM.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrDocumentReadFailed, path, err)
	}
	return data, nil
}
