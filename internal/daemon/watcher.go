package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/util/sets"
)

// Watcher monitors the source tree and notes every relevant change.
// fsnotify watches are not recursive, so every directory is registered
// individually; directories created later are added from their Create
// events, and Register can be called again after rebuilds to close any
// gaps.
type Watcher struct {
	sourceRoot string
	outputRoot string
	reserved   sets.Set[string]
	watcher    *fsnotify.Watcher
	onChange   func()
}

// NewWatcher creates a watcher rooted at sourceRoot. The output root is
// excluded so builds never trigger themselves when it nests inside the
// source tree. reserved holds top-level subtree names that never trigger
// rebuilds. onChange is invoked for every relevant filesystem event and
// must not block.
func NewWatcher(sourceRoot, outputRoot string, reserved []string, onChange func()) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	absRoot, err := filepath.Abs(sourceRoot)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("resolve source root: %w", err)
	}
	absOut, err := filepath.Abs(outputRoot)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("resolve output root: %w", err)
	}

	return &Watcher{
		sourceRoot: absRoot,
		outputRoot: absOut,
		reserved:   sets.New(reserved...),
		watcher:    w,
		onChange:   onChange,
	}, nil
}

// Register walks the source tree and adds a watch for every directory that
// can contain documents.
func (w *Watcher) Register() error {
	return filepath.WalkDir(w.sourceRoot, func(path string, item fs.DirEntry, err error) error {
		if err != nil {
			if path == w.sourceRoot {
				return err
			}
			slog.Warn("Skipping unwatchable directory", logfields.Path(path), logfields.Error(err))
			if item != nil && item.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !item.IsDir() {
			return nil
		}
		if w.skipDir(path, item.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			slog.Warn("Failed to watch directory", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// skipDir excludes the output root, hidden directories everywhere, and
// reserved names at the top level only.
func (w *Watcher) skipDir(path, name string) bool {
	if path == w.sourceRoot {
		return false
	}
	if path == w.outputRoot {
		return true
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	return filepath.Dir(path) == w.sourceRoot && w.reserved.Has(name)
}

// Run dispatches filesystem events until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if w.ignored(event.Name) {
		return
	}

	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				slog.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
			}
		}
	}

	slog.Debug("Source change", logfields.Path(event.Name), slog.String("op", event.Op.String()))
	w.onChange()
}

// ignored drops events from the output tree, hidden entries, and reserved
// top-level subtrees.
func (w *Watcher) ignored(name string) bool {
	if outRel, err := filepath.Rel(w.outputRoot, name); err == nil && !strings.HasPrefix(filepath.ToSlash(outRel), "..") {
		return true
	}

	rel, err := filepath.Rel(w.sourceRoot, name)
	if err != nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "..") {
		return true
	}

	parts := strings.Split(rel, "/")
	for _, part := range parts {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return w.reserved.Has(parts[0])
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
