// Package linkcheck verifies that every internal reference in a generated
// tree points at a file that exists on disk. External targets are counted,
// never fetched.
package linkcheck

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/pathmap"
)

// BrokenLink identifies one internal reference whose target is missing.
type BrokenLink struct {
	Page   string // page path relative to the checked root
	Target string // raw link target as written in the page
}

// Result summarizes one verification pass over a generated tree.
type Result struct {
	Pages        int
	LinksChecked int
	External     int
	Broken       []BrokenLink
}

// Ok reports whether the tree has no broken internal links.
func (r *Result) Ok() bool {
	return len(r.Broken) == 0
}

// Summary renders the result as a single log-friendly line.
func (r *Result) Summary() string {
	return fmt.Sprintf("pages=%d links=%d external=%d broken=%d",
		r.Pages, r.LinksChecked, r.External, len(r.Broken))
}

// Check walks the generated tree under root and verifies that every
// internal link target exists. Hidden directories and non-page files are
// skipped; pages that cannot be parsed are logged and do not fail the run.
func Check(ctx context.Context, root string) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve output root: %w", err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("read output tree: %w", err)
	}

	result := &Result{}
	walkErr := filepath.WalkDir(absRoot, func(path string, item fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if item.IsDir() {
			if path != absRoot && strings.HasPrefix(item.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(item.Name(), ".") || !strings.HasSuffix(item.Name(), pathmap.PageExt) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return relErr
		}
		result.Pages++
		checkPage(absRoot, path, filepath.ToSlash(rel), result)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk output tree: %w", walkErr)
	}

	return result, nil
}

// checkPage extracts and resolves every link of a single page.
func checkPage(root, pagePath, relPage string, result *Result) {
	links, err := ExtractLinks(pagePath)
	if err != nil {
		slog.Warn("Failed to extract links", logfields.Path(pagePath), logfields.Error(err))
		return
	}

	for _, link := range links {
		if !shouldCheckLink(link) {
			continue
		}
		result.LinksChecked++

		if !link.IsInternal {
			result.External++
			continue
		}

		target := resolveTarget(root, filepath.Dir(pagePath), link.URL)
		if target == "" {
			continue
		}
		if !targetExists(target) {
			result.Broken = append(result.Broken, BrokenLink{Page: relPage, Target: link.URL})
			slog.Warn("Broken internal link",
				logfields.Path(relPage),
				slog.String("target", link.URL),
				slog.String("tag", link.Tag))
		}
	}
}

// resolveTarget maps a link target to a filesystem path. Query and fragment
// are stripped; a leading slash anchors the path at the tree root. An empty
// return means there is nothing on disk to verify.
func resolveTarget(root, pageDir, raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return ""
	}

	p := filepath.FromSlash(u.Path)
	if strings.HasPrefix(u.Path, "/") {
		return filepath.Join(root, p)
	}
	return filepath.Join(pageDir, p)
}

// targetExists accepts files directly; directory targets must be browsable,
// so they count only when they contain an index page.
func targetExists(target string) bool {
	info, err := os.Stat(target)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	_, err = os.Stat(filepath.Join(target, pathmap.IndexPage))
	return err == nil
}
