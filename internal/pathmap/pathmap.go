// Package pathmap centralizes path arithmetic for the source tree to
// output tree mapping. Hrefs are URLs, so every link leaving this package
// is slash-separated regardless of the host separator.
package pathmap

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// SourceExt is the extension of convertible source documents.
	SourceExt = ".md"
	// PageExt is the extension of generated pages.
	PageExt = ".html"
	// IndexPage is the listing page written into every indexed directory.
	IndexPage = "index.html"
)

// OutputPath maps a source document path to its mirrored page path under
// outputRoot, replacing the source extension with the page extension.
// Documents lexically outside sourceRoot still map via an OS-relative
// computation; the result may then land outside outputRoot, which callers
// tolerate. When no relative form exists at all the bare filename is used.
func OutputPath(docPath, sourceRoot, outputRoot string) string {
	rel, err := filepath.Rel(sourceRoot, docPath)
	if err != nil {
		rel = filepath.Base(docPath)
	}
	return filepath.Join(outputRoot, ReplaceExt(rel, PageExt))
}

// SourcePath is the inverse mapping: the source document a page mirrors.
func SourcePath(pagePath, outputRoot, sourceRoot string) string {
	rel, err := filepath.Rel(outputRoot, pagePath)
	if err != nil {
		rel = filepath.Base(pagePath)
	}
	return filepath.Join(sourceRoot, ReplaceExt(rel, SourceExt))
}

// ReplaceExt swaps the extension of p for ext, appending when p has none.
func ReplaceExt(p, ext string) string {
	return strings.TrimSuffix(p, filepath.Ext(p)) + ext
}

// RelativeLink returns an href usable from a page located in fromDir to
// toPath. Correct for ancestor, descendant, sibling and same-directory
// targets at any nesting depth.
func RelativeLink(fromDir, toPath string) (string, error) {
	rel, err := filepath.Rel(fromDir, toPath)
	if err != nil {
		return "", fmt.Errorf("relative link from %s to %s: %w", fromDir, toPath, err)
	}
	return filepath.ToSlash(rel), nil
}
