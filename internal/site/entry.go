package site

import (
	"fmt"
	"html"
	"sort"
	"time"
)

// entryTimeFormat is the timestamp prefix on page entries.
const entryTimeFormat = "2006-01-02 15:04"

// Entry is one line in a directory index: a child directory or a page.
type Entry struct {
	Dir     bool
	Name    string    // directory name or page title (filename stem)
	Target  string    // href relative to the index's directory
	ModTime time.Time // source document timestamp; zero for directories
}

// sortEntries orders directories ahead of pages. Directories keep their
// listing order; pages sort newest first, ties broken by ascending target.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Dir != b.Dir {
			return a.Dir
		}
		if a.Dir {
			return false
		}
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.After(b.ModTime)
		}
		return a.Target < b.Target
	})
}

// formatEntry renders one index list item.
func formatEntry(e Entry) string {
	if e.Dir {
		return fmt.Sprintf(`<li>📁 <a href="%s">%s</a></li>`, e.Target, html.EscapeString(e.Name))
	}
	return fmt.Sprintf(`<li>📄 <a href="%s">%s %s</a></li>`, e.Target, e.ModTime.Format(entryTimeFormat), html.EscapeString(e.Name))
}
