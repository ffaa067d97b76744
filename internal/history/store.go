// Package history persists one record per completed build to a local
// SQLite database, giving daemon runs an inspectable trail.
package history

import (
	"context"
	"time"
)

// Record describes one completed pipeline run.
type Record struct {
	ID             int64
	BuildID        string
	Start          time.Time
	End            time.Time
	Outcome        string
	Documents      int
	PagesWritten   int
	PagesSkipped   int
	IndexesWritten int
}

// Duration is the wall-clock build time.
func (r Record) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Store defines the interface for persisting and querying build records.
type Store interface {
	// Append stores one completed build.
	Append(ctx context.Context, rec Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// Close closes the store and releases resources.
	Close() error
}
