// Package errors provides sentinel errors for document discovery operations.
// These enable consistent classification while keeping user-facing messages
// descriptive via wrapping.
package errors

import "errors"

var (
	// ErrSourceRootNotFound indicates the configured source tree does not exist or is unreadable.
	ErrSourceRootNotFound = errors.New("source root not found")

	// ErrWalkFailed indicates filesystem traversal of the source tree failed.
	ErrWalkFailed = errors.New("source tree walk failed")

	// ErrDocumentReadFailed indicates reading content from a discovered document failed.
	ErrDocumentReadFailed = errors.New("document read failed")
)
