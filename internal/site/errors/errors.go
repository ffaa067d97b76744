// Package errors provides sentinel errors for site build stages. These enable
// consistent classification while keeping user-facing messages descriptive
// via wrapping.
package errors

import "errors"

var (
	// ErrOutputPrepare indicates the output root could not be cleared or created.
	ErrOutputPrepare = errors.New("output preparation failed")
	// ErrAssetCopy indicates the asset subtree could not be copied.
	ErrAssetCopy = errors.New("asset copy failed")
	// ErrResourceCopy indicates the _resources subtree could not be copied.
	ErrResourceCopy = errors.New("resource copy failed")
	// ErrPageWrite indicates a converted page could not be written.
	ErrPageWrite = errors.New("page write failed")
	// ErrDocumentsSkipped indicates one or more documents failed to convert.
	ErrDocumentsSkipped = errors.New("documents skipped")
	// ErrIndexWrite indicates an index page could not be written.
	ErrIndexWrite = errors.New("index write failed")
	// ErrArchive indicates the generator executable could not be archived.
	ErrArchive = errors.New("executable archive failed")
)
