package commonModels

import "errors"

// per-file failures, logged and isolated to the file
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrExtractionFailure = errors.New("document extraction failed")
	ErrEmptyContent      = errors.New("document has no content")
)

// store-level failures, propagated to the caller
var (
	ErrStorageUnavailable  = errors.New("vector storage unavailable")
	ErrInsertionFailure    = errors.New("vector insertion failed")
	ErrQueryFailure        = errors.New("vector query failed")
	ErrCollectionNotFound  = errors.New("collection not found")
	ErrIngestionInProgress = errors.New("ingestion already running for this data directory")
)
