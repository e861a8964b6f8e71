package errors

import "errors"

var (
	// Persistence errors
	ErrPersistence        = errors.New("event log write failed")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Cache errors
	ErrCache = errors.New("cache operation failed")

	// Upstream errors
	ErrUpstreamFetch = errors.New("upstream fetch failed")
	ErrNoUsableData  = errors.New("upstream returned no usable data")

	// Consolidation errors
	ErrConsolidation = errors.New("snapshot consolidation failed")
)
