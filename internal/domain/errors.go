package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnsupportedCategory is returned for unknown categories or categories without key rules
	ErrUnsupportedCategory = errors.New("unsupported category")

	// ErrNotFound is returned when a catalog entry does not exist
	ErrNotFound = errors.New("catalog entry not found")

	// ErrNoMatch is returned when no matcher tier selects a candidate
	ErrNoMatch = errors.New("no matching candidate")

	// ErrExtractionFailed is returned when no identity key can be derived from a name
	ErrExtractionFailed = errors.New("identity key extraction failed")

	// ErrLowConfidenceScore is returned when a benchmark score falls below its floor
	ErrLowConfidenceScore = errors.New("benchmark score below floor")

	// ErrCollaboratorFailure is returned when a crawl, benchmark or text-generation call fails
	ErrCollaboratorFailure = errors.New("external collaborator failed")

	// ErrStoreFailure is returned when a catalog store operation fails
	ErrStoreFailure = errors.New("catalog store operation failed")

	// ErrPartialSync is returned when some records of a pass failed
	ErrPartialSync = errors.New("pass completed with record failures")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrTaskRunning is returned when a task of the same kind and category is already running
	ErrTaskRunning = errors.New("task already running")
)

// RecordError describes a failure on a single catalog record within a pass
type RecordError struct {
	EntryID string
	Name    string
	Op      string
	Err     error
}

func (e *RecordError) Error() string {
	if e.EntryID != "" {
		return fmt.Sprintf("%s %q (%s): %v", e.Op, e.Name, e.EntryID, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
