package models

import (
	"errors"
	"fmt"
)

// ErrPageLimitExceeded is wrapped into a SearchBackendError when a search keeps
// reporting more pages beyond the configured ceiling.
var ErrPageLimitExceeded = errors.New("search page limit exceeded")

// ValidationError reports missing or malformed input at an operation boundary.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// RemoteInterpretationError reports a failed call to the interpretation service.
// Status is 0 when no HTTP response was involved.
type RemoteInterpretationError struct {
	Status int
	Body   string
	Err    error
}

func (e *RemoteInterpretationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("RAG parse failed: %v", e.Err)
	}
	return fmt.Sprintf("RAG parse failed %d: %s", e.Status, bodyOrUnknown(e.Body))
}

func (e *RemoteInterpretationError) Unwrap() error { return e.Err }

// SearchBackendError reports a failed JQL search page.
type SearchBackendError struct {
	Status int
	Body   string
	Err    error
}

func (e *SearchBackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("JQL search failed: %v", e.Err)
	}
	return fmt.Sprintf("JQL search failed: %d %s", e.Status, e.Body)
}

func (e *SearchBackendError) Unwrap() error { return e.Err }

// DispatchBackendError reports a failed call to the mail service.
type DispatchBackendError struct {
	Status int
	Body   string
	Err    error
}

func (e *DispatchBackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Issue share send failed: %v", e.Err)
	}
	return fmt.Sprintf("Issue share send failed %d: %s", e.Status, bodyOrUnknown(e.Body))
}

func (e *DispatchBackendError) Unwrap() error { return e.Err }

func bodyOrUnknown(body string) string {
	if body == "" {
		return "Unknown"
	}
	return body
}
