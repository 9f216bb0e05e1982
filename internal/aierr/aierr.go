// Package aierr defines the error kinds surfaced by the completion and
// extraction pipeline. Every failure is one of four kinds so callers can
// branch with errors.As / errors.Is instead of matching message strings.
package aierr

import (
	"errors"
	"fmt"
)

// Extraction failure reasons. Each maps to a distinct malformed spot in the
// completion response envelope.
var (
	ErrNoCandidates    = errors.New("no candidates in response")
	ErrEmptyCandidates = errors.New("empty candidates in response")
	ErrNoContentParts  = errors.New("no content parts in candidate")
)

// TransportError reports a failed HTTP call to an upstream endpoint,
// including non-2xx statuses.
type TransportError struct {
	Endpoint string // "completion" or "reader"
	Status   int    // zero when the request never completed
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s endpoint returned status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("%s endpoint call failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExtractionError reports a completion response that decoded as JSON but
// does not contain the expected candidate/content/part structure. Reason is
// one of the sentinel errors above.
type ExtractionError struct {
	Reason error
}

func (e *ExtractionError) Error() string { return "extract response text: " + e.Reason.Error() }

func (e *ExtractionError) Unwrap() error { return e.Reason }

// ParseError reports model output that is not the JSON shape the caller
// required, e.g. keyword extraction output that is not a string array.
type ParseError struct {
	Want string // description of the expected shape
	Raw  string // cleaned model output that failed to parse
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model output as %s: %v", e.Want, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DomainError reports a caller-level precondition failure, e.g. a query that
// extracted zero keywords.
type DomainError struct {
	Msg string
}

func (e *DomainError) Error() string { return e.Msg }
