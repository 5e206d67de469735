package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned before any network call when caller input is unusable.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRetrieval matches every *RetrievalError via errors.Is.
	ErrRetrieval = errors.New("upstream retrieval failed")
	// ErrMalformedDocument means the upstream body was not JSON at all.
	ErrMalformedDocument = errors.New("malformed results document")
)

// RetrievalError describes a failed call to the graph query endpoint.
// Status is 0 when no HTTP response was received.
type RetrievalError struct {
	Status int
	Body   string
	Err    error
}

func (e *RetrievalError) Error() string {
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("sparql query failed: status %d: %s", e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("sparql query failed: status %d", e.Status)
	case e.Err != nil:
		return "sparql query failed: " + e.Err.Error()
	}
	return "sparql query failed"
}

func (e *RetrievalError) Unwrap() error { return e.Err }

func (e *RetrievalError) Is(target error) bool { return target == ErrRetrieval }
