package domain

import (
	"errors"
	"fmt"
)

// ErrAuthRequired is returned when a collaborator call that needs a
// credential is attempted with none configured.
var ErrAuthRequired = errors.New("authentication token required")

// FetchError is any collaborator call failure: a network error or a
// non-success response, optionally carrying the server's detail message.
type FetchError struct {
	Status int
	Detail string
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("fetch failed (status %d): %s", e.Status, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("fetch failed: %v", e.Err)
	default:
		return fmt.Sprintf("fetch failed (status %d)", e.Status)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError is an attempted mutation the engine rejects, such as a
// geometry edit on a closed annotation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid mutation: " + e.Reason }
