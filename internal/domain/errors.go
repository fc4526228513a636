package domain

import (
	"errors"
	"fmt"
)

// ErrExhausted indicates every known and discovered source failed for
// an item.
var ErrExhausted = errors.New("all sources exhausted")

// ErrNoSources indicates an item listed no known sources.
var ErrNoSources = errors.New("item has no sources")

// ResourceError marks a failure acquiring a local resource (destination
// directory, history database). Unlike network and extraction errors,
// which are contained within their component, a ResourceError is fatal
// for the whole run and crosses the orchestrator boundary.
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource error: %s: %v", e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError wraps err as fatal for the run.
func NewResourceError(op string, err error) *ResourceError {
	return &ResourceError{Op: op, Err: err}
}

// IsResourceError reports whether err is (or wraps) a ResourceError.
func IsResourceError(err error) bool {
	var re *ResourceError
	return errors.As(err, &re)
}
