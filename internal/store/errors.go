package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a mutation against an unknown entity id.
	ErrNotFound = errors.New("store: not found")
	// ErrBusy reports a rejected mutation because another mutation for the
	// same entity id is still in flight.
	ErrBusy = errors.New("store: mutation already in flight for this entity")
)

// ValidationError reports a rejected draft, naming the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("store: invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a failed backing-store call. The in-memory state
// is guaranteed untouched when one is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
