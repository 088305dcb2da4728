package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrImmutable indicates an attempt to change a record in a terminal state.
	ErrImmutable = errors.New("record is immutable")
)
