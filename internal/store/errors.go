package store

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch reports an embedding whose length disagrees with the
// store's configured dimension. Always detected at store time so the index is
// never poisoned with unusable vectors.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ConnectionError reports that a backend was unreachable or rejected
// credentials during store construction. Fatal to the process; never retried
// internally.
type ConnectionError struct {
	Backend string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s connection failed: %v", e.Backend, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// OperationError reports a single failed store call. It invalidates that call
// only, not the session.
type OperationError struct {
	Backend string
	Op      string
	Err     error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Backend, e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }
