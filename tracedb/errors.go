package tracedb

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the sink (class, method) pair has no fqns row.
var ErrNotFound = errors.New("not found")

// QueryError wraps a storage or schema failure.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func queryErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &QueryError{Op: op, Err: err}
}

// ErrNegativeRadius is returned for a window with a negative radius.
var ErrNegativeRadius = errors.New("window radius must be non-negative")

// ErrWindowOverflow is returned when a window bound does not fit in an int64.
var ErrWindowOverflow = errors.New("window bounds overflow")
