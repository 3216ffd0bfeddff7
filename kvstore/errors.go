package kvstore

import "errors"

var (
	// ErrNotFound is returned by lookups for keys or hash fields that
	// do not exist.
	ErrNotFound = errors.New("not found")

	// ErrWrongType is returned when an operation is applied to a key
	// holding a value of an incompatible type.
	ErrWrongType = errors.New("operation against a key holding the wrong kind of value")
)
