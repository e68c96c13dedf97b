package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrTokenMissing occurs when no bearer token is available for a call.
	ErrTokenMissing = errors.New("bearer token missing")
	// ErrUnknownOperation occurs when an operation name is not registered.
	ErrUnknownOperation = errors.New("unknown operation")
)
