package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a run exceeds the timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNotFunction is returned by Call for a global that is not a function.
	ErrNotFunction = errors.New("lua global is not a function")
)
