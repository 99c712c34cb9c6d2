package script

import "errors"

// Errors for script execution.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a run exceeds its timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrCallLimit is returned when a run makes too many module calls.
	ErrCallLimit = errors.New("lua call limit exceeded")
)
