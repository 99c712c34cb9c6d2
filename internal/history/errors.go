package history

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation indicates a State whose history is empty or whose
// cursor is out of range.
var ErrInvariantViolation = errors.New("history invariant violated")

// InvariantError describes a malformed State.
type InvariantError struct {
	Len    int
	Cursor int
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s (len=%d, cursor=%d)", ErrInvariantViolation, e.Reason, e.Len, e.Cursor)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}
