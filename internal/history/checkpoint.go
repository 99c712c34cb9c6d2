package history

// Checkpoint represents a point in history that can be returned to.
type Checkpoint struct {
	cursor int
}

// Cursor returns the cursor position the checkpoint was taken at.
func (cp Checkpoint) Cursor() int {
	return cp.cursor
}

// Checkpoint captures the current cursor position.
func (s State[T]) Checkpoint() Checkpoint {
	s.mustBeValid()
	return Checkpoint{cursor: s.cursor}
}

// Restore moves the cursor to the checkpoint. The history is untouched, so
// this amounts to several undo or redo steps at once. A checkpoint beyond the
// end of a since-truncated history lands on the newest value.
func (s State[T]) Restore(cp Checkpoint) State[T] {
	s.mustBeValid()
	s.cursor = clamp(cp.cursor, len(s.history))
	return s
}
