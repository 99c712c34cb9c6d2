package history

import (
	"slices"
	"sync"
)

// arena is the append-only backing store shared by related states.
// Slots below len(items) are never rewritten, so every state built on the
// arena keeps seeing the values it was created with.
type arena[T any] struct {
	mu    sync.Mutex
	items []T
}

// State is an immutable snapshot of a linear history.
//
// The zero State is not valid; create one with New or FromValues. Accessors
// and transitions panic with an *InvariantError when called on it.
type State[T any] struct {
	arena   *arena[T]
	history []T
	cursor  int
}

// New creates a state whose only value is initial.
func New[T any](initial T) State[T] {
	items := []T{initial}
	return State[T]{
		arena:   &arena[T]{items: items},
		history: items,
	}
}

// FromValues creates a state from an existing sequence of values and a
// cursor into it. The values are copied.
func FromValues[T any](values []T, cursor int) (State[T], error) {
	if len(values) == 0 {
		return State[T]{}, &InvariantError{Len: 0, Cursor: cursor, Reason: "empty history"}
	}
	if cursor < 0 || cursor >= len(values) {
		return State[T]{}, &InvariantError{Len: len(values), Cursor: cursor, Reason: "cursor out of range"}
	}

	items := slices.Clone(values)
	return State[T]{
		arena:   &arena[T]{items: items},
		history: items,
		cursor:  cursor,
	}, nil
}

// Undo returns s with the cursor moved one step back.
// At the oldest value it returns s unchanged.
func Undo[T any](s State[T]) State[T] { return s.Undo() }

// Redo returns s with the cursor moved one step forward.
// At the newest value it returns s unchanged.
func Redo[T any](s State[T]) State[T] { return s.Redo() }

// Set returns s with v committed as the new present. Any future is discarded.
func Set[T any](s State[T], v T) State[T] { return s.Set(v) }

// Reset returns a fresh state holding only v. s is ignored.
func Reset[T any](s State[T], v T) State[T] { return s.Reset(v) }

// Undo returns s with the cursor moved one step back.
func (s State[T]) Undo() State[T] {
	if !s.CanUndo() {
		return s
	}
	s.cursor--
	return s
}

// Redo returns s with the cursor moved one step forward.
func (s State[T]) Redo() State[T] {
	if !s.CanRedo() {
		return s
	}
	s.cursor++
	return s
}

// Set returns a state whose history is s's history up to and including the
// present, followed by v. The new state's present is v and it has no future.
// Equal values are not collapsed.
func (s State[T]) Set(v T) State[T] {
	s.mustBeValid()
	keep := s.cursor + 1

	a := s.arena
	a.mu.Lock()
	if len(a.items) == keep {
		// Nobody has written past our present yet; extend in place.
		a.items = append(a.items, v)
		items := a.items
		a.mu.Unlock()
		return State[T]{arena: a, history: items, cursor: keep}
	}
	a.mu.Unlock()

	items := make([]T, keep+1, 2*(keep+1))
	copy(items, s.history[:keep])
	items[keep] = v
	return State[T]{
		arena:   &arena[T]{items: items},
		history: items,
		cursor:  keep,
	}
}

// Reset returns a fresh state holding only v.
func (s State[T]) Reset(v T) State[T] {
	return New(v)
}

// Seek returns s with the cursor moved by offset, clamped to the history.
// Seek(-n) is equivalent to n calls to Undo.
func (s State[T]) Seek(offset int) State[T] {
	s.mustBeValid()
	s.cursor = clamp(s.cursor+offset, len(s.history))
	return s
}

// Valid reports whether s satisfies the history invariants.
func (s State[T]) Valid() bool {
	return len(s.history) > 0 && s.cursor >= 0 && s.cursor < len(s.history)
}

// Past returns the values before the present, oldest first.
func (s State[T]) Past() []T {
	s.mustBeValid()
	return s.history[:s.cursor:s.cursor]
}

// Present returns the value at the cursor.
func (s State[T]) Present() T {
	s.mustBeValid()
	return s.history[s.cursor]
}

// Future returns the values after the present, nearest first.
func (s State[T]) Future() []T {
	s.mustBeValid()
	n := len(s.history)
	return s.history[s.cursor+1 : n : n]
}

// Values returns a copy of the whole history.
func (s State[T]) Values() []T {
	s.mustBeValid()
	return slices.Clone(s.history)
}

// CanUndo reports whether there is a past value to move back to.
func (s State[T]) CanUndo() bool {
	s.mustBeValid()
	return s.cursor > 0
}

// CanRedo reports whether there is a future value to move forward to.
func (s State[T]) CanRedo() bool {
	s.mustBeValid()
	return s.cursor < len(s.history)-1
}

// Len returns the number of values in the history.
func (s State[T]) Len() int {
	return len(s.history)
}

// Cursor returns the index of the present value.
func (s State[T]) Cursor() int {
	return s.cursor
}

// UndoCount returns how many times Undo can move the cursor.
func (s State[T]) UndoCount() int {
	s.mustBeValid()
	return s.cursor
}

// RedoCount returns how many times Redo can move the cursor.
func (s State[T]) RedoCount() int {
	s.mustBeValid()
	return len(s.history) - 1 - s.cursor
}

// PeekUndo returns the value Undo would make present.
func (s State[T]) PeekUndo() (T, bool) {
	if !s.CanUndo() {
		var zero T
		return zero, false
	}
	return s.history[s.cursor-1], true
}

// PeekRedo returns the value Redo would make present.
func (s State[T]) PeekRedo() (T, bool) {
	if !s.CanRedo() {
		var zero T
		return zero, false
	}
	return s.history[s.cursor+1], true
}

func (s State[T]) mustBeValid() {
	if len(s.history) == 0 {
		panic(&InvariantError{Len: 0, Cursor: s.cursor, Reason: "empty history"})
	}
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
