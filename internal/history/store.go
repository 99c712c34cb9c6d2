package history

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/rewind/internal/logging"
)

// Store holds the current State of a history and serializes transitions on
// it. After each transition that changed the state, subscribers receive the
// new View.
type Store[T any] struct {
	mu sync.Mutex

	id      string
	state   State[T]
	initial T

	logger *logging.Logger

	subs   []subscriber[T]
	nextID uint64
}

type subscriber[T any] struct {
	id uint64
	fn func(View[T])
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	id     string
	logger *logging.Logger
}

// WithLogger sets the logger transitions are reported to at debug level.
func WithLogger(l *logging.Logger) StoreOption {
	return func(o *storeOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithID sets the store identifier. A random UUID is used otherwise.
func WithID(id string) StoreOption {
	return func(o *storeOptions) {
		if id != "" {
			o.id = id
		}
	}
}

// NewStore creates a store whose history starts at initial.
func NewStore[T any](initial T, opts ...StoreOption) *Store[T] {
	o := storeOptions{
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.New().String()
	}

	return &Store[T]{
		id:      o.id,
		state:   New(initial),
		initial: initial,
		logger:  o.logger.WithComponent("history").WithField("store", o.id),
	}
}

// ID returns the store identifier.
func (s *Store[T]) ID() string {
	return s.id
}

// State returns the current state snapshot.
func (s *Store[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View returns the derived views of the current state.
func (s *Store[T]) View() View[T] {
	return ViewOf(s.State())
}

// Undo moves back one step. It reports whether the cursor moved.
func (s *Store[T]) Undo() bool {
	return s.apply("undo", Undo[T])
}

// Redo moves forward one step. It reports whether the cursor moved.
func (s *Store[T]) Redo() bool {
	return s.apply("redo", Redo[T])
}

// Set commits v as the new present, discarding any future.
func (s *Store[T]) Set(v T) {
	s.apply("set", func(st State[T]) State[T] {
		return st.Set(v)
	})
}

// Reset starts the history over from the store's initial value.
func (s *Store[T]) Reset() {
	s.apply("reset", func(st State[T]) State[T] {
		return st.Reset(s.initial)
	})
}

// ResetTo starts the history over from v. Later calls to Reset return to v.
func (s *Store[T]) ResetTo(v T) {
	s.apply("reset", func(st State[T]) State[T] {
		s.initial = v
		return st.Reset(v)
	})
}

// Replace swaps in st wholesale, for example one rebuilt with FromValues.
func (s *Store[T]) Replace(st State[T]) error {
	if !st.Valid() {
		return &InvariantError{Len: st.Len(), Cursor: st.Cursor(), Reason: "invalid replacement state"}
	}
	s.apply("replace", func(State[T]) State[T] {
		return st
	})
	return nil
}

// CreateCheckpoint captures the current cursor position.
func (s *Store[T]) CreateCheckpoint() Checkpoint {
	return s.State().Checkpoint()
}

// RestoreCheckpoint moves the cursor to cp. It reports whether the cursor moved.
func (s *Store[T]) RestoreCheckpoint(cp Checkpoint) bool {
	return s.apply("restore", func(st State[T]) State[T] {
		return st.Restore(cp)
	})
}

// Transaction runs fn against the present value and commits its result as a
// single Set. If fn returns an error nothing is committed. fn runs with the
// store locked, so it must not call back into the store.
func (s *Store[T]) Transaction(fn func(present T) (T, error)) error {
	var err error
	s.apply("transaction", func(st State[T]) State[T] {
		var v T
		if v, err = fn(st.Present()); err != nil {
			return st
		}
		return st.Set(v)
	})
	if err != nil {
		s.logger.Debug("transaction aborted: %v", err)
	}
	return err
}

// Subscribe registers fn to receive the view after every effective transition.
// Observers are called synchronously, outside the store lock, in the order
// they subscribed.
func (s *Store[T]) Subscribe(fn func(View[T])) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})

	return &Subscription{
		id:     id,
		cancel: s.unsubscribe,
	}
}

func (s *Store[T]) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// apply runs fn under the store lock and notifies subscribers if the state
// changed.
func (s *Store[T]) apply(op string, fn func(State[T]) State[T]) bool {
	s.mu.Lock()
	prev := s.state
	next := fn(prev)
	if sameState(prev, next) {
		s.mu.Unlock()
		s.logger.Debug("%s: no-op", op)
		return false
	}
	s.state = next
	subs := s.subs
	s.mu.Unlock()

	s.logger.WithFields(map[string]any{
		"op":     op,
		"cursor": next.Cursor(),
		"len":    next.Len(),
	}).Debug("transition")

	if len(subs) == 0 {
		return true
	}
	view := ViewOf(next)
	for _, sub := range subs {
		sub.fn(view)
	}
	return true
}

func sameState[T any](a, b State[T]) bool {
	return a.arena == b.arena && a.cursor == b.cursor && len(a.history) == len(b.history)
}

// Subscription represents an active observer registration.
type Subscription struct {
	id     uint64
	cancel func(uint64)
	once   sync.Once
}

// Unsubscribe removes the observer. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel(s.id)
		}
	})
}
