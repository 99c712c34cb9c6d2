package history

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"
)

// build returns New(values[0]) followed by a Set for each remaining value.
func build(values ...int) State[int] {
	s := New(values[0])
	for _, v := range values[1:] {
		s = s.Set(v)
	}
	return s
}

func assertView(t *testing.T, s State[int], past []int, present int, future []int) {
	t.Helper()
	if got := s.Past(); !slices.Equal(got, past) {
		t.Errorf("Past() = %v, want %v", got, past)
	}
	if got := s.Present(); got != present {
		t.Errorf("Present() = %d, want %d", got, present)
	}
	if got := s.Future(); !slices.Equal(got, future) {
		t.Errorf("Future() = %v, want %v", got, future)
	}
	if got, want := s.CanUndo(), len(past) > 0; got != want {
		t.Errorf("CanUndo() = %v, want %v", got, want)
	}
	if got, want := s.CanRedo(), len(future) > 0; got != want {
		t.Errorf("CanRedo() = %v, want %v", got, want)
	}
}

// Scenario Tests

func TestScenarios(t *testing.T) {
	// A: fresh state
	a := New(0)
	assertView(t, a, []int{}, 0, []int{})

	// B: two commits
	b1 := Set(a, 1)
	assertView(t, b1, []int{0}, 1, []int{})
	b2 := Set(b1, 2)
	assertView(t, b2, []int{0, 1}, 2, []int{})

	// C: two undos
	c1 := Undo(b2)
	assertView(t, c1, []int{0}, 1, []int{2})
	c2 := Undo(c1)
	assertView(t, c2, []int{}, 0, []int{1, 2})

	// D: commit from the oldest value discards the future
	d := Set(c2, 9)
	assertView(t, d, []int{0}, 9, []int{})

	// E: undo on a fresh state is a no-op
	e := Undo(a)
	if !reflect.DeepEqual(e, a) {
		t.Errorf("Undo(initial) = %+v, want %+v", e, a)
	}
}

// Transition Tests

func TestUndo(t *testing.T) {
	s := build(1, 2, 3)

	u := s.Undo()
	if u.Cursor() != s.Cursor()-1 {
		t.Errorf("cursor = %d, want %d", u.Cursor(), s.Cursor()-1)
	}
	if !slices.Equal(u.Values(), s.Values()) {
		t.Errorf("history changed: %v, want %v", u.Values(), s.Values())
	}
}

func TestUndoAtOldest(t *testing.T) {
	s := build(1, 2).Undo()

	if got := s.Undo(); !reflect.DeepEqual(got, s) {
		t.Errorf("Undo() at cursor 0 changed state: %+v", got)
	}
}

func TestRedo(t *testing.T) {
	s := build(1, 2, 3).Undo().Undo()

	r := s.Redo()
	if r.Cursor() != s.Cursor()+1 {
		t.Errorf("cursor = %d, want %d", r.Cursor(), s.Cursor()+1)
	}
	if r.Present() != 2 {
		t.Errorf("Present() = %d, want 2", r.Present())
	}
}

func TestRedoAtNewest(t *testing.T) {
	s := build(1, 2, 3)

	if got := Redo(s); !reflect.DeepEqual(got, s) {
		t.Errorf("Redo() at newest changed state: %+v", got)
	}
}

func TestSetDiscardsFuture(t *testing.T) {
	s := build(1, 2, 3, 4).Undo().Undo()

	n := s.Set(7)
	if n.CanRedo() {
		t.Error("should not be able to redo after set")
	}
	if !slices.Equal(n.Values(), []int{1, 2, 7}) {
		t.Errorf("Values() = %v, want [1 2 7]", n.Values())
	}
	if n.Cursor() != n.Len()-1 {
		t.Errorf("cursor = %d, want %d", n.Cursor(), n.Len()-1)
	}
}

func TestSetNoDeduplication(t *testing.T) {
	s := New(5).Set(5).Set(5)

	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if s.UndoCount() != 2 {
		t.Errorf("UndoCount() = %d, want 2", s.UndoCount())
	}
}

func TestReset(t *testing.T) {
	tests := []struct {
		name string
		s    State[int]
	}{
		{"fresh", New(1)},
		{"with past", build(1, 2, 3)},
		{"with future", build(1, 2, 3).Undo()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Reset(tt.s, 42)
			if r.Len() != 1 || r.Cursor() != 0 || r.Present() != 42 {
				t.Errorf("Reset() = len %d cursor %d present %d, want 1 0 42", r.Len(), r.Cursor(), r.Present())
			}
			if r.CanUndo() || r.CanRedo() {
				t.Error("reset state should have no past or future")
			}
		})
	}
}

func TestSeek(t *testing.T) {
	s := build(0, 1, 2, 3, 4)

	tests := []struct {
		offset int
		want   int
	}{
		{0, 4},
		{-1, 3},
		{-4, 0},
		{-10, 0},
		{3, 4},
	}

	for _, tt := range tests {
		if got := s.Seek(tt.offset).Present(); got != tt.want {
			t.Errorf("Seek(%d).Present() = %d, want %d", tt.offset, got, tt.want)
		}
	}

	if got := s.Seek(-10).Seek(2).Present(); got != 2 {
		t.Errorf("Seek(-10).Seek(2).Present() = %d, want 2", got)
	}
}

// Property Tests

func randomState(r *rand.Rand) State[int] {
	s := New(0)
	steps := r.IntN(40)
	for i := 0; i < steps; i++ {
		switch r.IntN(4) {
		case 0:
			s = s.Undo()
		case 1:
			s = s.Redo()
		default:
			s = s.Set(r.IntN(1000))
		}
	}
	return s
}

func TestUndoRedoRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 500; i++ {
		s := randomState(r)
		if s.CanUndo() {
			if got := s.Undo().Redo(); !reflect.DeepEqual(got, s) {
				t.Fatalf("Redo(Undo(s)) != s for %v cursor %d", s.Values(), s.Cursor())
			}
		}
		if s.CanRedo() {
			if got := s.Redo().Undo(); !reflect.DeepEqual(got, s) {
				t.Fatalf("Undo(Redo(s)) != s for %v cursor %d", s.Values(), s.Cursor())
			}
		}
	}
}

func TestBranchErasureProperty(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))

	for i := 0; i < 500; i++ {
		s := randomState(r)
		v := r.IntN(1000)
		n := s.Set(v)
		if n.CanRedo() {
			t.Fatalf("CanRedo() after Set on %v cursor %d", s.Values(), s.Cursor())
		}
		if n.Present() != v {
			t.Fatalf("Present() = %d, want %d", n.Present(), v)
		}
		if !slices.Equal(n.Past(), s.Values()[:s.Cursor()+1]) {
			t.Fatalf("Past() = %v, want %v", n.Past(), s.Values()[:s.Cursor()+1])
		}
	}
}

func TestUndoConvergesToOldest(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))

	for i := 0; i < 200; i++ {
		s := randomState(r)
		u := s
		for j := 0; j < s.Cursor(); j++ {
			u = u.Undo()
		}
		if u.Cursor() != 0 {
			t.Fatalf("cursor after %d undos = %d, want 0", s.Cursor(), u.Cursor())
		}
		if again := u.Undo(); !reflect.DeepEqual(again, u) {
			t.Fatal("undo at cursor 0 changed state")
		}
		if !slices.Equal(u.Values(), s.Values()) {
			t.Fatal("undo changed history")
		}
	}
}

// Snapshot Tests

func TestSnapshotIsolation(t *testing.T) {
	base := build(1, 2, 3).Undo() // present=2 future=[3]

	a := base.Set(10)
	b := base.Set(20)

	if !slices.Equal(base.Values(), []int{1, 2, 3}) {
		t.Errorf("base changed: %v", base.Values())
	}
	if !slices.Equal(a.Values(), []int{1, 2, 10}) {
		t.Errorf("a = %v, want [1 2 10]", a.Values())
	}
	if !slices.Equal(b.Values(), []int{1, 2, 20}) {
		t.Errorf("b = %v, want [1 2 20]", b.Values())
	}
}

func TestSnapshotIsolationAtTip(t *testing.T) {
	base := build(1, 2)

	// First Set extends the shared arena, second must not clobber it.
	a := base.Set(3)
	b := base.Set(4)
	c := a.Set(5)

	if !slices.Equal(a.Values(), []int{1, 2, 3}) {
		t.Errorf("a = %v, want [1 2 3]", a.Values())
	}
	if !slices.Equal(b.Values(), []int{1, 2, 4}) {
		t.Errorf("b = %v, want [1 2 4]", b.Values())
	}
	if !slices.Equal(c.Values(), []int{1, 2, 3, 5}) {
		t.Errorf("c = %v, want [1 2 3 5]", c.Values())
	}
	if !slices.Equal(base.Values(), []int{1, 2}) {
		t.Errorf("base = %v, want [1 2]", base.Values())
	}
}

func TestSnapshotSurvivesUndoThenSet(t *testing.T) {
	s := build(1, 2, 3)
	u := s.Undo()
	n := u.Set(9)

	if s.Present() != 3 || !slices.Equal(s.Future(), []int{}) {
		t.Errorf("original snapshot changed: %v cursor %d", s.Values(), s.Cursor())
	}
	if !slices.Equal(u.Future(), []int{3}) {
		t.Errorf("undone snapshot future = %v, want [3]", u.Future())
	}
	if !slices.Equal(n.Values(), []int{1, 2, 9}) {
		t.Errorf("n = %v, want [1 2 9]", n.Values())
	}
}

func TestDerivedSlicesAreCapped(t *testing.T) {
	s := build(1, 2, 3, 4).Undo().Undo() // present=2

	past := s.Past()
	_ = append(past, 99)
	future := s.Future()
	_ = append(future, 99)

	if s.Present() != 2 {
		t.Errorf("Present() = %d after appending to Past(), want 2", s.Present())
	}
	if !slices.Equal(s.Values(), []int{1, 2, 3, 4}) {
		t.Errorf("Values() = %v, want [1 2 3 4]", s.Values())
	}
}

func TestValuesIsCopy(t *testing.T) {
	s := build(1, 2)
	vals := s.Values()
	vals[0] = 100

	if s.Past()[0] != 1 {
		t.Errorf("Values() aliased history")
	}
}

// Peek and Count Tests

func TestPeek(t *testing.T) {
	s := New("a")
	if _, ok := s.PeekUndo(); ok {
		t.Error("PeekUndo should return false on fresh state")
	}
	if _, ok := s.PeekRedo(); ok {
		t.Error("PeekRedo should return false on fresh state")
	}

	s = s.Set("b").Set("c").Undo()
	if v, ok := s.PeekUndo(); !ok || v != "a" {
		t.Errorf("PeekUndo() = %q, %v, want a, true", v, ok)
	}
	if v, ok := s.PeekRedo(); !ok || v != "c" {
		t.Errorf("PeekRedo() = %q, %v, want c, true", v, ok)
	}
}

func TestCounts(t *testing.T) {
	s := build(1, 2, 3, 4).Undo()

	if s.UndoCount() != 2 {
		t.Errorf("UndoCount() = %d, want 2", s.UndoCount())
	}
	if s.RedoCount() != 1 {
		t.Errorf("RedoCount() = %d, want 1", s.RedoCount())
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
}

// Checkpoint Tests

func TestCheckpoint(t *testing.T) {
	s := build(1)
	cp := s.Checkpoint()

	s = s.Set(2).Set(3).Set(4)
	r := s.Restore(cp)

	if r.Present() != 1 {
		t.Errorf("Present() after restore = %d, want 1", r.Present())
	}
	if !slices.Equal(r.Future(), []int{2, 3, 4}) {
		t.Errorf("Future() after restore = %v, want [2 3 4]", r.Future())
	}

	// Forward again
	if got := r.Restore(s.Checkpoint()).Present(); got != 4 {
		t.Errorf("Present() after restoring forward = %d, want 4", got)
	}
}

func TestCheckpointBeyondTruncatedHistory(t *testing.T) {
	s := build(1, 2, 3, 4)
	cp := s.Checkpoint()

	s = s.Undo().Undo().Set(9) // [1 2 9]
	if got := s.Restore(cp); got.Cursor() != 2 || got.Present() != 9 {
		t.Errorf("Restore() = cursor %d present %d, want 2 9", got.Cursor(), got.Present())
	}
}

// Construction Tests

func TestFromValues(t *testing.T) {
	vals := []int{1, 2, 3}
	s, err := FromValues(vals, 1)
	if err != nil {
		t.Fatalf("FromValues failed: %v", err)
	}
	assertView(t, s, []int{1}, 2, []int{3})

	vals[0] = 100
	if s.Past()[0] != 1 {
		t.Error("FromValues did not copy its input")
	}
}

func TestFromValuesInvalid(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		cursor int
	}{
		{"empty", nil, 0},
		{"negative cursor", []int{1}, -1},
		{"cursor past end", []int{1, 2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromValues(tt.values, tt.cursor)
			if !errors.Is(err, ErrInvariantViolation) {
				t.Fatalf("expected ErrInvariantViolation, got %v", err)
			}
			var ie *InvariantError
			if !errors.As(err, &ie) {
				t.Fatalf("expected *InvariantError, got %T", err)
			}
			if ie.Cursor != tt.cursor || ie.Len != len(tt.values) {
				t.Errorf("InvariantError = %+v", ie)
			}
		})
	}
}

func TestZeroStatePanics(t *testing.T) {
	var s State[int]
	if s.Valid() {
		t.Fatal("zero State should not be valid")
	}

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInvariantViolation) {
			t.Fatalf("expected ErrInvariantViolation panic, got %v", r)
		}
	}()
	_ = s.Present()
}

func TestZeroStateReset(t *testing.T) {
	var s State[int]
	if got := s.Reset(3); !got.Valid() || got.Present() != 3 {
		t.Errorf("Reset on zero state = %+v", got)
	}
}

func TestViewOf(t *testing.T) {
	v := ViewOf(build(1, 2, 3).Undo())

	if !slices.Equal(v.Past, []int{1}) || v.Present != 2 || !slices.Equal(v.Future, []int{3}) {
		t.Errorf("ViewOf() = %+v", v)
	}
	if !v.CanUndo || !v.CanRedo || v.Cursor != 1 || v.Len != 3 {
		t.Errorf("ViewOf() flags = %+v", v)
	}
}
