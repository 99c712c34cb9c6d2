package history

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/rewind/internal/logging"
)

func TestNewStore(t *testing.T) {
	store := NewStore("draft")

	v := store.View()
	if v.Present != "draft" || v.CanUndo || v.CanRedo || v.Len != 1 {
		t.Errorf("View() = %+v", v)
	}
	if _, err := uuid.Parse(store.ID()); err != nil {
		t.Errorf("ID() = %q is not a UUID: %v", store.ID(), err)
	}
}

func TestStoreWithID(t *testing.T) {
	store := NewStore(0, WithID("doc-1"))
	if store.ID() != "doc-1" {
		t.Errorf("ID() = %q, want doc-1", store.ID())
	}
}

func TestStoreUndoRedo(t *testing.T) {
	store := NewStore(0)
	store.Set(1)
	store.Set(2)

	if !store.Undo() {
		t.Error("Undo() = false, want true")
	}
	if got := store.View().Present; got != 1 {
		t.Errorf("Present = %d, want 1", got)
	}
	if !store.Redo() {
		t.Error("Redo() = false, want true")
	}
	if store.Redo() {
		t.Error("Redo() at newest = true, want false")
	}
}

func TestStoreUndoAtBoundary(t *testing.T) {
	store := NewStore(0)
	before := store.State()

	if store.Undo() {
		t.Error("Undo() on fresh store = true, want false")
	}
	if after := store.State(); !sameState(before, after) {
		t.Error("Undo() on fresh store changed state")
	}
}

func TestStoreReset(t *testing.T) {
	store := NewStore("a")
	store.Set("b")
	store.Set("c")

	store.Reset()
	v := store.View()
	if v.Present != "a" || v.Len != 1 {
		t.Errorf("after Reset: %+v", v)
	}

	store.ResetTo("z")
	store.Set("y")
	store.Reset()
	if got := store.View().Present; got != "z" {
		t.Errorf("Reset after ResetTo = %q, want z", got)
	}
}

func TestStoreSubscribe(t *testing.T) {
	store := NewStore(0)

	var views []View[int]
	sub := store.Subscribe(func(v View[int]) {
		views = append(views, v)
	})

	store.Set(1)
	store.Set(2)
	store.Undo()
	store.Undo()
	store.Undo() // no-op, not published
	store.Redo()

	if len(views) != 5 {
		t.Fatalf("got %d views, want 5", len(views))
	}
	want := []int{1, 2, 1, 0, 1}
	for i, v := range views {
		if v.Present != want[i] {
			t.Errorf("view %d Present = %d, want %d", i, v.Present, want[i])
		}
	}
	if !slices.Equal(views[3].Future, []int{1, 2}) {
		t.Errorf("view 3 Future = %v, want [1 2]", views[3].Future)
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	store.Set(3)
	if len(views) != 5 {
		t.Errorf("observer called after Unsubscribe")
	}
}

func TestStoreSubscribeOrder(t *testing.T) {
	store := NewStore(0)

	var order []string
	store.Subscribe(func(View[int]) { order = append(order, "first") })
	mid := store.Subscribe(func(View[int]) { order = append(order, "middle") })
	store.Subscribe(func(View[int]) { order = append(order, "last") })

	mid.Unsubscribe()
	store.Set(1)

	if !slices.Equal(order, []string{"first", "last"}) {
		t.Errorf("order = %v, want [first last]", order)
	}
}

func TestStoreObserverCanTransition(t *testing.T) {
	store := NewStore(0)

	store.Subscribe(func(v View[int]) {
		if v.Present == 1 {
			store.Set(2)
		}
	})
	store.Set(1)

	if got := store.View().Present; got != 2 {
		t.Errorf("Present = %d, want 2", got)
	}
}

func TestStoreTransaction(t *testing.T) {
	store := NewStore(10)

	err := store.Transaction(func(present int) (int, error) {
		return present * 2, nil
	})
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}
	if v := store.View(); v.Present != 20 || v.Len != 2 {
		t.Errorf("after transaction: %+v", v)
	}

	errAbort := errors.New("abort")
	err = store.Transaction(func(present int) (int, error) {
		return 0, errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Errorf("expected errAbort, got %v", err)
	}
	if v := store.View(); v.Present != 20 || v.Len != 2 {
		t.Errorf("aborted transaction committed: %+v", v)
	}
}

func TestStoreConcurrentTransaction(t *testing.T) {
	store := NewStore(0)

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Transaction(func(present int) (int, error) {
				time.Sleep(time.Millisecond)
				return present + 1, nil
			})
		}()
	}
	wg.Wait()

	if v := store.View(); v.Present != n || v.Len != n+1 {
		t.Errorf("after %d increments: Present = %d, Len = %d", n, v.Present, v.Len)
	}
}

func TestStoreResetUsesLatestBaseline(t *testing.T) {
	store := NewStore("a")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.ResetTo("z")
		}()
		go func() {
			defer wg.Done()
			store.Reset()
		}()
	}
	wg.Wait()

	if got := store.View().Present; got != "z" {
		t.Errorf("Present after concurrent resets = %q, want z", got)
	}
	store.Set("x")
	store.Reset()
	if got := store.View().Present; got != "z" {
		t.Errorf("Reset after ResetTo = %q, want z", got)
	}
}

func TestStoreCheckpoint(t *testing.T) {
	store := NewStore("a")
	cp := store.CreateCheckpoint()
	store.Set("b")
	store.Set("c")

	if !store.RestoreCheckpoint(cp) {
		t.Error("RestoreCheckpoint() = false, want true")
	}
	if got := store.View().Present; got != "a" {
		t.Errorf("Present = %q, want a", got)
	}
	if store.RestoreCheckpoint(cp) {
		t.Error("RestoreCheckpoint() to current position = true, want false")
	}
}

func TestStoreReplace(t *testing.T) {
	store := NewStore(0)

	st, err := FromValues([]int{4, 5, 6}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Replace(st); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if v := store.View(); v.Present != 4 || !slices.Equal(v.Future, []int{5, 6}) {
		t.Errorf("after Replace: %+v", v)
	}

	if err := store.Replace(State[int]{}); !errors.Is(err, ErrInvariantViolation) {
		t.Errorf("Replace(zero) error = %v, want ErrInvariantViolation", err)
	}
}

func TestStoreLogsTransitions(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})

	store := NewStore(0, WithLogger(logger), WithID("s1"))
	store.Set(1)
	store.Undo()
	store.Undo()

	out := buf.String()
	for _, want := range []string{"op=set", "op=undo", "undo: no-op", "store=s1", "component=history"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestStoreConcurrentSet(t *testing.T) {
	store := NewStore(0)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			store.Set(v)
			store.Undo()
			store.Redo()
		}(i)
	}
	wg.Wait()

	st := store.State()
	if !st.Valid() {
		t.Fatal("store state invalid after concurrent use")
	}
	if st.Len() < 2 {
		t.Errorf("Len() = %d, want at least 2", st.Len())
	}
}
