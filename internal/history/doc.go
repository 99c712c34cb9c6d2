// Package history provides linear undo/redo history for values of any type.
//
// A State records an ordered sequence of committed values and a cursor into
// it. Values before the cursor are the past, the value at the cursor is the
// present, and values after it are the future reachable through redo.
//
// # Transitions
//
// Every transition is a pure function from a State to a new State:
//
//	s := history.New(0)    // present=0
//	s = s.Set(1)           // past=[0] present=1
//	s = s.Set(2)           // past=[0 1] present=2
//	s = s.Undo()           // present=1 future=[2]
//	s = s.Set(9)           // past=[0 1] present=9, future [2] discarded
//
// Undo and Redo at a boundary return the state unchanged. Set discards any
// existing future before appending the new present. Reset starts over from a
// single value.
//
// # Snapshots
//
// States are values and never change once produced. Old snapshots remain
// valid after later transitions, and successive states share storage instead
// of copying the whole history. Slices returned by Past and Future must be
// treated as read-only. Values returns a copy.
//
// # Store
//
// Store is the mutable cell an application holds on to. It applies the pure
// transitions under a lock and publishes a View to subscribers after every
// transition that changed the state:
//
//	store := history.NewStore("draft")
//	sub := store.Subscribe(func(v history.View[string]) {
//	    render(v.Present, v.CanUndo, v.CanRedo)
//	})
//	defer sub.Unsubscribe()
//
//	store.Set("draft 2")
//	store.Undo()
//
// # Checkpoints
//
// A Checkpoint captures a cursor position so that several undo or redo steps
// can be taken at once with Restore.
package history
