package history

// View is the read-only projection of a State handed to observers.
type View[T any] struct {
	Past    []T
	Present T
	Future  []T
	CanUndo bool
	CanRedo bool
	Cursor  int
	Len     int
}

// ViewOf projects s into a View. The slices share storage with s.
func ViewOf[T any](s State[T]) View[T] {
	return View[T]{
		Past:    s.Past(),
		Present: s.Present(),
		Future:  s.Future(),
		CanUndo: s.CanUndo(),
		CanRedo: s.CanRedo(),
		Cursor:  s.Cursor(),
		Len:     s.Len(),
	}
}
