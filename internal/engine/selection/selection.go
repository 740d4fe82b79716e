package selection

// Goal records what a vertical cursor motion is aiming for, so repeated
// line movements through short lines keep the intended column.
type Goal struct {
	Kind   GoalKind
	Column uint32
}

// GoalKind discriminates Goal values.
type GoalKind int

const (
	// GoalNone means the next motion derives its own goal.
	GoalNone GoalKind = iota

	// GoalColumn preserves a target column across line motions.
	GoalColumn
)

// Selection brackets a span between Start and End, with the cursor on
// the End side unless Reversed.
type Selection[T any] struct {
	ID       uint64
	Start    T
	End      T
	Reversed bool
	Goal     Goal
}

// Head returns the cursor side of the selection: Start when reversed,
// End otherwise.
func (s Selection[T]) Head() T {
	if s.Reversed {
		return s.Start
	}
	return s.End
}

// Tail returns the stationary side of the selection.
func (s Selection[T]) Tail() T {
	if s.Reversed {
		return s.End
	}
	return s.Start
}

// IsEmpty reports whether the selection is a bare cursor, using cmp to
// compare coordinates.
func (s Selection[T]) IsEmpty(cmp func(a, b T) int) bool {
	return cmp(s.Start, s.End) == 0
}

// SetHead moves the cursor side of the selection to head, keeping the
// tail fixed. Start, End, and Reversed are re-derived by comparing head
// against the tail: a head before the tail flips the selection to
// reversed, a head after it to forward.
func (s *Selection[T]) SetHead(head T, cmp func(a, b T) int) {
	if cmp(head, s.Tail()) < 0 {
		if !s.Reversed {
			s.End = s.Start
			s.Reversed = true
		}
		s.Start = head
	} else {
		if s.Reversed {
			s.Start = s.End
			s.Reversed = false
		}
		s.End = head
	}
}

// Collapse reduces the selection to a cursor at its head.
func (s *Selection[T]) Collapse() {
	if s.Reversed {
		s.End = s.Start
		s.Reversed = false
	} else {
		s.Start = s.End
	}
}

// Map converts the selection's coordinates with fn, preserving identity
// and direction.
func Map[T, U any](s Selection[T], fn func(T) U) Selection[U] {
	return Selection[U]{
		ID:       s.ID,
		Start:    fn(s.Start),
		End:      fn(s.End),
		Reversed: s.Reversed,
		Goal:     s.Goal,
	}
}

// State is the per-selection metadata a selection set stores alongside
// each anchor range.
type State struct {
	ID       uint64
	Reversed bool
	Goal     Goal
}
