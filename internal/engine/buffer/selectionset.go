package buffer

import (
	"errors"

	"github.com/dshills/textloom/internal/engine/clock"
	"github.com/dshills/textloom/internal/engine/rope"
	"github.com/dshills/textloom/internal/engine/selection"
)

// ErrUnknownSelectionSet is returned when a selection set ID does not
// name a live set on this buffer.
var ErrUnknownSelectionSet = errors.New("buffer: unknown selection set")

// SetID identifies a selection set. IDs are Lamport timestamps, so a
// set created on one replica never collides with one created on
// another.
type SetID clock.Lamport

// SelectionSet is a group of selections, typically one user's cursors.
// The spans live in an AnchorRangeMap keyed by per-selection state, so
// they track concurrent edits without rebasing; Selection values are
// reassembled from the ranges on query.
type SelectionSet struct {
	ID     SetID
	Active bool
	Ranges AnchorRangeMap[selection.State]
}

func selectionRanges(sels []selection.Selection[Anchor]) AnchorRangeMap[selection.State] {
	var m AnchorRangeMap[selection.State]
	for _, sel := range sels {
		m.Push(sel.Start, sel.End, selection.State{
			ID:       sel.ID,
			Reversed: sel.Reversed,
			Goal:     sel.Goal,
		})
	}
	return m
}

// AddSelectionSet registers a new selection set and returns its ID.
func (b *Buffer) AddSelectionSet(sels []selection.Selection[Anchor]) SetID {
	id := SetID(b.clock.Tick())
	b.sets[id] = &SelectionSet{
		ID:     id,
		Ranges: selectionRanges(sels),
	}
	return id
}

// ReplaceSelectionSet swaps the contents of an existing selection set.
func (b *Buffer) ReplaceSelectionSet(id SetID, sels []selection.Selection[Anchor]) error {
	set, ok := b.sets[id]
	if !ok {
		return ErrUnknownSelectionSet
	}
	set.Ranges = selectionRanges(sels)
	return nil
}

// RemoveSelectionSet deletes a selection set.
func (b *Buffer) RemoveSelectionSet(id SetID) error {
	if _, ok := b.sets[id]; !ok {
		return ErrUnknownSelectionSet
	}
	delete(b.sets, id)
	return nil
}

// SelectionSet returns the selections in a set in anchor coordinates.
func (b *Buffer) SelectionSet(id SetID) ([]selection.Selection[Anchor], error) {
	set, ok := b.sets[id]
	if !ok {
		return nil, ErrUnknownSelectionSet
	}
	entries := set.Ranges.Entries()
	out := make([]selection.Selection[Anchor], len(entries))
	for i, e := range entries {
		out[i] = selection.Selection[Anchor]{
			ID:       e.Value.ID,
			Start:    e.Start,
			End:      e.End,
			Reversed: e.Value.Reversed,
			Goal:     e.Value.Goal,
		}
	}
	return out, nil
}

// SelectionSetOffsets resolves a set's selections against the current
// text, returning them in offset coordinates.
func (b *Buffer) SelectionSetOffsets(id SetID) ([]selection.Selection[int], error) {
	set, ok := b.sets[id]
	if !ok {
		return nil, ErrUnknownSelectionSet
	}
	ranges := set.Ranges.OffsetRanges(b.Snapshot())
	out := make([]selection.Selection[int], len(ranges))
	for i, r := range ranges {
		out[i] = selection.Selection[int]{
			ID:       r.Value.ID,
			Start:    r.Start,
			End:      r.End,
			Reversed: r.Value.Reversed,
			Goal:     r.Value.Goal,
		}
	}
	return out, nil
}

// SelectionSetPoints resolves a set's selections against the current
// text, returning them in line/column coordinates.
func (b *Buffer) SelectionSetPoints(id SetID) ([]selection.Selection[rope.Point], error) {
	set, ok := b.sets[id]
	if !ok {
		return nil, ErrUnknownSelectionSet
	}
	ranges := set.Ranges.PointRanges(b.Snapshot())
	out := make([]selection.Selection[rope.Point], len(ranges))
	for i, r := range ranges {
		out[i] = selection.Selection[rope.Point]{
			ID:       r.Value.ID,
			Start:    r.Start,
			End:      r.End,
			Reversed: r.Value.Reversed,
			Goal:     r.Value.Goal,
		}
	}
	return out, nil
}

// SetSelectionSetActive toggles whether a set's selections should be
// rendered by observers. An inactive set keeps tracking edits.
func (b *Buffer) SetSelectionSetActive(id SetID, active bool) error {
	set, ok := b.sets[id]
	if !ok {
		return ErrUnknownSelectionSet
	}
	set.Active = active
	return nil
}

// SelectionSetActive reports whether a set is active.
func (b *Buffer) SelectionSetActive(id SetID) (bool, error) {
	set, ok := b.sets[id]
	if !ok {
		return false, ErrUnknownSelectionSet
	}
	return set.Active, nil
}

// SelectionSetIDs returns the IDs of all live selection sets.
func (b *Buffer) SelectionSetIDs() []SetID {
	ids := make([]SetID, 0, len(b.sets))
	for id := range b.sets {
		ids = append(ids, id)
	}
	return ids
}
