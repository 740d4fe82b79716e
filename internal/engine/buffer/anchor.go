package buffer

import (
	"github.com/dshills/textloom/internal/engine/clock"
	"github.com/dshills/textloom/internal/engine/rope"
)

// Bias controls which side of concurrently inserted text an anchor
// sticks to when the insertion lands exactly at the anchor's position.
type Bias int

const (
	// BiasLeft keeps the anchor before text inserted at its position.
	BiasLeft Bias = iota

	// BiasRight moves the anchor after text inserted at its position.
	BiasRight
)

// Anchor is a stable reference to a text position. Instead of a fixed
// offset, it captures the offset as of a version of the document; it is
// resolved against a current snapshot by walking every operation applied
// since, shifting across insertions and deletions with a deterministic
// bias tie-break. Anchors are immutable once created.
type Anchor struct {
	Version clock.Version
	Offset  int
	Bias    Bias
}

// OffsetRangeValue is an anchor range resolved to current offsets.
type OffsetRangeValue[V any] struct {
	Start, End int
	Value      V
}

// AnchorRangeEntry pairs an anchor range with a value.
type AnchorRangeEntry[V any] struct {
	Start, End Anchor
	Value      V
}

// AnchorRangeMap associates anchor ranges with values. Entries are
// resolved against a snapshot on query, so range boundaries shift with
// concurrent edits automatically and no rebasing happens on edit.
type AnchorRangeMap[V any] struct {
	entries []AnchorRangeEntry[V]
}

// Push appends an anchor range with its value.
func (m *AnchorRangeMap[V]) Push(start, end Anchor, value V) {
	m.entries = append(m.entries, AnchorRangeEntry[V]{Start: start, End: end, Value: value})
}

// Len returns the number of entries.
func (m *AnchorRangeMap[V]) Len() int {
	return len(m.entries)
}

// Entries returns the raw entries in insertion order.
func (m *AnchorRangeMap[V]) Entries() []AnchorRangeEntry[V] {
	return m.entries
}

// OffsetRanges resolves all entries to offset ranges against snap.
func (m *AnchorRangeMap[V]) OffsetRanges(snap Snapshot) []OffsetRangeValue[V] {
	out := make([]OffsetRangeValue[V], len(m.entries))
	for i, e := range m.entries {
		out[i] = OffsetRangeValue[V]{
			Start: snap.ResolveAnchor(e.Start),
			End:   snap.ResolveAnchor(e.End),
			Value: e.Value,
		}
	}
	return out
}

// PointRangeValue is an anchor range resolved to current points.
type PointRangeValue[V any] struct {
	Start, End rope.Point
	Value      V
}

// PointRanges resolves all entries to line/column ranges against snap.
func (m *AnchorRangeMap[V]) PointRanges(snap Snapshot) []PointRangeValue[V] {
	out := make([]PointRangeValue[V], len(m.entries))
	for i, e := range m.entries {
		out[i] = PointRangeValue[V]{
			Start: snap.ResolveAnchorPoint(e.Start),
			End:   snap.ResolveAnchorPoint(e.End),
			Value: e.Value,
		}
	}
	return out
}
