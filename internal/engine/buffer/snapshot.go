package buffer

import (
	"github.com/dshills/textloom/internal/engine/clock"
	"github.com/dshills/textloom/internal/engine/rope"
	"github.com/dshills/textloom/internal/engine/selection"
)

// Snapshot is an immutable view of a buffer at a version. Because the
// underlying rope is persistent, taking a snapshot is O(1) and the
// snapshot stays valid while the buffer keeps editing. Anchors created
// against any version resolve correctly against any later snapshot.
type Snapshot struct {
	content rope.Rope
	version clock.Version
	history []appliedEdit
}

// Text returns the full document text.
func (s Snapshot) Text() string { return s.content.String() }

// TextRange returns the text between two byte offsets.
func (s Snapshot) TextRange(start, end int) string {
	return s.content.Slice(start, end).String()
}

// Len returns the document length in bytes.
func (s Snapshot) Len() int { return s.content.Len() }

// LineCount returns the number of lines in the document.
func (s Snapshot) LineCount() uint32 { return s.content.LineCount() }

// Version returns the version vector the snapshot was taken at.
func (s Snapshot) Version() clock.Version { return s.version.Clone() }

// OffsetToPoint converts a byte offset to a line/column position.
func (s Snapshot) OffsetToPoint(offset int) rope.Point {
	return s.content.OffsetToPoint(offset)
}

// PointToOffset converts a line/column position to a byte offset.
func (s Snapshot) PointToOffset(p rope.Point) int {
	return s.content.PointToOffset(p)
}

// AnchorAt returns an anchor at the given offset with the given bias,
// valid at this snapshot's version. The offset is clamped to the
// document bounds.
func (s Snapshot) AnchorAt(offset int, bias Bias) Anchor {
	if offset < 0 {
		offset = 0
	}
	if n := s.content.Len(); offset > n {
		offset = n
	}
	return Anchor{Version: s.version.Clone(), Offset: offset, Bias: bias}
}

// AnchorBefore returns a left-biased anchor at offset. Text inserted
// exactly at the anchor lands after it.
func (s Snapshot) AnchorBefore(offset int) Anchor {
	return s.AnchorAt(offset, BiasLeft)
}

// AnchorAfter returns a right-biased anchor at offset. Text inserted
// exactly at the anchor lands before it.
func (s Snapshot) AnchorAfter(offset int) Anchor {
	return s.AnchorAt(offset, BiasRight)
}

// ResolveAnchor maps an anchor to its current byte offset by
// transforming it across every edit applied since the anchor's version.
func (s Snapshot) ResolveAnchor(a Anchor) int {
	pos := a.Offset
	for _, e := range s.history {
		if a.Version.Observed(e.timestamp) {
			continue
		}
		pos = transformAnchorPos(pos, a.Bias, e)
	}
	if pos < 0 {
		pos = 0
	}
	if n := s.content.Len(); pos > n {
		pos = n
	}
	return pos
}

// CompareAnchors orders two anchors by their current resolved offsets.
// The result is only meaningful against this snapshot; concurrent edits
// can reorder anchors between snapshots.
func (s Snapshot) CompareAnchors(a, b Anchor) int {
	pa, pb := s.ResolveAnchor(a), s.ResolveAnchor(b)
	switch {
	case pa < pb:
		return -1
	case pa > pb:
		return 1
	default:
		return 0
	}
}

// ResolveAnchorPoint maps an anchor to its current line/column position.
func (s Snapshot) ResolveAnchorPoint(a Anchor) rope.Point {
	return s.content.OffsetToPoint(s.ResolveAnchor(a))
}

// OffsetRange resolves an anchor selection to byte offsets, head first
// when the selection is reversed. Callers that need an ordered range
// should order the pair themselves.
func (s Snapshot) OffsetRange(sel selection.Selection[Anchor]) (int, int) {
	start := s.ResolveAnchor(sel.Start)
	end := s.ResolveAnchor(sel.End)
	if sel.Reversed {
		return end, start
	}
	return start, end
}

// PointRange resolves an anchor selection to line/column positions,
// head first when the selection is reversed.
func (s Snapshot) PointRange(sel selection.Selection[Anchor]) (rope.Point, rope.Point) {
	start, end := s.OffsetRange(sel)
	return s.content.OffsetToPoint(start), s.content.OffsetToPoint(end)
}
