package buffer

import "github.com/dshills/textloom/internal/engine/clock"

// appliedEdit records one applied operation in application order: its
// timestamp plus the final coordinates it was applied with. The history
// of applied edits is what remote operations and anchors are transformed
// across.
type appliedEdit struct {
	timestamp clock.Lamport
	kind      OpKind
	offset    int
	length    int // bytes inserted or deleted
}

func (e appliedEdit) end() int {
	if e.kind == OpDelete {
		return e.offset + e.length
	}
	return e.offset
}

// transformOp rewrites a remote operation's coordinates across one
// concurrently applied edit. Ties between inserts at the same position
// are broken by Lamport order: the earlier operation's text ends up
// first on every replica. An insert landing strictly inside a concurrent
// delete collapses to nothing, and a delete range grows over text
// concurrently inserted strictly inside it, so both replicas settle on
// the same result.
func transformOp(kind OpKind, offset, length int, text string, ts clock.Lamport, e appliedEdit) (int, int, string) {
	switch e.kind {
	case OpInsert:
		if e.length == 0 {
			return offset, length, text
		}
		if kind == OpInsert {
			if offset > e.offset || (offset == e.offset && e.timestamp.Before(ts)) {
				offset += e.length
			}
			return offset, length, text
		}
		// Delete vs. concurrent insert.
		switch {
		case e.offset <= offset:
			offset += e.length
		case e.offset >= offset+length:
			// Insert past the range; nothing to do.
		default:
			// Insert strictly inside the range: the delete grows over it.
			length += e.length
		}
		return offset, length, text

	case OpDelete:
		if e.length == 0 {
			return offset, length, text
		}
		eStart, eEnd := e.offset, e.offset+e.length
		if kind == OpInsert {
			switch {
			case offset <= eStart:
				// Keep.
			case offset >= eEnd:
				offset -= e.length
			default:
				// Insert target was concurrently deleted; the insert
				// collapses to nothing.
				offset = eStart
				text = ""
			}
			return offset, length, text
		}
		// Delete vs. concurrent delete: subtract the overlap.
		start := transformPosAcrossDelete(offset, eStart, eEnd)
		end := transformPosAcrossDelete(offset+length, eStart, eEnd)
		return start, end - start, text

	default:
		return offset, length, text
	}
}

func transformPosAcrossDelete(pos, eStart, eEnd int) int {
	switch {
	case pos <= eStart:
		return pos
	case pos >= eEnd:
		return pos - (eEnd - eStart)
	default:
		return eStart
	}
}

// transformAnchorPos shifts an anchor's offset across one applied edit.
// At an insertion point, a left-biased anchor stays before the new text
// and a right-biased anchor moves after it. Positions inside a deleted
// range collapse to its start.
func transformAnchorPos(pos int, bias Bias, e appliedEdit) int {
	if e.length == 0 {
		return pos
	}
	if e.kind == OpInsert {
		if pos > e.offset || (pos == e.offset && bias == BiasRight) {
			return pos + e.length
		}
		return pos
	}
	return transformPosAcrossDelete(pos, e.offset, e.offset+e.length)
}
