package buffer

import (
	"github.com/dshills/textloom/internal/engine/clock"
	"github.com/dshills/textloom/internal/engine/digest"
	"github.com/dshills/textloom/internal/engine/opqueue"
	"github.com/dshills/textloom/internal/engine/rope"
)

// Buffer is one replica of a collaboratively edited document. Local
// edits are applied immediately and emitted as operations; remote
// operations are transformed against every concurrent edit applied
// since their version before taking effect, so all replicas that see
// the same set of operations converge on the same text.
//
// A Buffer is not safe for concurrent use. Snapshots taken from it are
// immutable and may be read from any goroutine.
type Buffer struct {
	clock    *clock.Clock
	content  rope.Rope
	version  clock.Version
	history  []appliedEdit
	applied  *opqueue.Queue[*EditOperation]
	deferred *opqueue.Queue[*EditOperation]
	digests  digest.Sequence
	sets     map[SetID]*SelectionSet
}

// New creates a buffer replica with the given initial text. The initial
// text is local state, not an operation; replicas of the same document
// must be created with the same initial text.
func New(replica clock.ReplicaID, text string) *Buffer {
	return &Buffer{
		clock:    clock.New(replica),
		content:  rope.FromString(text),
		version:  clock.NewVersion(),
		applied:  opqueue.New[*EditOperation](),
		deferred: opqueue.New[*EditOperation](),
		sets:     make(map[SetID]*SelectionSet),
	}
}

// Replica returns the replica ID this buffer stamps local edits with.
func (b *Buffer) Replica() clock.ReplicaID { return b.clock.Replica() }

// Text returns the full document text.
func (b *Buffer) Text() string { return b.content.String() }

// Len returns the document length in bytes.
func (b *Buffer) Len() int { return b.content.Len() }

// Version returns a copy of the buffer's version vector.
func (b *Buffer) Version() clock.Version { return b.version.Clone() }

// Snapshot returns an immutable view of the buffer at its current
// version. The snapshot stays valid across subsequent edits.
func (b *Buffer) Snapshot() Snapshot {
	return Snapshot{
		content: b.content,
		version: b.version.Clone(),
		history: b.history[:len(b.history):len(b.history)],
	}
}

// Edit replaces the text between start and end with text and returns
// the operations to broadcast to other replicas. A replacement is
// emitted as a delete followed by an insert; the insert's version
// includes the delete, so peers always apply them in order. Offsets
// are clamped to the document bounds.
func (b *Buffer) Edit(start, end int, text string) []*EditOperation {
	if start > end {
		start, end = end, start
	}
	n := b.content.Len()
	start = min(max(start, 0), n)
	end = min(max(end, 0), n)

	var ops []*EditOperation
	if end > start {
		op := &EditOperation{
			Timestamp: b.clock.Tick(),
			Version:   b.version.Clone(),
			Kind:      OpDelete,
			Offset:    start,
			Len:       end - start,
		}
		b.applyEdit(op, op.Offset, op.Len, "")
		ops = append(ops, op)
	}
	if text != "" {
		op := &EditOperation{
			Timestamp: b.clock.Tick(),
			Version:   b.version.Clone(),
			Kind:      OpInsert,
			Offset:    start,
			Len:       len(text),
			Text:      text,
		}
		b.applyEdit(op, op.Offset, len(text), op.Text)
		ops = append(ops, op)
	}
	return ops
}

// Integrate applies remote operations. Operations already seen are
// dropped; operations whose causal dependencies have not arrived yet
// are held back and retried automatically once the missing operations
// come in. Arrival order does not matter.
func (b *Buffer) Integrate(ops []*EditOperation) {
	var pending []*EditOperation
	for _, op := range ops {
		switch {
		case b.version.Observed(op.Timestamp):
			// Duplicate delivery.
		case b.version.ObservedAll(op.Version):
			b.applyRemote(op)
		default:
			pending = append(pending, op)
		}
	}
	if len(pending) > 0 {
		b.deferred.Insert(pending)
	}
	b.flushDeferred()
}

// DeferredLen returns the number of operations waiting on missing
// causal dependencies.
func (b *Buffer) DeferredLen() int { return b.deferred.Len() }

// applyRemote transforms op across every applied edit concurrent with
// it and applies the result.
func (b *Buffer) applyRemote(op *EditOperation) {
	offset, length, text := op.Offset, op.Len, op.Text
	for _, e := range b.history {
		if op.Version.Observed(e.timestamp) {
			continue
		}
		offset, length, text = transformOp(op.Kind, offset, length, text, op.Timestamp, e)
	}
	b.applyEdit(op, offset, length, text)
}

// applyEdit mutates the content with final coordinates, records the
// edit in the application history and the timestamp-ordered log, and
// folds the operation's hash into the digest sequence at its timestamp
// position.
func (b *Buffer) applyEdit(op *EditOperation, offset, length int, text string) {
	switch op.Kind {
	case OpInsert:
		if text != "" {
			b.content = b.content.Insert(offset, text)
		}
		b.history = append(b.history, appliedEdit{
			timestamp: op.Timestamp,
			kind:      OpInsert,
			offset:    offset,
			length:    len(text),
		})
	case OpDelete:
		if length > 0 {
			b.content = b.content.Delete(offset, offset+length)
		}
		b.history = append(b.history, appliedEdit{
			timestamp: op.Timestamp,
			kind:      OpDelete,
			offset:    offset,
			length:    length,
		})
	}
	b.clock.Observe(op.Timestamp)
	b.version.Observe(op.Timestamp)
	b.applied.Insert([]*EditOperation{op})

	idx := b.applied.IndexOf(op.Timestamp)
	b.digests.Splice(idx, idx, []digest.Digest{digest.Single(OperationHash(op.Timestamp))})
}

// flushDeferred retries deferred operations until a pass makes no
// progress. Applying one operation can unblock others, so the queue is
// drained and rescanned in rounds.
func (b *Buffer) flushDeferred() {
	for {
		if b.deferred.IsEmpty() {
			return
		}
		progressed := false
		var still []*EditOperation
		for _, op := range b.deferred.Drain().Ops() {
			switch {
			case b.version.Observed(op.Timestamp):
				progressed = true
			case b.version.ObservedAll(op.Version):
				b.applyRemote(op)
				progressed = true
			default:
				still = append(still, op)
			}
		}
		if len(still) > 0 {
			b.deferred.Insert(still)
		}
		if !progressed {
			return
		}
	}
}

// OperationCount returns the number of operations applied so far.
func (b *Buffer) OperationCount() int { return b.applied.Len() }

// Operations returns the applied operations with timestamp-order
// indexes in [start, end), for serving a peer's resync request.
func (b *Buffer) Operations(start, end int) []*EditOperation {
	return b.applied.OpsRange(start, end)
}

// Digest returns the combined digest of the applied operations with
// timestamp-order indexes in [start, end). Two replicas that applied
// the same operations return equal digests for equal ranges regardless
// of arrival order. Reports false when the range snaps to an empty
// span.
func (b *Buffer) Digest(start, end int) (digest.Digest, bool) {
	return b.digests.Digest(start, end)
}

// Digests returns the per-operation digest entries in timestamp order.
func (b *Buffer) Digests() []digest.Digest {
	return b.digests.Digests()
}

// SpliceDigests replaces the digest entries covering timestamp-order
// indexes [start, end) with replacements, typically to coalesce a
// settled prefix into one entry. Boundaries must align to entry
// boundaries. Coalesce only ranges no in-flight operation can still
// land inside: folding a new operation into a coalesced range panics.
func (b *Buffer) SpliceDigests(start, end int, replacements []digest.Digest) {
	b.digests.Splice(start, end, replacements)
}
