package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/textloom/internal/engine/buffer"
	"github.com/dshills/textloom/internal/engine/clock"
	"github.com/dshills/textloom/internal/engine/digest"
	"github.com/dshills/textloom/internal/engine/rope"
	"github.com/dshills/textloom/internal/engine/selection"
)

// Session is the thread-safe facade over one document replica. It
// serializes mutation with a single mutex; reads hand out persistent
// snapshots, so long-running readers never block editing.
type Session struct {
	mu sync.RWMutex

	docID  uuid.UUID
	buf    *buffer.Buffer
	outbox []*buffer.EditOperation
	log    *Logger

	// Configuration
	replica     clock.ReplicaID
	initContent string
	granularity int
	maxDeferred int
}

// New creates a session with the given options.
func New(opts ...Option) *Session {
	s := &Session{
		docID:       uuid.New(),
		log:         NopLogger(),
		granularity: DefaultReconcileGranularity,
		maxDeferred: DefaultMaxDeferredOps,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("doc", s.docID).WithField("replica", s.replica)
	s.buf = buffer.New(s.replica, s.initContent)
	return s
}

// ID returns the document identity.
func (s *Session) ID() uuid.UUID { return s.docID }

// Replica returns the replica ID local edits are stamped with.
func (s *Session) Replica() clock.ReplicaID { return s.replica }

// ============================================================================
// Read Operations
// ============================================================================

// Text returns the full document text.
func (s *Session) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.Text()
}

// Len returns the document length in bytes.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.Len()
}

// Version returns a copy of the replica's version vector.
func (s *Session) Version() clock.Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.Version()
}

// Snapshot returns an immutable view of the document. The snapshot
// stays valid while the session keeps editing.
func (s *Session) Snapshot() buffer.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.Snapshot()
}

// OffsetToPoint converts a byte offset to a line/column position.
func (s *Session) OffsetToPoint(offset int) rope.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.Snapshot().OffsetToPoint(offset)
}

// ============================================================================
// Edit Operations
// ============================================================================

// Edit replaces the text between start and end with text. The emitted
// operations are queued in the outbox for Drain.
func (s *Session) Edit(start, end int, text string) []*buffer.EditOperation {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops := s.buf.Edit(start, end, text)
	s.outbox = append(s.outbox, ops...)
	for _, op := range ops {
		s.log.Debug("local edit %s", op)
	}
	return ops
}

// Apply integrates remote operations. Duplicates are dropped and
// causally unready operations are held until their dependencies arrive;
// arrival order does not matter.
func (s *Session) Apply(ops []*buffer.EditOperation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.Integrate(ops)
	if n := s.buf.DeferredLen(); n > 0 {
		s.log.Debug("%d ops deferred on missing dependencies", n)
		if n > s.maxDeferred {
			s.log.Warn("deferred queue depth %d exceeds %d; replica may need reconciliation", n, s.maxDeferred)
		}
	}
}

// Drain returns the operations queued since the last call, oldest
// first, and empties the outbox. The caller owns broadcasting them.
func (s *Session) Drain() []*buffer.EditOperation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.outbox
	s.outbox = nil
	return out
}

// ============================================================================
// History and Digests
// ============================================================================

// OperationCount returns the number of operations applied so far.
func (s *Session) OperationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.OperationCount()
}

// Operations returns applied operations by timestamp-order index, for
// serving a peer's resync request.
func (s *Session) Operations(start, end int) []*buffer.EditOperation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.Operations(start, end)
}

// Digest returns the combined digest of the applied operations with
// timestamp-order indexes in [start, end).
func (s *Session) Digest(start, end int) (digest.Digest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.Digest(start, end)
}

// DeferredLen returns the number of operations waiting on missing
// causal dependencies.
func (s *Session) DeferredLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.DeferredLen()
}

// ============================================================================
// Selection Sets
// ============================================================================

// AddSelectionSet registers a selection set and returns its ID.
func (s *Session) AddSelectionSet(sels []selection.Selection[buffer.Anchor]) buffer.SetID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.AddSelectionSet(sels)
}

// ReplaceSelectionSet swaps the contents of an existing selection set.
func (s *Session) ReplaceSelectionSet(id buffer.SetID, sels []selection.Selection[buffer.Anchor]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.ReplaceSelectionSet(id, sels)
}

// RemoveSelectionSet deletes a selection set.
func (s *Session) RemoveSelectionSet(id buffer.SetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.RemoveSelectionSet(id)
}

// SetSelectionSetActive toggles whether a set's selections should be
// rendered by observers.
func (s *Session) SetSelectionSetActive(id buffer.SetID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.SetSelectionSetActive(id, active)
}

// SelectionSet returns the selections in a set in anchor coordinates.
func (s *Session) SelectionSet(id buffer.SetID) ([]selection.Selection[buffer.Anchor], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.SelectionSet(id)
}

// SelectionSetOffsets resolves a set's selections against the current
// text, returning them in offset coordinates.
func (s *Session) SelectionSetOffsets(id buffer.SetID) ([]selection.Selection[int], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.SelectionSetOffsets(id)
}
