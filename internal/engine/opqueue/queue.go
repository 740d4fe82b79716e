package opqueue

import (
	"fmt"
	"sort"

	"github.com/dshills/textloom/internal/engine/clock"
	"github.com/dshills/textloom/internal/engine/sumtree"
)

// Operation is a single immutable edit unit, identified by the Lamport
// timestamp assigned at creation.
type Operation interface {
	ID() clock.Lamport
}

// Key wraps the timestamp an operation sorts by.
type Key struct {
	Timestamp clock.Lamport
}

// Compare orders keys by their timestamps.
func (k Key) Compare(other Key) int {
	return k.Timestamp.Compare(other.Timestamp)
}

// Summary aggregates a subtree of operations: the maximum timestamp and
// the operation count.
type Summary struct {
	Key Key
	Len int
}

// Add combines two summaries. Operations are stored in strictly
// increasing timestamp order; combining out-of-order summaries means the
// Lamport clock or the dedup logic is broken, so it panics rather than
// continuing with a corrupt log.
func (s Summary) Add(other Summary) Summary {
	if s.Len == 0 {
		return other
	}
	if other.Len == 0 {
		return s
	}
	if s.Key.Compare(other.Key) >= 0 {
		panic(fmt.Sprintf("opqueue: summary keys out of order: %v >= %v",
			s.Key.Timestamp, other.Key.Timestamp))
	}
	return Summary{Key: other.Key, Len: s.Len + other.Len}
}

// item adapts an operation to the sum tree.
type item[T Operation] struct {
	op T
}

func (it item[T]) Summary() Summary {
	return Summary{Key: Key{Timestamp: it.op.ID()}, Len: 1}
}

// keyDim seeks by operation key.
type keyDim struct{}

func (keyDim) Zero() Key { return Key{} }

func (keyDim) Add(d Key, s Summary) Key {
	if s.Len == 0 {
		return d
	}
	return s.Key
}

func (keyDim) Compare(a, b Key) int { return a.Compare(b) }

// keyCount pairs the key coordinate with the operation count before it,
// so a single seek yields an operation's index in timestamp order.
type keyCount struct {
	Key Key
	Len int
}

type keyCountDim struct{}

func (keyCountDim) Zero() keyCount { return keyCount{} }

func (keyCountDim) Add(d keyCount, s Summary) keyCount {
	if s.Len == 0 {
		return d
	}
	return keyCount{Key: s.Key, Len: d.Len + s.Len}
}

func (keyCountDim) Compare(a, b keyCount) int { return a.Key.Compare(b.Key) }

// countDim seeks by operation index.
type countDim struct{}

func (countDim) Zero() int { return 0 }

func (countDim) Add(d int, s Summary) int { return d + s.Len }

func (countDim) Compare(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Queue is a timestamp-ordered collection of pending operations.
// The zero value is an empty queue.
type Queue[T Operation] struct {
	tree sumtree.Tree[item[T], Summary]
}

// New returns an empty queue.
func New[T Operation]() *Queue[T] {
	return &Queue[T]{}
}

// Len returns the number of queued operations in O(1).
func (q *Queue[T]) Len() int {
	return q.tree.Summary().Len
}

// IsEmpty reports whether the queue holds no operations.
func (q *Queue[T]) IsEmpty() bool {
	return q.Len() == 0
}

// Insert merges operations into the queue in timestamp order. The batch
// is sorted and deduplicated first, then spliced in with one pass over
// the tree. Operations whose timestamps are already present are dropped.
func (q *Queue[T]) Insert(ops []T) {
	if len(ops) == 0 {
		return
	}

	sorted := make([]T, len(ops))
	copy(sorted, ops)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID().Before(sorted[j].ID())
	})

	cur := sumtree.NewCursor(q.tree, keyDim{})
	var merged sumtree.Tree[item[T], Summary]
	var prev clock.Lamport
	for i, op := range sorted {
		id := op.ID()
		if i > 0 && id == prev {
			continue
		}
		prev = id

		key := Key{Timestamp: id}
		merged.Append(cur.Slice(key, sumtree.Left))
		if existing, ok := cur.Item(); ok && existing.op.ID() == id {
			// Already seen this timestamp; re-insertion is a no-op.
			continue
		}
		merged.Push(item[T]{op: op})
	}
	merged.Append(cur.Suffix())
	q.tree = merged
}

// Drain atomically removes and returns all queued operations as a new
// queue, leaving this queue empty.
func (q *Queue[T]) Drain() *Queue[T] {
	drained := &Queue[T]{tree: q.tree}
	q.tree = sumtree.Tree[item[T], Summary]{}
	return drained
}

// First returns the operation with the smallest timestamp, if any.
func (q *Queue[T]) First() (T, bool) {
	first, ok := q.tree.First()
	return first.op, ok
}

// Ops returns all queued operations in timestamp order.
func (q *Queue[T]) Ops() []T {
	out := make([]T, 0, q.Len())
	q.tree.Each(func(it item[T]) bool {
		out = append(out, it.op)
		return true
	})
	return out
}

// IndexOf returns the number of queued operations with timestamps
// strictly before ts: the position ts occupies (or would occupy) in the
// queue's timestamp order.
func (q *Queue[T]) IndexOf(ts clock.Lamport) int {
	cur := sumtree.NewCursor(q.tree, keyCountDim{})
	cur.Seek(keyCount{Key: Key{Timestamp: ts}}, sumtree.Left)
	return cur.Start().Len
}

// OpsRange returns the operations at timestamp-order indices [start, end),
// clamped to the queue's bounds.
func (q *Queue[T]) OpsRange(start, end int) []T {
	if start < 0 {
		start = 0
	}
	if n := q.Len(); end > n {
		end = n
	}
	if start >= end {
		return nil
	}

	cur := sumtree.NewCursor(q.tree, countDim{})
	cur.Seek(start, sumtree.Right)
	out := make([]T, 0, end-start)
	for {
		it, ok := cur.Item()
		if !ok || cur.Start() >= end {
			break
		}
		out = append(out, it.op)
		cur.Next()
	}
	return out
}

// Cursor returns a read-only cursor over the queue in timestamp order.
// The cursor keeps reading the queue's current contents even if the
// queue is mutated afterward.
func (q *Queue[T]) Cursor() *Cursor[T] {
	return &Cursor[T]{inner: sumtree.NewCursor(q.tree, keyDim{})}
}

// Cursor iterates operations in causal (timestamp) order.
type Cursor[T Operation] struct {
	inner *sumtree.Cursor[item[T], Summary, Key]
}

// Op returns the operation at the cursor, or false when exhausted.
func (c *Cursor[T]) Op() (T, bool) {
	it, ok := c.inner.Item()
	return it.op, ok
}

// Next advances past the current operation.
func (c *Cursor[T]) Next() {
	c.inner.Next()
}
