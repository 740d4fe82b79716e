package digest

import (
	"fmt"

	"github.com/dshills/textloom/internal/engine/sumtree"
)

// Digest summarizes a contiguous run of applied operations: how many
// operations it covers and their combined order-sensitive hash.
// An empty digest is represented by absence, never by a zero value.
type Digest struct {
	Count int
	Hash  HashMatrix
}

// New creates a digest covering count operations. Panics if count is not
// positive: a zero-count digest indicates a bug in the caller, and
// carrying it forward would corrupt divergence detection.
func New(count int, hash HashMatrix) Digest {
	if count <= 0 {
		panic(fmt.Sprintf("digest: count must be positive, got %d", count))
	}
	return Digest{Count: count, Hash: hash}
}

// Single creates a digest covering one operation.
func Single(hash HashMatrix) Digest {
	return New(1, hash)
}

// Combine appends other to d: the counts add and the hashes multiply in
// order.
func (d Digest) Combine(other Digest) Digest {
	return Digest{Count: d.Count + other.Count, Hash: d.Hash.Mul(other.Hash)}
}

// Summary aggregates a subtree of digests. The zero value (count 0)
// only arises as the identity for empty subtrees.
type Summary struct {
	Count int
	Hash  HashMatrix
}

// Add combines summaries left to right, multiplying hashes in order.
func (s Summary) Add(other Summary) Summary {
	if s.Count == 0 {
		return other
	}
	if other.Count == 0 {
		return s
	}
	return Summary{Count: s.Count + other.Count, Hash: s.Hash.Mul(other.Hash)}
}

// item adapts a Digest to the sum tree.
type item struct {
	d Digest
}

func (it item) Summary() Summary {
	return Summary{Count: it.d.Count, Hash: it.d.Hash}
}

// countDim seeks by cumulative operation count.
type countDim struct{}

func (countDim) Zero() int              { return 0 }
func (countDim) Add(d int, s Summary) int { return d + s.Count }
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

// Sequence is an ordered sequence of digests indexed by cumulative
// operation count. The zero value is an empty sequence.
//
// Range boundaries passed to Digest and Splice are expressed in
// operation counts. Out-of-range boundaries are clamped to the current
// bounds rather than rejected, favoring availability when a peer's view
// of the log races local growth.
type Sequence struct {
	tree sumtree.Tree[item, Summary]
}

// Count returns the total number of operations covered.
func (s *Sequence) Count() int {
	return s.tree.Summary().Count
}

// Len returns the number of digest entries.
func (s *Sequence) Len() int {
	n := 0
	s.tree.Each(func(item) bool {
		n++
		return true
	})
	return n
}

// Append adds a digest covering the operations after all current ones.
func (s *Sequence) Append(d Digest) {
	if d.Count <= 0 {
		panic(fmt.Sprintf("digest: append of non-positive count %d", d.Count))
	}
	s.tree.Push(item{d: d})
}

// Digests returns all entries in order. Intended for tests and resync
// snapshots.
func (s *Sequence) Digests() []Digest {
	out := make([]Digest, 0, s.Len())
	s.tree.Each(func(it item) bool {
		out = append(out, it.d)
		return true
	})
	return out
}

// clamp clips a range to the sequence's current bounds.
func (s *Sequence) clamp(start, end int) (int, int) {
	total := s.Count()
	if start < 0 {
		start = 0
	}
	if end > total {
		end = total
	}
	if end < start {
		end = start
	}
	return start, end
}

// Digest combines the entries covering [start, end) into one digest.
// Boundaries that fall inside an entry snap left to the entry boundary,
// so for any a <= b <= c, Digest(a, b) combined with Digest(b, c) equals
// Digest(a, c). Returns false when the clipped range covers no entries.
func (s *Sequence) Digest(start, end int) (Digest, bool) {
	start, end = s.clamp(start, end)
	if start >= end {
		return Digest{}, false
	}

	cur := sumtree.NewCursor(s.tree, countDim{})
	cur.Seek(start, sumtree.Right)

	var combined Summary
	for {
		it, ok := cur.Item()
		if !ok || cur.End() > end {
			break
		}
		combined = combined.Add(it.Summary())
		cur.Next()
	}
	if combined.Count == 0 {
		return Digest{}, false
	}
	return Digest{Count: combined.Count, Hash: combined.Hash}, true
}

// Splice replaces the entries covering [start, end) with replacements.
// Both boundaries must align to existing entry boundaries; a misaligned
// splice is a protocol bug and panics. Out-of-range boundaries are
// clamped first.
func (s *Sequence) Splice(start, end int, replacements []Digest) {
	start, end = s.clamp(start, end)

	cur := sumtree.NewCursor(s.tree, countDim{})
	prefix := cur.Slice(start, sumtree.Right)
	if got := sumtree.Extent(prefix, countDim{}); got != start {
		panic(fmt.Sprintf("digest: splice start %d not aligned to entry boundary (nearest %d)", start, got))
	}

	// Drop the entries being replaced.
	cur.Slice(end, sumtree.Right)
	if got := cur.Start(); got != end {
		panic(fmt.Sprintf("digest: splice end %d not aligned to entry boundary (nearest %d)", end, got))
	}

	for _, d := range replacements {
		if d.Count <= 0 {
			panic(fmt.Sprintf("digest: splice with non-positive count %d", d.Count))
		}
		prefix.Push(item{d: d})
	}
	prefix.Append(cur.Suffix())
	s.tree = prefix
}
