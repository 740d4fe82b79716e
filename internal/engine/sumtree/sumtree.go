package sumtree

// Tree fanout constants.
const (
	// MaxChildren is the maximum children per internal node before splitting.
	MaxChildren = 8

	// MaxItemsPerLeaf is the maximum items stored in a leaf node.
	MaxItemsPerLeaf = 8
)

// Summary is a monoid aggregated over the items of a subtree.
// The zero value of an implementation must act as the identity of Add.
type Summary[S any] interface {
	// Add combines two summaries. Combination is associative but not
	// necessarily commutative; the tree always combines left to right.
	Add(other S) S
}

// Item is an element stored in the tree.
type Item[S Summary[S]] interface {
	// Summary returns the item's contribution to subtree aggregates.
	Summary() S
}

// Dimension projects summaries onto a coordinate cursors can seek in.
// Implementations are stateless values.
type Dimension[S Summary[S], D any] interface {
	// Zero returns the coordinate of the start of the tree.
	Zero() D

	// Add extends a coordinate by a summary's worth of items.
	Add(d D, s S) D

	// Compare orders two coordinates; returns -1, 0, or 1.
	Compare(a, b D) int
}

// Bias disambiguates positions that fall exactly on an item boundary.
type Bias int

const (
	// Left stops before items whose end equals the target.
	Left Bias = iota

	// Right passes items whose end equals the target.
	Right
)

// Tree is an immutable order-statistics B-tree. The zero value is an
// empty tree. Tree values are cheap to copy; copies share structure, and
// mutating methods replace the root rather than editing shared nodes.
type Tree[I Item[S], S Summary[S]] struct {
	root *node[I, S]
}

// node is either a leaf (height 0, holds items) or an internal node
// (holds children). Nodes are never mutated once linked into a tree.
type node[I Item[S], S Summary[S]] struct {
	height         uint8
	summary        S
	children       []*node[I, S]
	childSummaries []S
	items          []I
	itemSummaries  []S
}

func newLeaf[I Item[S], S Summary[S]](items []I) *node[I, S] {
	n := &node[I, S]{items: items, itemSummaries: make([]S, len(items))}
	var sum S
	for i, item := range items {
		n.itemSummaries[i] = item.Summary()
		sum = sum.Add(n.itemSummaries[i])
	}
	n.summary = sum
	return n
}

func newInternal[I Item[S], S Summary[S]](children []*node[I, S]) *node[I, S] {
	n := &node[I, S]{
		height:         children[0].height + 1,
		children:       children,
		childSummaries: make([]S, len(children)),
	}
	var sum S
	for i, child := range children {
		n.childSummaries[i] = child.summary
		sum = sum.Add(child.summary)
	}
	n.summary = sum
	return n
}

func (n *node[I, S]) isLeaf() bool {
	return n.height == 0
}

// itemCount returns the number of items in the subtree. Only used by
// tests and diagnostics; clients track counts through their summaries.
func (n *node[I, S]) itemCount() int {
	if n == nil {
		return 0
	}
	if n.isLeaf() {
		return len(n.items)
	}
	total := 0
	for _, child := range n.children {
		total += child.itemCount()
	}
	return total
}

// New returns an empty tree.
func New[I Item[S], S Summary[S]]() Tree[I, S] {
	return Tree[I, S]{}
}

// FromItems builds a balanced tree from items in order.
func FromItems[I Item[S], S Summary[S]](items []I) Tree[I, S] {
	if len(items) == 0 {
		return Tree[I, S]{}
	}

	var leaves []*node[I, S]
	for start := 0; start < len(items); start += MaxItemsPerLeaf {
		end := min(start+MaxItemsPerLeaf, len(items))
		leaf := make([]I, end-start)
		copy(leaf, items[start:end])
		leaves = append(leaves, newLeaf[I, S](leaf))
	}
	return Tree[I, S]{root: buildFromNodes(leaves)}
}

// buildFromNodes stacks same-height nodes into a balanced tree.
func buildFromNodes[I Item[S], S Summary[S]](nodes []*node[I, S]) *node[I, S] {
	if len(nodes) == 0 {
		return nil
	}
	for len(nodes) > 1 {
		var parents []*node[I, S]
		for start := 0; start < len(nodes); start += MaxChildren {
			end := min(start+MaxChildren, len(nodes))
			parents = append(parents, newInternal(nodes[start:end:end]))
		}
		nodes = parents
	}
	return nodes[0]
}

// IsEmpty reports whether the tree holds no items.
func (t Tree[I, S]) IsEmpty() bool {
	return t.root == nil || (t.root.isLeaf() && len(t.root.items) == 0)
}

// Summary returns the combined summary of all items, or the zero summary
// for an empty tree.
func (t Tree[I, S]) Summary() S {
	if t.root == nil {
		var zero S
		return zero
	}
	return t.root.summary
}

// Extent returns the tree's total size in the given dimension.
func Extent[I Item[S], S Summary[S], D any](t Tree[I, S], dim Dimension[S, D]) D {
	if t.root == nil {
		return dim.Zero()
	}
	return dim.Add(dim.Zero(), t.root.summary)
}

// First returns the first item, if any.
func (t Tree[I, S]) First() (I, bool) {
	n := t.root
	if n == nil {
		var zero I
		return zero, false
	}
	for !n.isLeaf() {
		n = n.children[0]
	}
	if len(n.items) == 0 {
		var zero I
		return zero, false
	}
	return n.items[0], true
}

// Last returns the last item, if any.
func (t Tree[I, S]) Last() (I, bool) {
	n := t.root
	if n == nil {
		var zero I
		return zero, false
	}
	for !n.isLeaf() {
		n = n.children[len(n.children)-1]
	}
	if len(n.items) == 0 {
		var zero I
		return zero, false
	}
	return n.items[len(n.items)-1], true
}

// Each visits items in order until fn returns false.
func (t Tree[I, S]) Each(fn func(I) bool) {
	if t.root != nil {
		t.root.each(fn)
	}
}

func (n *node[I, S]) each(fn func(I) bool) bool {
	if n.isLeaf() {
		for _, item := range n.items {
			if !fn(item) {
				return false
			}
		}
		return true
	}
	for _, child := range n.children {
		if !child.each(fn) {
			return false
		}
	}
	return true
}

// Items returns all items in order. Intended for small trees and tests.
func (t Tree[I, S]) Items() []I {
	var out []I
	t.Each(func(item I) bool {
		out = append(out, item)
		return true
	})
	return out
}

// Push appends a single item, installing a new root.
func (t *Tree[I, S]) Push(item I) {
	t.Append(Tree[I, S]{root: newLeaf[I, S]([]I{item})})
}

// Append concatenates another tree onto the end of this one. Subtrees of
// both inputs are reused, never copied item by item.
func (t *Tree[I, S]) Append(other Tree[I, S]) {
	if other.IsEmpty() {
		return
	}
	if t.IsEmpty() {
		t.root = other.root
		return
	}
	t.root = concat(t.root, other.root)
}

// concat joins two subtrees, equalizing heights and splitting overfull
// levels on the way back up.
func concat[I Item[S], S Summary[S]](left, right *node[I, S]) *node[I, S] {
	if left.isLeaf() && right.isLeaf() {
		return concatLeaves(left, right)
	}

	for left.height < right.height {
		left = newInternal([]*node[I, S]{left})
	}
	for right.height < left.height {
		right = newInternal([]*node[I, S]{right})
	}

	children := make([]*node[I, S], 0, len(left.children)+len(right.children))
	children = append(children, left.children...)
	children = append(children, right.children...)
	if len(children) <= MaxChildren {
		return newInternal(children)
	}

	var parents []*node[I, S]
	for start := 0; start < len(children); start += MaxChildren {
		end := min(start+MaxChildren, len(children))
		parents = append(parents, newInternal(children[start:end:end]))
	}
	return buildFromNodes(parents)
}

func concatLeaves[I Item[S], S Summary[S]](left, right *node[I, S]) *node[I, S] {
	total := len(left.items) + len(right.items)
	if total <= MaxItemsPerLeaf {
		items := make([]I, 0, total)
		items = append(items, left.items...)
		items = append(items, right.items...)
		return newLeaf[I, S](items)
	}
	return newInternal([]*node[I, S]{left, right})
}
