package sumtree

// Cursor is a read-only positioned view over a tree, tracking its
// position in a chosen dimension. A cursor sits between items: Item
// returns the item immediately after the position, and Start/End bound
// that item in the cursor's dimension.
//
// Cursors hold the root they were created with; edits to the source tree
// after creation are not observed.
type Cursor[I Item[S], S Summary[S], D any] struct {
	root    *node[I, S]
	dim     Dimension[S, D]
	stack   []cursorEntry[I, S]
	pos     D
	didSeek bool
	atEnd   bool
}

type cursorEntry[I Item[S], S Summary[S]] struct {
	n   *node[I, S]
	idx int
}

// NewCursor returns a cursor over t positioned before the first item.
func NewCursor[I Item[S], S Summary[S], D any](t Tree[I, S], dim Dimension[S, D]) *Cursor[I, S, D] {
	return &Cursor[I, S, D]{root: t.root, dim: dim, pos: dim.Zero()}
}

// Reset returns the cursor to the start of the tree.
func (c *Cursor[I, S, D]) Reset() {
	c.stack = c.stack[:0]
	c.pos = c.dim.Zero()
	c.didSeek = false
	c.atEnd = false
}

// descendFirst pushes the path to the leftmost leaf of n.
func (c *Cursor[I, S, D]) descendFirst(n *node[I, S]) {
	for {
		c.stack = append(c.stack, cursorEntry[I, S]{n: n})
		if n.isLeaf() {
			return
		}
		n = n.children[0]
	}
}

// start positions the cursor on the first item without seeking.
func (c *Cursor[I, S, D]) start() {
	c.didSeek = true
	if c.root == nil {
		c.atEnd = true
		return
	}
	c.descendFirst(c.root)
	if leaf := &c.stack[len(c.stack)-1]; len(leaf.n.items) == 0 {
		c.atEnd = true
	}
}

// passes reports whether a span ending at end lies entirely before the
// target under the given bias.
func (c *Cursor[I, S, D]) passes(end, target D, bias Bias) bool {
	cmp := c.dim.Compare(end, target)
	return cmp < 0 || (cmp == 0 && bias == Right)
}

// Seek positions the cursor at the first item not wholly before target.
// With Left bias an item whose end equals target is kept in front of the
// cursor; with Right bias it is passed. Returns false if the cursor
// lands past the last item.
func (c *Cursor[I, S, D]) Seek(target D, bias Bias) bool {
	c.Reset()
	c.didSeek = true
	if c.root == nil {
		c.atEnd = true
		return false
	}

	n := c.root
	for {
		c.stack = append(c.stack, cursorEntry[I, S]{n: n})
		entry := &c.stack[len(c.stack)-1]
		if n.isLeaf() {
			for i, sum := range n.itemSummaries {
				end := c.dim.Add(c.pos, sum)
				if !c.passes(end, target, bias) {
					entry.idx = i
					return true
				}
				c.pos = end
			}
			entry.idx = len(n.items)
			c.ascend()
			return !c.atEnd
		}

		descended := false
		for i, sum := range n.childSummaries {
			end := c.dim.Add(c.pos, sum)
			if !c.passes(end, target, bias) {
				entry.idx = i
				n = n.children[i]
				descended = true
				break
			}
			c.pos = end
		}
		if !descended {
			// Target is at or past the end of this subtree.
			entry.idx = len(n.children)
			c.ascend()
			return !c.atEnd
		}
	}
}

// ascend pops exhausted levels and descends into the next sibling
// subtree, or marks the cursor as past the end.
func (c *Cursor[I, S, D]) ascend() {
	for len(c.stack) > 0 {
		entry := &c.stack[len(c.stack)-1]
		limit := len(entry.n.items)
		if !entry.n.isLeaf() {
			limit = len(entry.n.children)
		}
		if entry.idx < limit {
			if entry.n.isLeaf() {
				return
			}
			c.descendFirst(entry.n.children[entry.idx])
			// Adjust: descendFirst pushed the child path starting at idx 0.
			return
		}
		c.stack = c.stack[:len(c.stack)-1]
		if len(c.stack) > 0 {
			c.stack[len(c.stack)-1].idx++
		}
	}
	c.atEnd = true
}

// Item returns the item at the cursor, or false when past the end.
func (c *Cursor[I, S, D]) Item() (I, bool) {
	if !c.didSeek {
		c.start()
	}
	if c.atEnd {
		var zero I
		return zero, false
	}
	leaf := c.stack[len(c.stack)-1]
	return leaf.n.items[leaf.idx], true
}

// Start returns the cursor position: the combined dimension of all items
// before the cursor.
func (c *Cursor[I, S, D]) Start() D {
	if !c.didSeek {
		c.start()
	}
	return c.pos
}

// End returns the position just after the item at the cursor. Past the
// end it equals Start.
func (c *Cursor[I, S, D]) End() D {
	if !c.didSeek {
		c.start()
	}
	if c.atEnd {
		return c.pos
	}
	leaf := c.stack[len(c.stack)-1]
	return c.dim.Add(c.pos, leaf.n.itemSummaries[leaf.idx])
}

// Next advances the cursor past the current item.
func (c *Cursor[I, S, D]) Next() {
	if !c.didSeek {
		c.start()
	}
	if c.atEnd {
		return
	}
	leaf := &c.stack[len(c.stack)-1]
	c.pos = c.dim.Add(c.pos, leaf.n.itemSummaries[leaf.idx])
	leaf.idx++
	if leaf.idx < len(leaf.n.items) {
		return
	}
	c.stack = c.stack[:len(c.stack)-1]
	if len(c.stack) > 0 {
		c.stack[len(c.stack)-1].idx++
	}
	c.ascend()
}

// Slice removes nothing from the source tree; it returns a new tree
// holding every item from the cursor position up to target (exclusive
// under Left bias, inclusive of boundary items under Right bias) and
// advances the cursor to target. Whole subtrees are reused, so slicing
// costs O(log n) plus the items of at most two partial leaves.
func (c *Cursor[I, S, D]) Slice(target D, bias Bias) Tree[I, S] {
	return c.slice(&target, bias)
}

// Suffix returns a new tree holding every item from the cursor position
// to the end of the tree, leaving the cursor past the end.
func (c *Cursor[I, S, D]) Suffix() Tree[I, S] {
	return c.slice(nil, Right)
}

func (c *Cursor[I, S, D]) slice(target *D, bias Bias) Tree[I, S] {
	if !c.didSeek {
		c.start()
	}
	var out Tree[I, S]
	if c.atEnd {
		return out
	}

	within := func(end D) bool {
		if target == nil {
			return true
		}
		return c.passes(end, *target, bias)
	}

	for !c.atEnd {
		entry := &c.stack[len(c.stack)-1]
		if entry.n.isLeaf() {
			// Consume items one at a time within the partial leaf.
			var pending []I
			for entry.idx < len(entry.n.items) {
				end := c.dim.Add(c.pos, entry.n.itemSummaries[entry.idx])
				if !within(end) {
					if len(pending) > 0 {
						out.Append(Tree[I, S]{root: newLeaf[I, S](pending)})
					}
					return out
				}
				pending = append(pending, entry.n.items[entry.idx])
				c.pos = end
				entry.idx++
			}
			if len(pending) > 0 {
				out.Append(Tree[I, S]{root: newLeaf[I, S](pending)})
			}
			c.stack = c.stack[:len(c.stack)-1]
			if len(c.stack) > 0 {
				c.stack[len(c.stack)-1].idx++
			} else {
				c.atEnd = true
				return out
			}
			continue
		}

		// Internal level: graft whole child subtrees that fit, descend
		// into the first child that crosses the target.
		advanced := false
		for entry.idx < len(entry.n.children) {
			end := c.dim.Add(c.pos, entry.n.childSummaries[entry.idx])
			if !within(end) {
				c.descendFirst(entry.n.children[entry.idx])
				advanced = true
				break
			}
			out.Append(Tree[I, S]{root: entry.n.children[entry.idx]})
			c.pos = end
			entry.idx++
		}
		if advanced {
			continue
		}
		c.stack = c.stack[:len(c.stack)-1]
		if len(c.stack) > 0 {
			c.stack[len(c.stack)-1].idx++
		} else {
			c.atEnd = true
		}
	}
	return out
}
