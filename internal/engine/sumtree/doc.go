// Package sumtree provides an immutable, copy-on-write order-statistics
// B-tree generic over an item type and a summary monoid.
//
// Every node caches the combined summary of its subtree, so any prefix
// aggregate (item count, byte length, maximum key, hash of a range) is
// available in O(log n). The tree is the shared foundation for the rope,
// the operation queue, and the digest sequence.
//
// Core concepts:
//
//   - Summary: a monoid aggregated bottom-up over items. The zero value
//     of a Summary type must be its identity element.
//   - Item: an element that knows how to summarize itself.
//   - Dimension: a projection of summaries onto a seekable coordinate
//     (e.g. cumulative count, cumulative bytes, last key). Cursors seek,
//     slice, and report positions in a chosen dimension.
//   - Cursor: a read-only positioned view supporting Seek, Next, Slice,
//     and Suffix. Slice and Suffix reuse whole subtrees of the source,
//     so splicing k items into a tree of n costs O(log n + k).
//
// Edits never mutate reachable nodes: Push and Append install a new
// root, and any previously obtained Tree value or cursor keeps reading
// its old root. This is what makes digest computation safe to run
// concurrently with inserts.
package sumtree
