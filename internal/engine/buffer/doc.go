// Package buffer implements the replicated text document at the center
// of the synchronization engine.
//
// Each replica owns one Buffer per open document. Local edits produce
// immutable operations tagged by the replica's Lamport clock; remote
// operations are merged through a deferred operation queue and applied
// in causal order, with their coordinates transformed across any
// concurrently applied edits. Every applied operation is folded into a
// digest sequence ordered by timestamp, so two replicas can compare
// compact summaries of a history range instead of shipping raw
// operations.
//
// Positions that must stay meaningful across concurrent edits are
// expressed as Anchors: a captured version, offset, and left/right bias,
// resolved on demand against a Snapshot by walking the operations
// applied after the anchor was created. Selection sets map anchor ranges
// to per-cursor state, so selection boundaries shift automatically on
// query without explicit rebasing on every edit.
//
// A Buffer is single-writer: the owning session serializes mutation.
// Snapshots are immutable and safe to read concurrently with edits.
package buffer
