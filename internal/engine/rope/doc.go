// Package rope provides the immutable chunked text storage the
// replication engine edits and resolves positions against.
//
// Text is stored as bounded chunks in a sum tree whose summaries track
// byte, line, and last-line metrics, giving O(log n) edits and O(log n)
// offset/point conversions. Edits return new ropes; chunks and tree
// nodes are shared between versions, so holding an old rope as a
// snapshot is free and safe under concurrent edits.
package rope
