// Package opqueue buffers edit operations in Lamport-timestamp order.
//
// A Queue is a sum tree of operations keyed by timestamp. Replicas use
// queues in two roles: to batch locally produced operations for the
// transport layer (Drain hands the whole batch over atomically), and to
// defer remotely received operations whose causal dependencies have not
// arrived yet.
//
// Insert is idempotent: re-inserting an operation whose timestamp is
// already present is a no-op, so duplicate deliveries from the transport
// are harmless. A batch of k operations merges into a queue of n in
// O(log n + k), not k separate tree edits.
//
// Queue mutation must be serialized by the caller; the tree provides no
// multi-writer safety. Cursors obtained before a mutation keep reading
// the old tree.
package opqueue
