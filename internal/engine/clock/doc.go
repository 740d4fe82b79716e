// Package clock provides the logical clocks that order edits across replicas.
//
// Replication in textloom never relies on wall time. Every operation a
// replica produces is tagged with a Lamport timestamp, and timestamps
// from all replicas form a single total order:
//
//   - Lamport: a (counter, replica) pair. Timestamps compare by counter
//     first, then by replica id, so two replicas can never produce equal
//     timestamps.
//   - Clock: the per-replica generator. Tick produces a new, strictly
//     increasing timestamp for a local edit. Observe advances the counter
//     past any remote timestamp the replica has seen, which guarantees
//     that later local edits order after everything already integrated.
//   - Version: a version vector recording, per replica, the highest
//     counter observed. Buffers use it to deduplicate deliveries and to
//     decide whether an operation's causal dependencies have been applied.
//
// A Clock is owned by exactly one replica and is not safe for concurrent
// mutation; the owning session serializes access.
package clock
