// Package session exposes one replicated document as a thread-safe
// facade over the engine packages.
//
// A Session owns a single buffer replica, its deferred-operation queue,
// and its operation digests. Local edits are queued in an outbox for
// the caller's transport to drain; remote operations are handed to
// Apply in any order. Reconcile drives the digest-probing resync
// protocol against a peer when a replica suspects it has missed
// operations.
//
// Sessions are per-document. Opening two documents means two Sessions;
// nothing is shared between them.
package session
