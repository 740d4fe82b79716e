// Package sync defines the resync protocol messages exchanged between
// document replicas and their JSON wire codec.
//
// The protocol has two request/response pairs. A replica probing for
// divergence sends a DigestRequest for an index range of the peer's
// operation history and compares the DigestResponse against its own
// digest for the same range. On a mismatch it narrows the range or
// sends an OpsRequest to fetch the raw operations.
//
// The codec produces and consumes framed []byte payloads; transports
// own sockets, retries, and framing.
package sync
