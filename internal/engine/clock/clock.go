package clock

import "fmt"

// ReplicaID identifies a replica within a replicated document.
type ReplicaID uint16

// Lamport is a logical timestamp: a counter paired with the id of the
// replica that produced it. Lamport values are immutable.
type Lamport struct {
	Counter uint64
	Replica ReplicaID
}

// Compare orders timestamps by counter, then by replica id.
// Returns -1, 0, or 1.
func (t Lamport) Compare(other Lamport) int {
	switch {
	case t.Counter < other.Counter:
		return -1
	case t.Counter > other.Counter:
		return 1
	case t.Replica < other.Replica:
		return -1
	case t.Replica > other.Replica:
		return 1
	default:
		return 0
	}
}

// Before reports whether t orders strictly before other.
func (t Lamport) Before(other Lamport) bool {
	return t.Compare(other) < 0
}

// IsZero reports whether t is the zero timestamp. A zero timestamp is
// never produced by a Clock; it marks "no operation observed yet".
func (t Lamport) IsZero() bool {
	return t.Counter == 0
}

// String returns the timestamp as "counter.replica".
func (t Lamport) String() string {
	return fmt.Sprintf("%d.%d", t.Counter, t.Replica)
}

// Clock generates Lamport timestamps for one replica.
// The zero value is not usable; construct with New.
type Clock struct {
	replica ReplicaID
	counter uint64
}

// New creates a clock for the given replica.
func New(replica ReplicaID) *Clock {
	return &Clock{replica: replica}
}

// Replica returns the id of the replica that owns this clock.
func (c *Clock) Replica() ReplicaID {
	return c.replica
}

// Tick increments the counter and returns a fresh timestamp.
// Successive local ticks are strictly increasing.
func (c *Clock) Tick() Lamport {
	c.counter++
	return Lamport{Counter: c.counter, Replica: c.replica}
}

// Observe advances the counter so that future ticks order after the
// remote timestamp. Must be called for every remote operation a replica
// integrates; ticks alone do not establish cross-replica ordering.
func (c *Clock) Observe(remote Lamport) {
	if remote.Counter > c.counter {
		c.counter = remote.Counter
	}
}

// Now returns a timestamp for the current counter without advancing it.
func (c *Clock) Now() Lamport {
	return Lamport{Counter: c.counter, Replica: c.replica}
}
