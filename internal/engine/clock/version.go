package clock

// Version is a version vector: for each replica, the highest operation
// counter this replica has observed. It answers two questions a
// replicated buffer needs: "have I already seen this operation?" and
// "have I applied everything this operation's creator had applied?".
type Version map[ReplicaID]uint64

// NewVersion returns an empty version vector.
func NewVersion() Version {
	return make(Version)
}

// Clone returns an independent copy of the version vector.
func (v Version) Clone() Version {
	out := make(Version, len(v))
	for replica, counter := range v {
		out[replica] = counter
	}
	return out
}

// Observe records that the operation with the given timestamp has been
// applied.
func (v Version) Observe(ts Lamport) {
	if ts.Counter > v[ts.Replica] {
		v[ts.Replica] = ts.Counter
	}
}

// Observed reports whether the operation with the given timestamp has
// been applied.
func (v Version) Observed(ts Lamport) bool {
	return v[ts.Replica] >= ts.Counter
}

// ObservedAll reports whether every operation covered by other has been
// applied locally; that is, other <= v in the version-vector partial
// order.
func (v Version) ObservedAll(other Version) bool {
	for replica, counter := range other {
		if v[replica] < counter {
			return false
		}
	}
	return true
}

// Join merges other into v, taking the per-replica maximum.
func (v Version) Join(other Version) {
	for replica, counter := range other {
		if counter > v[replica] {
			v[replica] = counter
		}
	}
}

// Equal reports whether two version vectors cover the same operations.
func (v Version) Equal(other Version) bool {
	return v.ObservedAll(other) && other.ObservedAll(v)
}
