package digest

import (
	"encoding/binary"
	"math/rand"
	"testing"
	"testing/quick"
)

func opHash(n uint64) HashMatrix {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	return HashBytes(buf[:])
}

func singleDigests(n int) []Digest {
	out := make([]Digest, n)
	for i := range out {
		out[i] = Single(opHash(uint64(i)))
	}
	return out
}

func sequenceOf(digests []Digest) *Sequence {
	var s Sequence
	for _, d := range digests {
		s.Append(d)
	}
	return &s
}

func TestHashMatrixIdentity(t *testing.T) {
	id := Identity()
	m := opHash(42)
	if id.Mul(m) != m || m.Mul(id) != m {
		t.Error("identity should be neutral under Mul")
	}
}

func TestHashNonCommutative(t *testing.T) {
	a, b := opHash(1), opHash(2)
	if a.Mul(b) == b.Mul(a) {
		t.Error("Mul should not commute for independent inputs")
	}
}

func TestHashDeterministic(t *testing.T) {
	if opHash(7) != opHash(7) {
		t.Error("same input should hash to same matrix")
	}
	if opHash(7) == opHash(8) {
		t.Error("different inputs should hash to different matrices")
	}
}

func TestHashConcatenationHomomorphism(t *testing.T) {
	// Hashing a concatenation equals multiplying the parts' hashes in
	// order; this is what makes range digests composable.
	f := func(a, b []byte) bool {
		joined := append(append([]byte(nil), a...), b...)
		return HashBytes(joined) == HashBytes(a).Mul(HashBytes(b))
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestNewPanicsOnZeroCount(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New with count 0 should panic")
		}
	}()
	New(0, Identity())
}

func TestSameOrderSameDigest(t *testing.T) {
	// Two replicas that fold the same operations in the same order must
	// produce equal full-range digests.
	a := sequenceOf(singleDigests(10))
	b := sequenceOf(singleDigests(10))

	da, ok := a.Digest(0, a.Count())
	if !ok {
		t.Fatal("digest of full range missing")
	}
	db, _ := b.Digest(0, b.Count())
	if da != db {
		t.Error("identical histories should produce identical digests")
	}
}

func TestDifferentOrderDifferentDigest(t *testing.T) {
	forward := singleDigests(5)
	swapped := singleDigests(5)
	swapped[1], swapped[2] = swapped[2], swapped[1]

	a := sequenceOf(forward)
	b := sequenceOf(swapped)

	da, _ := a.Digest(0, 5)
	db, _ := b.Digest(0, 5)
	if da == db {
		t.Error("reordered histories should produce different digests")
	}
}

func TestSplitCombineProperty(t *testing.T) {
	// For any 0 <= a <= b <= c <= len, digest(a..b) + digest(b..c) must
	// equal digest(a..c).
	s := sequenceOf(singleDigests(12))
	total := s.Count()

	for a := 0; a <= total; a++ {
		for b := a; b <= total; b++ {
			for c := b; c <= total; c++ {
				left, lok := s.Digest(a, b)
				right, rok := s.Digest(b, c)
				whole, wok := s.Digest(a, c)

				switch {
				case lok && rok:
					if !wok || left.Combine(right) != whole {
						t.Fatalf("combine(digest(%d..%d), digest(%d..%d)) != digest(%d..%d)", a, b, b, c, a, c)
					}
				case lok:
					if !wok || left != whole {
						t.Fatalf("digest(%d..%d) != digest(%d..%d) with empty right", a, b, a, c)
					}
				case rok:
					if !wok || right != whole {
						t.Fatalf("digest(%d..%d) != digest(%d..%d) with empty left", b, c, a, c)
					}
				default:
					if wok {
						t.Fatalf("digest(%d..%d) nonempty but halves empty", a, c)
					}
				}
			}
		}
	}
}

func TestDigestScenarioFiveSingles(t *testing.T) {
	// Five single-count digests: digest(1..4) equals d1*d2*d3 and must
	// not equal the reversed combination.
	ds := singleDigests(5)
	s := sequenceOf(ds)

	got, ok := s.Digest(1, 4)
	if !ok {
		t.Fatal("digest(1..4) missing")
	}

	want := ds[1].Combine(ds[2]).Combine(ds[3])
	if got != want {
		t.Errorf("digest(1..4) != combine(d1, d2, d3)")
	}

	reversed := ds[3].Combine(ds[2]).Combine(ds[1])
	if got == reversed {
		t.Errorf("digest(1..4) should differ from reversed combination")
	}
}

func TestDigestClampsOutOfRange(t *testing.T) {
	s := sequenceOf(singleDigests(4))

	full, _ := s.Digest(0, 4)
	clamped, ok := s.Digest(-10, 100)
	if !ok || clamped != full {
		t.Error("out-of-range request should clamp to full range")
	}

	if _, ok := s.Digest(4, 10); ok {
		t.Error("range beyond the end should clip to empty")
	}
}

func TestDigestLeftBiasedBoundaries(t *testing.T) {
	// Entry layout: counts 2, 3, 1 covering [0,2) [2,5) [5,6).
	ds := []Digest{
		New(2, opHash(1)),
		New(3, opHash(2)),
		New(1, opHash(3)),
	}
	s := sequenceOf(ds)

	// A boundary inside an entry snaps left, so [2,4) covers no whole
	// entry and reports absence.
	if _, ok := s.Digest(2, 4); ok {
		t.Error("digest(2..4) should cover no whole entries")
	}

	// A start boundary inside the first entry snaps left to 0, so [1,5)
	// covers the first two entries.
	got15, ok := s.Digest(1, 5)
	if !ok || got15 != ds[0].Combine(ds[1]) {
		t.Errorf("digest(1..5) = %+v, want first two entries", got15)
	}

	got25, ok := s.Digest(2, 5)
	if !ok || got25 != ds[1] {
		t.Errorf("digest(2..5) = %+v, want middle entry", got25)
	}

	got06, ok := s.Digest(0, 6)
	want := ds[0].Combine(ds[1]).Combine(ds[2])
	if !ok || got06 != want {
		t.Errorf("digest(0..6) != combined entries")
	}
}

func TestSpliceThenDigestConsistent(t *testing.T) {
	s := sequenceOf(singleDigests(6))

	// Replace entries covering [2, 5) with one compacted digest.
	replacement := singleDigests(6)[2].Combine(singleDigests(6)[3]).Combine(singleDigests(6)[4])
	s.Splice(2, 5, []Digest{replacement})

	if s.Count() != 6 {
		t.Fatalf("Count after splice = %d, want 6", s.Count())
	}
	if s.Len() != 4 {
		t.Fatalf("Len after splice = %d, want 4", s.Len())
	}

	got, ok := s.Digest(2, 5)
	if !ok || got != replacement {
		t.Errorf("digest(2..5) = %+v, want replacement", got)
	}

	// Full digest is unchanged by compaction.
	full, _ := s.Digest(0, 6)
	fresh, _ := sequenceOf(singleDigests(6)).Digest(0, 6)
	if full != fresh {
		t.Error("splice with equivalent digests changed the full digest")
	}
}

func TestSplicePanicsOnMisalignedBoundary(t *testing.T) {
	ds := []Digest{New(2, opHash(1)), New(2, opHash(2))}
	s := sequenceOf(ds)

	defer func() {
		if recover() == nil {
			t.Error("misaligned splice should panic")
		}
	}()
	s.Splice(1, 2, []Digest{Single(opHash(9))})
}

func TestSpliceAtEnds(t *testing.T) {
	s := sequenceOf(singleDigests(3))

	s.Splice(0, 0, []Digest{Single(opHash(100))})
	if s.Count() != 4 {
		t.Fatalf("Count after prepend splice = %d, want 4", s.Count())
	}

	s.Splice(4, 4, []Digest{Single(opHash(101))})
	if s.Count() != 5 {
		t.Fatalf("Count after append splice = %d, want 5", s.Count())
	}

	first := s.Digests()[0]
	if first.Hash != opHash(100) {
		t.Error("prepend splice did not land at the front")
	}
}

func TestRandomizedSpliceDigestConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for trial := 0; trial < 30; trial++ {
		n := rng.Intn(20) + 2
		s := sequenceOf(singleDigests(n))

		// Pick an aligned range (all entries are single count, so any
		// boundaries align) and splice in its compacted digest.
		a := rng.Intn(n)
		b := a + rng.Intn(n-a)
		if a == b {
			continue
		}
		compacted, _ := s.Digest(a, b)
		before, _ := s.Digest(0, n)

		s.Splice(a, b, []Digest{compacted})

		after, ok := s.Digest(0, n)
		if !ok || after != before {
			t.Fatalf("trial %d: full digest changed after equivalent splice", trial)
		}
		got, ok := s.Digest(a, b)
		if !ok || got != compacted {
			t.Fatalf("trial %d: digest(%d..%d) != spliced value", trial, a, b)
		}
	}
}
