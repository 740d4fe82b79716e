package digest

import "math/bits"

// modulus is the Mersenne prime 2^61-1; matrix entries live in GF(modulus).
const modulus = (1 << 61) - 1

// HashMatrix is an element of a non-commutative group: a 2x2 matrix over
// GF(2^61-1). Because matrix multiplication does not commute,
// a.Mul(b) and b.Mul(a) differ for independent inputs, which lets
// combined digests distinguish operation orderings.
//
// The zero value is not a valid matrix; use Identity or HashBytes.
type HashMatrix struct {
	a, b uint64
	c, d uint64
}

// Identity returns the multiplicative identity.
func Identity() HashMatrix {
	return HashMatrix{a: 1, d: 1}
}

// IsIdentity reports whether the matrix is the multiplicative identity.
func (m HashMatrix) IsIdentity() bool {
	return m == Identity()
}

// Elements returns the matrix entries in row-major order, for wire
// encoding.
func (m HashMatrix) Elements() [4]uint64 {
	return [4]uint64{m.a, m.b, m.c, m.d}
}

// MatrixFromElements reconstructs a matrix from row-major entries. Each
// entry is reduced modulo the field order.
func MatrixFromElements(e [4]uint64) HashMatrix {
	return HashMatrix{
		a: e[0] % modulus,
		b: e[1] % modulus,
		c: e[2] % modulus,
		d: e[3] % modulus,
	}
}

// The two generators map input bits to matrices. Both have infinite
// order in SL2, so distinct bit strings hash to distinct products.
var (
	genZero = HashMatrix{a: 1, b: 1, c: 0, d: 1}
	genOne  = HashMatrix{a: 1, b: 0, c: 1, d: 1}
)

func addmod(x, y uint64) uint64 {
	sum := x + y
	if sum >= modulus {
		sum -= modulus
	}
	return sum
}

// mulmod multiplies modulo 2^61-1 using the Mersenne identity 2^61 = 1.
func mulmod(x, y uint64) uint64 {
	hi, lo := bits.Mul64(x, y)
	// x*y = hi*2^64 + lo; fold the high bits down twice.
	sum := (lo & modulus) + ((lo >> 61) | (hi << 3))
	sum = (sum & modulus) + (sum >> 61)
	if sum >= modulus {
		sum -= modulus
	}
	return sum
}

// Mul returns m * other. Order matters.
func (m HashMatrix) Mul(other HashMatrix) HashMatrix {
	return HashMatrix{
		a: addmod(mulmod(m.a, other.a), mulmod(m.b, other.c)),
		b: addmod(mulmod(m.a, other.b), mulmod(m.b, other.d)),
		c: addmod(mulmod(m.c, other.a), mulmod(m.d, other.c)),
		d: addmod(mulmod(m.c, other.b), mulmod(m.d, other.d)),
	}
}

// HashBytes hashes input bytes into the group, one bit at a time, most
// significant bit first. Distinct byte strings of equal length always
// produce distinct matrices.
func HashBytes(data []byte) HashMatrix {
	m := Identity()
	for _, by := range data {
		for bit := 7; bit >= 0; bit-- {
			if by>>uint(bit)&1 == 0 {
				m = m.Mul(genZero)
			} else {
				m = m.Mul(genOne)
			}
		}
	}
	return m
}
