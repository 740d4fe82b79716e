// Package digest provides compact, order-sensitive integrity summaries
// over ranges of applied operations.
//
// Two replicas that suspect divergence compare digests of a history
// range instead of transferring the raw operations. Equal digests mean
// the range is assumed identical; a mismatch triggers a full resync of
// that range only.
//
// Hashes are drawn from a non-commutative group (2x2 matrices over a
// prime field), so combining digests in different orders yields
// different values. This is deliberate: operation order determines the
// resulting text, so a digest must detect reordering, not just set
// membership.
//
// A Sequence stores digests in a sum tree indexed by cumulative
// operation count, supporting O(log n) range digests and boundary-aligned
// splicing during resync.
package digest
