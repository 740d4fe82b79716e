// Package selection provides the cursor/selection model used by editing
// sessions.
//
// A Selection brackets a span of text between Start and End in some
// coordinate space (byte offsets, points, or anchors), with Reversed
// recording which side the cursor (head) is on. Head and Tail are always
// derived from Reversed rather than stored, and SetHead re-derives
// Start/End/Reversed purely by comparing the new head against the stable
// tail.
//
// The coordinate space is a type parameter: selections over anchors stay
// meaningful across concurrent edits and are resolved to offsets or
// points on demand against a buffer snapshot.
package selection
