package rope

import (
	"strings"

	"github.com/dshills/textloom/internal/engine/sumtree"
)

// offsetPoint is the cursor dimension: cumulative bytes paired with the
// equivalent point, so either coordinate is available after one seek.
type offsetPoint struct {
	Offset int
	P      Point
}

type byOffset struct{}

func (byOffset) Zero() offsetPoint { return offsetPoint{} }

func (byOffset) Add(d offsetPoint, s TextSummary) offsetPoint {
	return offsetPoint{Offset: d.Offset + s.Bytes, P: extendPoint(d.P, s)}
}

func (byOffset) Compare(a, b offsetPoint) int {
	switch {
	case a.Offset < b.Offset:
		return -1
	case a.Offset > b.Offset:
		return 1
	default:
		return 0
	}
}

type byPoint struct{}

func (byPoint) Zero() offsetPoint { return offsetPoint{} }

func (byPoint) Add(d offsetPoint, s TextSummary) offsetPoint {
	return offsetPoint{Offset: d.Offset + s.Bytes, P: extendPoint(d.P, s)}
}

func (byPoint) Compare(a, b offsetPoint) int {
	return a.P.Compare(b.P)
}

func extendPoint(p Point, s TextSummary) Point {
	if s.Lines > 0 {
		return Point{Line: p.Line + s.Lines, Column: s.LastLineLen}
	}
	return Point{Line: p.Line, Column: p.Column + s.LastLineLen}
}

// Rope is immutable text built from chunks in a sum tree. The zero value
// is an empty rope. Edits return new ropes sharing structure with the
// original.
type Rope struct {
	chunks sumtree.Tree[Chunk, TextSummary]
}

// New returns an empty rope.
func New() Rope {
	return Rope{}
}

// FromString builds a rope from text.
func FromString(text string) Rope {
	return Rope{chunks: sumtree.FromItems(splitChunks(text))}
}

// Len returns the rope's byte length.
func (r Rope) Len() int {
	return r.chunks.Summary().Bytes
}

// IsEmpty reports whether the rope holds no text.
func (r Rope) IsEmpty() bool {
	return r.Len() == 0
}

// LineCount returns the number of lines; an empty rope has one line.
func (r Rope) LineCount() uint32 {
	return r.chunks.Summary().Lines + 1
}

// String materializes the rope's text.
func (r Rope) String() string {
	var sb strings.Builder
	sb.Grow(r.Len())
	r.chunks.Each(func(c Chunk) bool {
		sb.WriteString(c.data)
		return true
	})
	return sb.String()
}

// Chunks calls fn with each chunk's text in order until fn returns
// false.
func (r Rope) Chunks(fn func(string) bool) {
	r.chunks.Each(func(c Chunk) bool {
		return fn(c.data)
	})
}

func (r Rope) clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	if n := r.Len(); offset > n {
		return n
	}
	return offset
}

// Slice returns the text in [start, end) as a new rope. Out-of-range
// bounds are clamped. Whole chunks and subtrees are shared with the
// source.
func (r Rope) Slice(start, end int) Rope {
	start = r.clampOffset(start)
	end = r.clampOffset(end)
	if start >= end {
		return Rope{}
	}

	cur := sumtree.NewCursor(r.chunks, byOffset{})
	cur.Seek(offsetPoint{Offset: start}, sumtree.Right)

	var out Rope

	// Partial chunk straddling the start.
	if chunk, ok := cur.Item(); ok && cur.Start().Offset < start {
		base := cur.Start().Offset
		hi := min(len(chunk.data), end-base)
		out.chunks.Push(Chunk{data: chunk.data[start-base : hi]})
		if base+len(chunk.data) >= end {
			return out
		}
		cur.Next()
	}

	// Whole chunks ending at or before end.
	out.chunks.Append(cur.Slice(offsetPoint{Offset: end}, sumtree.Right))

	// Partial chunk straddling the end.
	if chunk, ok := cur.Item(); ok && cur.Start().Offset < end {
		out.chunks.Push(Chunk{data: chunk.data[:end-cur.Start().Offset]})
	}
	return out
}

// Concat returns the concatenation of r and other.
func (r Rope) Concat(other Rope) Rope {
	out := Rope{chunks: r.chunks}
	out.chunks.Append(other.chunks)
	return out
}

// Insert returns a rope with text inserted at the byte offset.
func (r Rope) Insert(offset int, text string) Rope {
	if text == "" {
		return r
	}
	offset = r.clampOffset(offset)
	return r.Slice(0, offset).Concat(FromString(text)).Concat(r.Slice(offset, r.Len()))
}

// Delete returns a rope with [start, end) removed.
func (r Rope) Delete(start, end int) Rope {
	return r.Slice(0, start).Concat(r.Slice(end, r.Len()))
}

// Replace returns a rope with [start, end) replaced by text.
func (r Rope) Replace(start, end int, text string) Rope {
	return r.Slice(0, start).Concat(FromString(text)).Concat(r.Slice(end, r.Len()))
}

// OffsetToPoint converts a byte offset to a line/column position.
// Offsets out of range are clamped.
func (r Rope) OffsetToPoint(offset int) Point {
	offset = r.clampOffset(offset)

	cur := sumtree.NewCursor(r.chunks, byOffset{})
	cur.Seek(offsetPoint{Offset: offset}, sumtree.Right)
	pos := cur.Start()

	chunk, ok := cur.Item()
	if !ok || pos.Offset == offset {
		return pos.P
	}
	return extendPoint(pos.P, summarize(chunk.data[:offset-pos.Offset]))
}

// PointToOffset converts a line/column position to a byte offset.
// Positions past the end of a line clamp to the line end; positions past
// the last line clamp to the rope end.
func (r Rope) PointToOffset(p Point) int {
	total := r.chunks.Summary()
	end := extendPoint(Point{}, total)
	if p.Compare(end) >= 0 {
		return total.Bytes
	}

	cur := sumtree.NewCursor(r.chunks, byPoint{})
	cur.Seek(offsetPoint{P: p}, sumtree.Right)
	pos := cur.Start()

	chunk, ok := cur.Item()
	if !ok {
		return pos.Offset
	}

	// Scan within the chunk for the remaining lines and columns.
	data := chunk.data
	line := pos.P.Line
	col := pos.P.Column
	for i := 0; i < len(data); i++ {
		if line == p.Line {
			remaining := uint32(0)
			if p.Column > col {
				remaining = p.Column - col
			}
			// Clamp to the end of the line within this chunk span.
			j := i
			for j < len(data) && remaining > 0 && data[j] != '\n' {
				j++
				remaining--
			}
			return pos.Offset + j
		}
		if data[i] == '\n' {
			line++
			col = 0
		}
	}
	return pos.Offset + len(data)
}
