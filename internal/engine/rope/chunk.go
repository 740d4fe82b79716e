package rope

import "unicode/utf8"

// MaxChunkSize is the maximum bytes per chunk before splitting.
const MaxChunkSize = 256

// Point is a 0-indexed line/column position. Column counts bytes within
// the line.
type Point struct {
	Line   uint32
	Column uint32
}

// Compare orders points by line, then column.
func (p Point) Compare(other Point) int {
	switch {
	case p.Line < other.Line:
		return -1
	case p.Line > other.Line:
		return 1
	case p.Column < other.Column:
		return -1
	case p.Column > other.Column:
		return 1
	default:
		return 0
	}
}

// TextSummary aggregates the metrics of a text span. It is the summary
// monoid of the rope's sum tree; the zero value (no bytes) is the
// identity.
type TextSummary struct {
	// Bytes is the UTF-8 byte count.
	Bytes int

	// Lines is the number of newline characters.
	Lines uint32

	// FirstLineLen is the byte length of the first line (excluding newline).
	FirstLineLen uint32

	// LastLineLen is the byte length of the last line (excluding newline).
	LastLineLen uint32
}

// Add combines two adjacent spans' summaries.
func (s TextSummary) Add(other TextSummary) TextSummary {
	if s.Bytes == 0 {
		return other
	}
	if other.Bytes == 0 {
		return s
	}

	out := TextSummary{
		Bytes: s.Bytes + other.Bytes,
		Lines: s.Lines + other.Lines,
	}
	if other.Lines > 0 {
		out.LastLineLen = other.LastLineLen
	} else {
		out.LastLineLen = s.LastLineLen + other.LastLineLen
	}
	if s.Lines > 0 {
		out.FirstLineLen = s.FirstLineLen
	} else {
		out.FirstLineLen = s.LastLineLen + other.FirstLineLen
	}
	return out
}

// summarize computes metrics for a string.
func summarize(text string) TextSummary {
	var sum TextSummary
	sum.Bytes = len(text)

	var lineLen uint32
	firstSet := false
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			if !firstSet {
				sum.FirstLineLen = lineLen
				firstSet = true
			}
			sum.Lines++
			lineLen = 0
		} else {
			lineLen++
		}
	}
	if !firstSet {
		sum.FirstLineLen = lineLen
	}
	sum.LastLineLen = lineLen
	return sum
}

// Chunk is a bounded, immutable run of text stored in the rope's leaves.
type Chunk struct {
	data string
}

// String returns the chunk's text.
func (c Chunk) String() string {
	return c.data
}

// Len returns the chunk's byte length.
func (c Chunk) Len() int {
	return len(c.data)
}

// Summary computes the chunk's metrics.
func (c Chunk) Summary() TextSummary {
	return summarize(c.data)
}

// splitChunks divides text into chunks of at most MaxChunkSize bytes,
// never splitting inside a UTF-8 sequence.
func splitChunks(text string) []Chunk {
	if len(text) == 0 {
		return nil
	}

	var chunks []Chunk
	for len(text) > MaxChunkSize {
		cut := MaxChunkSize
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		chunks = append(chunks, Chunk{data: text[:cut]})
		text = text[cut:]
	}
	return append(chunks, Chunk{data: text})
}
