// Package span defines the partition model shared by every splitter.
//
// A partition is an ordered, gap-free sequence of spans covering a text
// buffer. Splitters mark the spans they recognize as claimed and leave the
// rest as filler for the next stage.
package span

import (
	"fmt"
	"sort"
)

// Span is a half-open byte range over a source buffer.
type Span struct {
	Claimed bool
	Start   int
	Length  int
	Text    string
}

// End returns the offset just past the span.
func (s Span) End() int {
	return s.Start + s.Length
}

// String returns a debug representation of the span.
func (s Span) String() string {
	mark := "-"
	if s.Claimed {
		mark = "+"
	}
	return fmt.Sprintf("%s[%d,%d)%q", mark, s.Start, s.End(), s.Text)
}

// Range is a claimed byte range [Start, End) reported by a matcher.
type Range struct {
	Start int
	End   int
}

// Len returns the length of the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// New builds the span for buf[start:end].
func New(buf string, start, end int, claimed bool) Span {
	return Span{
		Claimed: claimed,
		Start:   start,
		Length:  end - start,
		Text:    buf[start:end],
	}
}

// Whole returns the single unclaimed span covering buf.
// It is the degraded partition used when a matcher gives up.
func Whole(buf string) []Span {
	return []Span{New(buf, 0, len(buf), false)}
}

// Fill merges claimed ranges into a complete partition of buf.
//
// Ranges may arrive unordered. Empty ranges, ranges outside the buffer and
// ranges starting inside an earlier claimed range are dropped.
func Fill(buf string, claimed []Range) []Span {
	if len(claimed) == 0 {
		return Whole(buf)
	}

	sorted := make([]Range, len(claimed))
	copy(sorted, claimed)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	spans := make([]Span, 0, 2*len(sorted)+1)
	pos := 0
	for _, r := range sorted {
		if r.Len() <= 0 || r.Start < pos || r.End > len(buf) {
			continue
		}
		if r.Start > pos {
			spans = append(spans, New(buf, pos, r.Start, false))
		}
		spans = append(spans, New(buf, r.Start, r.End, true))
		pos = r.End
	}

	if pos < len(buf) || len(spans) == 0 {
		spans = append(spans, New(buf, pos, len(buf), false))
	}
	return spans
}

// Join concatenates the text of spans.
func Join(spans []Span) string {
	n := 0
	for _, s := range spans {
		n += s.Length
	}
	b := make([]byte, 0, n)
	for _, s := range spans {
		b = append(b, s.Text...)
	}
	return string(b)
}
