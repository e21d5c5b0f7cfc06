package split

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlmark/pkg/span"
)

// delimKind identifies a literal or comment delimiter.
type delimKind int

const (
	delimQuote        delimKind = iota // '
	delimCommentOpen                   // /*
	delimCommentClose                  // */
)

// delim is one delimiter occurrence at text[start:end].
type delim struct {
	kind  delimKind
	start int
	end   int
}

// closer returns the delimiter kind that terminates a literal opened by k.
func (k delimKind) closer() delimKind {
	if k == delimCommentOpen {
		return delimCommentClose
	}
	return delimQuote
}

// Literals claims single-quoted string literals and /* */ block comments.
//
// A quote or comment opener that follows "--" on the same line is part of a
// line comment and is ignored. An unterminated literal or comment claims the
// rest of the text.
type Literals struct{}

// NewLiterals creates a literal/comment splitter.
func NewLiterals() *Literals {
	return &Literals{}
}

// Split partitions text into literal, comment and filler spans.
func (Literals) Split(text string) []span.Span {
	delims := scanDelims(text)

	var spans []span.Span
	pos := 0
	for i := 0; i < len(delims); i++ {
		open := delims[i]
		if open.kind == delimCommentClose || open.start < pos {
			continue
		}
		if inLineComment(text, open.start) {
			continue
		}

		end := len(text)
		j := i + 1
		for ; j < len(delims); j++ {
			d := delims[j]
			if d.kind == open.kind.closer() && d.start >= open.end {
				end = d.end
				break
			}
		}

		if open.start > pos {
			spans = append(spans, span.New(text, pos, open.start, false))
		}
		spans = append(spans, span.New(text, open.start, end, true))
		pos = end
		i = j
	}

	if pos < len(text) || len(spans) == 0 {
		spans = append(spans, span.New(text, pos, len(text), false))
	}
	return spans
}

// IsStringLiteral reports whether a claimed Literals span is a string literal
// rather than a block comment.
func IsStringLiteral(text string) bool {
	return strings.HasPrefix(text, "'")
}

// scanDelims finds quotes, comment openers and comment closers with three
// independent scans and merges them by position.
func scanDelims(text string) []delim {
	var delims []delim
	delims = appendOccurrences(delims, text, "'", delimQuote)
	delims = appendOccurrences(delims, text, "/*", delimCommentOpen)
	delims = appendOccurrences(delims, text, "*/", delimCommentClose)

	sort.SliceStable(delims, func(i, j int) bool {
		return delims[i].start < delims[j].start
	})
	return delims
}

// appendOccurrences appends every non-overlapping occurrence of sep.
func appendOccurrences(delims []delim, text, sep string, kind delimKind) []delim {
	for off := 0; off < len(text); {
		i := strings.Index(text[off:], sep)
		if i < 0 {
			break
		}
		start := off + i
		delims = append(delims, delim{kind: kind, start: start, end: start + len(sep)})
		off = start + len(sep)
	}
	return delims
}

// inLineComment reports whether offset at sits after "--" on its line.
func inLineComment(text string, at int) bool {
	lineStart := strings.LastIndexByte(text[:at], '\n') + 1
	return strings.Contains(text[lineStart:at], "--")
}
