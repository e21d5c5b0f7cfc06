// Package split provides the splitters that partition SQL text into spans.
//
// Every splitter returns a complete partition of its input (see package span):
// spans are contiguous, start at zero, end at len(text), and the spans a
// splitter recognizes are marked Claimed. Splitters hold no per-call state
// and are safe for concurrent use.
package split

import (
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/sqlmark/pkg/span"
)

// Splitter partitions text into spans.
type Splitter interface {
	Split(text string) []span.Span
}

// Func adapts a function to the Splitter interface.
type Func func(text string) []span.Span

// Split calls f(text).
func (f Func) Split(text string) []span.Span {
	return f(text)
}

// Words splits text into maximal runs of word runes and maximal runs of
// non-word runes. The result is always a complete partition with every span
// unclaimed.
func Words(text string) []span.Span {
	if text == "" {
		return span.Whole(text)
	}

	var spans []span.Span
	start := 0
	first, _ := utf8.DecodeRuneInString(text)
	inWord := IsWordRune(first)

	for i, r := range text {
		if w := IsWordRune(r); w != inWord {
			spans = append(spans, span.New(text, start, i, false))
			start = i
			inWord = w
		}
	}
	return append(spans, span.New(text, start, len(text), false))
}

// IsWordRune reports whether r belongs to a word: letters, digits, marks and
// connector punctuation such as '_'.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) ||
		unicode.IsDigit(r) ||
		unicode.IsMark(r) ||
		unicode.Is(unicode.Pc, r)
}
