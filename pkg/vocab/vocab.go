// Package vocab provides keyword vocabularies for SQL highlighting.
//
// A Set is an immutable collection of lowercase words. Built-in sets for the
// supported dialects are registered when the package is loaded; callers may
// register their own with Register.
package vocab

import (
	"sort"
	"strings"
)

// Set is an immutable set of lowercase keywords.
type Set struct {
	words map[string]struct{}
}

// NewSet builds a Set from words. Words are lowercased and trimmed; empty
// words are ignored.
func NewSet(words ...string) Set {
	s := Set{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		s.words[w] = struct{}{}
	}
	return s
}

// Has reports whether word is in the set. word must already be lowercase.
func (s Set) Has(word string) bool {
	_, ok := s.words[word]
	return ok
}

// Len returns the number of words in the set.
func (s Set) Len() int {
	return len(s.words)
}

// Union returns a new set containing the words of s and others.
func (s Set) Union(others ...Set) Set {
	n := len(s.words)
	for _, o := range others {
		n += len(o.words)
	}
	u := Set{words: make(map[string]struct{}, n)}
	for w := range s.words {
		u.words[w] = struct{}{}
	}
	for _, o := range others {
		for w := range o.words {
			u.words[w] = struct{}{}
		}
	}
	return u
}

// With returns a new set with words added.
func (s Set) With(words ...string) Set {
	return s.Union(NewSet(words...))
}

// Sorted returns the words in alphabetical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
