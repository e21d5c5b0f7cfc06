package loader

import (
	"strings"

	"github.com/leapstack-labs/sqlmark/pkg/highlight"
	"github.com/leapstack-labs/sqlmark/pkg/split"
	"github.com/leapstack-labs/sqlmark/pkg/vocab"
)

// LinkFunc renders the replacement text for a reference to script.
type LinkFunc func(script *Script) string

// Owners maps each lowercase script name to the script it refers to. When two
// scripts share a name the one with the shorter path wins, then the lexically
// smaller one, so the result is deterministic.
func Owners(scripts []*Script) map[string]*Script {
	owners := make(map[string]*Script)
	for _, s := range scripts {
		key := strings.ToLower(s.Name)
		if key == "" {
			continue
		}
		if cur, ok := owners[key]; ok && !preferred(s, cur) {
			continue
		}
		owners[key] = s
	}
	return owners
}

// Dependencies builds a dependency table mapping each script name to
// link(script). Keys are lowercase single words; dotted paths never appear as
// one token, so "staging.stg_orders" links through its "stg_orders" part.
func Dependencies(scripts []*Script, link LinkFunc) map[string]string {
	owners := Owners(scripts)
	table := make(map[string]string, len(owners))
	for key, s := range owners {
		table[key] = link(s)
	}
	return table
}

func preferred(a, b *Script) bool {
	if len(a.Path) != len(b.Path) {
		return len(a.Path) < len(b.Path)
	}
	return a.Path < b.Path
}

var lineComments = split.MustRegion(highlight.LineCommentPattern, split.WithName("line_comment"))

// References returns the scripts that s mentions by name, in order of first
// mention. Mentions inside string literals and comments are ignored, as is a
// script mentioning itself. Words in keywords are highlighted as keywords
// rather than linked, so they are not references either.
func References(s *Script, owners map[string]*Script, keywords vocab.Set) []*Script {
	var refs []*Script
	seen := map[*Script]bool{s: true}

	for _, lit := range split.NewLiterals().Split(s.SQL) {
		if lit.Claimed {
			continue
		}
		for _, part := range lineComments.Split(lit.Text) {
			if part.Claimed {
				continue
			}
			for _, w := range split.Words(part.Text) {
				word := strings.ToLower(w.Text)
				if keywords.Has(word) {
					continue
				}
				target, ok := owners[word]
				if !ok || seen[target] {
					continue
				}
				seen[target] = true
				refs = append(refs, target)
			}
		}
	}
	return refs
}
