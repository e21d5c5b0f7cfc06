package highlight

import (
	"strings"

	"github.com/leapstack-labs/sqlmark/pkg/split"
)

// Substitution is the terminal processor. It replaces whole-word dependency
// names with their replacement text and leaves every other token as is.
type Substitution struct {
	table  map[string]string
	escape func(string) string
}

// NewSubstitution creates a substitution over table. Keys are matched
// case-insensitively; the table is copied. Tokens that are not substituted
// pass through escape when it is non-nil. Replacements are inserted verbatim.
func NewSubstitution(table map[string]string, escape func(string) string) *Substitution {
	t := make(map[string]string, len(table))
	for name, repl := range table {
		t[strings.ToLower(name)] = repl
	}
	return &Substitution{table: t, escape: escape}
}

// Len returns the number of dependency names.
func (s *Substitution) Len() int {
	return len(s.table)
}

// Process substitutes dependency names in text.
func (s *Substitution) Process(text string) string {
	if len(s.table) == 0 && s.escape == nil {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, tok := range split.Words(text) {
		if repl, ok := s.table[strings.ToLower(tok.Text)]; ok {
			b.WriteString(repl)
			continue
		}
		if s.escape != nil {
			b.WriteString(s.escape(tok.Text))
		} else {
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}
