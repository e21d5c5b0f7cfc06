package split

import (
	"strings"

	"github.com/leapstack-labs/sqlmark/pkg/span"
	"github.com/leapstack-labs/sqlmark/pkg/vocab"
)

// Keywords claims word tokens whose lowercase form is in a keyword set.
type Keywords struct {
	set vocab.Set
}

// NewKeywords creates a keyword splitter over set.
func NewKeywords(set vocab.Set) *Keywords {
	return &Keywords{set: set}
}

// Split tokenizes text with Words and claims the keywords.
func (k *Keywords) Split(text string) []span.Span {
	spans := Words(text)
	for i := range spans {
		if k.set.Has(strings.ToLower(spans[i].Text)) {
			spans[i].Claimed = true
		}
	}
	return spans
}
