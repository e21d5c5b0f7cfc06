package split

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/leapstack-labs/sqlmark/pkg/span"
	"github.com/leapstack-labs/sqlmark/pkg/vocab"
)

// claimed returns the text of every claimed span.
func claimed(spans []span.Span) []string {
	var out []string
	for _, s := range spans {
		if s.Claimed {
			out = append(out, s.Text)
		}
	}
	return out
}

func TestWords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{""}},
		{"single word", "select", []string{"select"}},
		{"punctuation only", ", ;", []string{", ;"}},
		{"mixed", "select a.id, b_2", []string{"select", " ", "a", ".", "id", ", ", "b_2"}},
		{"leading space", "  x", []string{"  ", "x"}},
		{"unicode letters", "naïve café", []string{"naïve", " ", "café"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := Words(tt.input)
			require.NoError(t, span.Validate(tt.input, spans))

			var got []string
			for _, s := range spans {
				assert.False(t, s.Claimed)
				got = append(got, s.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeywords_CaseInsensitive(t *testing.T) {
	k := NewKeywords(vocab.NewSet("select", "from"))

	input := "SELECT id FROM t; select Selection"
	spans := k.Split(input)

	require.NoError(t, span.Validate(input, spans))
	assert.Equal(t, []string{"SELECT", "FROM", "select"}, claimed(spans))
}

func TestKeywords_EmptySet(t *testing.T) {
	k := NewKeywords(vocab.Set{})
	assert.Empty(t, claimed(k.Split("select 1")))
}

func TestSplitters_Idempotent(t *testing.T) {
	input := "select 'a' /* b */ from t -- c\nwhere x = 'y'"
	splitters := map[string]Splitter{
		"keywords": NewKeywords(vocab.NewSet("select", "from", "where")),
		"region":   MustRegion(`--[^\n]*`),
		"literals": NewLiterals(),
	}

	for name, s := range splitters {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, s.Split(input), s.Split(input))
		})
	}
}

func TestFunc(t *testing.T) {
	var s Splitter = Func(span.Whole)
	assert.Equal(t, span.Whole("abc"), s.Split("abc"))
}

func TestSplitters_PartitionProperty(t *testing.T) {
	splitters := []Splitter{
		NewKeywords(vocab.NewSet("select", "from")),
		MustRegion(`--[^\n]*`),
		MustRegion(`\d+`),
		NewLiterals(),
	}
	alphabet := rapid.SampledFrom([]string{"'", "/*", "*/", "--", "\n", " ", "a", "select", "é", "1"})

	rapid.Check(t, func(rt *rapid.T) {
		parts := rapid.SliceOfN(alphabet, 0, 30).Draw(rt, "parts")
		input := strings.Join(parts, "")

		for _, s := range splitters {
			spans := s.Split(input)
			if err := span.Validate(input, spans); err != nil {
				rt.Fatalf("%T on %q: %v", s, input, err)
			}
		}
	})
}
