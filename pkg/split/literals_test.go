package split

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlmark/pkg/span"
)

func TestLiterals(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		claimed []string
	}{
		{
			name:  "empty",
			input: "",
		},
		{
			name:  "no delimiters",
			input: "select 1",
		},
		{
			name:    "string literal",
			input:   "where x = 'y'",
			claimed: []string{"'y'"},
		},
		{
			name:    "block comment",
			input:   "select /* note */ 1",
			claimed: []string{"/* note */"},
		},
		{
			name:    "quote inside line comment is inert",
			input:   "-- it's fine\nx = 'y'",
			claimed: []string{"'y'"},
		},
		{
			name:    "comment opener inside line comment is inert",
			input:   "a -- /* not a comment\nb /* real */",
			claimed: []string{"/* real */"},
		},
		{
			name:    "string inside block comment",
			input:   "/* a 'b' c */",
			claimed: []string{"/* a 'b' c */"},
		},
		{
			name:    "comment markers inside string",
			input:   "select '/* x */' as s",
			claimed: []string{"'/* x */'"},
		},
		{
			name:    "line comment marker inside string",
			input:   "select '--x' from t",
			claimed: []string{"'--x'"},
		},
		{
			name:    "doubled quote escape yields adjacent literals",
			input:   "'it''s'",
			claimed: []string{"'it'", "'s'"},
		},
		{
			name:    "stray closer stays in filler",
			input:   "a */ b 'c'",
			claimed: []string{"'c'"},
		},
		{
			name:    "closer must follow the opener",
			input:   "/*/ x */",
			claimed: []string{"/*/ x */"},
		},
		{
			name:    "comment immediately followed by opener",
			input:   "/* a */* b */",
			claimed: []string{"/* a */"},
		},
		{
			name:    "multiline comment",
			input:   "select\n/* line one\nline two */\n1",
			claimed: []string{"/* line one\nline two */"},
		},
		{
			name:    "line comment suppression resets at newline",
			input:   "-- c\n'a'",
			claimed: []string{"'a'"},
		},
		{
			name:    "dashes inside an earlier literal suppress later openers",
			input:   "'a--b' 'c'",
			claimed: []string{"'a--b'"},
		},
	}

	l := NewLiterals()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := l.Split(tt.input)
			require.NoError(t, span.Validate(tt.input, spans))
			assert.Equal(t, tt.claimed, claimed(spans))
		})
	}
}

// Unterminated literals and comments claim the rest of the buffer. This is an
// implementation-defined recovery, not an observed contract.
func TestLiterals_UnterminatedRecovery(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		claimed []string
	}{
		{"unterminated string", "select 'abc", []string{"'abc"}},
		{"unterminated comment", "select /* abc 'x'", []string{"/* abc 'x'"}},
		{"lone quote at end", "x '", []string{"'"}},
		{"string then unterminated comment", "'a' /* b", []string{"'a'", "/* b"}},
	}

	l := NewLiterals()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := l.Split(tt.input)
			require.NoError(t, span.Validate(tt.input, spans))
			assert.Equal(t, tt.claimed, claimed(spans))
			assert.True(t, spans[len(spans)-1].Claimed, "remainder should be claimed")
		})
	}
}

func TestLiterals_SpanLayout(t *testing.T) {
	input := "a 'b' c"
	spans := NewLiterals().Split(input)

	require.Len(t, spans, 3)
	assert.Equal(t, span.Span{Claimed: false, Start: 0, Length: 2, Text: "a "}, spans[0])
	assert.Equal(t, span.Span{Claimed: true, Start: 2, Length: 3, Text: "'b'"}, spans[1])
	assert.Equal(t, span.Span{Claimed: false, Start: 5, Length: 2, Text: " c"}, spans[2])
}

func TestIsStringLiteral(t *testing.T) {
	assert.True(t, IsStringLiteral("'a'"))
	assert.False(t, IsStringLiteral("/* a */"))
	assert.False(t, IsStringLiteral(""))
}

func TestInLineComment(t *testing.T) {
	text := "x -- y 'z'\n'w'"
	assert.True(t, inLineComment(text, 7))
	assert.False(t, inLineComment(text, 11))
	assert.False(t, inLineComment(text, 0))
}
