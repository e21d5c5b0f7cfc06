package span

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type shape struct {
	start   int
	length  int
	claimed bool
}

func shapes(spans []Span) []shape {
	out := make([]shape, len(spans))
	for i, s := range spans {
		out[i] = shape{s.Start, s.Length, s.Claimed}
	}
	return out
}

func TestFill_GapsAroundClaimedRanges(t *testing.T) {
	buf := "abcdefghijkl"

	spans := Fill(buf, []Range{{2, 4}, {8, 10}})

	require.NoError(t, Validate(buf, spans))
	assert.Equal(t, []shape{
		{0, 2, false},
		{2, 2, true},
		{4, 4, false},
		{8, 2, true},
		{10, 2, false},
	}, shapes(spans))
}

func TestFill(t *testing.T) {
	tests := []struct {
		name    string
		buf     string
		claimed []Range
		want    []shape
	}{
		{
			name: "no ranges",
			buf:  "select 1",
			want: []shape{{0, 8, false}},
		},
		{
			name: "empty buffer",
			buf:  "",
			want: []shape{{0, 0, false}},
		},
		{
			name:    "unordered ranges",
			buf:     "0123456789",
			claimed: []Range{{6, 8}, {0, 2}},
			want:    []shape{{0, 2, true}, {2, 4, false}, {6, 2, true}, {8, 2, false}},
		},
		{
			name:    "adjacent ranges skip empty filler",
			buf:     "aabb",
			claimed: []Range{{0, 2}, {2, 4}},
			want:    []shape{{0, 2, true}, {2, 2, true}},
		},
		{
			name:    "whole buffer claimed",
			buf:     "abc",
			claimed: []Range{{0, 3}},
			want:    []shape{{0, 3, true}},
		},
		{
			name:    "overlap keeps earlier range",
			buf:     "0123456789",
			claimed: []Range{{1, 5}, {3, 7}},
			want:    []shape{{0, 1, false}, {1, 4, true}, {5, 5, false}},
		},
		{
			name:    "empty and out of bounds ranges dropped",
			buf:     "abc",
			claimed: []Range{{1, 1}, {2, 9}},
			want:    []shape{{0, 3, false}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := Fill(tt.buf, tt.claimed)
			require.NoError(t, Validate(tt.buf, spans))
			assert.Equal(t, tt.want, shapes(spans))
		})
	}
}

func TestFill_DoesNotReorderInput(t *testing.T) {
	claimed := []Range{{4, 5}, {0, 1}}
	Fill("abcdef", claimed)
	assert.Equal(t, []Range{{4, 5}, {0, 1}}, claimed)
}

func TestValidate(t *testing.T) {
	buf := "select"

	assert.NoError(t, Validate(buf, Whole(buf)))

	err := Validate(buf, []Span{New(buf, 0, 2, false), New(buf, 3, 6, true)})
	var perr *PartitionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Index)

	err = Validate(buf, []Span{New(buf, 0, 4, false)})
	assert.ErrorContains(t, err, "want 6")

	assert.Error(t, Validate(buf, nil))
	assert.Error(t, Validate(buf, []Span{{Start: 0, Length: 6, Text: "SELECT"}}))
}

func TestJoin(t *testing.T) {
	buf := "a 'b' c"
	assert.Equal(t, buf, Join(Fill(buf, []Range{{2, 5}})))
}

func TestFill_PartitionProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		buf := rapid.StringN(0, 64, -1).Draw(rt, "buf")
		n := rapid.IntRange(0, 8).Draw(rt, "n")

		claimed := make([]Range, n)
		for i := range claimed {
			start := rapid.IntRange(0, len(buf)).Draw(rt, "start")
			end := rapid.IntRange(start, len(buf)).Draw(rt, "end")
			claimed[i] = Range{start, end}
		}

		spans := Fill(buf, claimed)
		if err := Validate(buf, spans); err != nil {
			rt.Fatalf("invalid partition %v: %v", spans, err)
		}
		if Join(spans) != buf {
			rt.Fatalf("join mismatch")
		}
	})
}
