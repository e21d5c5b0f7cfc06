package split

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/leapstack-labs/sqlmark/pkg/span"
)

// DefaultTimeout bounds a single Split call of a Region splitter.
const DefaultTimeout = time.Second

// ErrBudgetExceeded is reported when the matches of one Split call take
// longer than the splitter's time budget in total.
var ErrBudgetExceeded = errors.New("match budget exceeded")

// Region claims every non-overlapping match of a regular expression.
//
// Patterns use the backtracking regexp2 engine, so matching runs under a
// time budget. When the budget is exceeded the whole input is returned as a
// single unclaimed span.
type Region struct {
	name   string
	re     *regexp2.Regexp
	budget time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// RegionOption configures a Region splitter.
type RegionOption func(*Region)

// WithTimeout sets the matching time budget of a Split call.
func WithTimeout(d time.Duration) RegionOption {
	return func(r *Region) {
		if d > 0 {
			r.budget = d
		}
	}
}

// WithLogger sets the logger used to report degraded matches.
func WithLogger(logger *slog.Logger) RegionOption {
	return func(r *Region) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithName labels the splitter in log output.
func WithName(name string) RegionOption {
	return func(r *Region) {
		r.name = name
	}
}

// PatternError is returned when a region pattern does not compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// NewRegion compiles pattern into a Region splitter.
func NewRegion(pattern string, opts ...RegionOption) (*Region, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}

	r := &Region{
		name:   pattern,
		re:     re,
		budget: DefaultTimeout,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	// A single match attempt can never use more than the whole budget.
	re.MatchTimeout = r.budget
	return r, nil
}

// MustRegion is like NewRegion but panics if the pattern does not compile.
func MustRegion(pattern string, opts ...RegionOption) *Region {
	r, err := NewRegion(pattern, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Split claims the pattern's matches and fills the gaps between them.
func (r *Region) Split(text string) []span.Span {
	ranges, err := r.matches(text)
	if err != nil {
		r.logger.Warn("region match abandoned, leaving text unhighlighted",
			"region", r.name,
			"bytes", len(text),
			"budget", r.budget,
			"error", err)
		return span.Whole(text)
	}
	return span.Fill(text, ranges)
}

// matches returns the byte ranges of all non-empty matches in text. The
// budget covers the whole scan, not each match attempt.
func (r *Region) matches(text string) ([]span.Range, error) {
	began := r.now()
	m, err := r.re.FindStringMatch(text)
	if err != nil {
		return nil, err
	}

	var offsets []int
	if !isSingleByte(text) {
		offsets = runeOffsets(text)
	}

	var ranges []span.Range
	for m != nil {
		if m.Length > 0 {
			start, end := m.Index, m.Index+m.Length
			if offsets != nil {
				start, end = offsets[start], offsets[end]
			}
			ranges = append(ranges, span.Range{Start: start, End: end})
		}
		m, err = r.re.FindNextMatch(m)
		if err != nil {
			return nil, err
		}
		if elapsed := r.now().Sub(began); elapsed > r.budget {
			return nil, fmt.Errorf("%w after %s", ErrBudgetExceeded, elapsed)
		}
	}
	return ranges, nil
}

// isSingleByte reports whether every rune in text is one byte long, in which
// case regexp2's rune indices are byte offsets.
func isSingleByte(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// runeOffsets maps rune index to byte offset, with a trailing entry for
// len(text).
func runeOffsets(text string) []int {
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}
