package highlight

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholder marks where span text is inserted into a template.
const Placeholder = "%s"

// ErrPlaceholderCount is returned for templates without exactly one placeholder.
var ErrPlaceholderCount = errors.New("template must contain exactly one %s placeholder")

// TemplateError describes a template that failed to parse.
type TemplateError struct {
	Template string
	Count    int
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %q has %d placeholders: %v", e.Template, e.Count, ErrPlaceholderCount)
}

// Unwrap returns ErrPlaceholderCount.
func (e *TemplateError) Unwrap() error {
	return ErrPlaceholderCount
}

// Template wraps span text in a fixed prefix and suffix.
// It is written as a single string with one %s placeholder; %% stands for a
// literal percent sign and any other % is kept as written.
type Template struct {
	prefix string
	suffix string
}

// ParseTemplate parses a template string.
func ParseTemplate(s string) (Template, error) {
	var (
		b      strings.Builder
		t      Template
		count  int
		before string
	)
	for i := 0; i < len(s); i++ {
		if s[i] != '%' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case '%':
			b.WriteByte('%')
			i++
		case 's':
			count++
			before = b.String()
			b.Reset()
			i++
		default:
			b.WriteByte('%')
		}
	}

	if count != 1 {
		return Template{}, &TemplateError{Template: s, Count: count}
	}
	t.prefix = before
	t.suffix = b.String()
	return t, nil
}

// MustTemplate is like ParseTemplate but panics on error.
// Use it for templates compiled into the program.
func MustTemplate(s string) Template {
	t, err := ParseTemplate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Render substitutes text for the placeholder.
func (t Template) Render(text string) string {
	return t.prefix + text + t.suffix
}

// String returns the template in its source form.
func (t Template) String() string {
	return strings.ReplaceAll(t.prefix, "%", "%%") + Placeholder + strings.ReplaceAll(t.suffix, "%", "%%")
}
