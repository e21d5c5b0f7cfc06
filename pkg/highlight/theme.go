package highlight

import (
	"html"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Category names a kind of claimed span.
type Category string

// Built-in categories. Region stages use their region name as category.
const (
	CategoryKeyword     Category = "keyword"
	CategoryString      Category = "string"
	CategoryComment     Category = "comment"
	CategoryLineComment Category = "line_comment"
	CategoryDependency  Category = "dependency"
)

// Theme maps categories to renderers.
type Theme struct {
	Name string

	// Escape is applied to every piece of source text before it is rendered.
	// Nil means no escaping.
	Escape func(string) string

	// Renderers holds per-category renderers. They receive escaped text.
	Renderers map[Category]Renderer

	// Fallback renders categories missing from Renderers. Nil means
	// pass-through.
	Fallback func(Category) Renderer
}

// Renderer returns the renderer for category c.
func (t Theme) Renderer(c Category) Renderer {
	if r, ok := t.Renderers[c]; ok {
		return r
	}
	if t.Fallback != nil {
		return t.Fallback(c)
	}
	return Passthrough{}
}

// With returns a copy of t with c rendered by r.
func (t Theme) With(c Category, r Renderer) Theme {
	renderers := make(map[Category]Renderer, len(t.Renderers)+1)
	for k, v := range t.Renderers {
		renderers[k] = v
	}
	renderers[c] = r
	t.Renderers = renderers
	return t
}

// Dependency renders a dependency replacement the way the theme styles
// dependency references. Callers use it to build Config.Dependencies values
// from plain display text.
func (t Theme) Dependency(text string) string {
	return escaped(t.Renderer(CategoryDependency), t.Escape).Render(text)
}

// PlainTheme renders every span unchanged.
func PlainTheme() Theme {
	return Theme{Name: "plain"}
}

// HTMLTheme wraps spans in <span class="sql-..."> elements and escapes
// source text.
func HTMLTheme() Theme {
	return Theme{
		Name:   "html",
		Escape: html.EscapeString,
		Renderers: map[Category]Renderer{
			CategoryKeyword:     htmlClass("keyword"),
			CategoryString:      htmlClass("string"),
			CategoryComment:     htmlClass("comment"),
			CategoryLineComment: htmlClass("comment"),
			CategoryDependency:  htmlClass("dependency"),
		},
		Fallback: func(c Category) Renderer {
			return htmlClass(string(c))
		},
	}
}

// htmlClass returns a template wrapping text in a span with class sql-<name>.
func htmlClass(name string) Template {
	class := strings.ReplaceAll(html.EscapeString("sql-"+name), "%", "%%")
	return MustTemplate(`<span class="` + class + `">%s</span>`)
}

// HTMLStyles is the stylesheet matching HTMLTheme's classes.
const HTMLStyles = `.sql { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; white-space: pre; }
.sql-keyword { color: #0033b3; font-weight: bold; }
.sql-string { color: #067d17; }
.sql-comment { color: #8c8c8c; font-style: italic; }
.sql-dependency { color: #871094; text-decoration: underline; }
`

// ANSITheme styles spans with terminal escape sequences for profile.
func ANSITheme(profile termenv.Profile) Theme {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(profile)

	base := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	comment := lineStyle(base.Foreground(lipgloss.Color("8")).Italic(true))

	return Theme{
		Name: "ansi",
		Renderers: map[Category]Renderer{
			CategoryKeyword:     lineStyle(base.Foreground(lipgloss.Color("12")).Bold(true)),
			CategoryString:      lineStyle(base.Foreground(lipgloss.Color("10"))),
			CategoryComment:     comment,
			CategoryLineComment: comment,
			CategoryDependency:  lineStyle(base.Foreground(lipgloss.Color("13")).Underline(true)),
		},
		Fallback: func(Category) Renderer {
			return lineStyle(base.Foreground(lipgloss.Color("11")))
		},
	}
}

// lineStyle renders each line separately so lipgloss does not pad multi-line
// spans into a block.
func lineStyle(style lipgloss.Style) Renderer {
	return RenderFunc(func(text string) string {
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			if line != "" {
				lines[i] = style.Render(line)
			}
		}
		return strings.Join(lines, "\n")
	})
}
