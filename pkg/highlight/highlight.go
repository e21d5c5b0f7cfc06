// Package highlight composes splitters into a rendering pipeline.
//
// A pipeline is a chain of stages. Each stage splits its input, renders the
// spans it claims with its own Renderer and hands every unclaimed span to the
// next stage. The innermost processor is a Substitution, which replaces
// dependency names and performs no further splitting. Output is the
// concatenation of all rendered pieces in source order.
//
//	chain, err := highlight.Build(highlight.Config{
//		Keywords: vocab.NewSet("select", "from"),
//		Theme:    highlight.HTMLTheme(),
//	})
//	html := chain.Process("SELECT 'x' FROM t")
package highlight

// Processor renders a text buffer.
//
// Implementations must be referentially transparent: the same input always
// yields the same output and no state is shared between calls, so one
// Processor may serve many goroutines.
type Processor interface {
	Process(text string) string
}

// Renderer formats the text of a claimed span.
type Renderer interface {
	Render(text string) string
}

// RenderFunc adapts a function to the Renderer interface.
type RenderFunc func(text string) string

// Render calls f(text).
func (f RenderFunc) Render(text string) string {
	return f(text)
}

// Passthrough renders and processes text unchanged.
type Passthrough struct{}

// Render returns text unchanged.
func (Passthrough) Render(text string) string { return text }

// Process returns text unchanged.
func (Passthrough) Process(text string) string { return text }

// escaped applies escape to span text before r renders it.
func escaped(r Renderer, escape func(string) string) Renderer {
	if escape == nil {
		return r
	}
	return RenderFunc(func(text string) string {
		return r.Render(escape(text))
	})
}
