package highlight

import (
	"strings"

	"github.com/leapstack-labs/sqlmark/pkg/split"
)

// Stage renders the spans its splitter claims and delegates the rest.
type Stage struct {
	name     string
	splitter split.Splitter
	render   Renderer
	next     Processor
}

// NewStage creates a stage. A nil next passes unclaimed text through
// unchanged.
func NewStage(name string, splitter split.Splitter, render Renderer, next Processor) *Stage {
	if next == nil {
		next = Passthrough{}
	}
	if render == nil {
		render = Passthrough{}
	}
	return &Stage{
		name:     name,
		splitter: splitter,
		render:   render,
		next:     next,
	}
}

// Name returns the stage name.
func (s *Stage) Name() string {
	return s.name
}

// Process splits text and concatenates the rendered spans.
func (s *Stage) Process(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, sp := range s.splitter.Split(text) {
		if sp.Length == 0 {
			continue
		}
		if sp.Claimed {
			b.WriteString(s.render.Render(sp.Text))
		} else {
			b.WriteString(s.next.Process(sp.Text))
		}
	}
	return b.String()
}
