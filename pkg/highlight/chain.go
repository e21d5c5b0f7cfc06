package highlight

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/sqlmark/pkg/split"
	"github.com/leapstack-labs/sqlmark/pkg/vocab"
)

// Built-in stage names.
const (
	StageLiterals = "literals"
	StageKeywords = "keywords"
)

// LineCommentPattern matches a -- comment up to the end of its line.
const LineCommentPattern = `--[^\n]*`

// DefaultRegions are the region stages used when Config.Regions is nil.
var DefaultRegions = []RegionDef{
	{Name: string(CategoryLineComment), Pattern: LineCommentPattern},
}

// RegionDef defines a region stage.
type RegionDef struct {
	// Name identifies the stage in Config.Order and selects the theme
	// category when Template is empty.
	Name string `koanf:"name" yaml:"name"`

	// Pattern is a regexp2 (.NET syntax) regular expression.
	Pattern string `koanf:"pattern" yaml:"pattern"`

	// Template optionally overrides the theme, e.g. `<em>%s</em>`.
	Template string `koanf:"template" yaml:"template,omitempty"`
}

// Config describes a pipeline.
type Config struct {
	// Keywords claimed by the keywords stage.
	Keywords vocab.Set

	// Dependencies maps names to replacement text for the terminal
	// substitution. Replacements are inserted verbatim.
	Dependencies map[string]string

	// Regions are the available region stages. Nil means DefaultRegions.
	Regions []RegionDef

	// Order lists stage names from outermost to innermost. Empty means
	// literals, then every region in definition order, then keywords.
	Order []string

	// Theme renders claimed spans. The zero Theme renders text unchanged.
	Theme Theme

	// Templates override theme renderers per category.
	Templates map[Category]string

	// Timeout bounds each Split call of a region stage. Zero means
	// split.DefaultTimeout.
	Timeout time.Duration

	Logger *slog.Logger
}

// UnknownStageError is returned when Config.Order names an undefined stage.
type UnknownStageError struct {
	Name      string
	Available []string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("unknown stage %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Chain is an assembled pipeline.
type Chain struct {
	root   Processor
	stages []string
}

// Process renders text through every stage.
func (c *Chain) Process(text string) string {
	return c.root.Process(text)
}

// Stages returns stage names from outermost to innermost.
func (c *Chain) Stages() []string {
	return append([]string(nil), c.stages...)
}

// Build assembles a pipeline from cfg. Template errors are configuration
// errors and are returned rather than recovered.
func Build(cfg Config) (*Chain, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	regions := cfg.Regions
	if regions == nil {
		regions = DefaultRegions
	}

	theme := cfg.Theme
	for c, src := range cfg.Templates {
		t, err := ParseTemplate(src)
		if err != nil {
			return nil, fmt.Errorf("theme category %s: %w", c, err)
		}
		theme = theme.With(c, t)
	}

	defs := make(map[string]RegionDef, len(regions))
	available := []string{StageLiterals, StageKeywords}
	for _, r := range regions {
		if r.Name == StageLiterals || r.Name == StageKeywords {
			return nil, fmt.Errorf("region name %q is reserved", r.Name)
		}
		if _, dup := defs[r.Name]; dup {
			return nil, fmt.Errorf("duplicate region %q", r.Name)
		}
		defs[r.Name] = r
		available = append(available, r.Name)
	}

	order := cfg.Order
	if len(order) == 0 {
		order = DefaultOrder(regions)
	}

	seen := make(map[string]bool, len(order))
	for _, name := range order {
		if seen[name] {
			return nil, fmt.Errorf("stage %q listed twice", name)
		}
		seen[name] = true
	}

	var next Processor = NewSubstitution(cfg.Dependencies, theme.Escape)
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]

		var (
			splitter split.Splitter
			render   Renderer
		)
		switch name {
		case StageLiterals:
			splitter = split.NewLiterals()
			render = literalRenderer(theme)
		case StageKeywords:
			splitter = split.NewKeywords(cfg.Keywords)
			render = escaped(theme.Renderer(CategoryKeyword), theme.Escape)
		default:
			def, ok := defs[name]
			if !ok {
				return nil, &UnknownStageError{Name: name, Available: available}
			}
			region, err := split.NewRegion(def.Pattern,
				split.WithName(def.Name),
				split.WithTimeout(cfg.Timeout),
				split.WithLogger(logger))
			if err != nil {
				return nil, fmt.Errorf("region %s: %w", def.Name, err)
			}
			splitter = region
			render, err = regionRenderer(theme, def)
			if err != nil {
				return nil, fmt.Errorf("region %s: %w", def.Name, err)
			}
		}
		next = NewStage(name, splitter, render, next)
	}

	for name := range defs {
		if !seen[name] {
			logger.Debug("region defined but not in stage order", "region", name)
		}
	}
	logger.Debug("pipeline assembled", "stages", order, "dependencies", len(cfg.Dependencies))

	return &Chain{root: next, stages: append([]string(nil), order...)}, nil
}

// DefaultOrder returns literals, the given regions, then keywords.
func DefaultOrder(regions []RegionDef) []string {
	order := make([]string, 0, len(regions)+2)
	order = append(order, StageLiterals)
	for _, r := range regions {
		order = append(order, r.Name)
	}
	return append(order, StageKeywords)
}

// literalRenderer picks the string or comment renderer by the first
// character of the claimed text.
func literalRenderer(theme Theme) Renderer {
	str := escaped(theme.Renderer(CategoryString), theme.Escape)
	comment := escaped(theme.Renderer(CategoryComment), theme.Escape)
	return RenderFunc(func(text string) string {
		if split.IsStringLiteral(text) {
			return str.Render(text)
		}
		return comment.Render(text)
	})
}

func regionRenderer(theme Theme, def RegionDef) (Renderer, error) {
	if def.Template == "" {
		return escaped(theme.Renderer(Category(def.Name)), theme.Escape), nil
	}
	t, err := ParseTemplate(def.Template)
	if err != nil {
		return nil, err
	}
	return escaped(t, theme.Escape), nil
}
