package commands

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlmark/internal/cli/config"
	"github.com/leapstack-labs/sqlmark/internal/cli/output"
	"github.com/leapstack-labs/sqlmark/pkg/highlight"
	"github.com/leapstack-labs/sqlmark/pkg/vocab"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the config, logger and renderer for cmd.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:      config.FromContext(cmd.Context()),
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr()),
	}
}

// Vocabulary returns the configured dialect's vocabulary.
func (c *CommandContext) Vocabulary() (*vocab.Vocabulary, error) {
	return vocab.Lookup(c.Cfg.Dialect)
}

// Keywords returns the dialect keywords plus configured extras.
func (c *CommandContext) Keywords() (vocab.Set, error) {
	v, err := c.Vocabulary()
	if err != nil {
		return vocab.Set{}, err
	}
	return v.Keywords.With(c.Cfg.Keywords...), nil
}

// Format resolves "auto" to ansi on a terminal and html otherwise.
func (c *CommandContext) Format() string {
	if c.Cfg.Format != config.FormatAuto {
		return c.Cfg.Format
	}
	if c.Renderer.IsTTY() {
		return config.FormatANSI
	}
	return config.FormatHTML
}

// Theme returns the theme for a resolved format.
func (c *CommandContext) Theme(format string) (highlight.Theme, error) {
	switch format {
	case config.FormatHTML:
		return highlight.HTMLTheme(), nil
	case config.FormatANSI:
		return highlight.ANSITheme(c.Renderer.ColorProfile()), nil
	case config.FormatPlain:
		return highlight.PlainTheme(), nil
	}
	return highlight.Theme{}, fmt.Errorf("unsupported format %q", format)
}

// Pipeline builds the highlighting configuration from the CLI config.
// Dependencies are passed through unrendered; see Chain.
func (c *CommandContext) Pipeline(theme highlight.Theme) (highlight.Config, error) {
	keywords, err := c.Keywords()
	if err != nil {
		return highlight.Config{}, err
	}

	templates := make(map[highlight.Category]string, len(c.Cfg.Theme))
	for category, tmpl := range c.Cfg.Theme {
		templates[highlight.Category(category)] = tmpl
	}

	return highlight.Config{
		Keywords:     keywords,
		Dependencies: c.Cfg.Dependencies,
		Regions:      c.Cfg.Regions,
		Order:        c.Cfg.Stages,
		Theme:        theme,
		Templates:    templates,
		Timeout:      c.Cfg.Timeout,
		Logger:       c.Logger,
	}, nil
}

// Chain assembles the pipeline for format, styling configured dependency
// replacements with the theme.
func (c *CommandContext) Chain(format string) (*highlight.Chain, error) {
	theme, err := c.Theme(format)
	if err != nil {
		return nil, err
	}
	cfg, err := c.Pipeline(theme)
	if err != nil {
		return nil, err
	}

	if len(cfg.Dependencies) > 0 {
		deps := make(map[string]string, len(cfg.Dependencies))
		for name, replacement := range cfg.Dependencies {
			deps[name] = theme.Dependency(replacement)
		}
		cfg.Dependencies = deps
	}

	chain, err := highlight.Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid highlighting configuration: %w", err)
	}
	c.Logger.Debug("pipeline ready", "format", format, "stages", chain.Stages())
	return chain, nil
}
