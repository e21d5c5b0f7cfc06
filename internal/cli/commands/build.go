package commands

import (
	"fmt"

	"github.com/leapstack-labs/sqlmark/internal/site"
	"github.com/leapstack-labs/sqlmark/pkg/highlight"
	"github.com/spf13/cobra"
)

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Render every model into a static HTML site",
		Long: `Render every .sql file under the models directory into a static HTML site.

Each model gets its own page; references to other models by name become
links between pages. An index page lists models grouped by folder.`,
		Example: `  # Build into ./site
  sqlmark build

  # Build from another models directory into ./public
  sqlmark build --models-dir ./sql --out-dir ./public`,
		Args: cobra.NoArgs,
		RunE: runBuild,
	}
}

// newGenerator loads the models directory into a site generator.
func newGenerator(cc *CommandContext) (*site.Generator, error) {
	if err := cc.Cfg.ValidateDirectories(); err != nil {
		return nil, err
	}

	pipeline, err := cc.Pipeline(highlight.HTMLTheme())
	if err != nil {
		return nil, err
	}

	gen := site.NewGenerator(site.Options{
		ProjectName: cc.Cfg.Name(),
		ModelsDir:   cc.Cfg.ModelsDir,
		Pipeline:    pipeline,
		Logger:      cc.Logger,
	})
	if err := gen.Load(); err != nil {
		return nil, err
	}
	return gen, nil
}

func runBuild(cmd *cobra.Command, _ []string) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	gen, err := newGenerator(cc)
	if err != nil {
		return err
	}

	result, err := gen.Build(cmd.Context(), cc.Cfg.OutDir)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	for _, s := range gen.Scripts() {
		r.StatusLine(s.Path, "success", "")
	}
	for _, e := range gen.Errors() {
		r.StatusLine(e.Path, "error", e.Message)
	}

	r.Success(fmt.Sprintf("Built %d pages with %d references into %s",
		result.Pages, result.References, cc.Cfg.OutDir))
	if result.Skipped > 0 {
		r.Warning(fmt.Sprintf("%d files skipped", result.Skipped))
	}
	return nil
}
