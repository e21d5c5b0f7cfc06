package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/sqlmark/internal/cli/config"
	"github.com/leapstack-labs/sqlmark/internal/cli/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configHeader is written above the generated config.
const configHeader = `# sqlmark configuration.
# Every key can be overridden with SQLMARK_<KEY> environment variables or flags.
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new sqlmark project",
		Long: `Initialize a new sqlmark project.

This creates:
  - models/ directory for SQL files
  - sqlmark.yaml configuration file

Use --example to add sample staging and mart models.`,
		Example: `  # Initialize in current directory
  sqlmark init

  # Initialize with example models
  sqlmark init --example

  # Initialize in a new directory
  sqlmark init my-project --example

  # Force overwrite existing config
  sqlmark init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr())
			return runInit(r, dir, force, example)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Add example models")

	return cmd
}

// starterConfig returns the YAML written by init.
func starterConfig() ([]byte, error) {
	cfg := config.Default()

	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	// Durations encode as nanoseconds; write them the way users type them.
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "timeout" {
			doc.Content[i+1].SetString(cfg.Timeout.String())
		}
	}

	body, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return append([]byte(configHeader), body...), nil
}

func runInit(r *output.Renderer, dir string, force, example bool) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.FileNames[0])
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.FileNames[0])
	}

	content, err := starterConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	if err := os.MkdirAll(filepath.Join(dir, config.DefaultModelsDir), 0o750); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	r.Header(2, "Configuration")
	r.StatusLine(config.FileNames[0], "success", "")

	if example {
		if err := copyTemplate("example", dir, force); err != nil {
			return fmt.Errorf("failed to initialize project: %w", err)
		}
		files, err := listTemplateFiles("example")
		if err != nil {
			return err
		}
		r.Println("")
		r.Header(2, "Models")
		for _, f := range files {
			r.StatusLine(f, "success", "")
		}
	}

	r.Println("")
	r.Success("sqlmark project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  sqlmark render models/<file>.sql   Highlight one file")
	r.Println("  sqlmark build                      Build the HTML site")
	r.Println("  sqlmark serve                      Preview with live reload")
	return nil
}
