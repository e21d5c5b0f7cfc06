package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/leapstack-labs/sqlmark/pkg/highlight"
	"github.com/leapstack-labs/sqlmark/pkg/vocab"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ModelsDir == "" {
		return fmt.Errorf("models_dir is required")
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("invalid format %q (expected one of: %s)", c.Format, strings.Join(Formats, ", "))
	}
	if _, err := vocab.Lookup(c.Dialect); err != nil {
		return fmt.Errorf("invalid dialect: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Serve.Port < 1 || c.Serve.Port > 65535 {
		return fmt.Errorf("serve.port must be between 1 and 65535, got %d", c.Serve.Port)
	}

	for i, r := range c.Regions {
		if r.Name == "" {
			return fmt.Errorf("regions[%d]: name is required", i)
		}
		if r.Pattern == "" {
			return fmt.Errorf("regions[%d] (%s): pattern is required", i, r.Name)
		}
		if r.Template != "" {
			if _, err := highlight.ParseTemplate(r.Template); err != nil {
				return fmt.Errorf("regions[%d] (%s): %w", i, r.Name, err)
			}
		}
	}

	for category, tmpl := range c.Theme {
		if _, err := highlight.ParseTemplate(tmpl); err != nil {
			return fmt.Errorf("theme.%s: %w", category, err)
		}
	}

	return nil
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	info, err := os.Stat(c.ModelsDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("models directory does not exist: %s\nHint: Create the directory or use --models-dir to specify a different path", c.ModelsDir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("models_dir is not a directory: %s", c.ModelsDir)
	}
	return nil
}
