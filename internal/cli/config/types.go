// Package config provides configuration management for the sqlmark CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/sqlmark/pkg/highlight"
	"github.com/leapstack-labs/sqlmark/pkg/vocab"
)

// Output formats.
const (
	FormatAuto  = "auto" // TTY: ansi, otherwise html
	FormatHTML  = "html"
	FormatANSI  = "ansi"
	FormatPlain = "plain"
)

// Formats lists the accepted values of the format key.
var Formats = []string{FormatAuto, FormatHTML, FormatANSI, FormatPlain}

// Default configuration values.
const (
	DefaultModelsDir = "models"
	DefaultOutDir    = "site"
	DefaultFormat    = FormatAuto
	DefaultDialect   = vocab.DefaultDialect
	DefaultTimeout   = time.Second
	DefaultPort      = 8765
)

// Config holds all CLI configuration options.
type Config struct {
	ModelsDir   string `koanf:"models_dir" yaml:"models_dir"`
	OutDir      string `koanf:"out_dir" yaml:"out_dir"`
	ProjectName string `koanf:"project_name" yaml:"project_name,omitempty"`
	Format      string `koanf:"format" yaml:"format"`
	Dialect     string `koanf:"dialect" yaml:"dialect"`

	// Keywords are added to the dialect's vocabulary.
	Keywords []string `koanf:"keywords" yaml:"keywords,omitempty"`

	// Dependencies maps lowercase names to replacement text. ${VAR}
	// references in values are expanded from the environment.
	Dependencies map[string]string `koanf:"dependencies" yaml:"dependencies,omitempty"`

	// Regions replace the default region stages when set.
	Regions []highlight.RegionDef `koanf:"regions" yaml:"regions,omitempty"`

	// Stages is the stage order, outermost first.
	Stages []string `koanf:"stages" yaml:"stages,omitempty"`

	// Theme overrides the renderer of a category with a %s template.
	Theme map[string]string `koanf:"theme" yaml:"theme,omitempty"`

	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
	Verbose bool          `koanf:"verbose" yaml:"-"`
	Serve   ServeConfig   `koanf:"serve" yaml:"serve"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-" yaml:"-"`
}

// ServeConfig holds configuration for the development server.
type ServeConfig struct {
	Port  int  `koanf:"port" yaml:"port"`
	Watch bool `koanf:"watch" yaml:"watch"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		ModelsDir: DefaultModelsDir,
		OutDir:    DefaultOutDir,
		Format:    DefaultFormat,
		Dialect:   DefaultDialect,
		Timeout:   DefaultTimeout,
		Serve: ServeConfig{
			Port:  DefaultPort,
			Watch: true,
		},
	}
}

// Name returns the project name, falling back to the project directory name.
func (c *Config) Name() string {
	if c.ProjectName != "" {
		return c.ProjectName
	}
	if c.ProjectRoot != "" {
		return baseName(c.ProjectRoot)
	}
	return "sqlmark"
}
