package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// EnvPrefix prefixes environment variables read as configuration.
const EnvPrefix = "SQLMARK_"

// FileNames are the config file names searched for, in order.
var FileNames = []string{"sqlmark.yaml", "sqlmark.yml"}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

var configFileUsed string

// configExistsIn returns the config file in dir, or "".
func configExistsIn(dir string) string {
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findProjectRootUpward searches upward from startDir for a config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root.
// Priority:
//  1. Directory of an explicit config file
//  2. Infer from --models-dir (parent if it has a config file or the folder is named "models")
//  3. Search upward from CWD for sqlmark.yaml
//  4. Current working directory
func inferProjectRoot(cfgFile string, flags *pflag.FlagSet) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}

	if flags != nil && flags.Changed("models-dir") {
		if modelsDir, _ := flags.GetString("models-dir"); modelsDir != "" {
			if absModels, err := filepath.Abs(modelsDir); err == nil {
				parent := filepath.Dir(absModels)
				if configExistsIn(parent) != "" || filepath.Base(absModels) == "models" {
					return parent
				}
			}
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	if root := findProjectRootUpward(cwd); root != "" {
		return root
	}
	return cwd
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func baseName(dir string) string {
	return filepath.Base(filepath.Clean(dir))
}

// ResetConfig clears the recorded config file. Used for testing.
func ResetConfig() {
	configFileUsed = ""
}

// envKey maps SQLMARK_MODELS_DIR to models_dir and SQLMARK_SERVE_PORT to
// serve.port.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "serve_"); ok {
		return "serve." + rest
	}
	return key
}

// FlagKey maps a flag name to the config key it sets when changed.
func FlagKey(name string) string {
	switch name {
	case "port", "watch":
		return "serve." + name
	}
	return strings.ReplaceAll(name, "-", "_")
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// Only flags marked as changed are applied.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	configFileUsed = ""

	projectRoot := inferProjectRoot(cfgFile, flags)

	// Paths given as flags are relative to the CWD, not the project root.
	var flagPaths = make(map[string]string)
	if flags != nil {
		for _, name := range []string{"models-dir", "out-dir"} {
			if !flags.Changed(name) {
				continue
			}
			if v, _ := flags.GetString(name); v != "" {
				abs, err := filepath.Abs(v)
				if err != nil {
					return nil, fmt.Errorf("invalid --%s: %w", name, err)
				}
				flagPaths[name] = abs
			}
		}
	}

	// 1. Defaults
	def := Default()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"models_dir":  def.ModelsDir,
		"out_dir":     def.OutDir,
		"format":      def.Format,
		"dialect":     def.Dialect,
		"timeout":     def.Timeout.String(),
		"verbose":     false,
		"serve.port":  def.Serve.Port,
		"serve.watch": def.Serve.Watch,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" {
		cfgFile = configExistsIn(projectRoot)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		configFileUsed = cfgFile
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			switch f.Name {
			case "config":
				return "", nil
			}
			return FlagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve paths
	cfg.ProjectRoot = projectRoot
	if p, ok := flagPaths["models-dir"]; ok {
		cfg.ModelsDir = p
	} else {
		cfg.ModelsDir = resolvePathRelativeTo(cfg.ModelsDir, projectRoot)
	}
	if p, ok := flagPaths["out-dir"]; ok {
		cfg.OutDir = p
	} else {
		cfg.OutDir = resolvePathRelativeTo(cfg.OutDir, projectRoot)
	}

	cfg.Dialect = strings.ToLower(strings.TrimSpace(cfg.Dialect))
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	cfg.Dependencies = normalizeDependencies(cfg.Dependencies)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalizeDependencies lowercases keys and expands ${VAR} in values.
func normalizeDependencies(deps map[string]string) map[string]string {
	if len(deps) == 0 {
		return deps
	}
	out := make(map[string]string, len(deps))
	for k, v := range deps {
		out[strings.ToLower(k)] = expandEnvVars(v)
	}
	return out
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return val
		}
		return match
	})
}

// GetConfigFileUsed returns the path to the config file loaded last, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// WithConfig returns a context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored by WithConfig, or defaults resolved
// against the working directory.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	cfg := Default()
	if cwd, err := os.Getwd(); err == nil {
		cfg.ProjectRoot = cwd
		cfg.ModelsDir = resolvePathRelativeTo(cfg.ModelsDir, cwd)
		cfg.OutDir = resolvePathRelativeTo(cfg.OutDir, cwd)
	}
	return cfg
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
