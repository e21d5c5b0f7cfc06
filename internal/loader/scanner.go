package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Script is a single SQL file discovered under the models directory.
type Script struct {
	Name        string // frontmatter name, or the file name without extension
	Path        string // dot-separated path relative to the models dir, e.g. "staging.stg_orders"
	FilePath    string // absolute path on disk
	Description string
	Owner       string
	Tags        []string
	Meta        map[string]any
	SQL         string // content with the frontmatter block removed
	HasYAML     bool
}

// Schema returns the directory part of Path ("staging" for "staging.stg_orders").
func (s *Script) Schema() string {
	if i := strings.LastIndex(s.Path, "."); i >= 0 {
		return s.Path[:i]
	}
	return ""
}

// DiscoveryError records a file that could not be loaded.
type DiscoveryError struct {
	Path    string
	Message string
}

func (e DiscoveryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Result is the outcome of scanning a models directory.
type Result struct {
	Scripts []*Script
	Errors  []DiscoveryError
}

// Scanner walks a models directory for .sql files.
type Scanner struct {
	baseDir string
	logger  *slog.Logger
}

// NewScanner creates a scanner rooted at baseDir.
func NewScanner(baseDir string, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{baseDir: baseDir, logger: logger}
}

// Scan loads every .sql file under the base directory. Files that fail to
// load are reported in Result.Errors and skipped; Scan itself only fails
// when the directory cannot be walked.
func (s *Scanner) Scan() (*Result, error) {
	absDir, err := filepath.Abs(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve models directory: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("models directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("models directory %s is not a directory", absDir)
	}

	s.logger.Debug("discovering scripts", "models_dir", absDir)

	result := &Result{}
	err = filepath.Walk(absDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			if path != absDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(info.Name(), ".sql") {
			return nil
		}

		script, loadErr := s.Load(path)
		if loadErr != nil {
			s.logger.Debug("script load error", "path", path, "error", loadErr.Error())
			result.Errors = append(result.Errors, DiscoveryError{Path: path, Message: loadErr.Error()})
			return nil
		}

		s.logger.Debug("loaded script", "path", path, "name", script.Name)
		result.Scripts = append(result.Scripts, script)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result.Scripts, func(i, j int) bool {
		return result.Scripts[i].Path < result.Scripts[j].Path
	})
	return result, nil
}

// Load reads and parses a single file. The file must live under the
// scanner's base directory.
func (s *Scanner) Load(path string) (*Script, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from walking the models directory
	if err != nil {
		return nil, err
	}
	return s.Parse(path, string(content))
}

// Parse builds a Script from file content without touching the disk.
func (s *Scanner) Parse(path, content string) (*Script, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return nil, err
	}

	fm, err := ExtractFrontmatter(content)
	if err != nil {
		switch e := err.(type) { //nolint:errorlint // both types are returned unwrapped
		case *UnknownFieldError:
			e.File = absPath
		case *FrontmatterParseError:
			e.File = absPath
		}
		return nil, err
	}

	modelPath, err := scriptPath(absBase, absPath)
	if err != nil {
		return nil, err
	}

	name := fm.Config.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(absPath), ".sql")
	}

	return &Script{
		Name:        name,
		Path:        modelPath,
		FilePath:    absPath,
		Description: fm.Config.Description,
		Owner:       fm.Config.Owner,
		Tags:        fm.Config.Tags,
		Meta:        fm.Config.Meta,
		SQL:         fm.SQL,
		HasYAML:     fm.HasYAML,
	}, nil
}

// scriptPath turns models/staging/stg_orders.sql into "staging.stg_orders".
func scriptPath(base, file string) (string, error) {
	rel, err := filepath.Rel(base, file)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside %s", file, base)
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".sql")
	return strings.ReplaceAll(rel, "/", "."), nil
}
