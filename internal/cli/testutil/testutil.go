// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlmark/internal/cli/config"
	"github.com/leapstack-labs/sqlmark/internal/cli/output"
	loggerutil "github.com/leapstack-labs/sqlmark/internal/testutil"
	"github.com/spf13/cobra"
)

// SetupTestProject creates a temporary project with two models, one
// referencing the other, and returns its root.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	files := map[string]string{
		filepath.Join("models", "staging", "stg_customers.sql"): `/*---
name: stg_customers
description: Cleaned customers
tags: [staging]
---*/
SELECT
    id AS customer_id,
    name AS customer_name -- display name
FROM raw_customers
WHERE name <> ''`,
		filepath.Join("models", "marts", "customers.sql"): `SELECT customer_id, customer_name
FROM stg_customers`,
	}

	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}

	return tmpDir
}

// TestConfig returns the default config rooted at projectDir.
func TestConfig(projectDir string) *config.Config {
	cfg := config.Default()
	cfg.ProjectRoot = projectDir
	cfg.ModelsDir = filepath.Join(projectDir, config.DefaultModelsDir)
	cfg.OutDir = filepath.Join(projectDir, config.DefaultOutDir)
	return cfg
}

// Result holds the captured output of a command run.
type Result struct {
	Out    string
	ErrOut string
}

// Execute runs cmd with args, stdin and cfg stored in its context, the way
// the root command prepares subcommands.
func Execute(t *testing.T, cmd *cobra.Command, cfg *config.Config, stdin string, args ...string) (Result, error) {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	ctx := context.WithValue(context.Background(), config.LoggerKey(), loggerutil.NewTestLogger(t))
	if cfg != nil {
		ctx = config.WithConfig(ctx, cfg)
	}

	err := cmd.ExecuteContext(ctx)
	return Result{Out: out.String(), ErrOut: errOut.String()}, err
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the given TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes ANSI escape codes from s.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
