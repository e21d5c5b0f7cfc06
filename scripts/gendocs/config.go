package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqlmark/internal/cli/config"
	"github.com/leapstack-labs/sqlmark/pkg/vocab"
	"gopkg.in/yaml.v3"
)

// ConfigField documents one key of sqlmark.yaml.
type ConfigField struct {
	Key         string
	Type        string
	Description string
	NoEnv       bool // structured values can only be set in the file
}

// configFields lists the keys of internal/cli/config.Config.
func configFields() []ConfigField {
	return []ConfigField{
		{Key: "models_dir", Type: "string", Description: "Directory scanned for .sql models"},
		{Key: "out_dir", Type: "string", Description: "Output directory of build"},
		{Key: "project_name", Type: "string", Description: "Site title (defaults to the project directory name)"},
		{Key: "format", Type: "string", Description: "Output format of render: " + strings.Join(config.Formats, ", ")},
		{Key: "dialect", Type: "string", Description: "Keyword dialect: " + strings.Join(vocab.List(), ", ")},
		{Key: "keywords", Type: "[]string", Description: "Extra keywords added to the dialect"},
		{Key: "dependencies", Type: "map[string]string", Description: "Names replaced by fixed text; ${VAR} is expanded", NoEnv: true},
		{Key: "regions", Type: "[]region", Description: "Custom region stages (name, pattern, template)", NoEnv: true},
		{Key: "stages", Type: "[]string", Description: "Stage order, outermost first"},
		{Key: "theme", Type: "map[string]string", Description: "Per-category %s templates", NoEnv: true},
		{Key: "timeout", Type: "duration", Description: "Time budget of one region stage pass over a text"},
		{Key: "serve.port", Type: "int", Description: "Port of the development server"},
		{Key: "serve.watch", Type: "bool", Description: "Reload when models change"},
	}
}

// envVar is the environment variable for a config key.
func envVar(key string) string {
	return config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// defaults flattens config.Default() to dotted keys.
func defaults() (map[string]string, error) {
	raw, err := yaml.Marshal(config.Default())
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}

	out := make(map[string]string)
	var flatten func(prefix string, m map[string]any)
	flatten = func(prefix string, m map[string]any) {
		for k, v := range m {
			if sub, ok := v.(map[string]any); ok {
				flatten(prefix+k+".", sub)
				continue
			}
			out[prefix+k] = fmt.Sprint(v)
		}
	}
	flatten("", tree)
	out["timeout"] = config.DefaultTimeout.String()
	return out, nil
}

// generateConfigDocs writes configuration.md.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	defs, err := defaults()
	if err != nil {
		return fmt.Errorf("failed to read defaults: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "sqlmark configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph(fmt.Sprintf("sqlmark reads %s from the project root, searching upward from the working directory. Relative paths resolve against the directory holding the file.",
		InlineCode(config.FileNames[0])))

	headers := []string{"Key", "Type", "Default", "Environment", "Description"}
	var rows [][]string
	for _, f := range configFields() {
		def := "-"
		if v, ok := defs[f.Key]; ok && v != "" {
			def = InlineCode(v)
		}
		env := "-"
		if !f.NoEnv {
			env = InlineCode(envVar(f.Key))
		}
		rows = append(rows, []string{InlineCode(f.Key), f.Type, def, env, cleanDescription(f.Description)})
	}
	w.Table(headers, rows)

	w.Header(2, "Example")
	w.CodeBlock("yaml", `models_dir: models
out_dir: site
dialect: duckdb
keywords: [qualify]
dependencies:
  raw_orders: ${WAREHOUSE}.raw.orders
regions:
  - name: jinja
    pattern: '\{\{.*?\}\}'
    template: '<mark>%s</mark>'
stages: [literals, line_comment, jinja, keywords]
theme:
  keyword: '<b>%s</b>'
serve:
  port: 8765
  watch: true`)

	if err := os.WriteFile(filepath.Join(outDir, "configuration.md"), w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")
	return nil
}
