// Package loader discovers SQL scripts and their YAML frontmatter.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Frontmatter holds the optional metadata block at the top of a script.
type Frontmatter struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Owner       string         `yaml:"owner"`
	Tags        []string       `yaml:"tags"`
	Meta        map[string]any `yaml:"meta"` // Extension point for custom fields
}

// FrontmatterResult holds the result of frontmatter extraction.
type FrontmatterResult struct {
	Config  *Frontmatter
	SQL     string // SQL content after frontmatter
	HasYAML bool
}

// frontmatterPattern matches a leading /*--- ... ---*/ block.
var frontmatterPattern = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\s*---\*/`)

// ExtractFrontmatter splits content into frontmatter and SQL.
// Content without a frontmatter block is returned unchanged.
func ExtractFrontmatter(content string) (*FrontmatterResult, error) {
	result := &FrontmatterResult{
		Config: &Frontmatter{},
		SQL:    content,
	}

	loc := frontmatterPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return result, nil
	}

	config, err := parseFrontmatterYAML(content[loc[2]:loc[3]])
	if err != nil {
		return nil, err
	}

	result.HasYAML = true
	result.Config = config
	result.SQL = strings.TrimLeft(content[loc[1]:], "\r\n")
	return result, nil
}

// parseFrontmatterYAML decodes YAML, rejecting unknown fields.
func parseFrontmatterYAML(yamlContent string) (*Frontmatter, error) {
	dec := yaml.NewDecoder(bytes.NewBufferString(yamlContent))
	dec.KnownFields(true)

	var config Frontmatter
	if err := dec.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		if field := unknownField(err); field != "" {
			return nil, &UnknownFieldError{Field: field}
		}
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}
	}
	return &config, nil
}

// unknownFieldPattern extracts the field name from yaml.v3's strict-mode error.
var unknownFieldPattern = regexp.MustCompile(`field (\S+) not found in type`)

func unknownField(err error) string {
	var typeErr *yaml.TypeError
	if !errors.As(err, &typeErr) {
		return ""
	}
	for _, msg := range typeErr.Errors {
		if m := unknownFieldPattern.FindStringSubmatch(msg); m != nil {
			return m[1]
		}
	}
	return ""
}

// FrontmatterParseError represents a frontmatter parsing error.
type FrontmatterParseError struct {
	File    string
	Message string
}

func (e *FrontmatterParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError represents an error for unknown frontmatter fields.
type UnknownFieldError struct {
	File  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in frontmatter, use \"meta\" field for custom fields", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
