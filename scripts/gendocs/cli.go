package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqlmark/internal/cli"
	"github.com/leapstack-labs/sqlmark/internal/cli/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cliDocs renders one markdown page per command of a cobra tree. Flags that
// map onto a configuration key are cross-referenced with the key and its
// environment variable.
type cliDocs struct {
	root   *cobra.Command
	fields map[string]ConfigField
}

func newCLIDocs(root *cobra.Command) *cliDocs {
	fields := make(map[string]ConfigField)
	for _, f := range configFields() {
		fields[f.Key] = f
	}
	return &cliDocs{root: root, fields: fields}
}

// generateCLIDocs writes index.md and a page per command into outDir.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)
	return newCLIDocs(cli.NewRootCmd()).write(outDir)
}

func (d *cliDocs) write(outDir string) error {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	pages := map[string][]byte{"index.md": d.index()}
	for _, cmd := range d.commands() {
		pages[cmd.Name()+".md"] = d.page(cmd)
	}
	for name, content := range pages {
		if err := os.WriteFile(filepath.Join(outDir, name), content, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		log.Printf("  Generated %s", name)
	}
	return nil
}

// commands returns the documented subcommands in cobra's order.
func (d *cliDocs) commands() []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range d.root.Commands() {
		if !cmd.IsAvailableCommand() || cmd.Name() == "help" {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func (d *cliDocs) index() []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line reference for "+d.root.Name())
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(d.root.Long)
	w.CodeBlock("bash", "go install github.com/leapstack-labs/sqlmark/cmd/sqlmark@latest")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range d.commands() {
		link := fmt.Sprintf("[%s](%s.md)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	w.Table(flagHeaders, d.flagRows(d.root, d.root.PersistentFlags()))
	w.Paragraph(fmt.Sprintf(
		"A flag overrides its environment variable, which overrides the key in %s. Flags that are not given leave the configured value alone.",
		InlineCode(config.FileNames[0])))

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "Success"},
		{InlineCode("1"), "Any error; the message is printed to stderr"},
	})
	return w.Bytes()
}

func (d *cliDocs) page(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", cmd.UseLine())

	if cmd.HasAvailableSubCommands() {
		w.Header(2, "Subcommands")
		var rows [][]string
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() {
				rows = append(rows, []string{InlineCode(sub.Name()), cleanDescription(sub.Short)})
			}
		}
		w.Table([]string{"Subcommand", "Description"}, rows)
	}

	if cmd.HasAvailableLocalFlags() {
		w.Header(2, "Options")
		w.Table(flagHeaders, d.flagRows(cmd, cmd.LocalFlags()))
	}
	if cmd.HasAvailableInheritedFlags() {
		w.Header(2, "Global Options")
		w.Paragraph("See the [CLI reference](index.md#global-options) for the flags shared by every command.")
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}
	return w.Bytes()
}

var flagHeaders = []string{"Option", "Default", "Values", "Setting", "Description"}

// flagRows describes each visible flag of flags as seen from cmd.
func (d *cliDocs) flagRows(cmd *cobra.Command, flags *pflag.FlagSet) [][]string {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		option := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			option += ", " + InlineCode("-"+f.Shorthand)
		}

		def := ""
		switch f.DefValue {
		case "", "[]", "0", "0s", "false":
		default:
			def = InlineCode(f.DefValue)
		}

		rows = append(rows, []string{
			option,
			def,
			codeList(completions(cmd, f.Name)),
			d.setting(f.Name),
			cleanDescription(f.Usage),
		})
	})
	return rows
}

// setting names the config key and environment variable a flag overrides.
func (d *cliDocs) setting(flag string) string {
	field, ok := d.fields[config.FlagKey(flag)]
	if !ok {
		return ""
	}
	if field.NoEnv {
		return InlineCode(field.Key)
	}
	return InlineCode(field.Key) + ", " + InlineCode(envVar(field.Key))
}

// completions returns the values offered by the flag's shell completion.
func completions(cmd *cobra.Command, flag string) []string {
	complete, ok := cmd.GetFlagCompletionFunc(flag)
	if !ok {
		return nil
	}
	values, _ := complete(cmd, nil, "")
	return values
}

func codeList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = InlineCode(v)
	}
	return strings.Join(quoted, ", ")
}

// dedent strips the indentation shared by every non-blank line.
func dedent(text string) string {
	lines := strings.Split(strings.Trim(text, "\n"), "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, line := range lines {
		if len(line) >= indent && indent > 0 {
			lines[i] = line[indent:]
		}
	}
	return strings.Join(lines, "\n")
}
