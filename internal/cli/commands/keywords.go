package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/sqlmark/internal/cli/output"
	"github.com/leapstack-labs/sqlmark/pkg/vocab"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// keywordColumns is the number of keywords per table row.
const keywordColumns = 6

// NewKeywordsCommand creates the keywords command.
func NewKeywordsCommand() *cobra.Command {
	var dialects bool

	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "List the active keyword vocabulary",
		Long: `List the keywords highlighted for the configured dialect, including extra
keywords from the config file. Use --dialects to list the built-in dialects.`,
		Example: `  # Keywords for the configured dialect
  sqlmark keywords

  # Keywords for DuckDB
  sqlmark keywords --dialect duckdb

  # Available dialects
  sqlmark keywords --dialects`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			if dialects {
				return listDialects(cc.Renderer)
			}
			return listKeywords(cc)
		},
	}

	cmd.Flags().BoolVar(&dialects, "dialects", false, "List available dialects")
	return cmd
}

func newTable(r *output.Renderer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	return t
}

// renderTable renders box tables on a terminal and markdown otherwise.
func renderTable(r *output.Renderer, t table.Writer) {
	if r.IsTTY() {
		t.Render()
		return
	}
	t.RenderMarkdown()
}

func listKeywords(cc *CommandContext) error {
	v, err := cc.Vocabulary()
	if err != nil {
		return err
	}
	keywords, err := cc.Keywords()
	if err != nil {
		return err
	}
	words := keywords.Sorted()

	title := cases.Title(language.English).String(v.Name)
	t := newTable(cc.Renderer)
	t.SetTitle(fmt.Sprintf("%s keywords (%d)", title, len(words)))
	for i := 0; i < len(words); i += keywordColumns {
		end := min(i+keywordColumns, len(words))
		row := make(table.Row, 0, keywordColumns)
		for _, w := range words[i:end] {
			row = append(row, strings.ToUpper(w))
		}
		t.AppendRow(row)
	}
	renderTable(cc.Renderer, t)

	if extra := len(cc.Cfg.Keywords); extra > 0 {
		cc.Renderer.Println(cc.Renderer.Styles().Muted.Render(
			fmt.Sprintf("%d keywords added by configuration", extra)))
	}
	return nil
}

func listDialects(r *output.Renderer) error {
	t := newTable(r)
	t.AppendHeader(table.Row{"Dialect", "Keywords", "Description"})
	for _, name := range vocab.List() {
		v, ok := vocab.Get(name)
		if !ok {
			continue
		}
		t.AppendRow(table.Row{name, v.Keywords.Len(), v.Description})
	}
	renderTable(r, t)
	return nil
}
