package commands

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"os"

	"github.com/leapstack-labs/sqlmark/internal/cli/config"
	"github.com/leapstack-labs/sqlmark/pkg/highlight"
	"github.com/spf13/cobra"
)

// RenderOptions holds options for the render command.
type RenderOptions struct {
	Out        string
	Standalone bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render [file...]",
		Short: "Highlight SQL files",
		Long: `Highlight SQL files, or standard input, and write the result to stdout.

The output format follows --format: ansi colours for terminals, HTML
fragments for the web, or plain text. With format auto, ansi is used on a
terminal and html otherwise.`,
		Example: `  # Highlight a file in the terminal
  sqlmark render models/staging/stg_orders.sql

  # Write a standalone HTML page
  sqlmark render -f html --standalone -o orders.html models/marts/orders.sql

  # Highlight from a pipe
  cat query.sql | sqlmark render -f ansi`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "Write output to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.Standalone, "standalone", false, "Wrap HTML output in a complete page with a stylesheet")

	return cmd
}

type renderInput struct {
	name    string
	content string
}

func runRender(cmd *cobra.Command, args []string, opts *RenderOptions) error {
	cc := NewCommandContext(cmd)

	inputs, err := readInputs(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	format := cc.Format()
	if opts.Standalone && format != config.FormatHTML {
		return fmt.Errorf("--standalone requires html output, got %s", format)
	}

	chain, err := cc.Chain(format)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if opts.Standalone {
		buf.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<style>\n")
		buf.WriteString(highlight.HTMLStyles)
		buf.WriteString("</style>\n</head>\n<body>\n")
	}

	multi := len(inputs) > 1
	for i, in := range inputs {
		cc.Logger.Debug("rendering", "input", in.name, "bytes", len(in.content))
		out := chain.Process(in.content)

		switch {
		case format == config.FormatHTML && (multi || opts.Standalone):
			if multi {
				fmt.Fprintf(&buf, "<h2>%s</h2>\n", html.EscapeString(in.name))
			}
			fmt.Fprintf(&buf, "<pre class=\"sql\"><code>%s</code></pre>\n", out)
		case multi:
			if i > 0 {
				buf.WriteString("\n")
			}
			fmt.Fprintf(&buf, "-- %s\n%s", in.name, out)
			if len(out) > 0 && out[len(out)-1] != '\n' {
				buf.WriteString("\n")
			}
		default:
			buf.WriteString(out)
		}
	}

	if opts.Standalone {
		buf.WriteString("</body>\n</html>\n")
	}

	if opts.Out == "" {
		_, err := cc.Renderer.Writer().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.Out, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.Out, err)
	}
	cc.Renderer.Success(fmt.Sprintf("Wrote %s (%s)", opts.Out, format))
	return nil
}

// readInputs reads each named file, or stdin for no arguments or "-".
func readInputs(stdin io.Reader, args []string) ([]renderInput, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}

	inputs := make([]renderInput, 0, len(args))
	for _, name := range args {
		var (
			content []byte
			err     error
		)
		if name == "-" {
			content, err = io.ReadAll(stdin)
			name = "<stdin>"
		} else {
			content, err = os.ReadFile(name) //nolint:gosec // G304: user-supplied input file
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		inputs = append(inputs, renderInput{name: name, content: string(content)})
	}
	return inputs, nil
}
