// Package cli provides the command-line interface for sqlmark.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/sqlmark/internal/cli/commands"
	"github.com/leapstack-labs/sqlmark/internal/cli/config"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// skipConfig lists commands that run without loading configuration.
var skipConfig = map[string]bool{
	"help":       true,
	"completion": true,
	"__complete": true,
	"version":    true,
	"init":       true,
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "sqlmark",
		Short: "sqlmark - SQL highlighting for terminals and the web",
		Long: `sqlmark highlights SQL scripts for the terminal or the browser.

Scripts are split into string literals, comments, keywords and custom regions,
each rendered with its own style. Whole model directories can be rendered
into a static HTML site where references between models become links.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			ctx := context.WithValue(cmd.Context(), config.LoggerKey(), newLogger(cmd, verbose))
			cmd.SetContext(ctx)

			if skipConfig[cmd.Name()] {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			// The file or env may enable verbose logging too.
			logger := newLogger(cmd, cfg.Verbose)
			if used := config.GetConfigFileUsed(); used != "" {
				logger.Debug("using config file", "path", used)
			}

			ctx = context.WithValue(cmd.Context(), config.LoggerKey(), logger)
			cmd.SetContext(config.WithConfig(ctx, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./sqlmark.yaml, searched upward)")
	flags.String("models-dir", "", "Path to models directory")
	flags.String("out-dir", "", "Output directory for build")
	flags.StringP("format", "f", "", "Output format (auto|html|ansi|plain)")
	flags.StringP("dialect", "d", "", "Keyword dialect (ansi|duckdb|postgres|snowflake|databricks)")
	flags.StringSlice("keywords", nil, "Extra keywords to highlight")
	flags.StringSlice("stages", nil, "Stage order, outermost first")
	flags.Duration("timeout", 0, "Time budget of one region stage pass (default: 1s)")
	flags.BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.Formats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return dialectNames(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("stages", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return stageNames(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(commands.BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}))
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(commands.NewBuildCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewKeywordsCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newLogger builds the stderr logger: DEBUG when verbose, WARN otherwise.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for sqlmark.

To load completions:

Bash:
  $ source <(sqlmark completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ sqlmark completion bash > /etc/bash_completion.d/sqlmark
  # macOS:
  $ sqlmark completion bash > $(brew --prefix)/etc/bash_completion.d/sqlmark

Zsh:
  $ sqlmark completion zsh > "${fpath[1]}/_sqlmark"

Fish:
  $ sqlmark completion fish | source

PowerShell:
  PS> sqlmark completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
