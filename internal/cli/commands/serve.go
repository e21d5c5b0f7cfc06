package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/leapstack-labs/sqlmark/internal/site"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port  int
	Watch bool
	Open  bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve highlighted models with live reload",
		Long: `Start a local web server that renders models on request.

When watching is enabled, changes under the models directory re-render the
affected pages and reload open browser tabs.`,
		Example: `  # Serve on the default port
  sqlmark serve

  # Serve on a custom port without watching
  sqlmark serve --port 3000 --watch=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	// Port and watch are read through config as serve.port and serve.watch.
	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Watch for file changes")
	cmd.Flags().BoolVar(&opts.Open, "open", false, "Open the browser")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc := NewCommandContext(cmd)

	gen, err := newGenerator(cc)
	if err != nil {
		return err
	}

	server := site.NewServer(site.ServerConfig{
		Generator: gen,
		ModelsDir: cc.Cfg.ModelsDir,
		Port:      cc.Cfg.Serve.Port,
		Watch:     cc.Cfg.Serve.Watch,
		Logger:    cc.Logger,
	})

	url := fmt.Sprintf("http://localhost:%d", cc.Cfg.Serve.Port)
	cc.Renderer.Success(fmt.Sprintf("Serving %d models at %s", len(gen.Scripts()), url))
	if cc.Cfg.Serve.Watch {
		cc.Renderer.Println(cc.Renderer.Styles().Muted.Render("Watching " + cc.Cfg.ModelsDir))
	}
	cc.Renderer.Println(cc.Renderer.Styles().Muted.Render("Press Ctrl+C to stop"))

	if opts.Open {
		go openBrowser(url)
	}

	return server.Serve(cmd.Context())
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
