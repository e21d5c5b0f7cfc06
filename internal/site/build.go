package site

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BuildResult summarizes a static build.
type BuildResult struct {
	Pages      int
	References int
	Skipped    int
}

// Build writes the site to outputDir: index.html plus models/<path>.html for
// every script. Pages render concurrently; the first failure cancels the rest.
func (g *Generator) Build(ctx context.Context, outputDir string) (*BuildResult, error) {
	st, err := g.current()
	if err != nil {
		return nil, err
	}

	modelsOut := filepath.Join(outputDir, "models")
	if err := os.MkdirAll(modelsOut, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))

	for _, s := range st.scripts {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := g.RenderScript(&buf, s.Path, false); err != nil {
				return fmt.Errorf("render %s: %w", s.Path, err)
			}
			out := filepath.Join(modelsOut, PageFile(s))
			if err := os.WriteFile(out, buf.Bytes(), 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			g.logger.Debug("wrote page", "script", s.Path, "file", out)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var index bytes.Buffer
	if err := g.RenderIndex(&index, false); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(outputDir, "index.html"), index.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write index.html: %w", err)
	}

	return &BuildResult{
		Pages:      len(st.scripts),
		References: st.refs.EdgeCount(),
		Skipped:    len(st.errors),
	}, nil
}
