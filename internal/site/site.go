// Package site renders a directory of SQL scripts as a highlighted HTML site,
// either written to disk or served by a live-reloading development server.
package site

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/leapstack-labs/sqlmark/internal/graph"
	"github.com/leapstack-labs/sqlmark/internal/loader"
	"github.com/leapstack-labs/sqlmark/pkg/highlight"
	"github.com/leapstack-labs/sqlmark/pkg/vocab"
)

// Options configures a Generator.
type Options struct {
	ProjectName string
	ModelsDir   string

	// Pipeline is the base highlighting configuration. Theme is replaced by
	// the HTML theme and script links are merged into Dependencies; entries
	// already present in Dependencies take precedence.
	Pipeline highlight.Config

	Logger *slog.Logger
}

// Generator holds loaded scripts and the pipeline that renders them. It is
// safe for concurrent use; Load swaps its state atomically.
type Generator struct {
	opts   Options
	logger *slog.Logger

	mu    sync.RWMutex
	state *state
	loads uint64
}

type state struct {
	seq     uint64
	scripts []*loader.Script
	byPath  map[string]*loader.Script
	errors  []loader.DiscoveryError
	refs    *graph.Graph
	chain   *highlight.Chain
	loaded  time.Time
}

// NewGenerator creates a Generator. Call Load before rendering.
func NewGenerator(opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.ProjectName == "" {
		opts.ProjectName = "sqlmark"
	}
	return &Generator{opts: opts, logger: logger}
}

// Load (re)scans the models directory and rebuilds the pipeline. On error
// the previous state is kept.
func (g *Generator) Load() error {
	result, err := loader.NewScanner(g.opts.ModelsDir, g.logger).Scan()
	if err != nil {
		return fmt.Errorf("failed to scan models: %w", err)
	}

	cfg := g.opts.Pipeline
	cfg.Theme = highlight.HTMLTheme()
	cfg.Logger = g.logger
	cfg.Dependencies = mergeDependencies(
		loader.Dependencies(result.Scripts, linkTo),
		g.opts.Pipeline.Dependencies,
		cfg.Theme,
	)

	chain, err := highlight.Build(cfg)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	st := &state{
		scripts: result.Scripts,
		byPath:  make(map[string]*loader.Script, len(result.Scripts)),
		errors:  result.Errors,
		refs:    referenceGraph(result.Scripts, claimedKeywords(chain, cfg.Keywords)),
		chain:   chain,
		loaded:  time.Now(),
	}
	for _, s := range result.Scripts {
		st.byPath[s.Path] = s
	}
	if cycle := st.refs.Cycle(); cycle != nil {
		g.logger.Debug("circular references", "cycle", cycle)
	}
	for _, e := range result.Errors {
		g.logger.Warn("skipping script", "path", e.Path, "error", e.Message)
	}

	g.mu.Lock()
	g.loads++
	st.seq = g.loads
	g.state = st
	g.mu.Unlock()

	g.logger.Debug("scripts loaded",
		"count", st.refs.NodeCount(),
		"references", st.refs.EdgeCount(),
		"errors", len(st.errors))
	return nil
}

// claimedKeywords returns the words the keywords stage of chain claims before
// they could be linked.
func claimedKeywords(chain *highlight.Chain, keywords vocab.Set) vocab.Set {
	if !slices.Contains(chain.Stages(), highlight.StageKeywords) {
		return vocab.Set{}
	}
	return keywords
}

// referenceGraph links every script to the scripts it mentions by name.
func referenceGraph(scripts []*loader.Script, keywords vocab.Set) *graph.Graph {
	refs := graph.New()
	for _, s := range scripts {
		refs.AddNode(s.Path)
	}
	owners := loader.Owners(scripts)
	for _, s := range scripts {
		for _, target := range loader.References(s, owners, keywords) {
			// Both ends are known scripts and References skips s itself.
			_ = refs.AddEdge(s.Path, target.Path)
		}
	}
	return refs
}

// Reload rescans like Load and reports which script pages changed files
// affect: the scripts themselves plus the scripts referencing them or
// referenced by them, before and after the change. all is true when the set
// of scripts changed or a file does not belong to any script, so every page
// may differ.
func (g *Generator) Reload(files ...string) (pages []string, all bool, err error) {
	g.mu.RLock()
	prev := g.state
	g.mu.RUnlock()

	if err := g.Load(); err != nil {
		return nil, false, err
	}
	next, err := g.current()
	if err != nil {
		return nil, false, err
	}

	if prev == nil || len(files) == 0 || !slices.Equal(prev.refs.Nodes(), next.refs.Nodes()) {
		return nil, true, nil
	}

	changed := make([]string, 0, len(files))
	for _, f := range files {
		s := prev.byFile(f)
		if s == nil {
			s = next.byFile(f)
		}
		if s == nil {
			return nil, true, nil
		}
		changed = append(changed, s.Path)
	}

	set := make(map[string]bool)
	for _, p := range prev.refs.Neighbors(changed...) {
		set[p] = true
	}
	for _, p := range next.refs.Neighbors(changed...) {
		set[p] = true
	}
	pages = make([]string, 0, len(set))
	for p := range set {
		pages = append(pages, p)
	}
	sort.Strings(pages)
	return pages, false, nil
}

// byFile finds the script loaded from file.
func (st *state) byFile(file string) *loader.Script {
	want, err := filepath.Abs(file)
	if err != nil {
		return nil
	}
	for _, s := range st.scripts {
		if have, err := filepath.Abs(s.FilePath); err == nil && have == want {
			return s
		}
	}
	return nil
}

func (g *Generator) current() (*state, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state == nil {
		return nil, fmt.Errorf("scripts not loaded")
	}
	return g.state, nil
}

// Generation counts successful loads. Pages rendered while it stays the same
// were rendered from the same scripts.
func (g *Generator) Generation() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state == nil {
		return 0
	}
	return g.state.seq
}

// Scripts returns the loaded scripts sorted by path.
func (g *Generator) Scripts() []*loader.Script {
	st, err := g.current()
	if err != nil {
		return nil
	}
	return st.scripts
}

// Errors returns the files skipped by the last Load.
func (g *Generator) Errors() []loader.DiscoveryError {
	st, err := g.current()
	if err != nil {
		return nil
	}
	return st.errors
}

// Lookup finds a script by its dotted path.
func (g *Generator) Lookup(path string) (*loader.Script, bool) {
	st, err := g.current()
	if err != nil {
		return nil, false
	}
	s, ok := st.byPath[path]
	return s, ok
}

// References returns the scripts the script at path mentions, in order of
// first mention.
func (g *Generator) References(path string) []*loader.Script {
	st, err := g.current()
	if err != nil {
		return nil
	}
	return st.lookupAll(st.refs.References(path))
}

// ReferencedBy returns the scripts mentioning the script at path, sorted by
// path.
func (g *Generator) ReferencedBy(path string) []*loader.Script {
	st, err := g.current()
	if err != nil {
		return nil
	}
	return st.lookupAll(st.refs.ReferencedBy(path))
}

func (st *state) lookupAll(paths []string) []*loader.Script {
	out := make([]*loader.Script, 0, len(paths))
	for _, p := range paths {
		if s, ok := st.byPath[p]; ok {
			out = append(out, s)
		}
	}
	return out
}

// PageFile is the file name of a script's page relative to the models/
// directory of the site.
func PageFile(s *loader.Script) string {
	return s.Path + ".html"
}

// linkTo is the dependency replacement for a reference to s. Script pages
// live side by side, so the href is relative.
func linkTo(s *loader.Script) string {
	return fmt.Sprintf(`<a class="sql-dependency" href="%s">%s</a>`,
		html.EscapeString(PageFile(s)), html.EscapeString(s.Name))
}

// mergeDependencies overlays configured dependencies, rendered through the
// theme, on top of the discovered links.
func mergeDependencies(links, configured map[string]string, theme highlight.Theme) map[string]string {
	out := make(map[string]string, len(links)+len(configured))
	for k, v := range links {
		out[k] = v
	}
	for k, v := range configured {
		out[k] = theme.Dependency(v)
	}
	return out
}

// Group is a folder of scripts in the index.
type Group struct {
	Folder  string
	Scripts []*loader.Script
}

// Groups returns scripts grouped by folder, folders sorted by name with the
// top level ("") first.
func (g *Generator) Groups() []Group {
	return groupScripts(g.Scripts())
}

func groupScripts(scripts []*loader.Script) []Group {
	byFolder := make(map[string][]*loader.Script)
	for _, s := range scripts {
		byFolder[s.Schema()] = append(byFolder[s.Schema()], s)
	}

	groups := make([]Group, 0, len(byFolder))
	for folder, scripts := range byFolder {
		groups = append(groups, Group{Folder: folder, Scripts: scripts})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Folder < groups[j].Folder })
	return groups
}

// pageData feeds pageTemplate.
type pageData struct {
	ProjectName  string
	Title        string
	Root         string // relative path back to the site root
	Script       *loader.Script
	Code         template.HTML
	References   []*loader.Script
	ReferencedBy []*loader.Script
	Groups       []Group
	Errors       []loader.DiscoveryError
	LiveReload   bool
	Styles       template.CSS
}

// RenderScript writes the page for the script at path.
func (g *Generator) RenderScript(w io.Writer, path string, liveReload bool) error {
	st, err := g.current()
	if err != nil {
		return err
	}
	s, ok := st.byPath[path]
	if !ok {
		return &NotFoundError{Path: path}
	}

	data := pageData{
		ProjectName:  g.opts.ProjectName,
		Title:        s.Name,
		Root:         "../",
		Script:       s,
		Code:         template.HTML(st.chain.Process(s.SQL)), //nolint:gosec // G203: pipeline output is escaped by the HTML theme
		References:   st.lookupAll(st.refs.References(path)),
		ReferencedBy: st.lookupAll(st.refs.ReferencedBy(path)),
		LiveReload:   liveReload,
		Styles:       styles,
	}
	return execute(w, data)
}

// RenderIndex writes the index page listing every script.
func (g *Generator) RenderIndex(w io.Writer, liveReload bool) error {
	st, err := g.current()
	if err != nil {
		return err
	}
	data := pageData{
		ProjectName: g.opts.ProjectName,
		Title:       g.opts.ProjectName,
		Root:        "",
		Groups:      groupScripts(st.scripts),
		Errors:      st.errors,
		LiveReload:  liveReload,
		Styles:      styles,
	}
	return execute(w, data)
}

func execute(w io.Writer, data pageData) error {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// NotFoundError is returned when no script has the requested path.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("script %q not found", e.Path)
}
