package site

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/sqlmark/internal/testutil"
	"github.com/leapstack-labs/sqlmark/pkg/highlight"
	"github.com/leapstack-labs/sqlmark/pkg/vocab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func writeScript(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func testProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeScript(t, dir, "staging/stg_orders.sql", "/*---\ndescription: Raw orders\ntags: [core]\n---*/\nSELECT id, 'open' AS status FROM raw_orders -- source")
	writeScript(t, dir, "marts/revenue.sql", "SELECT SUM(amount) FROM stg_orders WHERE a < b")
	return dir
}

func newTestGenerator(t *testing.T, dir string) *Generator {
	t.Helper()
	gen := NewGenerator(Options{
		ProjectName: "demo",
		ModelsDir:   dir,
		Pipeline:    highlight.Config{Keywords: ansiKeywords(t)},
		Logger:      testutil.NewTestLogger(t),
	})
	require.NoError(t, gen.Load())
	return gen
}

func ansiKeywords(t *testing.T) vocab.Set {
	t.Helper()
	v, err := vocab.Lookup(vocab.DefaultDialect)
	require.NoError(t, err)
	return v.Keywords
}

// links collects href attributes of <a> elements.
func links(t *testing.T, r io.Reader) map[string]string {
	t.Helper()
	doc, err := html.Parse(r)
	require.NoError(t, err)

	out := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			var text strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					text.WriteString(c.Data)
				}
			}
			for _, a := range n.Attr {
				if a.Key == "href" {
					out[text.String()] = a.Val
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

// codeText returns the text content of the first <code> element.
func codeText(t *testing.T, r io.Reader) string {
	t.Helper()
	doc, err := html.Parse(r)
	require.NoError(t, err)

	var code *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if code != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "code" {
			code = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	require.NotNil(t, code, "no <code> element")

	var sb strings.Builder
	var text func(*html.Node)
	text = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			text(c)
		}
	}
	text(code)
	return sb.String()
}

func TestGenerator_RenderScript(t *testing.T) {
	gen := newTestGenerator(t, testProject(t))

	var buf bytes.Buffer
	require.NoError(t, gen.RenderScript(&buf, "marts.revenue", false))
	page := buf.String()

	assert.Contains(t, page, `<span class="sql-keyword">SELECT</span>`)
	assert.Contains(t, page, `<a class="sql-dependency" href="staging.stg_orders.html">`)
	assert.Contains(t, page, "a &lt; b")
	assert.NotContains(t, page, "EventSource")

	// the highlighted code reads back as the original SQL, modulo dependency links
	assert.Equal(t, "SELECT SUM(amount) FROM stg_orders WHERE a < b", codeText(t, strings.NewReader(page)))
}

func TestGenerator_RenderScriptMetadata(t *testing.T) {
	gen := newTestGenerator(t, testProject(t))

	var buf bytes.Buffer
	require.NoError(t, gen.RenderScript(&buf, "staging.stg_orders", true))
	page := buf.String()

	assert.Contains(t, page, "Raw orders")
	assert.Contains(t, page, `<span class="tag">core</span>`)
	assert.Contains(t, page, `<span class="sql-string">&#39;open&#39;</span>`)
	assert.Contains(t, page, `<span class="sql-comment">-- source</span>`)
	assert.Contains(t, page, "EventSource")
	assert.NotContains(t, page, "/*---", "frontmatter is not rendered")
}

func TestGenerator_RenderScriptNotFound(t *testing.T) {
	gen := newTestGenerator(t, testProject(t))

	err := gen.RenderScript(io.Discard, "nope", false)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.Path)
}

func TestGenerator_NotLoaded(t *testing.T) {
	gen := NewGenerator(Options{ModelsDir: t.TempDir()})
	require.Error(t, gen.RenderIndex(io.Discard, false))
	assert.Nil(t, gen.Scripts())
	require.Error(t, gen.RenderScript(io.Discard, "marts.revenue", false))
}

func TestGenerator_RenderIndex(t *testing.T) {
	dir := testProject(t)
	writeScript(t, dir, "bad.sql", "/*---\nunknown: 1\n---*/\nSELECT 1")
	gen := newTestGenerator(t, dir)

	var buf bytes.Buffer
	require.NoError(t, gen.RenderIndex(&buf, false))

	assert.Equal(t, map[string]string{
		"revenue":    "models/marts.revenue.html",
		"stg_orders": "models/staging.stg_orders.html",
	}, links(t, bytes.NewReader(buf.Bytes())))
	assert.Contains(t, buf.String(), "Skipped files")
	assert.Contains(t, buf.String(), "bad.sql")
}

func TestGenerator_ConfiguredDependenciesWin(t *testing.T) {
	gen := NewGenerator(Options{
		ModelsDir: testProject(t),
		Pipeline: highlight.Config{
			Dependencies: map[string]string{"stg_orders": "analytics.orders"},
		},
	})
	require.NoError(t, gen.Load())

	var buf bytes.Buffer
	require.NoError(t, gen.RenderScript(&buf, "marts.revenue", false))
	assert.Contains(t, buf.String(), `FROM <span class="sql-dependency">analytics.orders</span>`)
	assert.NotContains(t, buf.String(), `<a class="sql-dependency"`)
}

func TestGenerator_LoadKeepsStateOnError(t *testing.T) {
	dir := testProject(t)
	gen := newTestGenerator(t, dir)
	require.NoError(t, os.RemoveAll(dir))

	require.Error(t, gen.Load())
	assert.Len(t, gen.Scripts(), 2)
}

func TestGenerator_Groups(t *testing.T) {
	dir := testProject(t)
	writeScript(t, dir, "top.sql", "SELECT 1")
	gen := newTestGenerator(t, dir)

	groups := gen.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, "", groups[0].Folder)
	assert.Equal(t, "marts", groups[1].Folder)
	assert.Equal(t, "staging", groups[2].Folder)
}

func TestGenerator_Build(t *testing.T) {
	gen := newTestGenerator(t, testProject(t))
	out := t.TempDir()

	result, err := gen.Build(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, 1, result.References)

	for _, f := range []string{"index.html", "models/marts.revenue.html", "models/staging.stg_orders.html"} {
		assert.FileExists(t, filepath.Join(out, filepath.FromSlash(f)))
	}

	// every link on every page resolves to a generated file
	for _, page := range []string{"index.html", "models/marts.revenue.html"} {
		content, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(page)))
		require.NoError(t, err)
		for _, href := range links(t, bytes.NewReader(content)) {
			target := filepath.Join(out, filepath.FromSlash(filepath.Dir(page)), filepath.FromSlash(href))
			assert.FileExists(t, target, "broken link %s on %s", href, page)
		}
	}
}

func TestGenerator_BuildCancelled(t *testing.T) {
	gen := newTestGenerator(t, testProject(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Build(ctx, t.TempDir())
	require.ErrorIs(t, err, context.Canceled)
}

func newTestServer(t *testing.T) (*Server, string, *httptest.Server) {
	t.Helper()
	dir := testProject(t)
	srv := NewServer(ServerConfig{
		Generator: newTestGenerator(t, dir),
		ModelsDir: dir,
		Debounce:  10 * time.Millisecond,
		Logger:    testutil.NewTestLogger(t),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, dir, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec,noctx // test server URL
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Routes(t *testing.T) {
	_, _, ts := newTestServer(t)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/", http.StatusOK, "models/marts.revenue.html"},
		{"/index.html", http.StatusOK, "demo"},
		{"/models/marts.revenue.html", http.StatusOK, `<span class="sql-keyword">SELECT</span>`},
		{"/models/marts.revenue.html", http.StatusOK, "EventSource"},
		{"/models/marts.revenue", http.StatusNotFound, ""},
		{"/models/missing.html", http.StatusNotFound, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := get(t, ts.URL+tt.path)
			assert.Equal(t, tt.wantStatus, status)
			assert.Contains(t, body, tt.wantBody)
		})
	}
}

func TestServer_ReloadInvalidatesCache(t *testing.T) {
	srv, dir, ts := newTestServer(t)

	_, body := get(t, ts.URL+"/models/marts.revenue.html")
	assert.Contains(t, body, "SUM")

	writeScript(t, dir, "marts/revenue.sql", "SELECT COUNT(*) FROM stg_orders")
	_, body = get(t, ts.URL+"/models/marts.revenue.html")
	assert.Contains(t, body, "SUM", "served from cache until reload")

	require.NoError(t, srv.Reload(filepath.Join(dir, "marts", "revenue.sql")))
	_, body = get(t, ts.URL+"/models/marts.revenue.html")
	assert.Contains(t, body, "COUNT")
}

func TestServer_RenderDuringReloadNotCached(t *testing.T) {
	srv, dir, ts := newTestServer(t)
	file := filepath.Join(dir, "marts", "revenue.sql")

	// The page is rendered from the old scripts, then the file changes and
	// the reload completes before the rendered page reaches the cache.
	rec := httptest.NewRecorder()
	srv.servePage(rec, scriptKey("marts.revenue"), func(buf *bytes.Buffer) error {
		if err := srv.gen.RenderScript(buf, "marts.revenue", true); err != nil {
			return err
		}
		writeScript(t, dir, "marts/revenue.sql", "SELECT COUNT(*) FROM stg_orders")
		return srv.Reload(file)
	})
	assert.Contains(t, rec.Body.String(), "SUM")

	_, body := get(t, ts.URL+"/models/marts.revenue.html")
	assert.Contains(t, body, "COUNT")
	assert.NotContains(t, body, "SUM")
}

func TestGenerator_Generation(t *testing.T) {
	dir := testProject(t)
	gen := NewGenerator(Options{ModelsDir: dir})
	assert.Equal(t, uint64(0), gen.Generation())

	require.NoError(t, gen.Load())
	assert.Equal(t, uint64(1), gen.Generation())

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, gen.Load())
	assert.Equal(t, uint64(1), gen.Generation(), "failed load keeps generation")

	writeScript(t, dir, "top.sql", "SELECT 1")
	require.NoError(t, gen.Load())
	assert.Equal(t, uint64(2), gen.Generation())
}

func TestServer_SSE(t *testing.T) {
	srv, _, ts := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/__reload", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: connected\n", line)

	require.Eventually(t, func() bool { return srv.Notifier().Len() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, srv.Reload())

	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	assert.Equal(t, []string{"id: 1", "data: reload"}, lines)
}

func TestServer_WatchReloadsOnChange(t *testing.T) {
	srv, dir, _ := newTestServer(t)

	watcher, err := srv.newWatcher()
	require.NoError(t, err)
	defer func() { _ = watcher.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.watchLoop(ctx, watcher)

	events := srv.Notifier().Subscribe()
	defer srv.Notifier().Unsubscribe(events)

	writeScript(t, dir, "marts/new_model.sql", "SELECT 1")

	select {
	case ev := <-events:
		assert.Empty(t, ev.Paths, "a new script affects every page")
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after file change")
	}

	_, ok := srv.gen.Lookup("marts.new_model")
	assert.True(t, ok)
}

func TestGenerator_References(t *testing.T) {
	gen := newTestGenerator(t, testProject(t))

	refs := gen.References("marts.revenue")
	require.Len(t, refs, 1)
	assert.Equal(t, "staging.stg_orders", refs[0].Path)

	by := gen.ReferencedBy("staging.stg_orders")
	require.Len(t, by, 1)
	assert.Equal(t, "marts.revenue", by[0].Path)

	assert.Empty(t, gen.References("staging.stg_orders"))

	var buf bytes.Buffer
	require.NoError(t, gen.RenderScript(&buf, "staging.stg_orders", false))
	assert.Contains(t, buf.String(), "Referenced by")
	assert.Equal(t, "marts.revenue.html", links(t, &buf)["revenue"])
}

func TestGenerator_KeywordNamedScriptNotReferenced(t *testing.T) {
	dir := testProject(t)
	writeScript(t, dir, "staging/rows.sql", "SELECT 1")
	writeScript(t, dir, "marts/window.sql", "SELECT SUM(x) OVER (ROWS BETWEEN 1 PRECEDING AND CURRENT ROW) FROM stg_orders")
	gen := newTestGenerator(t, dir)

	refs := gen.References("marts.window")
	require.Len(t, refs, 1)
	assert.Equal(t, "staging.stg_orders", refs[0].Path)
	assert.Empty(t, gen.ReferencedBy("staging.rows"))

	var buf bytes.Buffer
	require.NoError(t, gen.RenderScript(&buf, "marts.window", false))
	assert.Contains(t, buf.String(), `<span class="sql-keyword">ROWS</span>`)
	assert.NotContains(t, buf.String(), `href="staging.rows.html"`)
}

func TestGenerator_Reload(t *testing.T) {
	dir := testProject(t)
	writeScript(t, dir, "staging/stg_customers.sql", "SELECT 1")
	gen := newTestGenerator(t, dir)

	tests := []struct {
		name      string
		change    func()
		files     []string
		wantPages []string
		wantAll   bool
	}{
		{
			name:      "edit reaches referenced scripts",
			change:    func() { writeScript(t, dir, "marts/revenue.sql", "SELECT COUNT(*) FROM stg_orders") },
			files:     []string{filepath.Join(dir, "marts", "revenue.sql")},
			wantPages: []string{"marts.revenue", "staging.stg_orders"},
		},
		{
			name:      "new reference counts before and after",
			change:    func() { writeScript(t, dir, "marts/revenue.sql", "SELECT * FROM stg_customers") },
			files:     []string{filepath.Join(dir, "marts", "revenue.sql")},
			wantPages: []string{"marts.revenue", "staging.stg_customers", "staging.stg_orders"},
		},
		{
			name:      "isolated script",
			change:    func() { writeScript(t, dir, "staging/stg_orders.sql", "SELECT 2") },
			files:     []string{filepath.Join(dir, "staging", "stg_orders.sql")},
			wantPages: []string{"staging.stg_orders"},
		},
		{
			name:    "new script",
			change:  func() { writeScript(t, dir, "marts/extra.sql", "SELECT 3") },
			files:   []string{filepath.Join(dir, "marts", "extra.sql")},
			wantAll: true,
		},
		{
			name:    "unknown file",
			files:   []string{filepath.Join(dir, "notes.sql")},
			wantAll: true,
		},
		{
			name:    "no files",
			wantAll: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.change != nil {
				tt.change()
			}
			pages, all, err := gen.Reload(tt.files...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAll, all)
			if !tt.wantAll {
				assert.Equal(t, tt.wantPages, pages)
			}
		})
	}
}

func TestServer_SSEPageFilter(t *testing.T) {
	srv, dir, ts := newTestServer(t)
	writeScript(t, dir, "staging/stg_customers.sql", "SELECT 1")
	require.NoError(t, srv.Reload())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/__reload?page=marts.revenue", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	reader := bufio.NewReader(resp.Body)
	_, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.Notifier().Len() == 1 }, time.Second, 10*time.Millisecond)

	// stg_customers is unrelated to revenue; only the second reload reaches it.
	require.NoError(t, srv.Reload(filepath.Join(dir, "staging", "stg_customers.sql")))
	require.NoError(t, srv.Reload(filepath.Join(dir, "marts", "revenue.sql")))

	line, err := reader.ReadString('\n')
	for err == nil && strings.TrimSpace(line) == "" {
		line, err = reader.ReadString('\n')
	}
	require.NoError(t, err)
	assert.Equal(t, "id: 3", strings.TrimSpace(line))
}
