package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/sqlmark/internal/notifier"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before reloading.
const DefaultDebounce = 100 * time.Millisecond

// ServerConfig configures the development server.
type ServerConfig struct {
	Generator *Generator
	ModelsDir string
	Port      int
	Watch     bool
	Debounce  time.Duration
	Logger    *slog.Logger
}

// Server serves rendered pages from memory and pushes reload events to
// browsers when scripts change.
type Server struct {
	gen       *Generator
	modelsDir string
	port      int
	watch     bool
	debounce  time.Duration
	logger    *slog.Logger
	notifier  *notifier.Notifier

	// cacheMu orders page caching against reloads so a page rendered from
	// replaced scripts is never stored after its key was invalidated.
	cacheMu sync.Mutex
	pages   *cache.Cache
}

// NewServer creates a development server.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Server{
		gen:       cfg.Generator,
		modelsDir: cfg.ModelsDir,
		port:      cfg.Port,
		watch:     cfg.Watch,
		debounce:  debounce,
		logger:    logger,
		notifier:  notifier.New(),
		pages:     cache.New(10*time.Minute, 20*time.Minute),
	}
}

// Notifier returns the server's reload notifier.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug),
			NoColor: true,
		}),
		middleware.Recoverer,
	)

	r.Get("/", s.handleIndex)
	r.Get("/index.html", s.handleIndex)
	r.Get("/models/{file}", s.handleScript)
	r.Get("/__reload", s.handleSSE)
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		watcher, err := s.newWatcher()
		if err != nil {
			s.logger.Error("failed to watch models directory", "error", err)
		} else {
			eg.Go(func() error {
				defer func() { _ = watcher.Close() }()
				s.watchLoop(egctx, watcher)
				return nil
			})
		}
	}

	eg.Go(func() error {
		s.logger.Info("serving", "addr", fmt.Sprintf("http://localhost:%d", s.port), "models_dir", s.modelsDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Reload rescans the scripts after files changed, drops the affected cached
// pages and tells browsers showing them to refresh. On a failed rescan the
// old pages keep being served.
func (s *Server) Reload(files ...string) error {
	s.cacheMu.Lock()
	pages, all, err := s.gen.Reload(files...)
	if err != nil {
		s.cacheMu.Unlock()
		return err
	}

	if all {
		s.pages.Flush()
		pages = nil
	} else {
		s.pages.Delete(indexKey)
		for _, p := range pages {
			s.pages.Delete(scriptKey(p))
		}
	}
	s.cacheMu.Unlock()

	ev := s.notifier.Broadcast(pages...)
	s.logger.Debug("reloaded", "seq", ev.Seq, "changed", files, "pages", pages, "listeners", s.notifier.Len())
	return nil
}

const indexKey = "index"

func scriptKey(path string) string {
	return "models/" + path
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.servePage(w, indexKey, func(buf *bytes.Buffer) error {
		return s.gen.RenderIndex(buf, true)
	})
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	path, ok := strings.CutSuffix(file, ".html")
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.servePage(w, scriptKey(path), func(buf *bytes.Buffer) error {
		return s.gen.RenderScript(buf, path, true)
	})
}

func (s *Server) servePage(w http.ResponseWriter, key string, render func(*bytes.Buffer) error) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	page, found := s.pages.Get(key)
	if !found {
		seq := s.gen.Generation()
		var buf bytes.Buffer
		if err := render(&buf); err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				http.Error(w, nf.Error(), http.StatusNotFound)
				return
			}
			s.logger.Error("render failed", "page", key, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		page = buf.Bytes()
		s.storePage(key, seq, page)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page.([]byte))
}

// storePage caches a page rendered at generation seq unless the scripts were
// reloaded since.
func (s *Server) storePage(key string, seq uint64, page []byte) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.gen.Generation() != seq {
		s.logger.Debug("not caching page rendered before reload", "page", key)
		return
	}
	s.pages.SetDefault(key, page)
}

// handleSSE streams reload events as Server-Sent Events. With ?page=<path>
// only events affecting that script page are sent; the index receives all.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(ch)

	_, _ = fmt.Fprint(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if page != "" && !ev.Touches(page) {
				continue
			}
			_, _ = fmt.Fprintf(w, "id: %d\ndata: reload\n\n", ev.Seq)
			flusher.Flush()
		}
	}
}

// newWatcher watches the models directory and its subdirectories.
func (s *Server) newWatcher() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watchDirRecursive(watcher, s.modelsDir); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

// watchLoop reloads after bursts of .sql changes settle.
func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
	)

	flush := func() {
		mu.Lock()
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		clear(pending)
		mu.Unlock()

		if err := s.Reload(paths...); err != nil {
			s.logger.Error("reload failed", "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchDirRecursive(watcher, event.Name); err != nil {
						s.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}

			if filepath.Ext(event.Name) != ".sql" {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			s.logger.Debug("file changed", "file", event.Name, "op", event.Op.String())
			mu.Lock()
			pending[event.Name] = struct{}{}
			mu.Unlock()

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(s.debounce, flush)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all non-hidden subdirectories.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
