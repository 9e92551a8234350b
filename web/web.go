// Package web serves the branch tree and its summaries over a JSON API.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
package web

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/robinvdvleuten/financetree/errors"
	"github.com/robinvdvleuten/financetree/finance"
	"github.com/robinvdvleuten/financetree/telemetry"
	"github.com/robinvdvleuten/financetree/tree"
)

type Server struct {
	Port         int
	Host         string
	Version      string
	CommitSHA    string
	ReadOnly     bool
	WatchEnabled bool

	// mu serializes access to the book; a Book is not safe for concurrent use.
	mu   sync.RWMutex
	book *finance.Book
	log  zerolog.Logger

	debounce time.Duration

	// SSE clients for broadcasting change events
	sseClients map[chan string]struct{}
	sseMu      sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and reload logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithVersion sets the build information reported by /api/info.
func WithVersion(version, commitSHA string) Option {
	return func(s *Server) {
		s.Version = version
		s.CommitSHA = commitSHA
	}
}

// WithDebounce sets the quiet period before a changed tree file is reloaded.
func WithDebounce(d time.Duration) Option {
	return func(s *Server) {
		s.debounce = d
	}
}

// New returns a server over book listening on port.
func New(book *finance.Book, port int, opts ...Option) *Server {
	s := &Server{
		Port:       port,
		Host:       "127.0.0.1",
		book:       book,
		log:        zerolog.Nop(),
		debounce:   tree.DefaultDebounce,
		sseClients: make(map[chan string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start serves until ctx is cancelled or the listener fails. With
// WatchEnabled the tree file is reloaded whenever it changes on disk.
func (s *Server) Start(ctx context.Context) error {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("web.start %s:%d", s.Host, s.Port))
	setupTimer := timer.Child("web.setup_router")
	mux := s.setupRouter()
	setupTimer.End()
	timer.End()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.Host, s.Port),
		Handler:           s.logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var watcher *tree.Watcher
	if s.WatchEnabled {
		path := s.book.TreeFile()
		if path == "" {
			return fmt.Errorf("watching needs a tree file")
		}
		watcher = tree.NewWatcher(path, s.reload,
			tree.WithDebounce(s.debounce),
			tree.WithWatchLogger(s.log),
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	return g.Wait()
}

func (s *Server) setupRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/info", s.handleGetInfo)
	mux.HandleFunc("GET /api/branches", s.handleGetBranches)
	mux.HandleFunc("POST /api/branches", s.requireWritable(s.handlePostBranch))
	mux.HandleFunc("PUT /api/branches", s.requireWritable(s.handlePutBranch))
	mux.HandleFunc("DELETE /api/branches", s.requireWritable(s.handleDeleteBranch))
	mux.HandleFunc("GET /api/children", s.handleGetChildren)
	mux.HandleFunc("GET /api/summary", s.handleGetSummary)
	mux.HandleFunc("GET /api/rows", s.handleGetRows)
	mux.HandleFunc("POST /api/rows", s.requireWritable(s.handlePostRow))
	mux.HandleFunc("DELETE /api/rows/{id}", s.requireWritable(s.handleDeleteRow))
	mux.HandleFunc("GET /api/monthly", s.handleGetMonthly)
	mux.HandleFunc("GET /api/events", s.handleSSE)

	return mux
}

// requireWritable is middleware that rejects write requests in read-only mode.
func (s *Server) requireWritable(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.ReadOnly {
			writeJSONStatus(w, http.StatusForbidden, errors.ErrorJSON{
				Kind:    "read_only",
				Message: "server is in read-only mode",
			})
			return
		}
		next(w, r)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// reload rereads the tree file and tells connected clients.
func (s *Server) reload(ctx context.Context) error {
	s.mu.Lock()
	err := s.book.Reload(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.broadcast("reload")
	return nil
}
