// Package httpapi exposes the note service over JSON/HTTP.
//
// Routes:
//
//	GET    /api/notes                   - list note summaries
//	POST   /api/notes                   - create a note
//	GET    /api/notes/{id}?user=        - open a note for editing (acquires the lock)
//	PUT    /api/notes/{id}              - save a note
//	DELETE /api/notes/{id}              - delete an unlocked note
//	POST   /api/notes/{id}/lock         - acquire the edit lock
//	POST   /api/notes/{id}/unlock       - release the edit lock
//	POST   /api/notes/{id}/release      - alias of unlock
//	GET    /api/notes/{id}/lock         - lock status
//	GET    /api/users                   - list users
//	POST   /api/users                   - register a user
//	DELETE /api/users/{name}            - delete a user without notes
//	POST   /api/users/{name}/transfer   - move all notes of a user to another
//	GET    /api/status                  - service status
//	GET    /health                      - liveness probe
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/gorilla/mux"

	"github.com/aretw0/octonote/pkg/core"
)

// Sweeper drops expired locks. lock.Manager implements it.
type Sweeper interface {
	Sweep() int
}

// Server serves the HTTP API for a core.Service.
type Server struct {
	svc             *core.Service
	logger          *slog.Logger
	staticDir       string
	sweeper         Sweeper
	sweepInterval   time.Duration
	shutdownTimeout time.Duration
	started         time.Time
	router          *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStaticDir serves dir at / for anything the API does not match.
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// WithLockSweeper runs sw.Sweep every interval while the server runs.
func WithLockSweeper(sw Sweeper, interval time.Duration) Option {
	return func(s *Server) {
		s.sweeper = sw
		s.sweepInterval = interval
	}
}

// WithShutdownTimeout bounds graceful shutdown. Default 5s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// New builds a Server and its routes.
func New(svc *core.Service, opts ...Option) *Server {
	s := &Server{
		svc:             svc,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		shutdownTimeout: 5 * time.Second,
		started:         time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	api := router.PathPrefix("/api").Subrouter()

	// Note routes
	api.HandleFunc("/notes", s.handleListNotes).Methods("GET")
	api.HandleFunc("/notes", s.handleCreateNote).Methods("POST")
	api.HandleFunc("/notes/{id}", s.handleOpenNote).Methods("GET")
	api.HandleFunc("/notes/{id}", s.handleSaveNote).Methods("PUT")
	api.HandleFunc("/notes/{id}", s.handleDeleteNote).Methods("DELETE")
	api.HandleFunc("/notes/{id}/lock", s.handleLockNote).Methods("POST")
	api.HandleFunc("/notes/{id}/lock", s.handleLockStatus).Methods("GET")
	api.HandleFunc("/notes/{id}/unlock", s.handleUnlockNote).Methods("POST")
	api.HandleFunc("/notes/{id}/release", s.handleUnlockNote).Methods("POST")

	// User routes
	api.HandleFunc("/users", s.handleListUsers).Methods("GET")
	api.HandleFunc("/users", s.handleCreateUser).Methods("POST")
	api.HandleFunc("/users/{name}", s.handleDeleteUser).Methods("DELETE")
	api.HandleFunc("/users/{name}/transfer", s.handleTransfer).Methods("POST")

	// Status routes
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	})

	if s.staticDir != "" {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir))).Methods("GET", "HEAD")
	}

	return router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.sweeper != nil && s.sweepInterval > 0 {
		lifecycle.Go(ctx, s.sweepLocks, lifecycle.WithErrorHandler(func(err error) {
			s.logger.Error("lock sweeper stopped", "error", err)
		}))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()
	s.logger.Info("server listening", "addr", addr)

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}
}

func (s *Server) sweepLocks(ctx context.Context) error {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.sweeper.Sweep(); n > 0 {
				s.logger.Info("expired locks dropped", "count", n)
			}
		}
	}
}
