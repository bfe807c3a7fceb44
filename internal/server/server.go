// Package server exposes log ingestion and session charts over HTTP.
//
// Routes:
//
//	POST /submit                 store one log entry
//	GET  /sessions               list sessions (?host=)
//	GET  /sessions/{id}          session and per-task statistics
//	GET  /sessions/{id}/load     stacked running-task chart (?format=json|svg|png&order=a,b&since=)
//	GET  /durations              duration distributions (?session=&min=&task=&format=)
//	GET  /healthz                liveness and build information
//
// Charts are rebuilt from the store on every request; the pipeline cache
// absorbs repeated requests for an unchanged session.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/wflens/pkg/logstore"
	"github.com/matzehuels/wflens/pkg/pipeline"
	"github.com/matzehuels/wflens/pkg/render"
)

// Options configures a [Server].
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Palette colours task types; empty means palette.Paired12.
	Palette []string
	// ChartSize is the size of rendered charts.
	ChartSize render.Size
	Logger    *log.Logger
}

// Server serves the HTTP API.
type Server struct {
	store  logstore.Store
	runner *pipeline.Runner
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New creates a server backed by store. Charts are computed and cached by
// runner.
func New(store logstore.Store, runner *pipeline.Runner, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = runner.Logger
	}
	s := &Server{store: store, runner: runner, opts: opts, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/submit", s.handleSubmit)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.handleSessions)
		r.Get("/{id}", s.handleSession)
		r.Get("/{id}/load", s.handleLoad)
	})
	r.Get("/durations", s.handleDurations)
	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
