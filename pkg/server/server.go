// Package server exposes the concept-map pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz                          liveness and glossary summary
//	POST /v1/layout                        ad-hoc layout of posted nodes and relations
//	GET  /v1/layout?format=                whole loaded glossary
//	GET  /v1/sections                      sections of the loaded glossary
//	GET  /v1/sections/{section}/layout     one section, any pipeline format
//
// Errors are JSON objects {"code", "message", "request_id"} whose status
// comes from [errors.HTTPStatus]. Every response carries an X-Request-ID.
//
// [errors.HTTPStatus]: github.com/matzehuels/conceptmap/pkg/errors
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/conceptmap/pkg/glossary"
	"github.com/matzehuels/conceptmap/pkg/pipeline"
)

// Defaults for server options.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxNodes        = 2000
	maxBodyBytes           = 1 << 20
)

// Server serves layouts for one optional glossary plus ad-hoc requests.
type Server struct {
	runner *pipeline.Runner
	doc    *glossary.Document
	logger *log.Logger

	addr            string
	shutdownTimeout time.Duration
	maxNodes        int
	version         string
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option { return func(s *Server) { s.addr = addr } }

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option { return func(s *Server) { s.shutdownTimeout = d } }

// WithMaxNodes caps the node count of ad-hoc layout requests.
func WithMaxNodes(n int) Option { return func(s *Server) { s.maxNodes = n } }

// WithVersion sets the version reported by /healthz.
func WithVersion(v string) Option { return func(s *Server) { s.version = v } }

// New creates a server. doc may be nil, in which case only ad-hoc layouts
// are available.
func New(runner *pipeline.Runner, doc *glossary.Document, logger *log.Logger, opts ...Option) *Server {
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner:          runner,
		doc:             doc,
		logger:          logger,
		addr:            DefaultAddr,
		shutdownTimeout: DefaultShutdownTimeout,
		maxNodes:        DefaultMaxNodes,
		version:         "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.addr }

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(s.recoverer)
	r.Use(middleware.StripSlashes)

	r.NotFound(s.wrap(func(w http.ResponseWriter, r *http.Request) error {
		return errNotFound(r)
	}))
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
			Code:      "METHOD_NOT_ALLOWED",
			Message:   fmt.Sprintf("%s not allowed on %s", r.Method, r.URL.Path),
			RequestID: RequestID(r.Context()),
		})
	})

	r.Get("/healthz", s.wrap(s.health))
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.wrap(s.postLayout))
		r.Get("/layout", s.wrap(s.getLayout))
		r.Get("/sections", s.wrap(s.listSections))
		r.Get("/sections/{section}/layout", s.wrap(s.getLayout))
	})
	return r
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is cancelled, then shuts down gracefully
// within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	hs := &http.Server{
		MaxHeaderBytes: 1 << 18,
		ReadTimeout:    time.Minute,
		WriteTimeout:   time.Minute,
		IdleTimeout:    time.Hour,
		ErrorLog:       s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}),
		Handler:        http.MaxBytesHandler(s.Handler(), maxBodyBytes),
		BaseContext:    func(net.Listener) context.Context { return ctx },
	}

	s.logger.Info("listening", "addr", l.Addr().String())

	done := make(chan error, 1)
	go func() {
		done <- hs.Serve(l)
	}()

	select {
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down", "timeout", s.shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		return hs.Shutdown(shutdownCtx)
	}
}
