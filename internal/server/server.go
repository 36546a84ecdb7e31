// Package server exposes the suggestion resolver over HTTP.
//
// Routes:
//
//	GET /healthz
//	GET /metrics
//	GET /v1/frames/{handle}/columns
//	GET /v1/frames/{handle}/columns/{columnID}/spec
//	GET /v1/frames/{handle}/columns/{columnID}/suggestions
//	GET /v1/frames/{handle}/filter-options?anchor={columnID}
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/colsuggest/internal/config"
	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/logger"
	"github.com/koustreak/colsuggest/internal/metrics"
	"github.com/koustreak/colsuggest/internal/pframe"
	"github.com/koustreak/colsuggest/internal/suggest"
)

// Server serves every frame of one driver.
type Server struct {
	cfg          config.ServerConfig
	defaultLimit int
	driver       pframe.Driver
	resolver     *suggest.Resolver
	log          *logger.Logger
	metrics      *metrics.Metrics
	router       chi.Router
}

// Options wires a Server. Log and Metrics may be nil.
type Options struct {
	Config       config.ServerConfig
	DefaultLimit int
	Driver       pframe.Driver
	Resolver     *suggest.Resolver
	Log          *logger.Logger
	Metrics      *metrics.Metrics
}

func New(opts Options) (*Server, error) {
	if opts.Driver == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "server needs a pframe driver")
	}
	s := &Server{
		cfg:          opts.Config,
		defaultLimit: opts.DefaultLimit,
		driver:       opts.Driver,
		resolver:     opts.Resolver,
		log:          opts.Log,
		metrics:      opts.Metrics,
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = suggest.DefaultSuggestLimit
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.resolver == nil {
		s.resolver = suggest.NewResolver()
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/v1/frames/{handle}", func(r chi.Router) {
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}
		r.Get("/columns", s.findColumns)
		r.Get("/columns/{columnID}/spec", s.columnSpec)
		r.Get("/columns/{columnID}/suggestions", s.suggestions)
		r.Get("/filter-options", s.filterOptions)
	})
	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- errs.Wrap(errs.ErrKindConnectionFailed, "listen on "+s.cfg.Addr, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errs.Wrap(errs.ErrKindTimeout, "graceful shutdown", err)
	}
	return <-errCh
}

func (s *Server) frameContext(r *http.Request) pframe.Context {
	return pframe.Context{
		Handle: pframe.Handle(chi.URLParam(r, "handle")),
		Driver: s.driver,
	}
}
