// Package server exposes providers and the generic extraction pipeline
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"streamscout/internal/log"
	"streamscout/internal/media"
	"streamscout/internal/provider"
)

// DirectResolver runs the provider-agnostic pipeline on an arbitrary embed
// URL. *extract.Pipeline implements it.
type DirectResolver interface {
	DirectSources(ctx context.Context, embedURL string) []media.SourceRecord
}

// Recorder stores resolutions in the resolution log. *history.Store
// implements it.
type Recorder interface {
	Record(ctx context.Context, e media.HistoryEntry) (int64, error)
}

// Options configures a Server.
type Options struct {
	// TestProvider serves the /test debugging route.
	TestProvider string
	// Direct backs /direct. Nil disables the route.
	Direct DirectResolver
	// History records every provider resolution when set.
	History Recorder
	// RateLimit is requests per minute per client IP. Zero disables it.
	RateLimit int
	Logger    zerolog.Logger
}

// Server routes HTTP requests to providers.
type Server struct {
	registry     *provider.Registry
	testProvider string
	direct       DirectResolver
	history      Recorder
	logger       zerolog.Logger
	router       chi.Router
}

// New builds a server over the given registry.
func New(registry *provider.Registry, opts Options) *Server {
	s := &Server{
		registry:     registry,
		testProvider: opts.TestProvider,
		direct:       opts.Direct,
		history:      opts.History,
		logger:       opts.Logger,
	}
	if s.testProvider == "" {
		s.testProvider = "vidsrc"
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(CORS)
	r.Use(log.Middleware())
	if opts.RateLimit > 0 {
		r.Use(RateLimit(opts.RateLimit, time.Minute))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/direct", s.handleDirect)
	r.Get("/test/{media_type}/{id}", s.handleTest)
	r.Get("/{provider}/{media_type}/{id}", s.handleStreams)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
