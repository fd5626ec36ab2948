package server

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/internal/handlers"
	"github.com/adipk/ragdocs/internal/middleware"
	"github.com/adipk/ragdocs/internal/worker"
	"github.com/adipk/ragdocs/pkg/logx"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	httpServer *http.Server
	logger     *logx.Logger
}

// New assembles the router. Every API route goes through the middleware
// chain; /metrics and /health stay outside it so scrapers and probes are
// never rate limited.
func New(listenAddr string, documents *handlers.DocumentHandler, queries *handlers.QueryHandler) *Server {
	chain := middleware.NewChain()
	r := chi.NewRouter()

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", handlers.HealthHandler)

	r.Post("/documents", chain.Wrap(documents.Upload))
	r.Get("/documents", chain.Wrap(documents.List))
	r.Get("/documents/{id}", chain.Wrap(documents.Get))
	r.Delete("/documents/{id}", chain.Wrap(documents.Delete))
	r.Get("/documents/{id}/chunks", chain.Wrap(documents.Chunks))
	r.Get("/documents/{id}/download", chain.Wrap(documents.Download))
	r.Post("/documents/{id}/reindex", chain.Wrap(documents.Reindex))
	r.Post("/query", chain.Wrap(queries.Query))

	return &Server{
		httpServer: &http.Server{
			Addr:         listenAddr,
			Handler:      r,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		logger: logx.New("server"),
	}
}

func (s *Server) Run() {
	s.logger.Info("Server is listening", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Server crashed", "error", err, "addr", s.httpServer.Addr)
	}
}

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	Pool             *worker.Pool
	CloseServices    context.CancelFunc
}

// ShutDownHandler blocks until a termination signal, then stops taking
// requests, drains the worker pool and releases external clients, all
// bounded by the shutdown timeout.
func (s *Server) ShutDownHandler(params ShutdownParams) {
	sig := <-params.GracefulShutdown
	s.logger.Info("Server is shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.httpServer.SetKeepAlivesEnabled(false)
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("Could not shutdown gracefully", "error", err)
		}

		if err := params.Pool.Shutdown(ctx); err != nil {
			s.logger.Error("Worker pool did not drain in time", "error", err)
		}
		params.CloseServices()
		close(params.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Graceful shutdown complete")
	case <-ctx.Done():
		s.logger.Info("Force shut down")
		os.Exit(1)
	}
}
