package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tryon-studio/internal/application/usecases"
	"tryon-studio/internal/config"
	"tryon-studio/internal/infrastructure/api"
	"tryon-studio/internal/infrastructure/metrics"
)

// NewServer builds the HTTP server for a single browser session.
func NewServer(c *Components) (*http.Server, *api.WorkflowHandler) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	controller := c.NewController(usecases.WithMetrics(metrics.New(reg)))
	handler := api.NewWorkflowHandler(controller, c.ParameterService, c.Logger.Named("http"))

	srv := &http.Server{
		Addr:              c.Config.Addr(),
		Handler:           api.NewRouter(handler, reg),
		ReadHeaderTimeout: c.Config.Server.ReadTimeout,
	}
	return srv, handler
}

// RunServer serves until ctx is cancelled, then shuts down gracefully.
func RunServer(ctx context.Context, c *Components) error {
	srv, handler := NewServer(c)
	logger := c.Logger
	if c.Config.Gemini.Backend == config.DefaultBackend && c.Config.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set; generation requests will fail until it is configured")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server",
			zap.String("addr", srv.Addr),
			zap.String("backend", c.Config.Gemini.Backend),
			zap.String("model", c.Parameters.Model()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.Config.Server.ShutdownTimeout)
		defer cancel()
		return shutdown(shutdownCtx, srv, handler, logger)
	})

	return g.Wait()
}

// shutdown stops accepting requests, then waits for dispatched generations
// to settle until ctx ends.
func shutdown(ctx context.Context, srv *http.Server, handler *api.WorkflowHandler, logger *zap.Logger) error {
	logger.Info("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	if err := handler.Drain(ctx); err != nil {
		logger.Warn("dispatched requests still in flight at shutdown", zap.Error(err))
		return nil
	}
	logger.Info("dispatched requests settled")
	return nil
}
