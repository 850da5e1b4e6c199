package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/wolfman30/clinicdesk/internal/api/router"
	"github.com/wolfman30/clinicdesk/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinicdesk/internal/http/middleware"
)

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local web console",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = c.rt.Config.ConsoleAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx, addr)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (defaults to CONSOLE_ADDR)")
	return cmd
}

func (c *cli) consoleHandler() http.Handler {
	cfg := c.rt.Config
	return router.New(&router.Config{
		Logger:             c.rt.Logger,
		Console:            handlers.NewConsoleHandler(c.rt.Sessions, c.rt.Service, c.rt.Logger, c.rt.Metrics),
		Sessions:           c.rt.Sessions,
		MetricsHandler:     promhttp.HandlerFor(c.rt.Registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        httpmiddleware.NewRateLimiter(cfg.ConsoleRateLimit, cfg.ConsoleRateBurst),
	})
}

func (c *cli) serve(ctx context.Context, addr string) error {
	logger := c.rt.Logger
	srv := &http.Server{
		Addr:         addr,
		Handler:      c.consoleHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("console listening", "addr", addr, "backend", c.rt.Config.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down console...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("console forced to shutdown", "error", err)
		return err
	}
	logger.Info("console stopped")
	return nil
}
