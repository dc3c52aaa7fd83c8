package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ctxspine/repomap/internal/httpapi"
	"github.com/ctxspine/repomap/internal/telemetry"
)

var (
	servePort              int
	serveDebug             bool
	servePrometheusEnabled bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the build/rank HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "listen port")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "enable gin debug mode and request logging")
	serveCmd.Flags().BoolVar(&servePrometheusEnabled, "prometheus", false, "expose a Prometheus metrics reader alongside stdout metrics")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := newLogger()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:       "repomap",
		PrometheusEnabled: servePrometheusEnabled,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	eng, err := buildEngine(".", logger)
	if err != nil {
		return fmt.Errorf("wire engine: %w", err)
	}

	srv := httpapi.NewServer(eng.pool, eng.fi, eng.res, eng.diff, httpapi.WithLogger(logger))
	router := srv.Router(serveDebug)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", servePort),
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", httpServer.Addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen: %w", err)
		}
	case <-stop:
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}
	return nil
}
