package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/spf13/cobra"

	"github.com/sunique/schedule-proxy/internal/config"
	"github.com/sunique/schedule-proxy/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Long: `Run the HTTP server on PORT.

Routes:
  GET /                        service info
  GET /api/download-schedule   download the appointment schedule workbook`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := resolvedCfg
	logger := buildLogger(cfg, os.Stderr)

	ctx := shutdownContext(cmd.Context(), logger)

	fetcher, shutdownTracing, err := newFetcher(ctx, cfg, logger)
	if err != nil {
		return err
	}

	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flushing traces", slog.String("error", err.Error()))
		}
	}()

	router := server.NewRouter(server.Options{
		Fetcher:        fetcher,
		Logger:         logger,
		Development:    cfg.Development(),
		AllowedOrigins: cfg.AllowedOrigins,
		AccessLog:      accessLogger(cfg),
	})

	logger.Info("starting schedule proxy",
		slog.String("version", version),
		slog.Int("port", cfg.Port),
		slog.String("app_env", cfg.AppEnv),
		slog.String("download_url", fmt.Sprintf("http://localhost:%d%s", cfg.Port, server.DownloadPath)),
	)

	return server.ListenAndServe(ctx, cfg.Addr(), router, logger)
}

// accessLogger returns the request logger, or nil when HTTP_ACCESS_LOG is off.
func accessLogger(cfg *config.Config) *httplog.Logger {
	if !cfg.AccessLog {
		return nil
	}

	return httplog.NewLogger(serviceName, httplog.Options{
		JSON:     useJSON(cfg, os.Stderr),
		LogLevel: logLevel(cfg),
		Concise:  true,
		Writer:   os.Stderr,
	})
}
