package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds how long in-flight downloads may drain.
const shutdownTimeout = 30 * time.Second

// ListenAndServe binds addr and serves handler until ctx is canceled.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	return Serve(ctx, ln, handler, logger)
}

// Serve runs handler on ln. When ctx is canceled the server stops accepting
// connections and waits up to shutdownTimeout for active requests. Serve
// takes ownership of ln.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", ln.Addr().String()))

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}

		logger.Info("server stopped")

		return nil
	})

	return g.Wait()
}
