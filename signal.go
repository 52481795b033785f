package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// shutdownContext cancels on the first SIGINT or SIGTERM so the server can
// drain in-flight downloads. A second signal exits immediately.
func shutdownContext(parent context.Context, logger *slog.Logger) context.Context {
	return notifyShutdown(parent, logger, os.Exit, syscall.SIGINT, syscall.SIGTERM)
}

// notifyShutdown is shutdownContext with the signals and the exit hook
// injectable.
func notifyShutdown(parent context.Context, logger *slog.Logger, exit func(int), sigs ...os.Signal) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, sigs...)

	go func() {
		defer signal.Stop(sigCh)

		received := 0

		for {
			select {
			case sig := <-sigCh:
				received++

				if received == 1 {
					logger.Info("shutdown requested, signal again to force",
						slog.String("signal", sig.String()))
					cancel()

					continue
				}

				logger.Warn("forcing exit", slog.String("signal", sig.String()))
				exit(1)

				return
			case <-parent.Done():
				cancel()

				return
			}
		}
	}()

	return ctx
}
