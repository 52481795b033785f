package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sunique/schedule-proxy/internal/schedule"
)

func newFetchCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the schedule once and exit",
		Long: `Run the retrieval pipeline once without starting the server and save the
workbook locally. Useful for checking credentials and site access.

Use -o - to write the bytes to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", schedule.FileName, "destination file, or - for stdout")

	return cmd
}

func runFetch(cmd *cobra.Command, output string) error {
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

	res, err := fetcher.Fetch(ctx)
	if err != nil {
		return err
	}

	if output == "-" {
		if _, err := cmd.OutOrStdout().Write(res.Content); err != nil {
			return fmt.Errorf("writing to stdout: %w", err)
		}

		return nil
	}

	if err := os.WriteFile(output, res.Content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	statusf(flagQuiet, "Saved %s from %s (%s) to %s\n",
		res.Location.Name, res.Site.Label(), formatSize(int64(len(res.Content))), output)

	return nil
}
