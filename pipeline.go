package main

import (
	"context"
	"log/slog"

	"github.com/sunique/schedule-proxy/internal/config"
	"github.com/sunique/schedule-proxy/internal/graph"
	"github.com/sunique/schedule-proxy/internal/schedule"
	"github.com/sunique/schedule-proxy/internal/telemetry"
)

// newFetcher wires the token provider and the retrieval pipeline from cfg.
// The returned shutdown flushes any spans recorded by the pipeline.
func newFetcher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*schedule.Fetcher, telemetry.ShutdownFunc, error) {
	shutdown, err := telemetry.Setup(ctx, telemetry.Settings{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Enabled:        cfg.OTelEnabled,
		Endpoint:       cfg.OTelEndpoint,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	hc := newHTTPClient(cfg)

	auth := graph.NewAuthenticator(graph.Credentials{
		TenantID:     cfg.TenantID,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}, cfg.LoginBaseURL, hc, logger)

	fetcher := schedule.NewFetcher(schedule.Options{
		Hostname:     cfg.Hostname,
		GraphBaseURL: cfg.GraphBaseURL,
		HTTPClient:   hc,
		Tokens:       auth,
		Logger:       logger,
	})

	return fetcher, shutdown, nil
}
