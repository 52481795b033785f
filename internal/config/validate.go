package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Validation range constants.
const (
	minPort = 1
	maxPort = 65535
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validLogFormats = []string{"", "json", "text"}
)

// Validate checks the optional settings and returns all errors found.
// It accumulates every error rather than stopping at the first, so a
// deployment can fix all issues in one pass. The four credentials are
// only checked for presence, by Load; their values are passed through as-is.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Port < minPort || cfg.Port > maxPort {
		errs = append(errs, fmt.Errorf("PORT: must be between %d and %d, got %d", minPort, maxPort, cfg.Port))
	}

	if !slices.Contains(validLogLevels, strings.ToLower(cfg.LogLevel)) {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: must be one of debug, info, warn, error; got %q", cfg.LogLevel))
	}

	if !slices.Contains(validLogFormats, strings.ToLower(cfg.LogFormat)) {
		errs = append(errs, fmt.Errorf("LOG_FORMAT: must be json or text, got %q", cfg.LogFormat))
	}

	if cfg.HTTPClientTimeout < 0 {
		errs = append(errs, fmt.Errorf("HTTP_CLIENT_TIMEOUT: must not be negative, got %s", cfg.HTTPClientTimeout))
	}

	errs = append(errs, validateBaseURL("GRAPH_BASE_URL", cfg.GraphBaseURL)...)
	errs = append(errs, validateBaseURL("LOGIN_BASE_URL", cfg.LoginBaseURL)...)

	if cfg.OTelEndpoint != "" {
		errs = append(errs, validateBaseURL("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTelEndpoint)...)
	}

	return errors.Join(errs...)
}

func validateBaseURL(name, raw string) []error {
	u, err := url.Parse(raw)
	if err != nil {
		return []error{fmt.Errorf("%s: %w", name, err)}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return []error{fmt.Errorf("%s: must be an http or https URL, got %q", name, raw)}
	}

	if u.Host == "" {
		return []error{fmt.Errorf("%s: missing host in %q", name, raw)}
	}

	return nil
}
