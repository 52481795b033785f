// Package config loads the service configuration from the process
// environment. The four SharePoint credentials are mandatory; everything
// else has a default. The resulting Config is built once at startup and
// passed by value to the components that need it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Environment variable names for the required credentials.
const (
	EnvTenantID     = "SHAREPOINT_TENANT_ID"
	EnvClientID     = "SHAREPOINT_CLIENT_ID"
	EnvClientSecret = "SHAREPOINT_CLIENT_SECRET"
	EnvHostname     = "SHAREPOINT_HOSTNAME"
)

// Config is the immutable service configuration.
type Config struct {
	TenantID     string `env:"SHAREPOINT_TENANT_ID,required,notEmpty"`
	ClientID     string `env:"SHAREPOINT_CLIENT_ID,required,notEmpty"`
	ClientSecret string `env:"SHAREPOINT_CLIENT_SECRET,required,notEmpty"`
	Hostname     string `env:"SHAREPOINT_HOSTNAME,required,notEmpty"`

	Port      int    `env:"PORT" envDefault:"3000"`
	AppEnv    string `env:"APP_ENV" envDefault:"production"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT"` // json, text, or empty for auto-detect

	AccessLog      bool     `env:"HTTP_ACCESS_LOG" envDefault:"true"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	GraphBaseURL      string        `env:"GRAPH_BASE_URL" envDefault:"https://graph.microsoft.com/v1.0"`
	LoginBaseURL      string        `env:"LOGIN_BASE_URL" envDefault:"https://login.microsoftonline.com"`
	HTTPClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"0s"`

	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
	OTelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// MissingError reports every required variable that was absent or empty,
// in declaration order.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Keys, ", ")
}

// Load parses the configuration from environ. A nil environ reads the real
// process environment. When required variables are missing the returned
// error is a *MissingError naming all of them, not just the first.
func Load(environ map[string]string) (Config, error) {
	var cfg Config

	err := env.ParseWithOptions(&cfg, env.Options{Environment: environ})
	if err == nil {
		if err := Validate(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}

		return cfg, nil
	}

	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	var (
		missing []string
		other   []error
	)

	for _, e := range agg.Errors {
		var notSet env.VarIsNotSetError
		var empty env.EmptyVarError

		switch {
		case errors.As(e, &notSet):
			missing = append(missing, notSet.Key)
		case errors.As(e, &empty):
			missing = append(missing, empty.Key)
		default:
			other = append(other, e)
		}
	}

	if len(missing) > 0 {
		return Config{}, &MissingError{Keys: missing}
	}

	return Config{}, fmt.Errorf("config: %w", errors.Join(other...))
}

// Development reports whether the service runs in development mode, which
// exposes stack traces in error responses.
func (c Config) Development() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
