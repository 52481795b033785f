package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sunique/schedule-proxy/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

const serviceName = "schedule-proxy"

// Global persistent flags, bound in newRootCmd().
var (
	flagEnvFiles []string
	flagVerbose  bool
	flagQuiet    bool
)

// resolvedCfg holds the configuration loaded by PersistentPreRunE.
var resolvedCfg *config.Config

// skipConfigCommands lists cobra's built-in commands, which never touch
// SharePoint and must work without credentials. Keyed on CommandPath() so a
// future subcommand named "help" elsewhere still loads config.
var skipConfigCommands = map[string]bool{
	serviceName + " help":                  true,
	serviceName + " completion":            true,
	serviceName + " completion bash":       true,
	serviceName + " completion zsh":        true,
	serviceName + " completion fish":       true,
	serviceName + " completion powershell": true,
	serviceName + " __complete":            true,
	serviceName + " __completeNoDesc":      true,
}

// newRootCmd builds the root command. Running it without a subcommand
// starts the HTTP server, the same as "serve".
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   serviceName,
		Short: "Appointment schedule download service",
		Long: "Serves the appointment schedule workbook stored in SharePoint over HTTP,\n" +
			"authenticating to Microsoft Graph with app-only client credentials.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipConfigCommands[cmd.CommandPath()] {
				return nil
			}

			return loadConfig()
		},
		RunE: runServe,
	}

	cmd.PersistentFlags().StringSliceVar(&flagEnvFiles, "env-file", nil, "dotenv file(s) to load before reading the environment (default .env)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "only log errors")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newFetchCmd())

	return cmd
}

// loadConfig reads dotenv files and then the environment. Startup stops
// here, before any listener is opened, when a required variable is missing.
func loadConfig() error {
	if _, err := config.LoadDotEnv(flagEnvFiles...); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}

	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}

	resolvedCfg = &cfg

	return nil
}

// parseLevel maps a LOG_LEVEL value to a slog level. Unknown values fall
// back to info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// logLevel combines the configured level with the CLI flags. Flags win.
func logLevel(cfg *config.Config) slog.Level {
	level := slog.LevelInfo
	if cfg != nil {
		level = parseLevel(cfg.LogLevel)
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return level
}

// useJSON picks the log format. An explicit LOG_FORMAT wins; otherwise a
// terminal gets text and anything else (a container log collector) JSON.
func useJSON(cfg *config.Config, w io.Writer) bool {
	if cfg != nil {
		switch strings.ToLower(cfg.LogFormat) {
		case "json":
			return true
		case "text":
			return false
		}
	}

	f, ok := w.(*os.File)
	if !ok {
		return true
	}

	return !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
}

// buildLogger creates the application logger writing to w.
func buildLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel(cfg)}

	var h slog.Handler
	if useJSON(cfg, w) {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h).With(slog.String("service", serviceName))
}

// newHTTPClient returns the outbound client shared by all runs. A zero
// timeout leaves requests bounded only by their context.
func newHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.HTTPClientTimeout}
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
