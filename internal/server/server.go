// Package server exposes the schedule pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"

	"github.com/sunique/schedule-proxy/internal/schedule"
)

const (
	// DownloadPath is the route that runs the retrieval pipeline.
	DownloadPath = "/api/download-schedule"

	infoMessage = "Appointment Schedule API Server"
)

// Fetcher runs one retrieval. *schedule.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context) (*schedule.Result, error)
}

// Options configures the router.
type Options struct {
	Fetcher Fetcher
	Logger  *slog.Logger

	// Development adds the captured stack trace to error responses.
	Development bool

	// AllowedOrigins feeds the CORS middleware. Empty means any origin.
	AllowedOrigins []string

	// AccessLog enables request logging when non-nil.
	AccessLog *httplog.Logger
}

type infoResponse struct {
	Status    string        `json:"status"`
	Message   string        `json:"message"`
	Endpoints infoEndpoints `json:"endpoints"`
}

type infoEndpoints struct {
	Health       string `json:"health"`
	DownloadFile string `json:"downloadFile"`
}

type errorResponse struct {
	Error string `json:"error"`
	Stack string `json:"stack,omitempty"`
}

type handlers struct {
	fetcher     Fetcher
	logger      *slog.Logger
	development bool
}

// NewRouter builds the HTTP handler with its middleware stack.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &handlers{
		fetcher:     opts.Fetcher,
		logger:      logger,
		development: opts.Development,
	}

	r := chi.NewRouter()

	// httplog.RequestLogger already chains RequestID and Recoverer.
	if opts.AccessLog != nil {
		r.Use(httplog.RequestLogger(opts.AccessLog))
	} else {
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/", h.info)
	r.Get(DownloadPath, h.downloadSchedule)

	return r
}

func (h *handlers) info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Status:  "ok",
		Message: infoMessage,
		Endpoints: infoEndpoints{
			Health:       "GET /",
			DownloadFile: "GET " + DownloadPath,
		},
	})
}

func (h *handlers) downloadSchedule(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("request_id", middleware.GetReqID(r.Context())))

	// A started run finishes even if the client disconnects.
	res, err := h.fetcher.Fetch(context.WithoutCancel(r.Context()))
	if err != nil {
		h.writeError(w, logger, err)
		return
	}

	logger.Info("serving schedule",
		slog.String("run_id", res.RunID),
		slog.Int("bytes", len(res.Content)),
		slog.String("detected_type", res.DetectedType),
	)

	w.Header().Set("Content-Type", schedule.ContentType)
	if !res.Location.ModifiedAt.IsZero() {
		w.Header().Set("Last-Modified", res.Location.ModifiedAt.UTC().Format(http.TimeFormat))
	}

	w.Header().Set("Content-Length", strconv.Itoa(len(res.Content)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(res.Content); err != nil {
		logger.Warn("writing schedule body", slog.String("error", err.Error()))
	}
}

// writeError converts any pipeline failure into the uniform 500 body.
func (h *handlers) writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	resp := errorResponse{Error: err.Error()}

	var se *schedule.Error
	if errors.As(err, &se) {
		logger.Error("download-schedule failed",
			slog.String("kind", se.Kind.String()),
			slog.String("state", se.State.String()),
			slog.Int("upstream_status", se.Status),
			slog.String("error", se.Message),
		)

		if h.development {
			resp.Stack = string(se.Stack)
		}
	} else {
		logger.Error("download-schedule failed", slog.String("error", err.Error()))
	}

	writeJSON(w, http.StatusInternalServerError, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
