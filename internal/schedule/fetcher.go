// Package schedule retrieves the appointment schedule workbook from
// SharePoint. Each Fetch runs a fresh four-stage pipeline (token, site,
// file, content) with no state shared between runs.
package schedule

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sunique/schedule-proxy/internal/graph"
)

const (
	// SitePath is the server-relative path of the site holding the schedule.
	// It is looked up directly rather than discovered by search.
	SitePath = "/sites/SuniqueKnowledgeBase"

	// FileName is the workbook searched for in the site's default drive.
	FileName = "Appoinement.xlsx"

	// ContentType is sent with the downloaded bytes.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

const tracerName = "github.com/sunique/schedule-proxy/internal/schedule"

// TokenProvider hands out a fresh bearer token per call.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Options configures a Fetcher. Hostname and Tokens are required.
type Options struct {
	Hostname     string
	GraphBaseURL string // defaults to graph.DefaultBaseURL
	HTTPClient   *http.Client
	Tokens       TokenProvider
	Logger       *slog.Logger
	Tracer       trace.Tracer

	// OnTransition, when set, is called for every state the run enters.
	OnTransition func(runID string, s State)
}

// FileLocation identifies the resolved workbook inside its drive.
type FileLocation struct {
	DriveID    string
	ItemID     string
	Name       string
	Size       int64
	ModifiedAt time.Time // zero when Graph did not report it
	Matches    int       // number of search hits the location was chosen from
}

// Result is the outcome of one successful run.
type Result struct {
	RunID        string
	Site         graph.Site
	Location     FileLocation
	Content      []byte
	DetectedType string // sniffed MIME type, informational only
}

// Fetcher runs the retrieval pipeline. It is safe for concurrent use: all
// per-run values live on the stack of Fetch.
type Fetcher struct {
	hostname     string
	graphBaseURL string
	httpClient   *http.Client
	tokens       TokenProvider
	logger       *slog.Logger
	tracer       trace.Tracer
	onTransition func(string, State)
}

// NewFetcher builds a Fetcher from opts.
func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		hostname:     opts.Hostname,
		graphBaseURL: opts.GraphBaseURL,
		httpClient:   opts.HTTPClient,
		tokens:       opts.Tokens,
		logger:       opts.Logger,
		tracer:       opts.Tracer,
		onTransition: opts.OnTransition,
	}

	if f.graphBaseURL == "" {
		f.graphBaseURL = graph.DefaultBaseURL
	}

	if f.httpClient == nil {
		f.httpClient = http.DefaultClient
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	if f.tracer == nil {
		f.tracer = otel.Tracer(tracerName)
	}

	return f
}

// run holds the values of a single pipeline execution.
type run struct {
	f      *Fetcher
	id     string
	logger *slog.Logger
	state  State
}

func (r *run) enter(s State) {
	r.state = s
	r.logger.Debug("state transition", slog.String("state", s.String()))

	if r.f.onTransition != nil {
		r.f.onTransition(r.id, s)
	}
}

// stage runs fn as the given pipeline state inside its own span.
func stage[T any](ctx context.Context, r *run, s State, fn func(context.Context) (T, error)) (T, error) {
	r.enter(s)

	ctx, span := r.f.tracer.Start(ctx, s.String())
	defer span.End()

	v, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return v, err
}

// Fetch authenticates, resolves the site and the workbook, and downloads
// it. Every failure is returned as *Error.
func (f *Fetcher) Fetch(ctx context.Context) (*Result, error) {
	r := &run{f: f, id: uuid.NewString(), state: StateIdle}
	r.logger = f.logger.With(slog.String("run_id", r.id))

	ctx, span := f.tracer.Start(ctx, "schedule.Fetch",
		trace.WithAttributes(attribute.String("schedule.run_id", r.id)))
	defer span.End()

	res, err := r.execute(ctx)
	if err != nil {
		failedIn := r.state
		r.enter(StateFailed)

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		r.logger.Debug("run failed",
			slog.String("state", failedIn.String()),
			slog.String("error", err.Error()),
		)

		return nil, err
	}

	r.enter(StateResponding)
	span.SetAttributes(attribute.Int("schedule.bytes", len(res.Content)))

	return res, nil
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	if r.f.tokens == nil || r.f.hostname == "" {
		return nil, newError(KindConfiguration, r.state, 0, nil,
			"schedule fetcher needs a token provider and a SharePoint hostname")
	}

	token, err := stage(ctx, r, StateAuthenticating, r.authenticate)
	if err != nil {
		return nil, err
	}

	// The client lives only as long as this run, bound to its own token.
	client := graph.NewClient(r.f.graphBaseURL, r.f.httpClient, graph.StaticToken(token), r.logger)

	site, err := stage(ctx, r, StateResolvingSite, func(ctx context.Context) (*graph.Site, error) {
		return r.resolveSite(ctx, client)
	})
	if err != nil {
		return nil, err
	}

	loc, err := stage(ctx, r, StateResolvingFile, func(ctx context.Context) (FileLocation, error) {
		return r.resolveFile(ctx, client, site)
	})
	if err != nil {
		return nil, err
	}

	content, err := stage(ctx, r, StateDownloading, func(ctx context.Context) ([]byte, error) {
		return r.download(ctx, client, loc)
	})
	if err != nil {
		return nil, err
	}

	detected := mimetype.Detect(content)
	if !detected.Is(ContentType) {
		r.logger.Warn("downloaded content does not look like a workbook",
			slog.String("detected", detected.String()),
			slog.String("item_id", loc.ItemID),
		)
	}

	return &Result{
		RunID:        r.id,
		Site:         *site,
		Location:     loc,
		Content:      content,
		DetectedType: detected.String(),
	}, nil
}

func (r *run) authenticate(ctx context.Context) (string, error) {
	token, err := r.f.tokens.AccessToken(ctx)
	if err != nil {
		var tokenErr *graph.TokenError
		if errors.As(err, &tokenErr) && tokenErr.StatusCode != 0 {
			return "", newError(KindAuthentication, r.state, tokenErr.StatusCode, err,
				"authentication failed: %d - %s", tokenErr.StatusCode, tokenErr.Body)
		}

		return "", newError(KindAuthentication, r.state, 0, err, "authentication failed: %v", err)
	}

	return token, nil
}

func (r *run) resolveSite(ctx context.Context, client *graph.Client) (*graph.Site, error) {
	name := path.Base(SitePath)

	site, err := client.SiteByPath(ctx, r.f.hostname, SitePath)
	if err != nil {
		if status := graph.StatusCode(err); status != 0 {
			return nil, newError(KindSiteResolution, r.state, status, err,
				"failed to access %s site: %d", name, status)
		}

		return nil, newError(KindSiteResolution, r.state, 0, err,
			"failed to access %s site: %v", name, err)
	}

	return site, nil
}

// resolveFile takes the first search hit in Graph's ranking. Further hits
// are logged and ignored.
func (r *run) resolveFile(ctx context.Context, client *graph.Client, site *graph.Site) (FileLocation, error) {
	items, err := client.SearchSiteDrive(ctx, site.ID, FileName)
	if err != nil {
		return FileLocation{}, newError(KindFileNotFound, r.state, graph.StatusCode(err), err,
			"file %q not found in %s", FileName, site.Label())
	}

	if len(items) == 0 {
		return FileLocation{}, newError(KindFileNotFound, r.state, 0, nil,
			"file %q not found in %s", FileName, site.Label())
	}

	if len(items) > 1 {
		names := make([]string, 0, len(items))
		for i := range items {
			names = append(names, items[i].Name)
		}

		r.logger.Warn("search returned several matches, using the first",
			slog.Int("matches", len(items)),
			slog.Any("names", names),
		)
	}

	first := items[0]
	if first.IsFolder {
		return FileLocation{}, newError(KindFileNotFound, r.state, 0, nil,
			"%q in %s is a folder, not a file", first.Name, site.Label())
	}

	if first.DriveID == "" {
		return FileLocation{}, newError(KindFileNotFound, r.state, 0, nil,
			"file %q in %s has no parent drive reference", FileName, site.Label())
	}

	r.logger.Debug("resolved file",
		slog.String("item_id", first.ID),
		slog.Int64("size", first.Size),
		slog.Time("modified_at", first.ModifiedAt),
	)

	return FileLocation{
		DriveID:    first.DriveID,
		ItemID:     first.ID,
		Name:       first.Name,
		Size:       first.Size,
		ModifiedAt: first.ModifiedAt,
		Matches:    len(items),
	}, nil
}

func (r *run) download(ctx context.Context, client *graph.Client, loc FileLocation) ([]byte, error) {
	var buf bytes.Buffer

	if _, err := client.DownloadContent(ctx, loc.DriveID, loc.ItemID, &buf); err != nil {
		var graphErr *graph.GraphError
		if errors.As(err, &graphErr) {
			return nil, newError(KindDownload, r.state, graphErr.StatusCode, err,
				"failed to download file: %d - %s", graphErr.StatusCode, graphErr.Message)
		}

		return nil, newError(KindDownload, r.state, 0, err, "failed to download file: %v", err)
	}

	return buf.Bytes(), nil
}
