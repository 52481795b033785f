package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
)

// DefaultLoginBaseURL is the Microsoft identity platform host.
const DefaultLoginBaseURL = "https://login.microsoftonline.com"

// graphScope requests every application permission granted to the app
// registration for Microsoft Graph.
const graphScope = "https://graph.microsoft.com/.default"

// Credentials identify an app registration in an Entra ID tenant.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Authenticator exchanges client credentials for Graph access tokens.
// It holds no token state: every AccessToken call performs a fresh
// client-credentials grant.
type Authenticator struct {
	cfg        *clientcredentials.Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAuthenticator builds an Authenticator for the given tenant. loginBaseURL
// may be empty, in which case DefaultLoginBaseURL is used.
func NewAuthenticator(creds Credentials, loginBaseURL string, httpClient *http.Client, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Authenticator{
		cfg: &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     tokenURL(loginBaseURL, creds.TenantID),
			Scopes:       []string{graphScope},
			// Entra expects the secret in the form body, not in Basic auth.
			AuthStyle: oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
		logger:     logger,
	}
}

// tokenURL returns the v2.0 token endpoint for tenant under base.
func tokenURL(base, tenant string) string {
	base = strings.TrimRight(base, "/")
	if base == "" || base == DefaultLoginBaseURL {
		return microsoft.AzureADEndpoint(tenant).TokenURL
	}

	return base + "/" + url.PathEscape(tenant) + "/oauth2/v2.0/token"
}

// AccessToken performs one client-credentials grant and returns the bearer
// token. Failures from the token endpoint come back as *TokenError carrying
// the HTTP status and the response body text.
func (a *Authenticator) AccessToken(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	tok, err := a.cfg.Token(ctx)
	if err != nil {
		tokenErr := &TokenError{Err: err}

		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			tokenErr.StatusCode = retrieveErr.Response.StatusCode
			tokenErr.Body = string(retrieveErr.Body)
		}

		a.logger.Warn("token acquisition failed",
			slog.Int("status", tokenErr.StatusCode),
			slog.String("error", err.Error()),
		)

		return "", tokenErr
	}

	if tok.AccessToken == "" {
		return "", &TokenError{Err: fmt.Errorf("token response carried no access_token")}
	}

	a.logger.Debug("token acquired",
		slog.Time("expiry", tok.Expiry),
		slog.String("token_type", tok.Type()),
	)

	return tok.AccessToken, nil
}
