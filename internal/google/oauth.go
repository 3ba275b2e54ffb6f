package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/meetgate/internal/instrumentation"
)

// Config holds the OAuth client credentials. All secrets are passed in
// explicitly; nothing is read from ambient globals.
type Config struct {
	// ClientID is the Google OAuth client ID.
	ClientID string

	// ClientSecret is the Google OAuth client secret.
	ClientSecret string

	// RedirectURL is the absolute callback URL registered with Google.
	RedirectURL string
}

// Sentinel errors for the token exchange at the OAuth callback. Both
// are identity errors: terminal for the request, surfaced as a 4xx
// error page with a link back to sign-in.
var (
	// ErrNoRefreshToken indicates the code exchange response omitted a
	// refresh token. The user must revoke the app's access and
	// re-authorize to obtain one.
	ErrNoRefreshToken = errors.New("no refresh token received")

	// ErrNoIDToken indicates the code exchange response omitted the
	// id_token needed to establish the user's identity.
	ErrNoIDToken = errors.New("no id_token received")
)

// RefreshResult is the outcome of a refresh-token exchange.
// NewRefreshToken is non-empty only when the provider rotated the
// refresh token; every caller must then persist it and propagate it
// into the session cookie, or the user's session breaks on the next
// refresh cycle.
type RefreshResult struct {
	AccessToken     string
	NewRefreshToken string
}

// LoginResult is the outcome of an authorization-code exchange: the
// long-lived credential plus the identity extracted from the id_token.
type LoginResult struct {
	RefreshToken string
	Email        string
	Name         string
}

// Client talks to Google's OAuth endpoints.
type Client struct {
	conf    *oauth2.Config
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewClient creates an OAuth client for the given credentials.
// metrics may be nil when instrumentation is disabled.
func NewClient(cfg Config, logger *slog.Logger, metrics *instrumentation.Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       OAuthScopes,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// AuthCodeURL returns the Google consent screen URL for the given
// state token. Offline access and forced consent are requested so that
// a refresh token is issued even for repeat sign-ins.
func (c *Client) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ExchangeCode exchanges an authorization code for tokens and extracts
// the user's identity from the id_token claims.
func (c *Client) ExchangeCode(ctx context.Context, code string) (LoginResult, error) {
	start := time.Now()

	tok, err := c.conf.Exchange(ctx, code)
	if err != nil {
		c.recordOAuth(ctx, "exchange", instrumentation.StatusError, start)
		return LoginResult{}, fmt.Errorf("token exchange failed: %w", describeRetrieveError(err))
	}

	if tok.RefreshToken == "" {
		c.recordOAuth(ctx, "exchange", instrumentation.StatusError, start)
		return LoginResult{}, ErrNoRefreshToken
	}

	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		c.recordOAuth(ctx, "exchange", instrumentation.StatusError, start)
		return LoginResult{}, ErrNoIDToken
	}

	email, name, err := identityFromIDToken(idToken)
	if err != nil {
		c.recordOAuth(ctx, "exchange", instrumentation.StatusError, start)
		return LoginResult{}, err
	}

	c.recordOAuth(ctx, "exchange", instrumentation.StatusSuccess, start)
	return LoginResult{
		RefreshToken: tok.RefreshToken,
		Email:        email,
		Name:         name,
	}, nil
}

// RefreshAccessToken exchanges a refresh token for an access token.
// A non-success provider response is fatal for the calling request and
// carries the provider's status code and body text for operator
// debugging. When the provider rotates the refresh token, the rotated
// value is returned in NewRefreshToken.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (RefreshResult, error) {
	start := time.Now()

	ts := c.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		}
		c.recordOAuth(ctx, "refresh", instrumentation.StatusError, start)
		return RefreshResult{}, fmt.Errorf("token refresh failed: %w", describeRetrieveError(err))
	}

	result := RefreshResult{AccessToken: tok.AccessToken}
	if tok.RefreshToken != "" && tok.RefreshToken != refreshToken {
		c.logger.Info("refresh token rotated by provider")
		result.NewRefreshToken = tok.RefreshToken
	}

	if c.metrics != nil {
		c.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	}
	c.recordOAuth(ctx, "refresh", instrumentation.StatusSuccess, start)
	return result, nil
}

func (c *Client) recordOAuth(ctx context.Context, operation, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceOAuth, operation, status, time.Since(start))
}

// describeRetrieveError unwraps an oauth2 retrieve error so the
// provider's status code and body end up in the message. The raw body
// is for logs and operator-facing error pages, never echoed verbatim
// to end users.
func describeRetrieveError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return fmt.Errorf("provider returned %d: %s", re.Response.StatusCode, string(re.Body))
	}
	return err
}
