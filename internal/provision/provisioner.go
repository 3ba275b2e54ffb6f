package provision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/meetgate/internal/google"
	"github.com/teemow/meetgate/internal/instrumentation"
	"github.com/teemow/meetgate/internal/logging"
	"github.com/teemow/meetgate/internal/meetings"
	"github.com/teemow/meetgate/internal/tokens"
)

// TokenRefresher mints an access token from a stored refresh token.
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (google.RefreshResult, error)
}

// SpaceCreator creates a Meet space and returns its joinable URL.
type SpaceCreator interface {
	CreateSpace(ctx context.Context, accessToken string) (string, error)
}

// Result is the outcome of provisioning a meeting for a user.
type Result struct {
	// Entry is the cached meeting record that was created.
	Entry meetings.Entry

	// NewRefreshToken is non-empty when the provider rotated the
	// refresh token during provisioning. Callers holding the old
	// token in a session must propagate the new one.
	NewRefreshToken string
}

// Provisioner creates a fresh Meet space for a user and records it in
// the meeting cache, keeping the stored credential current when the
// provider rotates it.
type Provisioner struct {
	refresher TokenRefresher
	creator   SpaceCreator
	cache     *meetings.Cache
	tokens    *tokens.Store
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
}

// NewProvisioner creates a Provisioner.
func NewProvisioner(refresher TokenRefresher, creator SpaceCreator, cache *meetings.Cache, store *tokens.Store, logger *slog.Logger, metrics *instrumentation.Metrics) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{
		refresher: refresher,
		creator:   creator,
		cache:     cache,
		tokens:    store,
		logger:    logger,
		metrics:   metrics,
	}
}

// CreateAndStore refreshes the user's access token, creates a Meet
// space, and caches the resulting entry under the user's email. When
// the provider rotates the refresh token, the stored token record is
// updated alongside the cache write and the new token is surfaced in
// the Result.
func (p *Provisioner) CreateAndStore(ctx context.Context, email, name, refreshToken string) (Result, error) {
	start := time.Now()

	refreshed, err := p.refresher.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		p.recordStatus(ctx, instrumentation.StatusError, email)
		return Result{}, fmt.Errorf("failed to refresh access token: %w", err)
	}

	url, err := p.creator.CreateSpace(ctx, refreshed.AccessToken)
	if err != nil {
		p.recordStatus(ctx, instrumentation.StatusError, email)
		return Result{}, err
	}

	entry := meetings.Entry{
		URL:   url,
		Name:  name,
		Email: email,
	}

	// The cache write and the rotated-token write are independent;
	// issue them concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.cache.Store(gctx, email, entry) })
	if refreshed.NewRefreshToken != "" {
		g.Go(func() error { return p.tokens.Store(gctx, email, refreshed.NewRefreshToken, name) })
	}
	if err := g.Wait(); err != nil {
		p.recordStatus(ctx, instrumentation.StatusError, email)
		return Result{}, err
	}

	p.recordStatus(ctx, instrumentation.StatusSuccess, email)
	p.logger.Info("provisioned meeting",
		logging.UserHash(email),
		slog.Duration(logging.KeyDuration, time.Since(start)))

	return Result{
		Entry:           entry,
		NewRefreshToken: refreshed.NewRefreshToken,
	}, nil
}

func (p *Provisioner) recordStatus(ctx context.Context, status, email string) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordMeetingProvisioned(ctx, status, email)
}
