package alias

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/meetgate/internal/kv"
	"github.com/teemow/meetgate/internal/logging"
)

const (
	// KeyPrefix maps alias -> email.
	KeyPrefix = "alias:"

	// EmailKeyPrefix maps email -> alias.
	EmailKeyPrefix = "email_alias:"

	// maxAttempts bounds collision retries during alias generation.
	maxAttempts = 5
)

// ErrExhausted is returned when alias generation fails to find an
// unused candidate within the retry budget. This is a hard failure for
// the request; a colliding alias is never returned.
var ErrExhausted = errors.New("failed to generate unique alias after 5 attempts")

// Index is the bidirectional opaque-id to email mapping behind
// privacy-preserving direct links. Once created, a mapping is a
// bijection: resolving an alias yields exactly the email that produced
// it, and repeated creation requests return the existing alias.
type Index struct {
	kv     kv.Store
	logger *slog.Logger
	newID  func() (string, error)
}

// NewIndex creates an alias index on the given keyed store.
func NewIndex(store kv.Store, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{kv: store, logger: logger, newID: generate}
}

// generate returns an 8-character lowercase hex alias: 4 random bytes,
// 32 bits of uniform entropy. Collisions only become a concern after
// billions of aliases, which is far beyond this system's scale.
func generate() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate alias: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GetOrCreate returns the alias for email, minting one if it does not
// exist yet. The email->alias side is consulted first, which makes the
// operation idempotent. New candidates are collision-checked against
// the alias->email side and retried up to the attempt budget.
//
// The two directional writes are not atomic with each other; a crash
// between them can leave a dangling alias->email entry. Accepted as a
// known limitation of the keyed store.
func (i *Index) GetOrCreate(ctx context.Context, email string) (string, error) {
	existing, ok, err := i.kv.Get(ctx, EmailKeyPrefix+email)
	if err != nil {
		return "", fmt.Errorf("failed to look up alias: %w", err)
	}
	if ok {
		return existing, nil
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate, err := i.newID()
		if err != nil {
			return "", err
		}

		_, taken, err := i.kv.Get(ctx, KeyPrefix+candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check alias candidate: %w", err)
		}
		if taken {
			i.logger.Warn("alias collision, retrying",
				slog.Int("attempt", attempt+1),
				logging.UserHash(email))
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return i.kv.Put(gctx, KeyPrefix+candidate, email) })
		g.Go(func() error { return i.kv.Put(gctx, EmailKeyPrefix+email, candidate) })
		if err := g.Wait(); err != nil {
			return "", fmt.Errorf("failed to store alias mapping: %w", err)
		}
		return candidate, nil
	}

	return "", ErrExhausted
}

// Resolve returns the email an alias maps to, or ok=false for an
// unknown alias.
func (i *Index) Resolve(ctx context.Context, alias string) (string, bool, error) {
	email, ok, err := i.kv.Get(ctx, KeyPrefix+alias)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve alias: %w", err)
	}
	return email, ok, nil
}
