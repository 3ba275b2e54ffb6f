package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/meetgate/internal/kv"
	"github.com/teemow/meetgate/internal/logging"
)

// KeyPrefix scopes stored tokens in the keyed store. Disjoint from the
// meeting cache prefix, so the daily reset never touches tokens.
const KeyPrefix = "token:"

// StoredToken is the server-side credential record for a user, keyed by
// email. It always carries the most recent refresh token known for that
// email; every observed rotation overwrites it.
type StoredToken struct {
	RefreshToken string `json:"refreshToken"`
	Name         string `json:"name"`
}

// Store persists refresh tokens and display names, independent of the
// daily meeting cache.
type Store struct {
	kv     kv.Store
	logger *slog.Logger
}

// NewStore creates a token store on the given keyed store.
func NewStore(store kv.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: store, logger: logger}
}

// Store upserts the refresh token and display name for email.
func (s *Store) Store(ctx context.Context, email, refreshToken, name string) error {
	data, err := json.Marshal(StoredToken{RefreshToken: refreshToken, Name: name})
	if err != nil {
		return fmt.Errorf("failed to encode stored token: %w", err)
	}
	if err := s.kv.Put(ctx, KeyPrefix+email, string(data)); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	s.logger.Debug("stored refresh token", logging.UserHash(email))
	return nil
}

// Get retrieves the stored token for email. Absence (ok=false) is a
// valid outcome meaning the user has never completed OAuth. Two on-disk
// shapes are accepted: the structured record, and a legacy bare refresh
// token string, for which the display name is synthesized from the
// local part of the email.
func (s *Store) Get(ctx context.Context, email string) (StoredToken, bool, error) {
	val, ok, err := s.kv.Get(ctx, KeyPrefix+email)
	if err != nil {
		return StoredToken{}, false, fmt.Errorf("failed to read stored token: %w", err)
	}
	if !ok {
		return StoredToken{}, false, nil
	}
	return decode(val, email), true, nil
}

// decode resolves the two stored shapes into one normalized record.
func decode(val, email string) StoredToken {
	var t StoredToken
	if err := json.Unmarshal([]byte(val), &t); err == nil && t.RefreshToken != "" {
		return t
	}
	// Legacy shape: the value is the raw refresh token itself.
	return StoredToken{
		RefreshToken: val,
		Name:         localPart(email),
	}
}

func localPart(email string) string {
	if idx := strings.Index(email, "@"); idx >= 0 {
		return email[:idx]
	}
	return email
}
