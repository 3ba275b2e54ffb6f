package session

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	// CookieName is the name of the signed session cookie.
	CookieName = "meet_session"

	// StateCookieName is the name of the short-lived OAuth state cookie.
	StateCookieName = "oauth_state"

	// MaxAge is the session cookie lifetime. Expiry is enforced purely
	// by the cookie transport; the signed payload carries no timestamp.
	MaxAge = 30 * 24 * time.Hour

	// StateMaxAge is the OAuth state cookie lifetime.
	StateMaxAge = 5 * time.Minute
)

// Session is the identity carried entirely inside the client-held
// signed cookie. It is never stored server-side.
type Session struct {
	RefreshToken string `json:"refreshToken"`
	Email        string `json:"email"`
	Name         string `json:"name"`
}

// WithRefreshToken returns a copy of the session carrying a rotated
// refresh token.
func (s *Session) WithRefreshToken(refreshToken string) *Session {
	updated := *s
	updated.RefreshToken = refreshToken
	return &updated
}

// Encode serializes and signs a session for use as a cookie value.
// The JSON payload is base64-encoded first so the signed value only
// contains valid cookie octets.
func Encode(s *Session, secret string) (string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	return Sign(base64.RawURLEncoding.EncodeToString(payload), secret), nil
}

// Decode verifies a signed cookie value and unmarshals the session.
// Returns nil for any invalid input; an unverifiable or malformed
// cookie is indistinguishable from no cookie at all.
func Decode(signed, secret string) *Session {
	encoded, ok := Verify(signed, secret)
	if !ok {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil
	}
	return &s
}

// FromRequest extracts the session from the request's cookie, or nil
// when the user is signed out or the cookie fails verification.
func FromRequest(r *http.Request, secret string) *Session {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	return Decode(c.Value, secret)
}

// Write signs the session and sets it as an HTTP-only cookie.
func Write(w http.ResponseWriter, s *Session, secret string) error {
	value, err := Encode(s, secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(MaxAge.Seconds()),
	})
	return nil
}

// Clear expires the session cookie.
func Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// NewStateToken generates the random value for the OAuth state
// parameter: 16 random bytes as lowercase hex.
func NewStateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// WriteStateCookie sets the short-lived OAuth state cookie.
func WriteStateCookie(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(StateMaxAge.Seconds()),
	})
}

// StateFromRequest returns the value of the OAuth state cookie, or an
// empty string when absent.
func StateFromRequest(r *http.Request) string {
	c, err := r.Cookie(StateCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// ClearStateCookie expires the OAuth state cookie; it is used exactly
// once, to validate the provider redirect.
func ClearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
