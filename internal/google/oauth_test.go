package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://meetgate.example/callback",
	}, nil, nil)
	c.conf.Endpoint = oauth2.Endpoint{
		AuthURL:  srv.URL + "/auth",
		TokenURL: srv.URL + "/token",
	}
	return c
}

// unsignedIDToken builds a JWT-shaped id_token with the given claims
// and an empty signature segment, matching what ParseUnverified needs.
func unsignedIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(header) + "." +
		base64.RawURLEncoding.EncodeToString(payload) + "."
}

func TestAuthCodeURL(t *testing.T) {
	c := NewClient(Config{ClientID: "id", ClientSecret: "secret", RedirectURL: "https://x/callback"}, nil, nil)

	u := c.AuthCodeURL("state123")
	assert.Contains(t, u, "accounts.google.com")
	assert.Contains(t, u, "state=state123")
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "prompt=consent")
	assert.Contains(t, u, "meetings.space.created")
}

func TestRefreshAccessTokenRotation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "1//old", r.Form.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"ya29.access","token_type":"Bearer","expires_in":3600,"refresh_token":"1//rotated"}`)
	})

	res, err := c.RefreshAccessToken(context.Background(), "1//old")
	require.NoError(t, err)
	assert.Equal(t, "ya29.access", res.AccessToken)
	assert.Equal(t, "1//rotated", res.NewRefreshToken)
}

func TestRefreshAccessTokenNoRotation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"ya29.access","token_type":"Bearer","expires_in":3600}`)
	})

	res, err := c.RefreshAccessToken(context.Background(), "1//same")
	require.NoError(t, err)
	assert.Equal(t, "ya29.access", res.AccessToken)
	assert.Empty(t, res.NewRefreshToken, "no rotation when the provider omits refresh_token")
}

func TestRefreshAccessTokenProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	})

	_, err := c.RefreshAccessToken(context.Background(), "1//revoked")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400", "provider status code must be in the message")
	assert.Contains(t, err.Error(), "invalid_grant", "provider body must be in the message")
}

func TestExchangeCode(t *testing.T) {
	idToken := unsignedIDToken(t, map[string]any{"email": "jane@gmail.com", "name": "Jane Doe"})

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.Form.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"access_token":  "ya29.access",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "1//fresh",
			"id_token":      idToken,
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	res, err := c.ExchangeCode(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, LoginResult{RefreshToken: "1//fresh", Email: "jane@gmail.com", Name: "Jane Doe"}, res)
}

func TestExchangeCodeMissingRefreshToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"ya29.access","token_type":"Bearer","expires_in":3600}`)
	})

	_, err := c.ExchangeCode(context.Background(), "auth-code")
	require.ErrorIs(t, err, ErrNoRefreshToken)
}

func TestExchangeCodeMissingIDToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"ya29.access","token_type":"Bearer","expires_in":3600,"refresh_token":"1//fresh"}`)
	})

	_, err := c.ExchangeCode(context.Background(), "auth-code")
	require.ErrorIs(t, err, ErrNoIDToken)
}

func TestIdentityFromIDToken(t *testing.T) {
	email, name, err := identityFromIDToken(unsignedIDToken(t, map[string]any{"email": "a@b.example", "name": "A B"}))
	require.NoError(t, err)
	assert.Equal(t, "a@b.example", email)
	assert.Equal(t, "A B", name)

	// Name falls back to the email local part.
	email, name, err = identityFromIDToken(unsignedIDToken(t, map[string]any{"email": "solo@b.example"}))
	require.NoError(t, err)
	assert.Equal(t, "solo@b.example", email)
	assert.Equal(t, "solo", name)

	// Missing email claim is an error.
	_, _, err = identityFromIDToken(unsignedIDToken(t, map[string]any{"name": "No Email"}))
	require.Error(t, err)

	// Malformed tokens are errors, not panics.
	_, _, err = identityFromIDToken("not-a-jwt")
	require.Error(t, err)
}
