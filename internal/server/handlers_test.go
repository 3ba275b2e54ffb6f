package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetgate/internal/alias"
	"github.com/teemow/meetgate/internal/google"
	"github.com/teemow/meetgate/internal/kv"
	"github.com/teemow/meetgate/internal/meetings"
	"github.com/teemow/meetgate/internal/provision"
	"github.com/teemow/meetgate/internal/resolver"
	"github.com/teemow/meetgate/internal/session"
	"github.com/teemow/meetgate/internal/tokens"
)

const testSecret = "test-cookie-secret"

type fakeOAuth struct {
	login      google.LoginResult
	loginErr   error
	refresh    google.RefreshResult
	refreshErr error

	gotCode string
}

func (f *fakeOAuth) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeOAuth) ExchangeCode(_ context.Context, code string) (google.LoginResult, error) {
	f.gotCode = code
	return f.login, f.loginErr
}

func (f *fakeOAuth) RefreshAccessToken(_ context.Context, _ string) (google.RefreshResult, error) {
	if f.refreshErr != nil {
		return google.RefreshResult{}, f.refreshErr
	}
	if f.refresh.AccessToken == "" {
		return google.RefreshResult{AccessToken: "ya29.access"}, nil
	}
	return f.refresh, nil
}

type fakeSpaces struct {
	url      string
	err      error
	gotToken string
	calls    int
}

func (f *fakeSpaces) CreateSpace(_ context.Context, accessToken string) (string, error) {
	f.calls++
	f.gotToken = accessToken
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fixture struct {
	store   *kv.MemoryStore
	cache   *meetings.Cache
	tokens  *tokens.Store
	aliases *alias.Index
	oauth   *fakeOAuth
	spaces  *fakeSpaces
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := kv.NewMemoryStore()
	cache := meetings.NewCache(store, logger)
	tokenStore := tokens.NewStore(store, logger)
	aliases := alias.NewIndex(store, logger)

	oauth := &fakeOAuth{}
	spaces := &fakeSpaces{url: "https://meet.google.com/abc-defg-hij"}

	prov := provision.NewProvisioner(oauth, spaces, cache, tokenStore, logger, nil)
	res := resolver.New(cache, tokenStore, aliases, prov, "1//default-token", logger, nil)

	srv := New(
		Config{CookieSecret: testSecret, DefaultToken: "1//default-token"},
		Deps{
			Resolver: res,
			OAuth:    oauth,
			Spaces:   spaces,
			Tokens:   tokenStore,
			Aliases:  aliases,
			Logger:   logger,
		},
	)

	return &fixture{
		store:   store,
		cache:   cache,
		tokens:  tokenStore,
		aliases: aliases,
		oauth:   oauth,
		spaces:  spaces,
		handler: srv.Handler(),
	}
}

func (f *fixture) get(t *testing.T, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, s *session.Session) *http.Cookie {
	t.Helper()
	value, err := session.Encode(s, testSecret)
	require.NoError(t, err)
	return &http.Cookie{Name: session.CookieName, Value: value}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin_SetsStateCookieAndRedirects(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/login")

	require.Equal(t, http.StatusFound, rec.Code)
	state := findCookie(rec, session.StateCookieName)
	require.NotNil(t, state)
	require.NotEmpty(t, state.Value)
	assert.True(t, state.HttpOnly)
	assert.Equal(t, "https://accounts.example.com/auth?state="+state.Value, rec.Header().Get("Location"))
}

func TestCallback_ProviderError(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/callback?error=access_denied")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Google returned an error: access_denied")
	assert.Nil(t, findCookie(rec, session.CookieName))
}

func TestCallback_MissingCode(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/callback")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No authorization code received.")
}

func TestCallback_StateMismatch(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/callback?code=4/auth-code&state=forged",
		&http.Cookie{Name: session.StateCookieName, Value: "genuine"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid OAuth state. Please try again.")
	assert.Nil(t, findCookie(rec, session.CookieName))

	// The state cookie is cleared even on mismatch.
	state := findCookie(rec, session.StateCookieName)
	require.NotNil(t, state)
	assert.Equal(t, -1, state.MaxAge)
}

func TestCallback_MissingStateCookie(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/callback?code=4/auth-code&state=abc")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid OAuth state")
}

func TestCallback_Success(t *testing.T) {
	f := newFixture(t)
	f.oauth.login = google.LoginResult{
		RefreshToken: "1//refresh",
		Email:        "alice@example.com",
		Name:         "Alice",
	}

	rec := f.get(t, "/callback?code=4/auth-code&state=abc",
		&http.Cookie{Name: session.StateCookieName, Value: "abc"})

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, "4/auth-code", f.oauth.gotCode)

	cookie := findCookie(rec, session.CookieName)
	require.NotNil(t, cookie)
	sess := session.Decode(cookie.Value, testSecret)
	require.NotNil(t, sess)
	assert.Equal(t, "alice@example.com", sess.Email)
	assert.Equal(t, "1//refresh", sess.RefreshToken)

	stored, ok, err := f.tokens.Get(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1//refresh", stored.RefreshToken)
	assert.Equal(t, "Alice", stored.Name)

	shareAlias, err := f.aliases.GetOrCreate(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, shareAlias)
}

func TestCallback_MissingRefreshToken(t *testing.T) {
	f := newFixture(t)
	f.oauth.loginErr = google.ErrNoRefreshToken

	rec := f.get(t, "/callback?code=4/auth-code&state=abc",
		&http.Cookie{Name: session.StateCookieName, Value: "abc"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No refresh token received.")
	assert.Nil(t, findCookie(rec, session.CookieName))
}

func TestCallback_MissingIDToken(t *testing.T) {
	f := newFixture(t)
	f.oauth.loginErr = google.ErrNoIDToken

	rec := f.get(t, "/callback?code=4/auth-code&state=abc",
		&http.Cookie{Name: session.StateCookieName, Value: "abc"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No id_token received.")
	assert.Nil(t, findCookie(rec, session.CookieName))
}

func TestLogout_ClearsSessionCookie(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/logout", sessionCookie(t, &session.Session{
		RefreshToken: "1//refresh", Email: "alice@example.com", Name: "Alice",
	}))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cookie := findCookie(rec, session.CookieName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestIndex_SignedOutEmptyStoreProvisionsDefault(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://meet.google.com/abc-defg-hij")
	assert.Contains(t, rec.Body.String(), "Redirecting to Meet")

	entry, ok, err := f.cache.Get(context.Background(), resolver.DefaultUserKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", entry.URL)
}

func TestIndex_SelectionOmitsOwnerEmails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Store(ctx, "alice@gmail.com", meetings.Entry{
		URL: "https://meet.google.com/aaa-aaaa-aaa", Name: "Alice", Email: "alice@gmail.com",
	}))
	require.NoError(t, f.cache.Store(ctx, "bob@gmail.com", meetings.Entry{
		URL: "https://meet.google.com/bbb-bbbb-bbb", Name: "Bob", Email: "bob@gmail.com",
	}))

	rec := f.get(t, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "not signed in")
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "Bob")
	assert.NotContains(t, body, "alice@gmail.com")
	assert.NotContains(t, body, "bob@gmail.com")
}

func TestIndex_SignedInSelectionShowsDirectLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Store(ctx, "alice@example.com", meetings.Entry{
		URL: "https://meet.google.com/aaa-aaaa-aaa", Name: "Alice", Email: "alice@example.com",
	}))
	require.NoError(t, f.cache.Store(ctx, "bob@example.com", meetings.Entry{
		URL: "https://meet.google.com/bbb-bbbb-bbb", Name: "Bob", Email: "bob@example.com",
	}))

	rec := f.get(t, "/", sessionCookie(t, &session.Session{
		RefreshToken: "1//refresh", Email: "alice@example.com", Name: "Alice",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "signed in as alice@example.com")
	assert.Contains(t, body, "/?owner=")
	// Two meetings visible, so no immediate redirect page.
	assert.NotContains(t, body, "Redirecting to Meet")
}

func TestIndex_DirectLinkUnknownAlias(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/?owner=deadbeef")

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "invalid link")
	assert.Contains(t, body, "hasn&#39;t signed in yet")
	assert.Zero(t, f.spaces.calls)
}

func TestIndex_DirectLinkProvisionsForOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.tokens.Store(ctx, "owner@example.com", "1//owner-token", "Owner"))
	shareAlias, err := f.aliases.GetOrCreate(ctx, "owner@example.com")
	require.NoError(t, err)

	rec := f.get(t, "/?owner="+shareAlias)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://meet.google.com/abc-defg-hij")

	entry, ok, err := f.cache.Get(ctx, "owner@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Owner", entry.Name)
}

func TestNew_CreatesUncachedMeeting(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/new")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://meet.google.com/abc-defg-hij")
	assert.Equal(t, 1, f.spaces.calls)
	assert.Zero(t, f.store.Len())
}

func TestNew_RotationUpdatesStoreAndCookie(t *testing.T) {
	f := newFixture(t)
	f.oauth.refresh = google.RefreshResult{
		AccessToken:     "ya29.access",
		NewRefreshToken: "1//rotated",
	}

	rec := f.get(t, "/new", sessionCookie(t, &session.Session{
		RefreshToken: "1//old", Email: "alice@example.com", Name: "Alice",
	}))

	require.Equal(t, http.StatusOK, rec.Code)

	cookie := findCookie(rec, session.CookieName)
	require.NotNil(t, cookie)
	sess := session.Decode(cookie.Value, testSecret)
	require.NotNil(t, sess)
	assert.Equal(t, "1//rotated", sess.RefreshToken)

	stored, ok, err := f.tokens.Get(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1//rotated", stored.RefreshToken)
}

func TestNew_RefreshFailure(t *testing.T) {
	f := newFixture(t)
	f.oauth.refreshErr = google.ErrNoRefreshToken

	rec := f.get(t, "/new")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to create meeting")
	assert.Zero(t, f.spaces.calls)
}

func TestMe_SignedOutRedirectsToLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/me")

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestMe_ShowsIdentityAndDirectLink(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/me", sessionCookie(t, &session.Session{
		RefreshToken: "1//refresh", Email: "alice@example.com", Name: "Alice",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "alice@example.com")
	assert.Contains(t, body, "/?owner=")

	// The alias shown must resolve back to the user.
	shareAlias, err := f.aliases.GetOrCreate(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, body, "/?owner="+shareAlias)
}

func TestMe_TamperedCookieTreatedAsSignedOut(t *testing.T) {
	f := newFixture(t)

	cookie := sessionCookie(t, &session.Session{
		RefreshToken: "1//refresh", Email: "alice@example.com", Name: "Alice",
	})
	// Flip a payload byte; the signature no longer matches.
	tampered := []byte(cookie.Value)
	if tampered[0] == 'A' {
		tampered[0] = 'B'
	} else {
		tampered[0] = 'A'
	}
	cookie.Value = string(tampered)

	rec := f.get(t, "/me", cookie)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestStaticPages(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		path string
		want string
	}{
		{"/home", "How it works"},
		{"/tnc", "Terms and Conditions"},
		{"/privacy-policy", "Privacy Policy"},
	}

	for _, tt := range tests {
		rec := f.get(t, tt.path)
		require.Equal(t, http.StatusOK, rec.Code, tt.path)
		assert.Contains(t, rec.Body.String(), tt.want, tt.path)
	}
}
