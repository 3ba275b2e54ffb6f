package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndFromRequest(t *testing.T) {
	s := &Session{RefreshToken: "1//rt", Email: "jane@gmail.com", Name: "Jane"}

	rec := httptest.NewRecorder()
	require.NoError(t, Write(rec, s, "secret"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, int(MaxAge.Seconds()), c.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	got := FromRequest(req, "secret")
	require.NotNil(t, got)
	assert.Equal(t, s, got)

	assert.Nil(t, FromRequest(req, "other-secret"))
}

func TestFromRequestNoCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, FromRequest(req, "secret"))
}

func TestClearExpiresCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	Clear(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestStateCookieRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteStateCookie(rec, "abcd1234")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, int(StateMaxAge.Seconds()), cookies[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/callback", nil)
	req.AddCookie(cookies[0])
	assert.Equal(t, "abcd1234", StateFromRequest(req))

	empty := httptest.NewRequest(http.MethodGet, "/callback", nil)
	assert.Equal(t, "", StateFromRequest(empty))
}
