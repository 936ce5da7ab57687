package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func carryCookies(from *httptest.ResponseRecorder, to *http.Request) {
	for _, c := range from.Result().Cookies() {
		to.AddCookie(c)
	}
}

func TestCookieSessionsEnsureID(t *testing.T) {
	c := NewCookieSessions("huahuacuna_session", "secret", 3600)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	id, err := c.EnsureID(w, r)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotContains(t, cookies[0].Value, id, "cookie must be encrypted")

	// the same cookie yields the same id
	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest("GET", "/", nil)
	carryCookies(w, r2)
	again, err := c.EnsureID(w2, r2)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	// a cookie signed with another secret is ignored
	other := NewCookieSessions("huahuacuna_session", "different", 3600)
	r3 := httptest.NewRequest("GET", "/", nil)
	carryCookies(w, r3)
	fresh, err := other.EnsureID(httptest.NewRecorder(), r3)
	require.NoError(t, err)
	assert.NotEqual(t, id, fresh)
}

func TestCookieSessionsRotate(t *testing.T) {
	c := NewCookieSessions("s", "secret", 3600)
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	id, err := c.EnsureID(w, r)
	require.NoError(t, err)

	r2 := httptest.NewRequest("POST", "/logout", nil)
	carryCookies(w, r2)
	rotated, err := c.Rotate(httptest.NewRecorder(), r2)
	require.NoError(t, err)
	assert.NotEqual(t, id, rotated)
}

func TestCookieSessionsFlashes(t *testing.T) {
	c := NewCookieSessions("s", "secret", 3600)

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/donaciones", nil)
	require.NoError(t, c.AddFlash(w, r, FlashSuccess, "¡Gracias por tu donación!"))

	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest("GET", "/donaciones", nil)
	carryCookies(w, r2)
	flashes := c.Flashes(w2, r2)
	assert.Equal(t, []Flash{{Kind: FlashSuccess, Message: "¡Gracias por tu donación!"}}, flashes)

	// drained
	r3 := httptest.NewRequest("GET", "/donaciones", nil)
	carryCookies(w2, r3)
	assert.Empty(t, c.Flashes(httptest.NewRecorder(), r3))
}

func TestIsSecureRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.False(t, IsSecureRequest(r))
	r.Header.Set("X-Forwarded-Proto", "https")
	assert.True(t, IsSecureRequest(r))
}

func TestSessionIDContext(t *testing.T) {
	ctx := WithSessionID(context.Background(), "sid")
	assert.Equal(t, "sid", SessionID(ctx))
	assert.Empty(t, SessionID(context.Background()))
}
