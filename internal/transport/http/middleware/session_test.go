package middleware

import (
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/classsync/internal/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// echoIdentity writes the identity placed in the context by Session.
func echoIdentity(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(id))
}

func sessionHandler(codec *token.Codec) http.Handler {
	return Session(codec, DefaultSessionOptions())(http.HandlerFunc(echoIdentity))
}

func deletedCookie(rr *httptest.ResponseRecorder) bool {
	for _, c := range rr.Result().Cookies() {
		if c.Name == CookieName && c.MaxAge < 0 {
			return true
		}
	}
	return false
}

func TestSession_NoCookie_API(t *testing.T) {
	rr := httptest.NewRecorder()
	sessionHandler(token.NewCodec("k")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rr.Body.String())
	assert.False(t, deletedCookie(rr))
}

func TestSession_NoCookie_Page(t *testing.T) {
	rr := httptest.NewRecorder()
	sessionHandler(token.NewCodec("k")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

func TestSession_ValidCookie(t *testing.T) {
	codec := token.NewCodec("k")
	raw, err := codec.Mint("12345")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/schedule", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: raw})
	rr := httptest.NewRecorder()
	sessionHandler(codec).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "12345", rr.Body.String())
}

func TestSession_TamperedCookie(t *testing.T) {
	codec := token.NewCodec("k")
	sig, err := codec.Sign("12345")
	require.NoError(t, err)
	b, err := hex.DecodeString(sig)
	require.NoError(t, err)
	b[len(b)-1] ^= 0x80
	tampered := token.Encode("12345", hex.EncodeToString(b))

	for _, path := range []string{"/api/me", "/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: tampered})
		rr := httptest.NewRecorder()
		sessionHandler(codec).ServeHTTP(rr, req)

		if strings.HasPrefix(path, "/api/") {
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		} else {
			assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
		}
		assert.True(t, deletedCookie(rr), "cookie not cleared for %s", path)
	}
}

func TestSession_GarbageCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-token"})
	rr := httptest.NewRecorder()
	sessionHandler(token.NewCodec("k")).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.True(t, deletedCookie(rr))
}

func TestSession_RotatedSecretRejectsOldCookie(t *testing.T) {
	raw, err := token.NewCodec("old").Mint("12345")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: raw})
	rr := httptest.NewRecorder()
	sessionHandler(token.NewCodec("new")).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSession_PublicPaths(t *testing.T) {
	h := Session(token.NewCodec("k"), DefaultSessionOptions())(http.HandlerFunc(okHandler))
	for _, path := range []string{
		"/login",
		"/api/auth/send-code",
		"/api/auth/verify",
		"/api/health",
		"/static/app.css",
		"/favicon.ico",
		"/img/Logo.PNG",
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestSession_PrefixOfPublicPathIsNotPublic(t *testing.T) {
	h := Session(token.NewCodec("k"), DefaultSessionOptions())(http.HandlerFunc(okHandler))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/auth/verify-extra", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSessionCookies(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, "abc", 30*24*time.Hour, true)
	c := rr.Result().Cookies()[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "abc", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 30*24*60*60, c.MaxAge)
	assert.False(t, c.HttpOnly)
	assert.True(t, c.Secure)

	rr = httptest.NewRecorder()
	ClearSessionCookie(rr, false)
	assert.True(t, deletedCookie(rr))
}
