package middleware

import (
	"net/http"
	"time"
)

// CookieName is the session cookie. Client-side code reads it to display the identity,
// so it is not HttpOnly.
const CookieName = "user_session"

// SetSessionCookie stores an encoded session token for maxAge.
func SetSessionCookie(w http.ResponseWriter, value string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie instructs the client to delete the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
