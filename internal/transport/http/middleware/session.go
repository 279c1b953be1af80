package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

type contextKey string

const identityKey contextKey = "identity"

// Verifier validates an encoded session token and returns the identity it carries.
// *token.Codec satisfies it; the login handler mints with the same instance.
type Verifier interface {
	Verify(raw string) (string, error)
}

// SessionOptions configures which paths bypass the session check.
type SessionOptions struct {
	LoginPath        string
	PublicPaths      []string // exact matches
	PublicPrefixes   []string
	PublicExtensions []string
	// APIPrefix selects the JSON 401 response instead of a login redirect.
	APIPrefix string
	Secure    bool
}

// DefaultSessionOptions returns the public surface of the login flow.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		LoginPath:        "/login",
		PublicPaths:      []string{"/login", "/api/auth/send-code", "/api/auth/verify", "/api/health"},
		PublicPrefixes:   []string{"/static/"},
		PublicExtensions: []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".css", ".js"},
		APIPrefix:        "/api/",
	}
}

func (o SessionOptions) public(p string) bool {
	for _, pp := range o.PublicPaths {
		if p == pp {
			return true
		}
	}
	for _, pre := range o.PublicPrefixes {
		if strings.HasPrefix(p, pre) {
			return true
		}
	}
	ext := strings.ToLower(path.Ext(p))
	for _, e := range o.PublicExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Session authorizes every request against the user_session cookie before any handler
// runs. Public paths pass through. A missing cookie is rejected; an undecodable or
// wrongly signed cookie is rejected and deleted so the client stops replaying it.
// On success the identity is stored in the request context.
func Session(v Verifier, opts SessionOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.public(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			c, err := r.Cookie(CookieName)
			if err != nil || c.Value == "" {
				opts.reject(w, r, false)
				return
			}
			identity, err := v.Verify(c.Value)
			if err != nil {
				slog.Warn("rejected session cookie", "path", r.URL.Path, "err", err)
				opts.reject(w, r, true)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (o SessionOptions) reject(w http.ResponseWriter, r *http.Request, clearCookie bool) {
	if clearCookie {
		ClearSessionCookie(w, o.Secure)
	}
	if strings.HasPrefix(r.URL.Path, o.APIPrefix) {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	http.Redirect(w, r, o.LoginPath, http.StatusTemporaryRedirect)
}

// IdentityFromContext returns the identity resolved by Session.
func IdentityFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(identityKey).(string)
	return id, ok && id != ""
}

// WithIdentity returns a context carrying identity, as Session would set it.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
