// Package guard gates protected pages on the session store.
package guard

import (
	"context"
	"net/http"
	"net/url"

	"huahuacuna/internal/models"
	"huahuacuna/internal/security"
	"huahuacuna/internal/session"
)

// Decision is the outcome of a guard check
type Decision int

const (
	// Loading means initialization has not finished; render a neutral page
	Loading Decision = iota
	// Allow renders the protected page
	Allow
	// RedirectLogin sends the visitor to the login page
	RedirectLogin
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	default:
		return "loading"
	}
}

// Decide is the whole access rule. A missing role is treated like a missing
// session; there is no separate forbidden state.
func Decide(ready bool, sess *session.Session, required models.Role) Decision {
	if !ready {
		return Loading
	}
	if sess == nil {
		return RedirectLogin
	}
	if !sess.User.HasRole(required) {
		return RedirectLogin
	}
	return Allow
}

// SessionSource is the part of the Store the guard reads
type SessionSource interface {
	Ready() bool
	Get(ctx context.Context, id string) (*session.Session, bool)
}

// Guard wraps handlers with access checks
type Guard struct {
	store     SessionSource
	loginPath string
	loading   http.Handler
}

// New creates a guard. loading renders the neutral page; nil uses a plain one.
func New(store SessionSource, loginPath string, loading http.Handler) *Guard {
	if loginPath == "" {
		loginPath = "/login"
	}
	if loading == nil {
		loading = http.HandlerFunc(defaultLoading)
	}
	return &Guard{store: store, loginPath: loginPath, loading: loading}
}

// RequireSession admits any logged-in visitor
func (g *Guard) RequireSession(next http.Handler) http.Handler {
	return g.require("", next)
}

// RequireRole admits visitors holding role
func (g *Guard) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.require(role, next)
	}
}

func (g *Guard) require(role models.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *session.Session
		ready := g.store.Ready()
		if ready {
			sess, _ = g.store.Get(r.Context(), security.SessionID(r.Context()))
		}

		switch Decide(ready, sess, role) {
		case Loading:
			w.Header().Set("Cache-Control", "no-store")
			g.loading.ServeHTTP(w, r)
		case RedirectLogin:
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, g.loginURL(r), http.StatusFound)
		default:
			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		}
	})
}

func (g *Guard) loginURL(r *http.Request) string {
	if r.Method != http.MethodGet {
		return g.loginPath
	}
	return g.loginPath + "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
}

func defaultLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "1")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte("Cargando..."))
}

type sessionKey struct{}

// WithSession attaches the admitted session to ctx
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// FromContext returns the session admitted by the guard
func FromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*session.Session)
	return sess, ok && sess != nil
}
