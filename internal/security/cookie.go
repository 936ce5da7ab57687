package security

import (
	"context"
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"

	"huahuacuna/internal/session"
)

const sessionIDKey = "sid"

// Flash kinds
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next page
type Flash struct {
	Kind    string
	Message string
}

// CookieSessions keeps the session id and flash messages in a signed,
// encrypted browser cookie
type CookieSessions struct {
	store *sessions.CookieStore
	name  string
}

// NewCookieSessions creates the cookie codec. maxAge is in seconds.
func NewCookieSessions(name, secret string, maxAge int) *CookieSessions {
	hashKey := sha256.Sum256([]byte("cookie-hash:" + secret))
	blockKey := sha256.Sum256([]byte("cookie-block:" + secret))
	store := sessions.NewCookieStore(hashKey[:], blockKey[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieSessions{store: store, name: name}
}

func (c *CookieSessions) get(r *http.Request) *sessions.Session {
	sess, err := c.store.Get(r, c.name)
	if err != nil {
		// undecodable cookie: start over with a fresh one
		sess, _ = c.store.New(r, c.name)
	}
	sess.Options.Secure = IsSecureRequest(r)
	return sess
}

// EnsureID returns the visitor's session id, issuing one if needed
func (c *CookieSessions) EnsureID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess := c.get(r)
	if id, ok := sess.Values[sessionIDKey].(string); ok && id != "" {
		return id, nil
	}
	id := session.NewID()
	sess.Values[sessionIDKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// Rotate issues a new session id, dropping pending flashes
func (c *CookieSessions) Rotate(w http.ResponseWriter, r *http.Request) (string, error) {
	sess := c.get(r)
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	id := session.NewID()
	sess.Values[sessionIDKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// AddFlash queues a message for the next render
func (c *CookieSessions) AddFlash(w http.ResponseWriter, r *http.Request, kind, message string) error {
	sess := c.get(r)
	sess.AddFlash(kind+"|"+message)
	return sess.Save(r, w)
}

// Flashes drains queued messages
func (c *CookieSessions) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess := c.get(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save(r, w)

	out := make([]Flash, 0, len(raw))
	for _, f := range raw {
		s, ok := f.(string)
		if !ok {
			continue
		}
		kind, msg := FlashSuccess, s
		for i := 0; i < len(s); i++ {
			if s[i] == '|' {
				kind, msg = s[:i], s[i+1:]
				break
			}
		}
		out = append(out, Flash{Kind: kind, Message: msg})
	}
	return out
}

// IsSecureRequest determines if the request is over HTTPS
// Checks TLS connection, X-Forwarded-Proto header (for reverse proxies), and URL scheme
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}

type ctxKey struct{}

// WithSessionID stores the visitor's session id on the context
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// SessionID returns the visitor's session id from the context
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
