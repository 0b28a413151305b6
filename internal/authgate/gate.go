// ABOUTME: HTTP middleware gating the forwarding engine behind session validation
// ABOUTME: Anonymous callers are redirected to login before any outbound side effect

package authgate

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/passage-gateway/internal/credstore"
	"github.com/2389/passage-gateway/internal/session"
)

// Config holds gate configuration.
type Config struct {
	// Enabled turns gating on. When false the middleware passes every
	// request through untouched.
	Enabled bool

	// LoginPath is where anonymous callers are redirected.
	LoginPath string
}

// Gate enforces the session authority's verdict in front of gated handlers.
type Gate struct {
	authority  *session.Authority
	identities *CookieStore
	config     Config
	logger     *slog.Logger
}

// New creates a gate over the given authority and identity store.
func New(authority *session.Authority, identities *CookieStore, cfg Config) *Gate {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	return &Gate{
		authority:  authority,
		identities: identities,
		config:     cfg,
		logger:     slog.Default().With("component", "authgate"),
	}
}

// Identities returns the underlying identity store.
func (g *Gate) Identities() *CookieStore {
	return g.identities
}

// Middleware validates the caller's session before the wrapped handler runs.
// The check happens before any action with external side effects, so an
// unauthenticated caller can never cause an outbound request.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.config.Enabled {
			// Gating is off, so everything passes - but a logged-in
			// caller still needs their session on the context, or the
			// admin console could never see them.
			if key, cur := g.currentSession(r); cur != nil {
				if refreshed, err := g.authority.Validate(r.Context(), cur); err == nil && refreshed != nil {
					g.identities.Put(key, refreshed)
					r = r.WithContext(WithSession(r.Context(), refreshed))
				}
			}
			next.ServeHTTP(w, r)
			return
		}

		key, cur := g.currentSession(r)

		refreshed, err := g.authority.Validate(r.Context(), cur)
		if err != nil {
			// Store unreachable: deny, never assume authenticated.
			g.logger.Error("session validation failed", "error", err)
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}

		if refreshed == nil {
			if key != "" {
				g.identities.Destroy(key)
			}
			g.clearCookie(w)
			http.Redirect(w, r, g.config.LoginPath, http.StatusSeeOther)
			return
		}

		g.identities.Put(key, refreshed)
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), refreshed)))
	})
}

// RequireAdmin wraps a handler to additionally require the bound credential's
// live admin flag. The flag is read from the store on every request, not from
// the session, so demotions take effect immediately. Must be used inside
// Middleware.
func (g *Gate) RequireAdmin(store credstore.Store, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := FromContext(r.Context())
		if sess == nil {
			http.Redirect(w, r, g.config.LoginPath, http.StatusSeeOther)
			return
		}

		cred, err := store.Lookup(r.Context(), sess.Code)
		if errors.Is(err, credstore.ErrNotFound) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if err != nil {
			g.logger.Error("admin check failed", "error", err)
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		if !cred.AdminAccess {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Establish binds a fresh session to a new identity key and sets the cookie.
// Called by the login flow after Authority.Login succeeds. Any identity the
// caller already held is destroyed, not orphaned.
func (g *Gate) Establish(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		g.identities.Destroy(cookie.Value)
	}

	key, err := g.identities.NewKey()
	if err != nil {
		return err
	}

	g.identities.Put(key, sess)

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear destroys the caller's identity and expires the cookie. Unconditional:
// a caller that was never authenticated ends up in the same state.
func (g *Gate) Clear(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		g.identities.Destroy(cookie.Value)
	}
	g.clearCookie(w)
}

// currentSession resolves the caller's identity key and bound session, if any.
func (g *Gate) currentSession(r *http.Request) (string, *session.Session) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", nil
	}
	return cookie.Value, g.identities.Get(cookie.Value)
}

func (g *Gate) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})
}
