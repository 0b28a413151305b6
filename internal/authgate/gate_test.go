// ABOUTME: Tests for the auth gate middleware
// ABOUTME: Covers pass-through, redirect, refresh, admin checks, and fail-closed

package authgate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/passage-gateway/internal/credstore"
	"github.com/2389/passage-gateway/internal/session"
)

func newTestStore(t *testing.T) credstore.Store {
	t.Helper()
	s, err := credstore.NewLedgerStore(filepath.Join(t.TempDir(), "codes.txt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestGate(t *testing.T, s credstore.Store, enabled bool) *Gate {
	t.Helper()
	authority := session.NewAuthority(s, time.Hour)
	return New(authority, NewCookieStore(), Config{Enabled: enabled, LoginPath: "/login"})
}

// okHandler records whether the wrapped handler ran and what session it saw.
type okHandler struct {
	called bool
	sess   *session.Session
}

func (h *okHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.sess = FromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func TestMiddleware_DisabledPassesThrough(t *testing.T) {
	g := newTestGate(t, newTestStore(t), false)
	inner := &okHandler{}

	rec := httptest.NewRecorder()
	g.Middleware(inner).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.True(t, inner.called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, inner.sess)
}

func TestMiddleware_DisabledStillResolvesSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, "bob", "B1", true))

	g := newTestGate(t, s, false)
	authority := session.NewAuthority(s, time.Hour)
	sess, err := authority.Login(ctx, "B1")
	require.NoError(t, err)

	loginRec := httptest.NewRecorder()
	require.NoError(t, g.Establish(loginRec, httptest.NewRequest("POST", "/login", nil), sess))
	cookie := loginRec.Result().Cookies()[0]

	// A logged-in caller keeps their session even with gating off, so the
	// admin chain can still see who they are.
	inner := &okHandler{}
	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(cookie)

	rec := httptest.NewRecorder()
	g.Middleware(g.RequireAdmin(s, inner)).ServeHTTP(rec, req)

	assert.True(t, inner.called, "admin handler must be reachable with gating off")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, inner.sess)
	assert.Equal(t, "bob", inner.sess.DisplayName)
}

func TestMiddleware_AnonymousRedirects(t *testing.T) {
	g := newTestGate(t, newTestStore(t), true)
	inner := &okHandler{}

	rec := httptest.NewRecorder()
	g.Middleware(inner).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	assert.False(t, inner.called, "handler must not run for anonymous callers")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestMiddleware_AuthenticatedForwards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, "alice", "A1", false))

	g := newTestGate(t, s, true)

	// Log in and capture the identity cookie.
	authority := session.NewAuthority(s, time.Hour)
	sess, err := authority.Login(ctx, "A1")
	require.NoError(t, err)

	loginRec := httptest.NewRecorder()
	require.NoError(t, g.Establish(loginRec, httptest.NewRequest("POST", "/login", nil), sess))
	cookies := loginRec.Result().Cookies()
	require.Len(t, cookies, 1)

	inner := &okHandler{}
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])

	rec := httptest.NewRecorder()
	g.Middleware(inner).ServeHTTP(rec, req)

	assert.True(t, inner.called)
	require.NotNil(t, inner.sess)
	assert.Equal(t, "alice", inner.sess.DisplayName)
}

func TestMiddleware_RevokedCodeRedirectsAndDestroysIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, "alice", "A1", false))

	g := newTestGate(t, s, true)
	authority := session.NewAuthority(s, time.Hour)
	sess, err := authority.Login(ctx, "A1")
	require.NoError(t, err)

	loginRec := httptest.NewRecorder()
	require.NoError(t, g.Establish(loginRec, httptest.NewRequest("POST", "/login", nil), sess))
	cookie := loginRec.Result().Cookies()[0]

	// Delete the backing code; the pending session must not survive its
	// next request.
	require.NoError(t, s.Remove(ctx, "A1"))

	inner := &okHandler{}
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)

	rec := httptest.NewRecorder()
	g.Middleware(inner).ServeHTTP(rec, req)

	assert.False(t, inner.called)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Nil(t, g.Identities().Get(cookie.Value), "stale identity should be destroyed")
}

// brokenStore simulates an unreachable backend.
type brokenStore struct{}

var errStoreDown = errors.New("store unavailable")

func (brokenStore) ListAll(context.Context) ([]*credstore.Credential, error) {
	return nil, errStoreDown
}
func (brokenStore) Lookup(context.Context, string) (*credstore.Credential, error) {
	return nil, errStoreDown
}
func (brokenStore) Exists(context.Context, string) (bool, error)       { return false, errStoreDown }
func (brokenStore) Add(context.Context, string, string, bool) error    { return errStoreDown }
func (brokenStore) Remove(context.Context, string) error               { return errStoreDown }
func (brokenStore) SetAdminAccess(context.Context, string, bool) error { return errStoreDown }
func (brokenStore) Close() error                                       { return nil }

func TestMiddleware_StoreFailureDeniesAccess(t *testing.T) {
	g := newTestGate(t, brokenStore{}, true)

	// Bind a session directly so validation has to hit the broken store.
	g.Identities().Put("key", &session.Session{Code: "A1", IssuedAt: time.Now(), DisplayName: "alice"})

	inner := &okHandler{}
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "key"})

	rec := httptest.NewRecorder()
	g.Middleware(inner).ServeHTTP(rec, req)

	assert.False(t, inner.called)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, "alice", "A1", false))
	require.NoError(t, s.Add(ctx, "bob", "B1", true))

	g := newTestGate(t, s, true)

	serve := func(sess *session.Session) (*httptest.ResponseRecorder, *okHandler) {
		inner := &okHandler{}
		req := httptest.NewRequest("GET", "/admin", nil)
		if sess != nil {
			req = req.WithContext(WithSession(req.Context(), sess))
		}
		rec := httptest.NewRecorder()
		g.RequireAdmin(s, inner).ServeHTTP(rec, req)
		return rec, inner
	}

	t.Run("no session", func(t *testing.T) {
		rec, inner := serve(nil)
		assert.False(t, inner.called)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})

	t.Run("non-admin", func(t *testing.T) {
		rec, inner := serve(&session.Session{Code: "A1", IssuedAt: time.Now(), DisplayName: "alice"})
		assert.False(t, inner.called)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin", func(t *testing.T) {
		rec, inner := serve(&session.Session{Code: "B1", IssuedAt: time.Now(), DisplayName: "bob"})
		assert.True(t, inner.called)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestEstablish_ReplacesExistingIdentity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, "alice", "A1", false))

	g := newTestGate(t, s, true)
	authority := session.NewAuthority(s, time.Hour)

	first, err := authority.Login(ctx, "A1")
	require.NoError(t, err)

	rec1 := httptest.NewRecorder()
	require.NoError(t, g.Establish(rec1, httptest.NewRequest("POST", "/login", nil), first))
	oldCookie := rec1.Result().Cookies()[0]
	require.NotNil(t, g.Identities().Get(oldCookie.Value))

	// Logging in again with the old cookie in hand must not orphan the
	// previous identity.
	second, err := authority.Login(ctx, "A1")
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/login", nil)
	req.AddCookie(oldCookie)
	rec2 := httptest.NewRecorder()
	require.NoError(t, g.Establish(rec2, req, second))
	newCookie := rec2.Result().Cookies()[0]

	assert.NotEqual(t, oldCookie.Value, newCookie.Value)
	assert.Nil(t, g.Identities().Get(oldCookie.Value), "old identity should be destroyed")
	assert.Same(t, second, g.Identities().Get(newCookie.Value))
}

func TestCookieStore_SweepRemovesIdleSessions(t *testing.T) {
	c := NewCookieStore()
	c.Put("stale", &session.Session{Code: "A1", IssuedAt: time.Now().Add(-2 * time.Hour)})
	c.Put("live", &session.Session{Code: "B1", IssuedAt: time.Now()})

	removed := c.Sweep(time.Hour)

	assert.Equal(t, 1, removed)
	assert.Nil(t, c.Get("stale"))
	assert.NotNil(t, c.Get("live"))
}

func TestClear(t *testing.T) {
	g := newTestGate(t, newTestStore(t), true)
	g.Identities().Put("key", &session.Session{Code: "A1"})

	req := httptest.NewRequest("POST", "/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "key"})

	rec := httptest.NewRecorder()
	g.Clear(rec, req)

	assert.Nil(t, g.Identities().Get("key"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].Expires.Before(time.Now()))
}
