// ABOUTME: End-to-end scenario test over a real store with no mocking
// ABOUTME: Walks the full login, privilege, and revocation flow through HTTP

package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/passage-gateway/internal/admin"
	"github.com/2389/passage-gateway/internal/authgate"
	"github.com/2389/passage-gateway/internal/credstore"
	"github.com/2389/passage-gateway/internal/forward"
	"github.com/2389/passage-gateway/internal/session"
)

// TestScenario_FullFlow walks the complete lifecycle against each backend:
// empty store, two codes added, a plain user denied admin access, an admin
// allowed, and finally revocation invalidating a still-pending session.
func TestScenario_FullFlow(t *testing.T) {
	stores := map[string]func(t *testing.T) credstore.Store{
		"ledger": func(t *testing.T) credstore.Store {
			s, err := credstore.NewLedgerStore(filepath.Join(t.TempDir(), "codes.txt"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) credstore.Store {
			s, err := credstore.NewSQLiteStore(filepath.Join(t.TempDir(), "auth.db"))
			require.NoError(t, err)
			return s
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			defer store.Close()
			ctx := context.Background()

			authority := session.NewAuthority(store, time.Hour)
			gate := authgate.New(authority, authgate.NewCookieStore(), authgate.Config{Enabled: true, LoginPath: "/login"})
			h := New(authority, gate, admin.NewService(store), store, forward.NewHTTPEngine())
			mux := http.NewServeMux()
			h.RegisterRoutes(mux)

			postForm := func(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
				req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				if cookie != nil {
					req.AddCookie(cookie)
				}
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)
				return rec
			}

			get := func(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
				req := httptest.NewRequest("GET", path, nil)
				if cookie != nil {
					req.AddCookie(cookie)
				}
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)
				return rec
			}

			// 1. Store starts empty; seed two codes, one privileged.
			require.NoError(t, store.Add(ctx, "alice", "A1", false))
			require.NoError(t, store.Add(ctx, "bob", "B1", true))

			// 2. Login as alice succeeds and opens the gate.
			rec := postForm("/login", url.Values{"login_code": {"A1"}}, nil)
			require.Equal(t, http.StatusSeeOther, rec.Code)
			aliceCookie := rec.Result().Cookies()[0]

			rec = get("/", aliceCookie)
			assert.Equal(t, http.StatusOK, rec.Code)

			// 3. Alice is not an admin: the console rejects her.
			rec = postForm("/admin/add", url.Values{"code_name": {"x"}, "code_value": {"X1"}}, aliceCookie)
			assert.Equal(t, http.StatusForbidden, rec.Code)

			// 4. Bob is an admin: the same call succeeds.
			rec = postForm("/login", url.Values{"login_code": {"B1"}}, nil)
			require.Equal(t, http.StatusSeeOther, rec.Code)
			bobCookie := rec.Result().Cookies()[0]

			rec = postForm("/admin/add", url.Values{"code_name": {"carol"}, "code_value": {"C1"}}, bobCookie)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Contains(t, rec.Header().Get("Location"), "msg=")

			// 5. Bob deletes alice's code.
			rec = postForm("/admin/delete", url.Values{"code": {"A1"}}, bobCookie)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Contains(t, rec.Header().Get("Location"), "msg=")

			// 6. Alice's still-pending session is now anonymous, with no
			// grace period.
			rec = get("/", aliceCookie)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/login", rec.Header().Get("Location"))

			// 7. Bob is unaffected.
			rec = get("/", bobCookie)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}
