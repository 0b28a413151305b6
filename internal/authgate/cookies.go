// ABOUTME: Transport-level session identity keyed by an opaque cookie value
// ABOUTME: In-memory map of identity key to current session with get/set/destroy

package authgate

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/2389/passage-gateway/internal/session"
)

// SessionCookieName is the name of the identity cookie.
const SessionCookieName = "passage_session"

// CookieStore maps opaque identity keys to the caller's current session.
// The key is what travels in the cookie; the session itself never leaves the
// process. Sessions live only as long as the process - validity across
// restarts comes from re-login, not persistence.
type CookieStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

// NewCookieStore creates an empty identity store.
func NewCookieStore() *CookieStore {
	return &CookieStore{
		sessions: make(map[string]*session.Session),
	}
}

// Get returns the session bound to key, or nil.
func (c *CookieStore) Get(key string) *session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[key]
}

// Put binds a session to key, replacing any previous one.
func (c *CookieStore) Put(key string, sess *session.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[key] = sess
}

// Destroy removes the identity so no residual state is reusable.
func (c *CookieStore) Destroy(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, key)
}

// Sweep removes identities whose session has sat idle longer than maxIdle
// and returns how many were removed. Validation refreshes IssuedAt, so an
// older entry belongs to a caller whose cookie never came back; without the
// sweep it would live until process exit.
func (c *CookieStore) Sweep(maxIdle time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, sess := range c.sessions {
		if time.Since(sess.IssuedAt) > maxIdle {
			delete(c.sessions, key)
			removed++
		}
	}
	return removed
}

// SweepLoop runs Sweep every interval until ctx is cancelled.
func (c *CookieStore) SweepLoop(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(maxIdle)
		}
	}
}

// NewKey mints a fresh identity key for a cookie value.
func (c *CookieStore) NewKey() (string, error) {
	return generateSecureToken(32)
}

// generateSecureToken returns a hex-encoded random token of n bytes.
func generateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
