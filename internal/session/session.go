// ABOUTME: Session authority implementing the anonymous/authenticated state machine
// ABOUTME: Validates sessions against the credential store with sliding expiration

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/2389/passage-gateway/internal/credstore"
)

// DefaultTimeout is the idle window after which a session expires.
const DefaultTimeout = 3600 * time.Second

// ErrLoginFailed is returned for any unsuccessful login. It deliberately
// carries no detail: callers cannot distinguish "no such code" from other
// authentication failures.
var ErrLoginFailed = errors.New("authentication failed")

// Session binds a caller to a login code at an issuance time. It is a plain
// value owned by the caller's transport-level identity; the authority never
// stores it.
type Session struct {
	Code        string
	IssuedAt    time.Time
	DisplayName string
}

// Authority decides, per request, whether a session is still authenticated.
// It only ever reads the credential store.
type Authority struct {
	store   credstore.Store
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewAuthority creates an authority over the given store. A timeout of zero
// selects DefaultTimeout.
func NewAuthority(store credstore.Store, timeout time.Duration) *Authority {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Authority{
		store:   store,
		timeout: timeout,
		now:     time.Now,
		logger:  slog.Default().With("component", "session"),
	}
}

// Login exchanges a code for a fresh session. An unknown code yields
// ErrLoginFailed; a store failure yields a wrapped error and no session.
func (a *Authority) Login(ctx context.Context, code string) (*Session, error) {
	cred, err := a.store.Lookup(ctx, code)
	if errors.Is(err, credstore.ErrNotFound) {
		a.logger.Info("login rejected")
		return nil, ErrLoginFailed
	}
	if err != nil {
		return nil, fmt.Errorf("checking login code: %w", err)
	}

	a.logger.Info("login successful", "name", cred.Name)
	return &Session{
		Code:        cred.Code,
		IssuedAt:    a.now(),
		DisplayName: cred.Name,
	}, nil
}

// Validate checks the current session and returns the next one.
//
// A nil result with a nil error means anonymous: no session, idle past the
// timeout, or the bound code no longer exists (revocation is immediate - no
// "was once valid" caching). A non-nil error means the store was unreachable;
// the caller must treat that as not authenticated.
//
// On success the issuance time is refreshed, so the timeout window slides
// with activity rather than counting down from login.
func (a *Authority) Validate(ctx context.Context, cur *Session) (*Session, error) {
	if cur == nil {
		return nil, nil
	}

	now := a.now()
	if now.Sub(cur.IssuedAt) > a.timeout {
		a.logger.Debug("session expired", "name", cur.DisplayName)
		return nil, nil
	}

	_, err := a.store.Lookup(ctx, cur.Code)
	if errors.Is(err, credstore.ErrNotFound) {
		a.logger.Info("session revoked, code no longer exists", "name", cur.DisplayName)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("revalidating session: %w", err)
	}

	next := *cur
	next.IssuedAt = now
	return &next, nil
}

// Timeout returns the configured idle window.
func (a *Authority) Timeout() time.Duration {
	return a.timeout
}
