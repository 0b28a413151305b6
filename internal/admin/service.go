// ABOUTME: Admin use-cases for managing login codes
// ABOUTME: Privilege check plus add/remove/toggle exercised through the credential store

package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/passage-gateway/internal/credstore"
	"github.com/2389/passage-gateway/internal/session"
)

// ErrForbidden is returned when the caller is not authenticated as an admin.
var ErrForbidden = errors.New("admin access required")

// ErrInvalidInput is returned for empty name or code, before any store access.
var ErrInvalidInput = errors.New("name and code must not be empty")

// Service implements the administrative use-cases over the credential store.
// Every operation takes the caller's session and checks the bound
// credential's live admin flag before doing anything else, so a demoted or
// deleted admin loses access on their very next call.
type Service struct {
	store  credstore.Store
	logger *slog.Logger
}

// NewService creates an admin service over the given store.
func NewService(store credstore.Store) *Service {
	return &Service{
		store:  store,
		logger: slog.Default().With("component", "admin"),
	}
}

// authorize verifies the session is bound to a live credential with admin
// access. Returns ErrForbidden otherwise; a store failure is surfaced as-is
// so the caller fails closed.
func (s *Service) authorize(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return ErrForbidden
	}

	cred, err := s.store.Lookup(ctx, sess.Code)
	if errors.Is(err, credstore.ErrNotFound) {
		return ErrForbidden
	}
	if err != nil {
		return fmt.Errorf("checking admin access: %w", err)
	}
	if !cred.AdminAccess {
		return ErrForbidden
	}
	return nil
}

// ListCredentials returns all credentials, newest first.
func (s *Service) ListCredentials(ctx context.Context, sess *session.Session) ([]*credstore.Credential, error) {
	if err := s.authorize(ctx, sess); err != nil {
		return nil, err
	}
	return s.store.ListAll(ctx)
}

// AddCredential creates a new login code. Empty name or code, or inputs
// containing format-reserved characters, are rejected as ErrInvalidInput
// without touching the store; a duplicate code surfaces as
// credstore.ErrDuplicateCode, distinct from storage failures.
func (s *Service) AddCredential(ctx context.Context, sess *session.Session, name, code string, adminAccess bool) error {
	if err := s.authorize(ctx, sess); err != nil {
		return err
	}

	if name == "" || code == "" {
		return ErrInvalidInput
	}
	if err := credstore.ValidateFields(name, code); err != nil {
		return errors.Join(ErrInvalidInput, err)
	}

	if err := s.store.Add(ctx, name, code, adminAccess); err != nil {
		return err
	}

	s.logger.Info("credential added by admin", "name", name, "admin", adminAccess, "by", sess.DisplayName)
	return nil
}

// DeleteCredential removes a login code. A miss surfaces as
// credstore.ErrNotFound, distinct from success. Deleting a code also revokes
// every session bound to it: they fail their next validation.
func (s *Service) DeleteCredential(ctx context.Context, sess *session.Session, code string) error {
	if err := s.authorize(ctx, sess); err != nil {
		return err
	}

	if err := s.store.Remove(ctx, code); err != nil {
		return err
	}

	s.logger.Info("credential deleted by admin", "by", sess.DisplayName)
	return nil
}

// ToggleAdminAccess flips the admin flag for a code and returns the new
// value. The read and the write are separate operations; two concurrent
// toggles of the same code resolve as last write wins.
func (s *Service) ToggleAdminAccess(ctx context.Context, sess *session.Session, code string) (bool, error) {
	if err := s.authorize(ctx, sess); err != nil {
		return false, err
	}

	cred, err := s.store.Lookup(ctx, code)
	if err != nil {
		return false, err
	}

	next := !cred.AdminAccess
	if err := s.store.SetAdminAccess(ctx, code, next); err != nil {
		return false, err
	}

	s.logger.Info("admin access toggled", "admin", next, "by", sess.DisplayName)
	return next, nil
}
