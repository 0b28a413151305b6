// ABOUTME: Store interface and data types for login-code persistence
// ABOUTME: Defines Credential and the Store contract both backends satisfy

package credstore

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested code does not exist.
var ErrNotFound = errors.New("code not found")

// ErrDuplicateCode is returned when adding a code that already exists.
// The storage layer's uniqueness guarantee is the final arbiter, so a
// concurrent Add racing this one still gets this error, never two rows.
var ErrDuplicateCode = errors.New("code already exists")

// ErrInvalidFormat is returned for names or codes containing characters the
// ledger line format reserves. Both backends enforce it so the valid input
// space does not depend on which backend is configured.
var ErrInvalidFormat = errors.New("name and code must not contain ':' or newlines")

// ValidateFields checks name and code against the reserved-character rule.
func ValidateFields(name, code string) error {
	if strings.ContainsAny(name, ":\n") || strings.ContainsAny(code, ":\n") {
		return ErrInvalidFormat
	}
	return nil
}

// Credential is a stored login code with an owner label and a privilege flag.
// Name is a display label and is not unique; Code is the case-sensitive secret
// and is unique across all live credentials.
type Credential struct {
	Name        string
	Code        string
	AdminAccess bool
	CreatedAt   time.Time
}

// Store defines the interface for credential persistence. Two backends
// implement it: LedgerStore (flat file) and SQLiteStore (relational).
//
// All mutating operations are atomic: either the change is fully visible to
// subsequent Lookup/ListAll calls or the store is unchanged. Errors other
// than ErrNotFound/ErrDuplicateCode indicate the store itself failed and the
// caller must fail closed.
type Store interface {
	// ListAll returns every credential, newest CreatedAt first.
	ListAll(ctx context.Context) ([]*Credential, error)

	// Lookup returns the credential for code, or ErrNotFound.
	Lookup(ctx context.Context, code string) (*Credential, error)

	// Exists reports whether code is present. Advisory only; it is not
	// sufficient to prevent duplicates under concurrency - use Add's
	// ErrDuplicateCode for that.
	Exists(ctx context.Context, code string) (bool, error)

	// Add creates a credential. Returns ErrDuplicateCode if code exists.
	Add(ctx context.Context, name, code string, adminAccess bool) error

	// Remove deletes the credential for code. Returns ErrNotFound if absent;
	// the store is unchanged in that case.
	Remove(ctx context.Context, code string) error

	// SetAdminAccess updates the privilege flag for code. Idempotent.
	// Returns ErrNotFound if the code does not exist.
	SetAdminAccess(ctx context.Context, code string, adminAccess bool) error

	// Close releases any resources held by the store.
	Close() error
}
