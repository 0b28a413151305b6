// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: One row per credential, UNIQUE constraint on code enforces uniqueness

package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
// Each operation is a single statement, so atomicity and duplicate rejection
// come from the storage engine rather than a process-level lock.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is created if it doesn't exist. Parent directories are created
// if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "credstore")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite credential store initialized", "path", path)
	return s, nil
}

// createSchema creates the auth_codes table if it doesn't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS auth_codes (
			name              TEXT NOT NULL,
			code              TEXT NOT NULL UNIQUE,
			admin_access      INTEGER NOT NULL DEFAULT 0,
			created_timestamp INTEGER NOT NULL,

			CHECK (admin_access IN (0, 1))
		);

		CREATE INDEX IF NOT EXISTS idx_auth_codes_created
			ON auth_codes(created_timestamp DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// ListAll returns all credentials, newest first.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]*Credential, error) {
	query := `
		SELECT name, code, admin_access, created_timestamp
		FROM auth_codes
		ORDER BY created_timestamp DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying codes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var creds []*Credential
	for rows.Next() {
		var cred Credential
		var admin int
		var created int64

		if err := rows.Scan(&cred.Name, &cred.Code, &admin, &created); err != nil {
			return nil, fmt.Errorf("scanning code: %w", err)
		}

		cred.AdminAccess = admin != 0
		cred.CreatedAt = time.Unix(created, 0).UTC()
		creds = append(creds, &cred)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating codes: %w", err)
	}

	return creds, nil
}

// Lookup returns the credential for code, or ErrNotFound.
func (s *SQLiteStore) Lookup(ctx context.Context, code string) (*Credential, error) {
	query := `
		SELECT name, code, admin_access, created_timestamp
		FROM auth_codes
		WHERE code = ?
	`

	var cred Credential
	var admin int
	var created int64

	err := s.db.QueryRowContext(ctx, query, code).Scan(&cred.Name, &cred.Code, &admin, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying code: %w", err)
	}

	cred.AdminAccess = admin != 0
	cred.CreatedAt = time.Unix(created, 0).UTC()
	return &cred, nil
}

// Exists reports whether code is present.
func (s *SQLiteStore) Exists(ctx context.Context, code string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM auth_codes WHERE code = ?", code).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("counting code: %w", err)
	}
	return count > 0, nil
}

// Add inserts a new credential. The UNIQUE constraint on code rejects
// duplicates even when two Adds race. Reserved characters are rejected even
// though this backend could store them, so both backends accept the same
// input space.
func (s *SQLiteStore) Add(ctx context.Context, name, code string, adminAccess bool) error {
	if err := ValidateFields(name, code); err != nil {
		return err
	}

	query := `
		INSERT INTO auth_codes (name, code, admin_access, created_timestamp)
		VALUES (?, ?, ?, ?)
	`

	admin := 0
	if adminAccess {
		admin = 1
	}

	_, err := s.db.ExecContext(ctx, query, name, code, admin, time.Now().Unix())
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateCode
		}
		return fmt.Errorf("inserting code: %w", err)
	}

	s.logger.Info("added credential", "name", name, "admin", adminAccess)
	return nil
}

// Remove deletes the credential for code. Returns ErrNotFound if absent.
func (s *SQLiteStore) Remove(ctx context.Context, code string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM auth_codes WHERE code = ?", code)
	if err != nil {
		return fmt.Errorf("deleting code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Info("removed credential")
	return nil
}

// SetAdminAccess updates the privilege flag for code.
func (s *SQLiteStore) SetAdminAccess(ctx context.Context, code string, adminAccess bool) error {
	admin := 0
	if adminAccess {
		admin = 1
	}

	result, err := s.db.ExecContext(ctx, "UPDATE auth_codes SET admin_access = ? WHERE code = ?", admin, code)
	if err != nil {
		return fmt.Errorf("updating admin access: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Info("updated admin access", "admin", adminAccess)
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	// SQLite returns "UNIQUE constraint failed" in the error message
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") || strings.Contains(err.Error(), "unique constraint"))
}
