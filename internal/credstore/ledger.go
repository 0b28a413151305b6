// ABOUTME: Flat-file implementation of the Store interface
// ABOUTME: One name:code:timestamp record per line, rewritten atomically under a lock

package credstore

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/atomic"
)

// ledgerHeader is written at the top of every rewrite. Comment lines and blank
// lines are ignored on read, so the header survives round-trips.
const ledgerHeader = `# passage-gateway login codes
# Format: name:code:created_timestamp
# Lines starting with # are comments and will be ignored

`

// LedgerStore implements the Store interface over a flat text file.
//
// The representation has no row-level granularity, so every mutation holds an
// exclusive lock across the whole read-modify-write cycle and replaces the
// file in one atomic rename. Duplicate detection happens inside the same
// critical section as the rewrite, which closes the check-then-insert race.
type LedgerStore struct {
	path   string
	mu     sync.RWMutex
	logger *slog.Logger
}

var _ Store = (*LedgerStore)(nil)

// NewLedgerStore creates a ledger store backed by the file at path.
// The file is created with a comment header if it doesn't exist.
func NewLedgerStore(path string) (*LedgerStore, error) {
	logger := slog.Default().With("component", "credstore")

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := atomic.WriteFile(path, strings.NewReader(ledgerHeader)); err != nil {
			return nil, fmt.Errorf("creating ledger file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking ledger file: %w", err)
	}

	logger.Info("ledger credential store initialized", "path", path)
	return &LedgerStore{
		path:   path,
		logger: logger,
	}, nil
}

// readAll parses every record in the ledger in file order.
// Callers must hold at least a read lock.
func (s *LedgerStore) readAll() ([]*Credential, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	defer func() { _ = f.Close() }()

	var creds []*Credential
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ":")
		if len(parts) < 2 {
			continue
		}

		cred := &Credential{
			Name: parts[0],
			Code: parts[1],
		}
		if len(parts) >= 3 {
			if ts, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
				cred.CreatedAt = time.Unix(ts, 0).UTC()
			}
		}
		if len(parts) >= 4 && parts[3] == "1" {
			cred.AdminAccess = true
		}
		creds = append(creds, cred)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}

	return creds, nil
}

// writeAll replaces the ledger file with the given records.
// Callers must hold the write lock.
func (s *LedgerStore) writeAll(creds []*Credential) error {
	var b strings.Builder
	b.WriteString(ledgerHeader)
	for _, cred := range creds {
		b.WriteString(cred.Name)
		b.WriteByte(':')
		b.WriteString(cred.Code)
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(cred.CreatedAt.Unix(), 10))
		if cred.AdminAccess {
			b.WriteString(":1")
		}
		b.WriteByte('\n')
	}

	if err := atomic.WriteFile(s.path, strings.NewReader(b.String())); err != nil {
		return fmt.Errorf("rewriting ledger: %w", err)
	}
	return nil
}

// ListAll returns all credentials, newest first.
func (s *LedgerStore) ListAll(ctx context.Context) ([]*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	creds, err := s.readAll()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(creds, func(i, j int) bool {
		return creds[i].CreatedAt.After(creds[j].CreatedAt)
	})
	return creds, nil
}

// Lookup returns the credential for code, or ErrNotFound.
func (s *LedgerStore) Lookup(ctx context.Context, code string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	creds, err := s.readAll()
	if err != nil {
		return nil, err
	}

	for _, cred := range creds {
		if cred.Code == code {
			return cred, nil
		}
	}
	return nil, ErrNotFound
}

// Exists reports whether code is present.
func (s *LedgerStore) Exists(ctx context.Context, code string) (bool, error) {
	_, err := s.Lookup(ctx, code)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Add appends a new credential. The duplicate scan and the rewrite happen
// under the same lock acquisition, so a racing Add cannot slip in between.
func (s *LedgerStore) Add(ctx context.Context, name, code string, adminAccess bool) error {
	if err := ValidateFields(name, code); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.readAll()
	if err != nil {
		return err
	}

	for _, cred := range creds {
		if cred.Code == code {
			return ErrDuplicateCode
		}
	}

	creds = append(creds, &Credential{
		Name:        name,
		Code:        code,
		AdminAccess: adminAccess,
		CreatedAt:   time.Now().UTC(),
	})

	if err := s.writeAll(creds); err != nil {
		return err
	}

	s.logger.Info("added credential", "name", name, "admin", adminAccess)
	return nil
}

// Remove deletes the credential for code. The file is left untouched when the
// code is absent.
func (s *LedgerStore) Remove(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.readAll()
	if err != nil {
		return err
	}

	kept := creds[:0]
	found := false
	for _, cred := range creds {
		if cred.Code == code {
			found = true
			continue
		}
		kept = append(kept, cred)
	}

	if !found {
		return ErrNotFound
	}

	if err := s.writeAll(kept); err != nil {
		return err
	}

	s.logger.Info("removed credential")
	return nil
}

// SetAdminAccess updates the privilege flag for code.
func (s *LedgerStore) SetAdminAccess(ctx context.Context, code string, adminAccess bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.readAll()
	if err != nil {
		return err
	}

	found := false
	for _, cred := range creds {
		if cred.Code == code {
			cred.AdminAccess = adminAccess
			found = true
		}
	}

	if !found {
		return ErrNotFound
	}

	if err := s.writeAll(creds); err != nil {
		return err
	}

	s.logger.Info("updated admin access", "admin", adminAccess)
	return nil
}

// Close is a no-op; the ledger holds no open handles between operations.
func (s *LedgerStore) Close() error {
	return nil
}
