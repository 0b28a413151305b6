// ABOUTME: Tests for configuration loading
// ABOUTME: Covers YAML parsing, env expansion, durations, and validation errors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
auth:
  enabled: true
  backend: ledger
  codes_file: /var/lib/passage/auth_codes.txt
  session_timeout: 30m
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr: got %q", cfg.Server.HTTPAddr)
	}
	if !cfg.Auth.Enabled {
		t.Error("Auth.Enabled should be true")
	}
	if cfg.Auth.Backend != BackendLedger {
		t.Errorf("Backend: got %q", cfg.Auth.Backend)
	}
	if cfg.Auth.SessionTimeout != 30*time.Minute {
		t.Errorf("SessionTimeout: got %v", cfg.Auth.SessionTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q", cfg.Logging.Level)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("PASSAGE_TEST_DB", "/tmp/test-auth.db")

	path := writeConfig(t, `
server:
  http_addr: ":8080"
auth:
  enabled: true
  backend: sqlite
  database_path: ${PASSAGE_TEST_DB}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Auth.DatabasePath != "/tmp/test-auth.db" {
		t.Errorf("DatabasePath: got %q", cfg.Auth.DatabasePath)
	}
}

func TestLoad_AuthDisabledNeedsNoBackend(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
auth:
  enabled: false
`)

	if _, err := Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing http_addr", `
auth:
  enabled: false
`},
		{"missing backend", `
server:
  http_addr: ":8080"
auth:
  enabled: true
`},
		{"unknown backend", `
server:
  http_addr: ":8080"
auth:
  enabled: true
  backend: etcd
`},
		{"ledger without codes_file", `
server:
  http_addr: ":8080"
auth:
  enabled: true
  backend: ledger
`},
		{"sqlite without database_path", `
server:
  http_addr: ":8080"
auth:
  enabled: true
  backend: sqlite
`},
		{"bad duration", `
server:
  http_addr: ":8080"
auth:
  enabled: true
  backend: ledger
  codes_file: codes.txt
  session_timeout: soon
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.content)); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/gateway.yaml"); err == nil {
		t.Error("expected an error, got nil")
	}
}
