// ABOUTME: Entry point for the passage-gateway server
// ABOUTME: Gates a forwarding service behind shared-secret login codes

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/2389/passage-gateway/internal/admin"
	"github.com/2389/passage-gateway/internal/authgate"
	"github.com/2389/passage-gateway/internal/config"
	"github.com/2389/passage-gateway/internal/credstore"
	"github.com/2389/passage-gateway/internal/forward"
	"github.com/2389/passage-gateway/internal/session"
	"github.com/2389/passage-gateway/internal/web"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  _ __   __ _ ___ ___  __ _  __ _  ___
 | '_ \ / _' / __/ __|/ _' |/ _' |/ _ \
 | |_) | (_| \__ \__ \ (_| | (_| |  __/
 | .__/ \__,_|___/___/\__,_|\__, |\___|
 |_|                        |___/
`

// getConfigPath returns the path to the gateway config file.
// Priority: PASSAGE_CONFIG env var > XDG_CONFIG_HOME/passage/gateway.yaml > ~/.config/passage/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("PASSAGE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "passage", "gateway.yaml")
}

// getDataPath returns the path to the passage data directory.
// Priority: XDG_DATA_HOME/passage > ~/.local/share/passage
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "passage")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: passage-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                  Start the gateway server")
		fmt.Println("  bootstrap --name NAME  Create config and an initial admin login code")
		fmt.Println("  health                 Check gateway health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "bootstrap":
		err = runBootstrap(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:  %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:    %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	if cfg.Auth.Enabled {
		fmt.Printf("Auth:    %s backend\n", cfg.Auth.Backend)
	} else {
		fmt.Print("Auth:    ")
		yellow.Print("disabled")
		fmt.Println(" (every request passes through)")
	}
	fmt.Println()

	logger.Info("starting passage-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"auth_enabled", cfg.Auth.Enabled,
	)

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("creating credential store: %w", err)
	}
	defer func() { _ = store.Close() }()

	authority := session.NewAuthority(store, cfg.Auth.SessionTimeout)
	identities := authgate.NewCookieStore()
	gate := authgate.New(authority, identities, authgate.Config{
		Enabled:   cfg.Auth.Enabled,
		LoginPath: "/login",
	})
	go identities.SweepLoop(ctx, time.Minute, authority.Timeout())

	handler := web.New(authority, gate, admin.NewService(store), store, forward.NewHTTPEngine())

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// newStore selects the credential store backend from configuration. When auth
// is disabled no backend is required; a ledger in the data directory keeps
// the admin console usable anyway.
func newStore(cfg *config.Config) (credstore.Store, error) {
	switch cfg.Auth.Backend {
	case config.BackendSQLite:
		return credstore.NewSQLiteStore(cfg.Auth.DatabasePath)
	case config.BackendLedger:
		return credstore.NewLedgerStore(cfg.Auth.CodesFile)
	case "":
		return credstore.NewLedgerStore(filepath.Join(getDataPath(), "auth_codes.txt"))
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Auth.Backend)
	}
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// runBootstrap performs first-time setup of the gateway:
// 1. Creates a config file with the ledger backend (if not exists)
// 2. Creates the credential store and an initial admin login code
//
// This is a one-command setup: passage-gateway bootstrap --name "Your Name"
func runBootstrap(ctx context.Context) error {
	// Supports both "--name value" and "--name=value" formats
	var displayName string
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--name" || arg == "-n":
			if i+1 >= len(args) {
				return fmt.Errorf("--name requires a value")
			}
			displayName = args[i+1]
			i++
		case strings.HasPrefix(arg, "--name="):
			displayName = strings.TrimPrefix(arg, "--name=")
		case strings.HasPrefix(arg, "-n="):
			displayName = strings.TrimPrefix(arg, "-n=")
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return fmt.Errorf("--name flag is required")
	}
	if len(displayName) > 100 {
		return fmt.Errorf("display name exceeds maximum length of 100 characters")
	}

	configPath := getConfigPath()
	dataPath := getDataPath()
	codesFile := filepath.Join(dataPath, "auth_codes.txt")

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	// Check if config exists, create if not
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		if err := os.MkdirAll(dataPath, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		configContent := fmt.Sprintf(`# passage-gateway configuration
# Generated by passage-gateway bootstrap

server:
  http_addr: "localhost:8080"

auth:
  enabled: true
  backend: "ledger"
  codes_file: "%s"
  session_timeout: "1h"

logging:
  level: "info"
  format: "text"
`, codesFile)

		if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}

		green.Printf("  ✓ Created config: %s\n", configPath)
	} else {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading existing config: %w", err)
		}
		if cfg.Auth.Backend == config.BackendLedger && cfg.Auth.CodesFile != "" {
			codesFile = cfg.Auth.CodesFile
		}
	}

	store, err := credstore.NewLedgerStore(codesFile)
	if err != nil {
		return fmt.Errorf("creating credential store: %w", err)
	}
	defer func() { _ = store.Close() }()

	code := uuid.New().String()
	if err := store.Add(ctx, displayName, code, true); err != nil {
		return fmt.Errorf("creating admin code: %w", err)
	}

	green.Printf("  ✓ Created admin login code for %q\n\n", displayName)
	fmt.Print("  Login code: ")
	cyan.Println(code)
	fmt.Println("\n  Keep this code secret; it grants admin access.")
	return nil
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", strings.TrimPrefix(cfg.Server.HTTPAddr, "http://"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
