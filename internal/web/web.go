// ABOUTME: HTTP handlers for login, logout, home, and the gated forwarder entry
// ABOUTME: Maps form submissions onto the session authority and auth gate

package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/2389/passage-gateway/internal/admin"
	"github.com/2389/passage-gateway/internal/authgate"
	"github.com/2389/passage-gateway/internal/credstore"
	"github.com/2389/passage-gateway/internal/forward"
	"github.com/2389/passage-gateway/internal/session"
)

// Handler serves the presentation layer: login/logout, the home form, the
// admin console, and the gated forwarding entry point.
type Handler struct {
	authority *session.Authority
	gate      *authgate.Gate
	admin     *admin.Service
	store     credstore.Store
	engine    forward.Engine
	logger    *slog.Logger
}

// New creates the web handler.
func New(authority *session.Authority, gate *authgate.Gate, adminSvc *admin.Service, store credstore.Store, engine forward.Engine) *Handler {
	return &Handler{
		authority: authority,
		gate:      gate,
		admin:     adminSvc,
		store:     store,
		engine:    engine,
		logger:    slog.Default().With("component", "web"),
	}
}

// RegisterRoutes registers all routes on the given mux. Everything except
// the login flow sits behind the auth gate; admin routes additionally
// require the live admin flag.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Public routes (no auth required)
	mux.HandleFunc("GET /login", h.handleLoginPage)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("POST /logout", h.handleLogout)

	// Gated routes
	mux.Handle("GET /{$}", h.gate.Middleware(http.HandlerFunc(h.handleHome)))
	mux.Handle("POST /{$}", h.gate.Middleware(http.HandlerFunc(h.handleSubmitURL)))
	mux.Handle("GET /forward", h.gate.Middleware(http.HandlerFunc(h.handleForward)))

	// Admin routes
	h.registerAdminRoutes(mux)

	h.logger.Info("routes registered")
}

// gatedAdmin wraps a handler with the full admin chain.
func (h *Handler) gatedAdmin(next http.HandlerFunc) http.Handler {
	return h.gate.Middleware(h.gate.RequireAdmin(h.store, next))
}

// handleLoginPage renders the login form.
func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, loginTmpl, loginData{Title: "Login"})
}

// handleLogin processes a login submission. Failures get one generic message
// regardless of cause so nothing about the credential set leaks.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render(w, loginTmpl, loginData{Title: "Login", Error: "Invalid form data"})
		return
	}

	code := strings.TrimSpace(r.FormValue("login_code"))

	sess, err := h.authority.Login(r.Context(), code)
	if errors.Is(err, session.ErrLoginFailed) {
		render(w, loginTmpl, loginData{Title: "Login", Error: "Invalid login code. Please try again."})
		return
	}
	if err != nil {
		h.logger.Error("login failed", "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	if err := h.gate.Establish(w, r, sess); err != nil {
		h.logger.Error("establishing session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout destroys the caller's identity unconditionally.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.gate.Clear(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleHome renders the URL entry form.
func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	data := homeData{Title: "passage-gateway"}
	if sess := authgate.FromContext(r.Context()); sess != nil {
		data.Name = sess.DisplayName
	}
	render(w, homeTmpl, data)
}

// handleSubmitURL redirects a posted URL to the forwarding entry point.
func (h *Handler) handleSubmitURL(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	target := strings.TrimSpace(r.FormValue("url"))
	if target == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if !strings.Contains(target, "://") {
		target = "http://" + target
	}

	http.Redirect(w, r, "/forward?q="+url.QueryEscape(target), http.StatusFound)
}

// handleForward hands the decoded target to the forwarding engine. The gate
// has already run, so only authenticated callers reach the engine.
func (h *Handler) handleForward(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("q")
	if target == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.engine.Forward(w, r, target)
}
