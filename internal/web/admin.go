// ABOUTME: Admin console handlers for listing, adding, deleting, and toggling codes
// ABOUTME: Maps service errors onto user-displayable messages

package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/2389/passage-gateway/internal/admin"
	"github.com/2389/passage-gateway/internal/authgate"
	"github.com/2389/passage-gateway/internal/credstore"
)

// registerAdminRoutes registers the admin console behind the full gate chain.
func (h *Handler) registerAdminRoutes(mux *http.ServeMux) {
	mux.Handle("GET /admin", h.gatedAdmin(h.handleAdminPage))
	mux.Handle("POST /admin/add", h.gatedAdmin(h.handleAdminAdd))
	mux.Handle("POST /admin/delete", h.gatedAdmin(h.handleAdminDelete))
	mux.Handle("POST /admin/toggle", h.gatedAdmin(h.handleAdminToggle))
}

// handleAdminPage renders the code list with optional flash messages carried
// in the query string by the mutation handlers.
func (h *Handler) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	sess := authgate.FromContext(r.Context())

	codes, err := h.admin.ListCredentials(r.Context(), sess)
	if err != nil {
		h.logger.Error("listing credentials", "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	render(w, adminTmpl, adminData{
		Title:   "Admin Panel",
		Name:    sess.DisplayName,
		Message: r.URL.Query().Get("msg"),
		Error:   r.URL.Query().Get("err"),
		Codes:   codes,
		Timeout: h.authority.Timeout(),
	})
}

// handleAdminAdd processes the add-code form.
func (h *Handler) handleAdminAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.adminRedirect(w, r, "", "Invalid form data")
		return
	}

	sess := authgate.FromContext(r.Context())
	name := strings.TrimSpace(r.FormValue("code_name"))
	code := strings.TrimSpace(r.FormValue("code_value"))
	adminAccess := r.FormValue("admin_access") == "1"

	err := h.admin.AddCredential(r.Context(), sess, name, code, adminAccess)
	switch {
	case err == nil:
		h.adminRedirect(w, r, "Code '"+name+"' added successfully!", "")
	case errors.Is(err, credstore.ErrInvalidFormat):
		h.adminRedirect(w, r, "", "Names and codes must not contain ':' or newlines.")
	case errors.Is(err, admin.ErrInvalidInput):
		h.adminRedirect(w, r, "", "Please fill in both name and code fields.")
	case errors.Is(err, credstore.ErrDuplicateCode):
		h.adminRedirect(w, r, "", "Code already exists!")
	default:
		// The caller is a verified admin; the raw cause is fair to show.
		h.adminRedirect(w, r, "", "Storage error: "+err.Error())
	}
}

// handleAdminDelete processes the delete-code form.
func (h *Handler) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.adminRedirect(w, r, "", "Invalid form data")
		return
	}

	sess := authgate.FromContext(r.Context())
	code := strings.TrimSpace(r.FormValue("code"))

	err := h.admin.DeleteCredential(r.Context(), sess, code)
	switch {
	case err == nil:
		h.adminRedirect(w, r, "Code deleted successfully!", "")
	case errors.Is(err, credstore.ErrNotFound):
		h.adminRedirect(w, r, "", "Code not found!")
	default:
		h.adminRedirect(w, r, "", "Storage error: "+err.Error())
	}
}

// handleAdminToggle flips the admin flag for a code.
func (h *Handler) handleAdminToggle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.adminRedirect(w, r, "", "Invalid form data")
		return
	}

	sess := authgate.FromContext(r.Context())
	code := strings.TrimSpace(r.FormValue("code"))

	now, err := h.admin.ToggleAdminAccess(r.Context(), sess, code)
	switch {
	case err == nil && now:
		h.adminRedirect(w, r, "Admin access granted.", "")
	case err == nil:
		h.adminRedirect(w, r, "Admin access revoked.", "")
	case errors.Is(err, credstore.ErrNotFound):
		h.adminRedirect(w, r, "", "Code not found!")
	default:
		h.adminRedirect(w, r, "", "Storage error: "+err.Error())
	}
}

// adminRedirect bounces back to the admin page with a flash message.
func (h *Handler) adminRedirect(w http.ResponseWriter, r *http.Request, msg, errMsg string) {
	q := url.Values{}
	if msg != "" {
		q.Set("msg", msg)
	}
	if errMsg != "" {
		q.Set("err", errMsg)
	}

	target := "/admin"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
