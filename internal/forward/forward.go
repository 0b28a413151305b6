// ABOUTME: Forwarding engine invoked after the auth gate grants passage
// ABOUTME: Fetches the decoded target and streams the response to the caller

package forward

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Engine accepts an already-authorized request and a decoded target URL and
// writes the upstream response, possibly streamed.
type Engine interface {
	Forward(w http.ResponseWriter, r *http.Request, target string)
}

// hopByHopHeaders are connection-scoped and must not be copied through.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// HTTPEngine is a plain fetch-and-stream implementation of Engine.
type HTTPEngine struct {
	client *http.Client
	logger *slog.Logger
}

var _ Engine = (*HTTPEngine)(nil)

// NewHTTPEngine creates a forwarding engine with a sane default client.
func NewHTTPEngine() *HTTPEngine {
	return &HTTPEngine{
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: slog.Default().With("component", "forward"),
	}
}

// Forward fetches target with the caller's method and body and streams the
// upstream response back. Callers must only invoke this behind the auth gate.
func (e *HTTPEngine) Forward(w http.ResponseWriter, r *http.Request, target string) {
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		http.Error(w, "invalid target URL", http.StatusBadRequest)
		return
	}

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		http.Error(w, "invalid target URL", http.StatusBadRequest)
		return
	}

	copyHeaders(out.Header, r.Header)
	// The identity cookie belongs to this gateway, not the upstream.
	out.Header.Del("Cookie")

	resp, err := e.client.Do(out)
	if err != nil {
		e.logger.Warn("forward failed", "error", err)
		http.Error(w, fmt.Sprintf("upstream request failed: %v", err), http.StatusBadGateway)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		// Response already in flight; nothing to do but log.
		e.logger.Debug("stream interrupted", "error", err)
	}
}

// copyHeaders copies all non hop-by-hop headers from src to dst.
func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
	for _, h := range hopByHopHeaders {
		dst.Del(h)
	}
}
