// Package authgate places the session check in front of the forwarding engine.
//
// The gate is ordinary net/http middleware. On every request it resolves the
// caller's identity cookie to its current session, asks the session authority
// for a verdict, and either forwards control with the refreshed session in
// the request context or short-circuits with a redirect to the login flow.
// When gating is disabled by configuration, requests pass through untouched.
//
// The identity mechanism itself is the CookieStore: an opaque random cookie
// value mapped to the caller's session in memory. Handlers read the session
// via FromContext; they never touch the cookie directly.
//
// A store failure during validation is answered with 503, never with access.
package authgate
