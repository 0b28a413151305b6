// Package session implements the per-caller authentication state machine.
//
// A caller is either anonymous or authenticated. Authority.Login moves a
// caller to authenticated by checking a code against the credential store;
// Authority.Validate is called on every gated request and either refreshes
// the session (sliding expiration) or demotes the caller back to anonymous
// when the session is stale or its code has been deleted.
//
// Sessions are values passed in and returned, never ambient state: the
// transport-level identity mechanism that maps a caller to its current
// session lives elsewhere (see the authgate package). The authority itself
// only reads the credential store and holds nothing between calls, so
// deleting a credential invalidates every outstanding session bound to it on
// its very next validation.
//
// Failure posture is fail-closed: if the store is unreachable, Validate
// returns an error and the caller must deny access rather than assume the
// session is still good.
package session
