// Package web is the presentation layer over the auth core.
//
// It renders the login form, the URL entry page, and the admin console, and
// wires form submissions to the session authority and the admin service. The
// package owns no policy: every access decision is made by the authgate
// middleware and the admin service, and every failure message shown to users
// is derived from the error taxonomy those packages return.
package web
