// Package forward is the forwarding engine the auth gate protects.
//
// The Engine interface takes an already-authorized request and a decoded
// target URL and writes the upstream response through, streaming bodies as
// they arrive. HTTPEngine is a straightforward implementation; anything
// smarter (URL rewriting, content filtering) would slot in behind the same
// interface without the gate caring.
package forward
