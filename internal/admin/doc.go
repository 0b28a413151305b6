// Package admin implements the administrative console's use-cases.
//
// The service sits on top of the auth gate: it requires an authenticated
// session whose bound credential carries admin access, checked live against
// the credential store at the start of every operation. Unauthorized callers
// get ErrForbidden before any other store read happens.
//
// Use-cases:
//
//   - ListCredentials: every login code, newest first
//   - AddCredential: rejects empty inputs (ErrInvalidInput) and duplicate
//     codes (credstore.ErrDuplicateCode)
//   - DeleteCredential: credstore.ErrNotFound on a miss
//   - ToggleAdminAccess: read-then-write negation; last write wins under a
//     concurrent toggle of the same code
//
// The presentation layer maps these errors to user-displayable messages;
// raw storage errors are only ever shown to an authenticated admin.
package admin
