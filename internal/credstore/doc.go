// Package credstore provides persistent storage for login codes.
//
// # Backends
//
// Two interchangeable backends satisfy the same Store contract, selected by
// configuration:
//
//   - LedgerStore: an append-friendly flat text file, one record per line in
//     the form name:code:created_timestamp (admin credentials carry a trailing
//     :1 field). Comment lines starting with '#' and blank lines are ignored.
//     Mutations rewrite the whole file atomically under an exclusive lock.
//
//   - SQLiteStore: one row per credential in the auth_codes table. The UNIQUE
//     constraint on the code column enforces uniqueness; each operation is a
//     single statement.
//
// # Uniqueness
//
// Code uniqueness is enforced at the storage layer, not by a prior Exists
// check. Both backends reject a duplicate Add even when two Adds race:
// SQLite via its constraint, the ledger by scanning and rewriting inside one
// lock acquisition.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: the requested code does not exist
//   - ErrDuplicateCode: adding a code that already exists
//
// Any other error means the store itself failed; callers treat that as fatal
// to the current request and fail closed.
//
// All methods accept context.Context.
package credstore
