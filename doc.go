// Package goAccount provides an account lifecycle engine: registration with
// one-time-passcode email verification, password login with stateless HS256
// access and refresh tokens, password change, token-based password reset and
// profile management.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goAccount is the public surface. It exposes [Engine], [Builder], [Config],
// the error sentinels with their [Kind] mapping and value types such as
// [Account] and [Claims]. Persistence is delegated to a store.Store chosen by
// the caller; flow orchestration lives under internal/flows and is never
// exported. Per-account atomicity comes from store.Store.Update: every
// check-and-consume of an OTP or reset token happens inside one update.
//
// # What this package must NOT do
//
//   - Return password hashes, OTPs or reset tokens through Account.
//   - Store a password without hashing it.
//   - Fail a request because a mail could not be delivered.
//   - Import httpapi, middleware or any other package that re-imports goAccount.
//
// # Tokens
//
// Access and refresh tokens are signed with separate secrets and are not
// revocable. A token stays valid until it expires, even after a password
// change.
package goAccount
