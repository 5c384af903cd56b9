// Package password hashes and verifies account passwords.
//
// New hashes use bcrypt (cost 10) unless argon2id is configured. Verification
// dispatches on the stored hash prefix, so accounts hashed under either
// algorithm keep working after the configured algorithm changes;
// [Hasher.NeedsUpgrade] tells the caller when to re-hash on the next
// successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Length policy is enforced
// by request validation and the engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other goAccount package.
//   - Log plaintext passwords.
package password
