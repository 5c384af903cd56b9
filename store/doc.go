// Package store defines the account persistence contract used by the
// goAccount engine together with the record types it exchanges.
//
// # Architecture boundaries
//
// Backends live in sub-packages (memory, redisstore, postgres, mongostore) and
// all satisfy [Store]. The contract guarantees per-account atomic
// read-modify-write through [Store.Update], a unique email index, and a default
// read projection that strips password hashes and open challenges.
//
// # What this package must NOT do
//
//   - Hash passwords or generate secrets (the engine owns both).
//   - Import the goAccount root package.
//   - Compare OTP codes or reset tokens outside an Update mutator.
package store
