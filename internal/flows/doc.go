// Package flows contains the orchestrators behind every account lifecycle
// operation of the root Engine.
//
// Each flow function (RunRegister, RunVerifyOTP, RunLogin, RunResetPassword,
// etc.) accepts a typed dependency struct built by the Engine and performs no
// I/O except through it. Checks on open challenges run inside the store's
// atomic update so concurrent callers cannot both consume a secret.
//
// # Architecture boundaries
//
// Flows coordinate the account store, secret generation, password hashing,
// token issuance, mail, audit and metrics. They do NOT own any of these
// resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAccount (to avoid import cycles).
//   - Write Account.PasswordHash except through a PasswordSetter.
package flows
