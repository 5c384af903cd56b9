// Package internal holds helpers private to goAccount: secret generation for
// verification codes and reset tokens.
//
// # Sub-packages
//
//   - flows: orchestrators for every account lifecycle operation
//
// # What this package must NOT do
//
//   - Export types that appear in the public goAccount API.
//   - Be imported by any package outside the goAccount module.
package internal
