// Package middleware gates net/http handlers on account tokens and roles.
//
// # Gates
//
//   - [Authenticate] requires a valid bearer access token.
//   - [OptionalAuthenticate] attaches claims when a valid token is present.
//   - [Authorize], [RequireAdmin] and [RequireAdminOrModerator] check the
//     role of an authenticated caller.
//
// Verified claims travel in the request context; read them with
// goAccount.ClaimsFromContext. Rejections are written as the JSON envelope
// used by the rest of the API.
//
// # What this package must NOT do
//
//   - Parse or sign tokens itself (the verifier does).
//   - Touch the account store.
package middleware
