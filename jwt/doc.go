// Package jwt issues and verifies the stateless HS256 access and refresh
// tokens handed out by the account engine. Tokens carry userId, email and
// role; nothing is persisted, so a token stays valid until it expires.
package jwt
