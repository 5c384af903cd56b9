// Package httpapi serves the account engine over HTTP with Echo.
//
// Every response uses the goAccount.Envelope shape. Request bodies are
// validated with go-playground/validator before they reach the engine, and
// failures list one field error per rejected field. Engine errors map to
// status codes through goAccount.KindOf; internal failures answer 500 without
// exposing their cause.
//
// Routes:
//
//	GET  /                          service banner
//	GET  /health                    store ping
//	GET  /metrics                   Prometheus text, when configured
//	POST /api/auth/register
//	POST /api/auth/login
//	POST /api/auth/verify-otp
//	POST /api/auth/resend-otp
//	POST /api/auth/forgot-password
//	POST /api/auth/reset-password
//	POST /api/auth/refresh-token
//	POST /api/auth/change-password  bearer
//	GET  /api/auth/profile          bearer
//	PUT  /api/auth/profile          bearer
//	GET  /api/auth/session          optional bearer
//	GET  /api/admin/accounts        admin
//	GET  /api/admin/accounts/:id    admin or moderator
package httpapi
