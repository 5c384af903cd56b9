package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
)

const (
	msgNoToken      = "Access denied. No token provided."
	msgInvalidToken = "Invalid or expired token."
)

// TokenVerifier checks an access token. *goAccount.Engine implements it.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (goAccount.Claims, error)
}

// Authenticate rejects requests without a valid bearer access token and
// stores the verified claims in the request context.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := bearerToken(r.Header.Get("Authorization"))
			if !present {
				reject(w, http.StatusUnauthorized, msgNoToken)
				return
			}
			if token == "" || verifier == nil {
				reject(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				reject(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}
			next.ServeHTTP(w, r.WithContext(goAccount.WithClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuthenticate attaches claims when a valid bearer token is present
// and otherwise passes the request through untouched.
func OptionalAuthenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := bearerToken(r.Header.Get("Authorization"))
			if present && token != "" && verifier != nil {
				if claims, err := verifier.VerifyAccessToken(r.Context(), token); err == nil {
					r = r.WithContext(goAccount.WithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken reports whether the header uses the Bearer scheme and returns
// the first token after it.
func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}
	fields := strings.Fields(value[len(bearer):])
	if len(fields) == 0 {
		return "", true
	}
	return fields[0], true
}

func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(goAccount.Envelope{Success: false, Message: message})
}
