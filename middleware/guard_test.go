package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/store/memory"
	"golang.org/x/crypto/bcrypt"
)

type fakeVerifier struct {
	calls  int
	claims goAccount.Claims
	err    error
}

func (f *fakeVerifier) VerifyAccessToken(_ context.Context, token string) (goAccount.Claims, error) {
	f.calls++
	if f.err != nil || token != "good" {
		return goAccount.Claims{}, errors.New("bad token")
	}
	return f.claims, nil
}

func claimsEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := goAccount.ClaimsFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(claims.AccountID + ":" + string(claims.Role)))
	})
}

func serve(h http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) goAccount.Envelope {
	t.Helper()
	var env goAccount.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	v := &fakeVerifier{}
	h := Authenticate(v)(claimsEcho(t))

	for _, header := range []string{"", "Basic abc", "bearer good", "Token good"} {
		rec := serve(h, header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Success || env.Message != "Access denied. No token provided." {
			t.Fatalf("header %q: unexpected envelope %+v", header, env)
		}
	}
	if v.calls != 0 {
		t.Fatalf("expected verifier not to be called, got %d calls", v.calls)
	}
}

func TestAuthenticateRejectsInvalidToken(t *testing.T) {
	v := &fakeVerifier{}
	h := Authenticate(v)(claimsEcho(t))

	for _, header := range []string{"Bearer ", "Bearer nope"} {
		rec := serve(h, header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
		if env := decodeEnvelope(t, rec); env.Message != "Invalid or expired token." {
			t.Fatalf("header %q: unexpected message %q", header, env.Message)
		}
	}
	if r := serve(Authenticate(nil)(claimsEcho(t)), "Bearer good"); r.Code != http.StatusUnauthorized {
		t.Fatalf("expected nil verifier to reject, got %d", r.Code)
	}
}

func TestAuthenticateStoresClaims(t *testing.T) {
	v := &fakeVerifier{claims: goAccount.Claims{AccountID: "u1", Email: "u@example.com", Role: goAccount.RoleModerator}}
	r := serve(Authenticate(v)(claimsEcho(t)), "Bearer good")
	if r.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", r.Code)
	}
	if r.Body.String() != "u1:moderator" {
		t.Fatalf("unexpected body %q", r.Body.String())
	}
}

func TestOptionalAuthenticateNeverRejects(t *testing.T) {
	v := &fakeVerifier{claims: goAccount.Claims{AccountID: "u2", Role: goAccount.RoleUser}}
	h := OptionalAuthenticate(v)(claimsEcho(t))

	if r := serve(h, ""); r.Code != http.StatusNoContent {
		t.Fatalf("expected anonymous pass-through, got %d", r.Code)
	}
	if r := serve(h, "Bearer nope"); r.Code != http.StatusNoContent {
		t.Fatalf("expected invalid token to pass anonymously, got %d", r.Code)
	}
	if r := serve(h, "Bearer good"); r.Body.String() != "u2:user" {
		t.Fatalf("expected claims attached, got %q", r.Body.String())
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		in      string
		token   string
		present bool
	}{
		{"", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", true},
		{"Bearer abc", "abc", true},
		{"Bearer abc def", "abc", true},
	}
	for _, tc := range cases {
		token, present := bearerToken(tc.in)
		if token != tc.token || present != tc.present {
			t.Fatalf("bearerToken(%q) = (%q, %v), want (%q, %v)", tc.in, token, present, tc.token, tc.present)
		}
	}
}

func TestAuthenticateWithEngine(t *testing.T) {
	cfg := goAccount.DefaultConfig()
	cfg.JWT.AccessSecret = "middleware-access-secret"
	cfg.JWT.RefreshSecret = "middleware-refresh-secret"
	cfg.Password.BcryptCost = bcrypt.MinCost
	cfg.Audit.Enabled = false

	engine, err := goAccount.New().WithConfig(cfg).WithStore(memory.New(nil)).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	if _, err := engine.SeedAdmin(ctx, "root@example.com", "secret123", "Root"); err != nil {
		t.Fatalf("SeedAdmin failed: %v", err)
	}
	login, err := engine.Login(ctx, "root@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	h := Authenticate(engine)(RequireAdmin()(claimsEcho(t)))
	if r := serve(h, "Bearer "+login.Tokens.AccessToken); r.Code != http.StatusOK {
		t.Fatalf("expected admin access, got %d %s", r.Code, r.Body.String())
	}
	if r := serve(h, "Bearer "+login.Tokens.RefreshToken); r.Code != http.StatusUnauthorized {
		t.Fatalf("expected refresh token to be rejected as access token, got %d", r.Code)
	}
}
