package goAccount

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var sixDigits = regexp.MustCompile(`^[1-9][0-9]{5}$`)

func TestRegisterCreatesUnverifiedAccountWithOTP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.engine.Register(ctx, RegisterRequest{
		Email:    "  Alice@Example.com ",
		Password: "secret123",
		Name:     "Alice",
		Phone:    "+15551234567",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if res.Account.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", res.Account.Email)
	}
	if res.Account.Role != RoleUser {
		t.Fatalf("expected default role user, got %q", res.Account.Role)
	}
	if res.Account.IsVerified {
		t.Fatal("expected new account to be unverified")
	}
	if res.Account.ID == "" || res.Account.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps, got %+v", res.Account)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if !res.OTPSent {
		t.Fatal("expected OTPSent")
	}

	mail, ok := env.mailer.last("otp")
	if !ok {
		t.Fatal("expected otp mail")
	}
	if mail.To != "alice@example.com" || mail.Name != "Alice" {
		t.Fatalf("unexpected otp recipient %+v", mail)
	}
	if !sixDigits.MatchString(mail.Value) {
		t.Fatalf("expected 6 digit code, got %q", mail.Value)
	}

	stored := env.stored(t, "alice@example.com")
	if stored.PasswordHash == "secret123" || stored.PasswordHash == "" {
		t.Fatal("expected password to be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
	if stored.OTP == nil || stored.OTP.Secret != mail.Value {
		t.Fatalf("expected open otp challenge matching the mail, got %+v", stored.OTP)
	}
	if want := env.clock.Now().Add(10 * time.Minute); !stored.OTP.ExpiresAt.Equal(want) {
		t.Fatalf("expected otp expiry %v, got %v", want, stored.OTP.ExpiresAt)
	}
	if stored.Reset != nil {
		t.Fatal("expected no reset challenge")
	}

	claims, err := env.engine.VerifyAccessToken(ctx, res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken failed: %v", err)
	}
	if claims.AccountID != res.Account.ID || claims.Email != "alice@example.com" || claims.Role != RoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestRegisterDuplicateEmailIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.engine.Register(ctx, RegisterRequest{Email: "bob@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, err := env.engine.Register(ctx, RegisterRequest{Email: "BOB@example.com", Password: "other123"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if KindOf(err).HTTPStatus() != 400 {
		t.Fatalf("expected duplicate to map to 400, got %d", KindOf(err).HTTPStatus())
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricRegisterDuplicate]; got != 1 {
		t.Fatalf("expected one duplicate metric, got %d", got)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.Register(context.Background(), RegisterRequest{
		Email:    "carol@example.com",
		Password: "secret123",
		Role:     Role("superuser"),
	})
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestRegisterAcceptsExplicitRole(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.engine.Register(context.Background(), RegisterRequest{
		Email:    "mod@example.com",
		Password: "secret123",
		Role:     RoleModerator,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if res.Account.Role != RoleModerator {
		t.Fatalf("expected moderator, got %q", res.Account.Role)
	}
}

func TestRegisterSucceedsWhenMailFails(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.setFail(true)

	res, err := env.engine.Register(context.Background(), RegisterRequest{Email: "dan@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if res.OTPSent {
		t.Fatal("expected OTPSent=false when the mailer fails")
	}
	if stored := env.stored(t, "dan@example.com"); stored.OTP == nil {
		t.Fatal("expected otp challenge to stay open after mail failure")
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricMailFailure]; got != 1 {
		t.Fatalf("expected one mail failure metric, got %d", got)
	}
}

func TestRegisterWithoutMailerReportsNotSent(t *testing.T) {
	clock := newFakeClock()
	engine, err := New().
		WithConfig(testConfig()).
		WithStore(newMemoryStore(clock)).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	res, err := engine.Register(context.Background(), RegisterRequest{Email: "eve@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if res.OTPSent {
		t.Fatal("expected OTPSent=false without a mailer")
	}
}

func TestRegisterRequiresEmailAndPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.engine.Register(ctx, RegisterRequest{Password: "secret123"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for missing email, got %v", err)
	}
	if _, err := env.engine.Register(ctx, RegisterRequest{Email: "x@example.com"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for missing password, got %v", err)
	}
}

func TestSeedAdminCreatesVerifiedAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin, err := env.engine.SeedAdmin(ctx, "root@example.com", "admin1234", "Root")
	if err != nil {
		t.Fatalf("SeedAdmin failed: %v", err)
	}
	if admin.Role != RoleAdmin || !admin.IsVerified {
		t.Fatalf("expected verified admin, got %+v", admin)
	}
	if env.mailer.count("otp") != 0 {
		t.Fatal("expected no otp mail for seeded admin")
	}
	if stored := env.stored(t, "root@example.com"); stored.OTP != nil {
		t.Fatal("expected no otp challenge for seeded admin")
	}

	if _, err := env.engine.SeedAdmin(ctx, "ROOT@example.com", "admin1234", "Root"); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail on second seed, got %v", err)
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricAdminSeeded]; got != 1 {
		t.Fatalf("expected admin seeded metric 1, got %d", got)
	}
}

func TestZeroEngineIsNotReady(t *testing.T) {
	var e Engine
	if _, err := e.Register(context.Background(), RegisterRequest{Email: "a@b.c", Password: "x"}); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	var nilEngine *Engine
	if _, err := nilEngine.Login(context.Background(), "a@b.c", "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady from nil engine, got %v", err)
	}
}
