package goAccount_test

import (
	"context"
	"errors"
	"fmt"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/store/memory"
)

// codeMailer keeps the last OTP it was asked to send.
type codeMailer struct {
	code string
}

func (m *codeMailer) SendOTP(_ context.Context, _, _ string, code string) error {
	m.code = code
	return nil
}

func (m *codeMailer) SendPasswordReset(context.Context, string, string, string) error { return nil }

func (m *codeMailer) SendWelcome(context.Context, string, string) error { return nil }

func exampleEngine(mailer goAccount.Mailer) *goAccount.Engine {
	cfg := goAccount.DefaultConfig()
	cfg.JWT.AccessSecret = "example-access-secret"
	cfg.JWT.RefreshSecret = "example-refresh-secret"
	cfg.Password.BcryptCost = 4

	engine, err := goAccount.New().
		WithConfig(cfg).
		WithStore(memory.New(nil)).
		WithMailer(mailer).
		Build()
	if err != nil {
		panic(err)
	}
	return engine
}

// ExampleEngine_Register walks an account from registration to a verified
// login.
func ExampleEngine_Register() {
	ctx := context.Background()
	mailer := &codeMailer{}
	engine := exampleEngine(mailer)
	defer engine.Close()

	res, err := engine.Register(ctx, goAccount.RegisterRequest{
		Email:    "Alice@Example.com",
		Password: "correct-horse",
		Name:     "Alice",
	})
	if err != nil {
		fmt.Println("register:", err)
		return
	}
	fmt.Println(res.Account.Email, res.Account.IsVerified, res.OTPSent)

	account, err := engine.VerifyOTP(ctx, "alice@example.com", mailer.code)
	if err != nil {
		fmt.Println("verify:", err)
		return
	}
	fmt.Println(account.IsVerified)

	login, err := engine.Login(ctx, "alice@example.com", "correct-horse")
	if err != nil {
		fmt.Println("login:", err)
		return
	}
	claims, err := engine.VerifyAccessToken(ctx, login.Tokens.AccessToken)
	if err != nil {
		fmt.Println("token:", err)
		return
	}
	fmt.Println(claims.Email, claims.Role)
	// Output:
	// alice@example.com false true
	// true
	// alice@example.com user
}

// ExampleEngine_Login shows that unknown emails and wrong passwords fail the
// same way.
func ExampleEngine_Login() {
	ctx := context.Background()
	engine := exampleEngine(&codeMailer{})
	defer engine.Close()

	if _, err := engine.SeedAdmin(ctx, "admin@example.com", "admin123456", "Super Admin"); err != nil {
		fmt.Println("seed:", err)
		return
	}

	_, wrongPassword := engine.Login(ctx, "admin@example.com", "nope-nope")
	_, unknownEmail := engine.Login(ctx, "ghost@example.com", "admin123456")
	fmt.Println(errors.Is(wrongPassword, goAccount.ErrInvalidCredentials))
	fmt.Println(errors.Is(unknownEmail, goAccount.ErrInvalidCredentials))
	fmt.Println(goAccount.KindOf(wrongPassword).HTTPStatus())
	// Output:
	// true
	// true
	// 401
}

// ExampleEngine_MetricsSnapshot reads the in-process counters.
func ExampleEngine_MetricsSnapshot() {
	ctx := context.Background()
	engine := exampleEngine(&codeMailer{})
	defer engine.Close()

	_, _ = engine.Register(ctx, goAccount.RegisterRequest{Email: "bob@example.com", Password: "secret-1"})
	_, _ = engine.Register(ctx, goAccount.RegisterRequest{Email: "bob@example.com", Password: "secret-1"})

	snapshot := engine.MetricsSnapshot()
	fmt.Println(snapshot.Counters[goAccount.MetricRegisterSuccess], snapshot.Counters[goAccount.MetricRegisterDuplicate])
	// Output:
	// 1 1
}
