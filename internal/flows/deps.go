package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/store"
)

// PasswordSetter installs an already computed password hash on an account.
type PasswordSetter func(*store.Account)

// Errors carries the host sentinel errors returned by flows.
type Errors struct {
	EngineNotReady     error
	InvalidRequest     error
	InvalidRole        error
	DuplicateEmail     error
	AccountNotFound    error
	OTPNotFound        error
	OTPExpired         error
	OTPMismatch        error
	AlreadyVerified    error
	InvalidCredentials error
	WrongPassword      error
	ResetTokenInvalid  error
	TokenInvalid       error
}

// Common groups the collaborators every flow needs.
type Common struct {
	Store         store.Store
	Now           func() time.Time
	MetricInc     func(int)
	EmitAudit     func(context.Context, string, bool, string, error, func() map[string]string)
	MapStoreError func(error) error
	Warn          func(context.Context, string, ...any)

	Errors Errors
}

// Secrets generates challenge secrets and judges their expiry.
type Secrets struct {
	NewOTP        func() (string, error)
	OTPExpiry     func() time.Time
	NewResetToken func() (string, error)
	ResetExpiry   func() time.Time
	IsExpired     func(time.Time) bool
	Equal         func(string, string) bool
}

// Credentials hashes and verifies passwords.
type Credentials struct {
	SetPassword    func(string) (PasswordSetter, error)
	VerifyPassword func(store.Account, string) bool
	BurnPassword   func(string)
	NeedsUpgrade   func(store.Account) bool
	UpgradeOnLogin bool
}

// Mail sends lifecycle messages. A nil func counts as a failed send.
type Mail struct {
	SendOTP     func(context.Context, store.Account, string) error
	SendReset   func(context.Context, store.Account, string) error
	SendWelcome func(context.Context, store.Account) error
	// Failure is the metric incremented for every failed send.
	Failure int
}

// Tokens issues and verifies token pairs.
type Tokens struct {
	Issue         func(store.Account) (jwt.TokenPair, error)
	VerifyRefresh func(string) (string, error)
}

func normalizeCommon(c *Common) {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.MetricInc == nil {
		c.MetricInc = func(int) {}
	}
	if c.EmitAudit == nil {
		c.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if c.MapStoreError == nil {
		c.MapStoreError = func(err error) error { return err }
	}
	if c.Warn == nil {
		c.Warn = func(context.Context, string, ...any) {}
	}
}

func normalizeSecrets(s *Secrets, now func() time.Time) {
	if s.IsExpired == nil {
		s.IsExpired = func(t time.Time) bool { return now().After(t) }
	}
	if s.Equal == nil {
		s.Equal = func(a, b string) bool { return a == b }
	}
}

var errMailerMissing = errors.New("mailer not configured")

func normalizeMail(m *Mail) {
	if m.SendOTP == nil {
		m.SendOTP = func(context.Context, store.Account, string) error { return errMailerMissing }
	}
	if m.SendReset == nil {
		m.SendReset = func(context.Context, store.Account, string) error { return errMailerMissing }
	}
	if m.SendWelcome == nil {
		m.SendWelcome = func(context.Context, store.Account) error { return errMailerMissing }
	}
}

// send runs one mail call and reports whether it succeeded. Failures are
// counted and logged but never surface to the caller.
func send(ctx context.Context, c Common, m Mail, kind, accountID string, fn func() error) bool {
	if err := fn(); err != nil {
		c.MetricInc(m.Failure)
		c.Warn(ctx, "mail delivery failed", "kind", kind, "account_id", accountID, "error", err)
		return false
	}
	return true
}
