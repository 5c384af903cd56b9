package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/store"
)

type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     store.Role
}

type RegisterResult struct {
	Account store.Account
	Tokens  jwt.TokenPair
	OTPSent bool
}

type RegisterMetrics struct {
	Success   int
	Duplicate int
	Failure   int
}

type RegisterEvents struct {
	Success   string
	Failure   string
	Duplicate string
}

type RegisterDeps struct {
	Common
	Secrets     Secrets
	Credentials Credentials
	Mail        Mail
	Tokens      Tokens

	NewID       func() string
	DefaultRole store.Role
	// Verified marks the account verified at creation and skips the OTP.
	Verified bool

	Metrics RegisterMetrics
	Events  RegisterEvents
}

// RunRegister creates an unverified account with an open OTP challenge,
// mails the code and issues a token pair. Mail failure does not fail the call.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) (*RegisterResult, error) {
	normalizeCommon(&deps.Common)
	normalizeMail(&deps.Mail)
	if deps.Store == nil || deps.NewID == nil || deps.Credentials.SetPassword == nil ||
		deps.Secrets.NewOTP == nil || deps.Secrets.OTPExpiry == nil || deps.Tokens.Issue == nil {
		return nil, deps.Errors.EngineNotReady
	}

	email := store.NormalizeEmail(req.Email)
	fail := func(err error, reason string) (*RegisterResult, error) {
		deps.MetricInc(deps.Metrics.Failure)
		deps.EmitAudit(ctx, deps.Events.Failure, false, "", err, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": reason,
			}
		})
		return nil, err
	}

	if email == "" || req.Password == "" {
		return fail(deps.Errors.InvalidRequest, "missing_fields")
	}
	role := req.Role
	if role == "" {
		role = deps.DefaultRole
	}
	if !role.Valid() {
		return fail(deps.Errors.InvalidRole, "invalid_role")
	}

	setPassword, err := deps.Credentials.SetPassword(req.Password)
	if err != nil {
		return fail(fmt.Errorf("hash password: %w", err), "hash_failed")
	}

	account := store.Account{
		ID:         deps.NewID(),
		Email:      email,
		Name:       req.Name,
		Phone:      req.Phone,
		Role:       role,
		IsVerified: deps.Verified,
	}
	setPassword(&account)

	var code string
	if !deps.Verified {
		code, err = deps.Secrets.NewOTP()
		if err != nil {
			return fail(fmt.Errorf("generate otp: %w", err), "otp_failed")
		}
		account.OTP = &store.Challenge{Secret: code, ExpiresAt: deps.Secrets.OTPExpiry()}
	}

	if err := deps.Store.Create(ctx, &account); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			deps.MetricInc(deps.Metrics.Duplicate)
			deps.EmitAudit(ctx, deps.Events.Duplicate, false, "", deps.Errors.DuplicateEmail, func() map[string]string {
				return map[string]string{
					"email": email,
				}
			})
			return nil, deps.Errors.DuplicateEmail
		}
		return fail(deps.MapStoreError(err), "store_create_failed")
	}

	otpSent := false
	if !deps.Verified {
		otpSent = send(ctx, deps.Common, deps.Mail, "otp", account.ID, func() error {
			return deps.Mail.SendOTP(ctx, account, code)
		})
	}

	tokens, err := deps.Tokens.Issue(account)
	if err != nil {
		return fail(fmt.Errorf("issue tokens: %w", err), "token_issue_failed")
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, account.ID, nil, func() map[string]string {
		return map[string]string{
			"role":     string(account.Role),
			"otp_sent": boolString(otpSent),
		}
	})

	return &RegisterResult{
		Account: store.Project(account, nil),
		Tokens:  tokens,
		OTPSent: otpSent,
	}, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
