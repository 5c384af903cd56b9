package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goAccount/store"
)

type VerificationMetrics struct {
	VerifySuccess int
	VerifyFailure int
	ResendSuccess int
	ResendFailure int
}

type VerificationEvents struct {
	Verify string
	Resend string
}

type VerificationDeps struct {
	Common
	Secrets Secrets
	Mail    Mail

	Metrics VerificationMetrics
	Events  VerificationEvents
}

// RunVerifyOTP consumes the open OTP challenge of the account registered
// under email. Checks run in order: account exists, challenge open, not
// expired, code matches. The account becomes verified and the challenge is
// cleared in the same atomic update.
func RunVerifyOTP(ctx context.Context, email, code string, deps VerificationDeps) (store.Account, error) {
	normalizeCommon(&deps.Common)
	normalizeSecrets(&deps.Secrets, deps.Now)
	normalizeMail(&deps.Mail)
	if deps.Store == nil {
		return store.Account{}, deps.Errors.EngineNotReady
	}

	email = store.NormalizeEmail(email)
	fail := func(accountID string, err error, reason string) (store.Account, error) {
		deps.MetricInc(deps.Metrics.VerifyFailure)
		deps.EmitAudit(ctx, deps.Events.Verify, false, accountID, err, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": reason,
			}
		})
		return store.Account{}, err
	}

	if email == "" || code == "" {
		return fail("", deps.Errors.InvalidRequest, "missing_fields")
	}

	current, err := deps.Store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail("", deps.Errors.AccountNotFound, "unknown_email")
		}
		return fail("", deps.MapStoreError(err), "store_read_failed")
	}

	updated, err := deps.Store.Update(ctx, current.ID, func(a *store.Account) error {
		switch {
		case a.OTP == nil:
			return deps.Errors.OTPNotFound
		case deps.Secrets.IsExpired(a.OTP.ExpiresAt):
			return deps.Errors.OTPExpired
		case !deps.Secrets.Equal(a.OTP.Secret, code):
			return deps.Errors.OTPMismatch
		}
		a.IsVerified = true
		a.OTP = nil
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, deps.Errors.OTPNotFound):
			return fail(current.ID, err, "no_challenge")
		case errors.Is(err, deps.Errors.OTPExpired):
			return fail(current.ID, err, "expired")
		case errors.Is(err, deps.Errors.OTPMismatch):
			return fail(current.ID, err, "mismatch")
		case errors.Is(err, store.ErrNotFound):
			return fail(current.ID, deps.Errors.AccountNotFound, "account_vanished")
		}
		return fail(current.ID, deps.MapStoreError(err), "store_update_failed")
	}

	welcomed := send(ctx, deps.Common, deps.Mail, "welcome", updated.ID, func() error {
		return deps.Mail.SendWelcome(ctx, updated)
	})

	deps.MetricInc(deps.Metrics.VerifySuccess)
	deps.EmitAudit(ctx, deps.Events.Verify, true, updated.ID, nil, func() map[string]string {
		return map[string]string{
			"welcome_sent": boolString(welcomed),
		}
	})
	return updated, nil
}

// RunResendOTP replaces any pending OTP of an unverified account with a fresh
// one and mails it. It reports whether the mail went out.
func RunResendOTP(ctx context.Context, email string, deps VerificationDeps) (bool, error) {
	normalizeCommon(&deps.Common)
	normalizeMail(&deps.Mail)
	if deps.Store == nil || deps.Secrets.NewOTP == nil || deps.Secrets.OTPExpiry == nil {
		return false, deps.Errors.EngineNotReady
	}

	email = store.NormalizeEmail(email)
	fail := func(accountID string, err error, reason string) (bool, error) {
		deps.MetricInc(deps.Metrics.ResendFailure)
		deps.EmitAudit(ctx, deps.Events.Resend, false, accountID, err, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": reason,
			}
		})
		return false, err
	}

	if email == "" {
		return fail("", deps.Errors.InvalidRequest, "missing_email")
	}

	current, err := deps.Store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail("", deps.Errors.AccountNotFound, "unknown_email")
		}
		return fail("", deps.MapStoreError(err), "store_read_failed")
	}
	if current.IsVerified {
		return fail(current.ID, deps.Errors.AlreadyVerified, "already_verified")
	}

	code, err := deps.Secrets.NewOTP()
	if err != nil {
		return fail(current.ID, fmt.Errorf("generate otp: %w", err), "otp_failed")
	}

	updated, err := deps.Store.Update(ctx, current.ID, func(a *store.Account) error {
		if a.IsVerified {
			return deps.Errors.AlreadyVerified
		}
		a.OTP = &store.Challenge{Secret: code, ExpiresAt: deps.Secrets.OTPExpiry()}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, deps.Errors.AlreadyVerified):
			return fail(current.ID, err, "already_verified")
		case errors.Is(err, store.ErrNotFound):
			return fail(current.ID, deps.Errors.AccountNotFound, "account_vanished")
		}
		return fail(current.ID, deps.MapStoreError(err), "store_update_failed")
	}

	sent := send(ctx, deps.Common, deps.Mail, "otp", updated.ID, func() error {
		return deps.Mail.SendOTP(ctx, updated, code)
	})

	deps.MetricInc(deps.Metrics.ResendSuccess)
	deps.EmitAudit(ctx, deps.Events.Resend, true, updated.ID, nil, func() map[string]string {
		return map[string]string{
			"otp_sent": boolString(sent),
		}
	})
	return sent, nil
}
