package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goAccount/store"
)

type ForgotResult struct {
	AccountFound bool
	EmailSent    bool
	ResetToken   string
}

type PasswordMetrics struct {
	ChangeSuccess int
	ChangeFailure int
	ResetRequest  int
	ResetSuccess  int
	ResetFailure  int
}

type PasswordEvents struct {
	ChangeSuccess string
	ChangeFailure string
	ResetRequest  string
	ResetConfirm  string
}

type PasswordDeps struct {
	Common
	Secrets     Secrets
	Credentials Credentials
	Mail        Mail

	ExposeResetToken bool

	Metrics PasswordMetrics
	Events  PasswordEvents
}

// RunChangePassword replaces the password of an authenticated account after
// checking the current one.
func RunChangePassword(ctx context.Context, accountID, current, next string, deps PasswordDeps) error {
	normalizeCommon(&deps.Common)
	if deps.Store == nil || deps.Credentials.VerifyPassword == nil || deps.Credentials.SetPassword == nil {
		return deps.Errors.EngineNotReady
	}

	fail := func(err error, reason string) error {
		deps.MetricInc(deps.Metrics.ChangeFailure)
		deps.EmitAudit(ctx, deps.Events.ChangeFailure, false, accountID, err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return err
	}

	if accountID == "" || next == "" {
		return fail(deps.Errors.InvalidRequest, "missing_fields")
	}

	account, err := deps.Store.Get(ctx, accountID, store.WithSecrets())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(deps.Errors.AccountNotFound, "unknown_account")
		}
		return fail(deps.MapStoreError(err), "store_read_failed")
	}
	if !deps.Credentials.VerifyPassword(account, current) {
		return fail(deps.Errors.WrongPassword, "wrong_current_password")
	}

	setPassword, err := deps.Credentials.SetPassword(next)
	if err != nil {
		return fail(fmt.Errorf("hash password: %w", err), "hash_failed")
	}

	verified := account.PasswordHash
	_, err = deps.Store.Update(ctx, accountID, func(a *store.Account) error {
		if a.PasswordHash != verified {
			return deps.Errors.WrongPassword
		}
		setPassword(a)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, deps.Errors.WrongPassword):
			return fail(err, "password_changed_concurrently")
		case errors.Is(err, store.ErrNotFound):
			return fail(deps.Errors.AccountNotFound, "account_vanished")
		}
		return fail(deps.MapStoreError(err), "store_update_failed")
	}

	deps.MetricInc(deps.Metrics.ChangeSuccess)
	deps.EmitAudit(ctx, deps.Events.ChangeSuccess, true, accountID, nil, nil)
	return nil
}

// RunForgotPassword opens a reset challenge and mails the token. Unknown
// emails succeed with AccountFound false and no side effects.
func RunForgotPassword(ctx context.Context, email string, deps PasswordDeps) (ForgotResult, error) {
	normalizeCommon(&deps.Common)
	normalizeMail(&deps.Mail)
	if deps.Store == nil || deps.Secrets.NewResetToken == nil || deps.Secrets.ResetExpiry == nil {
		return ForgotResult{}, deps.Errors.EngineNotReady
	}

	email = store.NormalizeEmail(email)
	deps.MetricInc(deps.Metrics.ResetRequest)
	audit := func(accountID string, success bool, err error, reason string) {
		deps.EmitAudit(ctx, deps.Events.ResetRequest, success, accountID, err, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": reason,
			}
		})
	}

	if email == "" {
		audit("", false, deps.Errors.InvalidRequest, "missing_email")
		return ForgotResult{}, deps.Errors.InvalidRequest
	}

	account, err := deps.Store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			audit("", true, nil, "unknown_email")
			return ForgotResult{}, nil
		}
		mapped := deps.MapStoreError(err)
		audit("", false, mapped, "store_read_failed")
		return ForgotResult{}, mapped
	}

	token, err := deps.Secrets.NewResetToken()
	if err != nil {
		err = fmt.Errorf("generate reset token: %w", err)
		audit(account.ID, false, err, "token_failed")
		return ForgotResult{}, err
	}

	updated, err := deps.Store.Update(ctx, account.ID, func(a *store.Account) error {
		a.Reset = &store.Challenge{Secret: token, ExpiresAt: deps.Secrets.ResetExpiry()}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			audit("", true, nil, "account_vanished")
			return ForgotResult{}, nil
		}
		mapped := deps.MapStoreError(err)
		audit(account.ID, false, mapped, "store_update_failed")
		return ForgotResult{}, mapped
	}

	sent := send(ctx, deps.Common, deps.Mail, "password_reset", updated.ID, func() error {
		return deps.Mail.SendReset(ctx, updated, token)
	})
	audit(updated.ID, true, nil, "challenge_opened")

	result := ForgotResult{AccountFound: true, EmailSent: sent}
	if deps.ExposeResetToken {
		result.ResetToken = token
	}
	return result, nil
}

// RunResetPassword consumes an unexpired reset token and installs the new
// password. The token is cleared in the same atomic update.
func RunResetPassword(ctx context.Context, token, next string, deps PasswordDeps) error {
	normalizeCommon(&deps.Common)
	normalizeSecrets(&deps.Secrets, deps.Now)
	if deps.Store == nil || deps.Credentials.SetPassword == nil {
		return deps.Errors.EngineNotReady
	}

	fail := func(accountID string, err error, reason string) error {
		deps.MetricInc(deps.Metrics.ResetFailure)
		deps.EmitAudit(ctx, deps.Events.ResetConfirm, false, accountID, err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return err
	}

	if token == "" {
		return fail("", deps.Errors.ResetTokenInvalid, "missing_token")
	}
	if next == "" {
		return fail("", deps.Errors.InvalidRequest, "missing_password")
	}

	account, err := deps.Store.GetByResetToken(ctx, token, deps.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail("", deps.Errors.ResetTokenInvalid, "unknown_or_expired")
		}
		return fail("", deps.MapStoreError(err), "store_read_failed")
	}

	setPassword, err := deps.Credentials.SetPassword(next)
	if err != nil {
		return fail(account.ID, fmt.Errorf("hash password: %w", err), "hash_failed")
	}

	_, err = deps.Store.Update(ctx, account.ID, func(a *store.Account) error {
		if a.Reset == nil || !deps.Secrets.Equal(a.Reset.Secret, token) || deps.Secrets.IsExpired(a.Reset.ExpiresAt) {
			return deps.Errors.ResetTokenInvalid
		}
		setPassword(a)
		a.Reset = nil
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, deps.Errors.ResetTokenInvalid):
			return fail(account.ID, err, "consumed_concurrently")
		case errors.Is(err, store.ErrNotFound):
			return fail(account.ID, deps.Errors.ResetTokenInvalid, "account_vanished")
		}
		return fail(account.ID, deps.MapStoreError(err), "store_update_failed")
	}

	deps.MetricInc(deps.Metrics.ResetSuccess)
	deps.EmitAudit(ctx, deps.Events.ResetConfirm, true, account.ID, nil, nil)
	return nil
}
