package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/store"
)

type LoginResult struct {
	Account store.Account
	Tokens  jwt.TokenPair
}

type LoginMetrics struct {
	LoginSuccess    int
	LoginFailure    int
	PasswordUpgrade int
	RefreshSuccess  int
	RefreshFailure  int
}

type LoginEvents struct {
	LoginSuccess   string
	LoginFailure   string
	RefreshSuccess string
	RefreshInvalid string
}

type LoginDeps struct {
	Common
	Credentials Credentials
	Tokens      Tokens

	Metrics LoginMetrics
	Events  LoginEvents
}

// RunLogin checks email and password and issues a token pair. Unknown email
// and wrong password fail identically, and both pay for one hash check.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*LoginResult, error) {
	normalizeCommon(&deps.Common)
	if deps.Store == nil || deps.Credentials.VerifyPassword == nil || deps.Tokens.Issue == nil {
		return nil, deps.Errors.EngineNotReady
	}
	burn := deps.Credentials.BurnPassword
	if burn == nil {
		burn = func(string) {}
	}

	email = store.NormalizeEmail(email)
	fail := func(accountID string, err error, reason string) (*LoginResult, error) {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, accountID, err, func() map[string]string {
			return map[string]string{
				"email":  email,
				"reason": reason,
			}
		})
		return nil, err
	}

	if email == "" || password == "" {
		burn(password)
		return fail("", deps.Errors.InvalidCredentials, "missing_fields")
	}

	account, err := deps.Store.GetByEmail(ctx, email, store.WithSecrets())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			burn(password)
			return fail("", deps.Errors.InvalidCredentials, "unknown_email")
		}
		return fail("", deps.MapStoreError(err), "store_read_failed")
	}

	if !deps.Credentials.VerifyPassword(account, password) {
		return fail(account.ID, deps.Errors.InvalidCredentials, "wrong_password")
	}

	if deps.Credentials.UpgradeOnLogin && deps.Credentials.NeedsUpgrade != nil &&
		deps.Credentials.SetPassword != nil && deps.Credentials.NeedsUpgrade(account) {
		upgradePassword(ctx, deps, account, password)
	}

	tokens, err := deps.Tokens.Issue(account)
	if err != nil {
		return fail(account.ID, fmt.Errorf("issue tokens: %w", err), "token_issue_failed")
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, account.ID, nil, nil)

	return &LoginResult{
		Account: store.Project(account, nil),
		Tokens:  tokens,
	}, nil
}

// upgradePassword re-hashes with the current parameters. It only replaces
// the hash that was just verified and never fails the login.
func upgradePassword(ctx context.Context, deps LoginDeps, account store.Account, password string) {
	setPassword, err := deps.Credentials.SetPassword(password)
	if err != nil {
		deps.Warn(ctx, "password upgrade hash failed", "account_id", account.ID, "error", err)
		return
	}
	verified := account.PasswordHash
	_, err = deps.Store.Update(ctx, account.ID, func(a *store.Account) error {
		if a.PasswordHash != verified {
			return errStaleHash
		}
		setPassword(a)
		return nil
	})
	if err != nil {
		deps.Warn(ctx, "password upgrade skipped", "account_id", account.ID, "error", err)
		return
	}
	deps.MetricInc(deps.Metrics.PasswordUpgrade)
}

var errStaleHash = errors.New("password hash changed since verification")

// RunRefresh exchanges a valid refresh token for a new pair carrying the
// account's current email and role.
func RunRefresh(ctx context.Context, refreshToken string, deps LoginDeps) (jwt.TokenPair, error) {
	normalizeCommon(&deps.Common)
	if deps.Store == nil || deps.Tokens.Issue == nil || deps.Tokens.VerifyRefresh == nil {
		return jwt.TokenPair{}, deps.Errors.EngineNotReady
	}

	fail := func(accountID string, err error, reason string) (jwt.TokenPair, error) {
		deps.MetricInc(deps.Metrics.RefreshFailure)
		deps.EmitAudit(ctx, deps.Events.RefreshInvalid, false, accountID, err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return jwt.TokenPair{}, err
	}

	accountID, err := deps.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return fail("", deps.Errors.TokenInvalid, "invalid_token")
	}

	account, err := deps.Store.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(accountID, deps.Errors.TokenInvalid, "account_missing")
		}
		return fail(accountID, deps.MapStoreError(err), "store_read_failed")
	}

	tokens, err := deps.Tokens.Issue(account)
	if err != nil {
		return fail(accountID, fmt.Errorf("issue tokens: %w", err), "token_issue_failed")
	}

	deps.MetricInc(deps.Metrics.RefreshSuccess)
	deps.EmitAudit(ctx, deps.Events.RefreshSuccess, true, account.ID, nil, nil)
	return tokens, nil
}
