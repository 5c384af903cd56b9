package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccount/store"
)

type ProfileUpdate struct {
	Name  *string
	Phone *string
}

type ProfileMetrics struct {
	Update int
}

type ProfileEvents struct {
	Update string
}

type ProfileDeps struct {
	Common

	Metrics ProfileMetrics
	Events  ProfileEvents
}

// RunGetProfile loads an account with the default projection.
func RunGetProfile(ctx context.Context, accountID string, deps ProfileDeps) (store.Account, error) {
	normalizeCommon(&deps.Common)
	if deps.Store == nil {
		return store.Account{}, deps.Errors.EngineNotReady
	}
	if accountID == "" {
		return store.Account{}, deps.Errors.AccountNotFound
	}

	account, err := deps.Store.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Account{}, deps.Errors.AccountNotFound
		}
		return store.Account{}, deps.MapStoreError(err)
	}
	return account, nil
}

// RunUpdateProfile applies the non-nil fields of update. Email, role,
// verification state and the password are never touched here.
func RunUpdateProfile(ctx context.Context, accountID string, update ProfileUpdate, deps ProfileDeps) (store.Account, error) {
	normalizeCommon(&deps.Common)
	if deps.Store == nil {
		return store.Account{}, deps.Errors.EngineNotReady
	}

	fail := func(err error, reason string) (store.Account, error) {
		deps.EmitAudit(ctx, deps.Events.Update, false, accountID, err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return store.Account{}, err
	}

	if accountID == "" {
		return fail(deps.Errors.AccountNotFound, "missing_account")
	}

	updated, err := deps.Store.Update(ctx, accountID, func(a *store.Account) error {
		if update.Name != nil {
			a.Name = *update.Name
		}
		if update.Phone != nil {
			a.Phone = *update.Phone
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(deps.Errors.AccountNotFound, "unknown_account")
		}
		return fail(deps.MapStoreError(err), "store_update_failed")
	}

	deps.MetricInc(deps.Metrics.Update)
	deps.EmitAudit(ctx, deps.Events.Update, true, accountID, nil, func() map[string]string {
		return map[string]string{
			"name_changed":  boolString(update.Name != nil),
			"phone_changed": boolString(update.Phone != nil),
		}
	})
	return updated, nil
}

// RunListAccounts pages through accounts, newest first.
func RunListAccounts(ctx context.Context, opts store.ListOptions, deps ProfileDeps) ([]store.Account, error) {
	normalizeCommon(&deps.Common)
	if deps.Store == nil {
		return nil, deps.Errors.EngineNotReady
	}
	accounts, err := deps.Store.List(ctx, opts.Normalize())
	if err != nil {
		return nil, deps.MapStoreError(err)
	}
	return accounts, nil
}
