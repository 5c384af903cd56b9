package goAccount

import (
	"context"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/store"
)

func (e *Engine) GetProfile(ctx context.Context, accountID string) (Account, error) {
	if !e.ready() {
		return Account{}, ErrEngineNotReady
	}
	account, err := internalflows.RunGetProfile(ctx, accountID, e.profileFlowDeps())
	if err != nil {
		return Account{}, err
	}
	return accountView(account), nil
}

// UpdateProfile changes name and phone. Nil fields are left as they are.
func (e *Engine) UpdateProfile(ctx context.Context, accountID string, update ProfileUpdate) (Account, error) {
	if !e.ready() {
		return Account{}, ErrEngineNotReady
	}
	account, err := internalflows.RunUpdateProfile(ctx, accountID, internalflows.ProfileUpdate{
		Name:  update.Name,
		Phone: update.Phone,
	}, e.profileFlowDeps())
	if err != nil {
		return Account{}, err
	}
	return accountView(account), nil
}

// ListAccounts pages through accounts, newest first. A limit outside 1..100
// falls back to 20. Callers enforce the admin role.
func (e *Engine) ListAccounts(ctx context.Context, offset, limit int) ([]Account, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	accounts, err := internalflows.RunListAccounts(ctx, store.ListOptions{Offset: offset, Limit: limit}, e.profileFlowDeps())
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountView(a))
	}
	return out, nil
}

func (e *Engine) profileFlowDeps() internalflows.ProfileDeps {
	return internalflows.ProfileDeps{
		Common:  e.commonDeps(),
		Metrics: internalflows.ProfileMetrics{Update: int(MetricProfileUpdate)},
		Events:  internalflows.ProfileEvents{Update: auditEventProfileUpdate},
	}
}
