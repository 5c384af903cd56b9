package goAccount

import (
	"context"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
)

// Register creates an unverified account, opens an OTP challenge, mails the
// code and issues a token pair. A mail failure is reported through OTPSent
// and never fails registration.
//
// Register returns ErrDuplicateEmail when the email is taken and
// ErrInvalidRole for roles outside user, admin and moderator.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (RegisterResult, error) {
	if !e.ready() {
		return RegisterResult{}, ErrEngineNotReady
	}

	res, err := internalflows.RunRegister(ctx, internalflows.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     req.Role,
	}, e.registerFlowDeps(false))
	if err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{
		Account: accountView(res.Account),
		Tokens:  res.Tokens,
		OTPSent: res.OTPSent,
	}, nil
}

// SeedAdmin creates an already verified admin account without an OTP
// challenge. It is meant for bootstrap tooling and returns ErrDuplicateEmail
// when the email exists.
func (e *Engine) SeedAdmin(ctx context.Context, email, password, name string) (Account, error) {
	if !e.ready() {
		return Account{}, ErrEngineNotReady
	}

	res, err := internalflows.RunRegister(ctx, internalflows.RegisterRequest{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     RoleAdmin,
	}, e.registerFlowDeps(true))
	if err != nil {
		return Account{}, err
	}
	return accountView(res.Account), nil
}

func (e *Engine) registerFlowDeps(seed bool) internalflows.RegisterDeps {
	deps := internalflows.RegisterDeps{
		Common:      e.commonDeps(),
		Secrets:     e.secretDeps(),
		Credentials: e.credentialDeps(),
		Mail:        e.mailDeps(),
		Tokens:      e.tokenDeps(),
		NewID:       e.newID,
		DefaultRole: e.config.Account.DefaultRole,
		Verified:    seed,
		Metrics: internalflows.RegisterMetrics{
			Success:   int(MetricRegisterSuccess),
			Duplicate: int(MetricRegisterDuplicate),
			Failure:   int(MetricRegisterFailure),
		},
		Events: internalflows.RegisterEvents{
			Success:   auditEventRegisterSuccess,
			Failure:   auditEventRegisterFailure,
			Duplicate: auditEventRegisterDuplicate,
		},
	}
	if seed {
		deps.Metrics.Success = int(MetricAdminSeeded)
		deps.Events.Success = auditEventAdminSeeded
	}
	return deps
}
