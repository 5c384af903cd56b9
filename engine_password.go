package goAccount

import (
	"context"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
)

// ChangePassword replaces the password of an authenticated account after
// verifying the current one. It returns ErrAccountNotFound or
// ErrWrongPassword.
func (e *Engine) ChangePassword(ctx context.Context, accountID, current, next string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return internalflows.RunChangePassword(ctx, accountID, current, next, e.passwordFlowDeps())
}

// ForgotPassword opens a reset challenge and mails its token. Unknown emails
// succeed with AccountFound false and change nothing; HTTP callers must
// answer both cases the same way.
func (e *Engine) ForgotPassword(ctx context.Context, email string) (ForgotResult, error) {
	if !e.ready() {
		return ForgotResult{}, ErrEngineNotReady
	}
	res, err := internalflows.RunForgotPassword(ctx, email, e.passwordFlowDeps())
	if err != nil {
		return ForgotResult{}, err
	}
	return ForgotResult{
		AccountFound: res.AccountFound,
		EmailSent:    res.EmailSent,
		ResetToken:   res.ResetToken,
	}, nil
}

// ResetPassword consumes an open, unexpired reset token and installs next.
// Unknown, consumed and expired tokens all return ErrResetTokenInvalid.
func (e *Engine) ResetPassword(ctx context.Context, token, next string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return internalflows.RunResetPassword(ctx, token, next, e.passwordFlowDeps())
}

func (e *Engine) passwordFlowDeps() internalflows.PasswordDeps {
	return internalflows.PasswordDeps{
		Common:           e.commonDeps(),
		Secrets:          e.secretDeps(),
		Credentials:      e.credentialDeps(),
		Mail:             e.mailDeps(),
		ExposeResetToken: e.config.PasswordReset.ExposeToken,
		Metrics: internalflows.PasswordMetrics{
			ChangeSuccess: int(MetricPasswordChangeSuccess),
			ChangeFailure: int(MetricPasswordChangeFailure),
			ResetRequest:  int(MetricPasswordResetRequest),
			ResetSuccess:  int(MetricPasswordResetSuccess),
			ResetFailure:  int(MetricPasswordResetFailure),
		},
		Events: internalflows.PasswordEvents{
			ChangeSuccess: auditEventPasswordChange,
			ChangeFailure: auditEventPasswordChangeFail,
			ResetRequest:  auditEventPasswordResetRequest,
			ResetConfirm:  auditEventPasswordResetConfirm,
		},
	}
}
