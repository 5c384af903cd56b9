package goAccount

import (
	"context"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
)

// VerifyOTP marks the account verified when code matches its open, unexpired
// challenge, then clears the challenge and sends a welcome mail. Checks run
// in order: account exists (ErrAccountNotFound), challenge open
// (ErrOTPNotFound), not expired (ErrOTPExpired), code matches
// (ErrOTPMismatch).
func (e *Engine) VerifyOTP(ctx context.Context, email, code string) (Account, error) {
	if !e.ready() {
		return Account{}, ErrEngineNotReady
	}
	account, err := internalflows.RunVerifyOTP(ctx, email, code, e.verificationFlowDeps())
	if err != nil {
		return Account{}, err
	}
	return accountView(account), nil
}

// ResendOTP replaces any pending code of an unverified account and mails the
// new one.
func (e *Engine) ResendOTP(ctx context.Context, email string) (ResendResult, error) {
	if !e.ready() {
		return ResendResult{}, ErrEngineNotReady
	}
	sent, err := internalflows.RunResendOTP(ctx, email, e.verificationFlowDeps())
	if err != nil {
		return ResendResult{}, err
	}
	return ResendResult{OTPSent: sent}, nil
}

func (e *Engine) verificationFlowDeps() internalflows.VerificationDeps {
	return internalflows.VerificationDeps{
		Common:  e.commonDeps(),
		Secrets: e.secretDeps(),
		Mail:    e.mailDeps(),
		Metrics: internalflows.VerificationMetrics{
			VerifySuccess: int(MetricOTPVerifySuccess),
			VerifyFailure: int(MetricOTPVerifyFailure),
			ResendSuccess: int(MetricOTPResendSuccess),
			ResendFailure: int(MetricOTPResendFailure),
		},
		Events: internalflows.VerificationEvents{
			Verify: auditEventOTPVerify,
			Resend: auditEventOTPResend,
		},
	}
}
