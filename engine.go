package goAccount

import (
	"context"
	"log/slog"
	"time"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/store"
)

// Engine runs the account lifecycle: registration, email verification,
// login, password change and reset, and profile management. An Engine is
// safe for concurrent use; its configuration is fixed by Build.
type Engine struct {
	config  Config
	store   store.Store
	mailer  Mailer
	tokens  *jwt.Manager
	creds   *credentials
	secrets secrets
	audit   *auditDispatcher
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Close flushes pending audit events. It does not close the store.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// AuditDroppedByEvent breaks AuditDropped down by audit event type, for
// example "login_failure".
func (e *Engine) AuditDroppedByEvent() map[string]uint64 {
	if e == nil {
		return map[string]uint64{}
	}
	return e.audit.DroppedByEvent()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Ping checks the account store.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if err := e.store.Ping(ctx); err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

/*
====================================
FLOW DEPENDENCIES
====================================
*/

func flowErrors() internalflows.Errors {
	return internalflows.Errors{
		EngineNotReady:     ErrEngineNotReady,
		InvalidRequest:     ErrInvalidRequest,
		InvalidRole:        ErrInvalidRole,
		DuplicateEmail:     ErrDuplicateEmail,
		AccountNotFound:    ErrAccountNotFound,
		OTPNotFound:        ErrOTPNotFound,
		OTPExpired:         ErrOTPExpired,
		OTPMismatch:        ErrOTPMismatch,
		AlreadyVerified:    ErrAlreadyVerified,
		InvalidCredentials: ErrInvalidCredentials,
		WrongPassword:      ErrWrongPassword,
		ResetTokenInvalid:  ErrResetTokenInvalid,
		TokenInvalid:       ErrTokenInvalid,
	}
}

func (e *Engine) commonDeps() internalflows.Common {
	if e == nil {
		return internalflows.Common{Errors: flowErrors()}
	}
	return internalflows.Common{
		Store:         e.store,
		Now:           e.now,
		MetricInc:     func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit:     e.emitAudit,
		MapStoreError: mapStoreError,
		Warn: func(ctx context.Context, msg string, args ...any) {
			e.logger.WarnContext(ctx, msg, args...)
		},
		Errors: flowErrors(),
	}
}

func (e *Engine) secretDeps() internalflows.Secrets {
	return internalflows.Secrets{
		NewOTP:        e.secrets.generateOTP,
		OTPExpiry:     e.secrets.otpExpiry,
		NewResetToken: e.secrets.generateResetToken,
		ResetExpiry:   e.secrets.resetTokenExpiry,
		IsExpired:     e.secrets.isExpired,
		Equal:         secretsEqual,
	}
}

func (e *Engine) credentialDeps() internalflows.Credentials {
	return internalflows.Credentials{
		SetPassword:    e.creds.setPassword,
		VerifyPassword: e.creds.verify,
		BurnPassword:   e.creds.burn,
		NeedsUpgrade:   e.creds.needsUpgrade,
		UpgradeOnLogin: e.config.Password.UpgradeOnLogin,
	}
}

// mailDeps adapts the Mailer to stored accounts. A missing Mailer leaves the
// funcs nil, which the flows count as failed sends.
func (e *Engine) mailDeps() internalflows.Mail {
	deps := internalflows.Mail{Failure: int(MetricMailFailure)}
	if e.mailer == nil {
		return deps
	}
	deps.SendOTP = func(ctx context.Context, a store.Account, code string) error {
		return e.mailer.SendOTP(ctx, a.Email, a.Name, code)
	}
	deps.SendReset = func(ctx context.Context, a store.Account, token string) error {
		return e.mailer.SendPasswordReset(ctx, a.Email, a.Name, token)
	}
	deps.SendWelcome = func(ctx context.Context, a store.Account) error {
		return e.mailer.SendWelcome(ctx, a.Email, a.Name)
	}
	return deps
}

func (e *Engine) tokenDeps() internalflows.Tokens {
	return internalflows.Tokens{
		Issue: e.issueTokens,
		VerifyRefresh: func(token string) (string, error) {
			claims, err := e.tokens.VerifyRefresh(token)
			if err != nil {
				return "", err
			}
			return claims.AccountID, nil
		},
	}
}

func (e *Engine) issueTokens(a store.Account) (jwt.TokenPair, error) {
	return e.tokens.Issue(jwt.Claims{
		AccountID: a.ID,
		Email:     a.Email,
		Role:      string(a.Role),
	})
}

func (e *Engine) ready() bool {
	return e != nil && e.store != nil && e.creds != nil && e.tokens != nil
}
