package goAccount

import (
	"context"
	"time"

	internalflows "github.com/MrEthical07/goAccount/internal/flows"
)

// Login verifies email and password and issues a token pair. Unknown email
// and wrong password both return ErrInvalidCredentials. Verification is not
// required to log in.
func (e *Engine) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if !e.ready() {
		return LoginResult{}, ErrEngineNotReady
	}
	res, err := internalflows.RunLogin(ctx, email, password, e.loginFlowDeps())
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		Account: accountView(res.Account),
		Tokens:  res.Tokens,
	}, nil
}

// RefreshTokens exchanges a refresh token for a new pair carrying the
// account's current email and role. Tokens are stateless: the presented
// refresh token stays valid until it expires.
func (e *Engine) RefreshTokens(ctx context.Context, refreshToken string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}
	return internalflows.RunRefresh(ctx, refreshToken, e.loginFlowDeps())
}

// VerifyAccessToken validates an access token and returns its claims. Every
// failure is ErrTokenInvalid. No store lookup is made.
func (e *Engine) VerifyAccessToken(ctx context.Context, token string) (Claims, error) {
	if !e.ready() {
		return Claims{}, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricValidateLatency, time.Since(start))
		}()
	}

	claims, err := e.tokens.VerifyAccess(token)
	if err != nil {
		e.metricInc(MetricTokenRejected)
		e.logger.DebugContext(ctx, "access token rejected", "error", err)
		return Claims{}, ErrTokenInvalid
	}
	return Claims{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		Role:      Role(claims.Role),
	}, nil
}

func (e *Engine) loginFlowDeps() internalflows.LoginDeps {
	return internalflows.LoginDeps{
		Common:      e.commonDeps(),
		Credentials: e.credentialDeps(),
		Tokens:      e.tokenDeps(),
		Metrics: internalflows.LoginMetrics{
			LoginSuccess:    int(MetricLoginSuccess),
			LoginFailure:    int(MetricLoginFailure),
			PasswordUpgrade: int(MetricPasswordUpgraded),
			RefreshSuccess:  int(MetricRefreshSuccess),
			RefreshFailure:  int(MetricRefreshFailure),
		},
		Events: internalflows.LoginEvents{
			LoginSuccess:   auditEventLoginSuccess,
			LoginFailure:   auditEventLoginFailure,
			RefreshSuccess: auditEventRefreshSuccess,
			RefreshInvalid: auditEventRefreshInvalid,
		},
	}
}
