package goAccount

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goAccount/password"
)

// LintSeverity ranks configuration warnings.
type LintSeverity uint8

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is one configuration setting that is valid but risky.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult holds every warning produced by Config.Lint.
type LintResult []LintWarning

func (r LintResult) Codes() []string {
	codes := make([]string, 0, len(r))
	for _, w := range r {
		codes = append(codes, w.Code)
	}
	return codes
}

// BySeverity returns the warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError joins the warnings at or above min into one error, or returns nil.
func (r LintResult) AsError(min LintSeverity) error {
	selected := r.BySeverity(min)
	if len(selected) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(selected))
	for _, w := range selected {
		msgs = append(msgs, w.Severity.String()+" "+w.Code+": "+w.Message)
	}
	return errors.New("config lint: " + strings.Join(msgs, "; "))
}

const minSecretBytes = 32

// Lint reports settings that pass Validate but weaken the deployment. It
// never fails; callers decide which severities to enforce.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.JWT.AccessSecret != "" && len(c.JWT.AccessSecret) < minSecretBytes {
		add("access_secret_short", LintHigh, "JWT AccessSecret is shorter than 256 bits")
	}
	if c.JWT.RefreshSecret != "" && len(c.JWT.RefreshSecret) < minSecretBytes {
		add("refresh_secret_short", LintHigh, "JWT RefreshSecret is shorter than 256 bits")
	}
	if c.JWT.Leeway > time.Minute {
		add("leeway_large", LintWarn, "JWT Leeway above 1m extends every token lifetime")
	}
	if c.JWT.AccessTTL > time.Hour {
		add("access_ttl_long", LintWarn, "access tokens cannot be revoked; keep AccessTTL at or below 1h")
	}
	if c.JWT.RefreshTTL > 30*24*time.Hour {
		add("refresh_ttl_long", LintWarn, "RefreshTTL above 30d")
	}

	switch password.Algorithm(c.Password.Algorithm) {
	case password.AlgorithmBcrypt:
		if c.Password.BcryptCost < password.DefaultBcryptCost {
			add("bcrypt_cost_low", LintWarn, "BcryptCost below 10")
		}
	case password.AlgorithmArgon2id:
		if c.Password.Argon2Memory < 64*1024 {
			add("argon2_memory_low", LintWarn, "Argon2Memory below 64 MB")
		}
	}

	if c.OTP.TTL > 30*time.Minute {
		add("otp_ttl_long", LintWarn, "OTP TTL above 30m widens the guessing window")
	}
	if c.PasswordReset.TTL > 24*time.Hour {
		add("reset_ttl_long", LintWarn, "PasswordReset TTL above 24h")
	}
	if c.PasswordReset.ExposeToken {
		add("reset_token_exposed", LintHigh, "reset tokens are returned to API callers; development only")
	}

	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "audit events are discarded")
	} else if c.Audit.DropIfFull {
		add("audit_drop_if_full", LintInfo, "audit events are dropped when the buffer is full")
	}

	return ws
}
