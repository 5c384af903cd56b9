package goAccount

import (
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/password"
	"golang.org/x/crypto/bcrypt"
)

// Config holds every engine setting. It is fixed once Build returns.
type Config struct {
	JWT           JWTConfig
	Password      PasswordConfig
	OTP           OTPConfig
	PasswordReset PasswordResetConfig
	Account       AccountConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the access and refresh tokens. The two secrets must
// differ.
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the hashing algorithm for new hashes. Existing hashes
// of either algorithm keep verifying; UpgradeOnLogin re-hashes them into the
// configured one after a successful login.
type PasswordConfig struct {
	Algorithm      string // "bcrypt" (default) or "argon2id"
	BcryptCost     int
	UpgradeOnLogin bool

	Argon2Memory      uint32
	Argon2Time        uint32
	Argon2Parallelism uint8
}

/*
====================================
CHALLENGE CONFIG
====================================
*/

// OTPConfig controls email verification codes.
type OTPConfig struct {
	TTL time.Duration
}

// PasswordResetConfig controls reset tokens. ExposeToken echoes the token in
// the ForgotPassword result and must stay off outside development.
type PasswordResetConfig struct {
	TTL         time.Duration
	ExposeToken bool
}

// AccountConfig controls defaults applied at registration.
type AccountConfig struct {
	DefaultRole Role
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline settings: 1h access tokens, 7d refresh
// tokens, bcrypt cost 10, 10 minute OTPs and 60 minute reset tokens. Secrets
// are left empty and must be provided.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Algorithm:         string(password.AlgorithmBcrypt),
			BcryptCost:        password.DefaultBcryptCost,
			Argon2Memory:      64 * 1024,
			Argon2Time:        3,
			Argon2Parallelism: 2,
		},
		OTP: OTPConfig{
			TTL: 10 * time.Minute,
		},
		PasswordReset: PasswordResetConfig{
			TTL: time.Hour,
		},
		Account: AccountConfig{
			DefaultRole: RoleUser,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessSecret == "" {
		return errors.New("JWT AccessSecret is required")
	}
	if c.JWT.RefreshSecret == "" {
		return errors.New("JWT RefreshSecret is required")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("JWT AccessSecret and RefreshSecret must differ")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be within [0, 2m]")
	}

	// Password
	switch password.Algorithm(c.Password.Algorithm) {
	case password.AlgorithmBcrypt, password.AlgorithmArgon2id:
	default:
		return errors.New("Password Algorithm must be 'bcrypt' or 'argon2id'")
	}
	if c.Password.BcryptCost < bcrypt.MinCost || c.Password.BcryptCost > bcrypt.MaxCost {
		return errors.New("Password BcryptCost must be within [4, 31]")
	}
	if c.Password.Algorithm == string(password.AlgorithmArgon2id) {
		if c.Password.Argon2Memory < 8*1024 {
			return errors.New("Password Argon2Memory must be >= 8192 KB")
		}
		if c.Password.Argon2Time < 1 || c.Password.Argon2Parallelism < 1 {
			return errors.New("Password Argon2Time and Argon2Parallelism must be >= 1")
		}
	}

	// Challenges
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}
	if c.PasswordReset.TTL <= 0 {
		return errors.New("PasswordReset TTL must be > 0")
	}

	if !c.Account.DefaultRole.Valid() {
		return errors.New("Account DefaultRole must be user, admin or moderator")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

func (c *Config) passwordConfig() password.Config {
	argon := password.DefaultArgon2Config()
	if c.Password.Argon2Memory > 0 {
		argon.Memory = c.Password.Argon2Memory
	}
	if c.Password.Argon2Time > 0 {
		argon.Time = c.Password.Argon2Time
	}
	if c.Password.Argon2Parallelism > 0 {
		argon.Parallelism = c.Password.Argon2Parallelism
	}
	return password.Config{
		Algorithm:  password.Algorithm(c.Password.Algorithm),
		BcryptCost: c.Password.BcryptCost,
		Argon2:     argon,
	}
}
