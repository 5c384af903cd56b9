package jwt

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTTL applies when an access lifetime is missing or unparseable.
	DefaultAccessTTL = time.Hour
	// DefaultRefreshTTL is the refresh lifetime used by default configs.
	DefaultRefreshTTL = 7 * 24 * time.Hour
	maxLeeway         = 2 * time.Minute
)

var (
	// ErrInvalidToken is returned for every token that fails verification:
	// malformed, wrongly signed, signed with the other secret, expired, or
	// using an unexpected algorithm.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidConfig wraps every NewManager validation failure.
	ErrInvalidConfig = errors.New("invalid token configuration")
)

// Config carries the signing material and lifetimes for both token kinds.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
	Now           func() time.Time
}

// Claims is the identity embedded in access and refresh tokens.
type Claims struct {
	AccountID string `json:"userId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair is an access token together with its refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Manager signs and verifies HS256 tokens. Access and refresh tokens use
// separate secrets so one kind can never pass as the other.
type Manager struct {
	config Config
}

// NewManager validates cfg. Both secrets are required and must differ.
func NewManager(cfg Config) (*Manager, error) {
	switch {
	case len(cfg.AccessSecret) == 0:
		return nil, fmt.Errorf("%w: access secret is required", ErrInvalidConfig)
	case len(cfg.RefreshSecret) == 0:
		return nil, fmt.Errorf("%w: refresh secret is required", ErrInvalidConfig)
	case bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret):
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", ErrInvalidConfig)
	case cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0:
		return nil, fmt.Errorf("%w: token lifetimes must be positive", ErrInvalidConfig)
	case cfg.Leeway < 0 || cfg.Leeway > maxLeeway:
		return nil, fmt.Errorf("%w: leeway must be within [0, %s]", ErrInvalidConfig, maxLeeway)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{config: cfg}, nil
}

// Issue signs an access and a refresh token for the identity in c. Registered
// claims on c are ignored and replaced.
func (m *Manager) Issue(c Claims) (TokenPair, error) {
	now := m.config.Now()

	access, err := m.sign(c, now, m.config.AccessTTL, m.config.AccessSecret)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.sign(c, now, m.config.RefreshTTL, m.config.RefreshSecret)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess checks an access token and returns its claims.
func (m *Manager) VerifyAccess(token string) (*Claims, error) {
	return m.verify(token, m.config.AccessSecret)
}

// VerifyRefresh checks a refresh token and returns its claims.
func (m *Manager) VerifyRefresh(token string) (*Claims, error) {
	return m.verify(token, m.config.RefreshSecret)
}

func (m *Manager) sign(c Claims, now time.Time, ttl time.Duration, secret []byte) (string, error) {
	claims := Claims{
		AccountID: c.AccountID,
		Email:     c.Email,
		Role:      c.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.AccountID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *Manager) verify(token string, secret []byte) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.config.Now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.AccountID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseDuration reads "<int><unit>" where unit is s, m, h or d. Anything else,
// including zero, negative values and overflow, falls back to one hour.
func ParseDuration(s string) time.Duration {
	if len(s) < 2 {
		return DefaultAccessTTL
	}

	var unit time.Duration
	switch s[len(s)-1] {
	case 's':
		unit = time.Second
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	default:
		return DefaultAccessTTL
	}

	digits := s[:len(s)-1]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return DefaultAccessTTL
		}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 || n > math.MaxInt64/int64(unit) {
		return DefaultAccessTTL
	}
	return time.Duration(n) * unit
}
