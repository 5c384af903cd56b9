package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrConflict is returned when an optimistic write lost every retry.
	ErrConflict = errors.New("concurrent account update")
	// ErrUnavailable wraps backend I/O failures.
	ErrUnavailable = errors.New("account store unavailable")
)

// Role is the authorization role carried by an account.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// Challenge is an open OTP or reset secret with its expiry. Secret and
// ExpiresAt are always set together; a closed challenge is a nil *Challenge.
type Challenge struct {
	Secret    string
	ExpiresAt time.Time
}

// Account is the persisted account record.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Role         Role
	IsVerified   bool
	OTP          *Challenge
	Reset        *Challenge
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
}

// Clone returns a deep copy so callers never share challenge pointers with a backend.
func (a Account) Clone() Account {
	out := a
	if a.OTP != nil {
		c := *a.OTP
		out.OTP = &c
	}
	if a.Reset != nil {
		c := *a.Reset
		out.Reset = &c
	}
	return out
}

// ListOptions pages through accounts, newest first.
type ListOptions struct {
	Offset int
	Limit  int
}

// Normalize clamps paging values.
func (o ListOptions) Normalize() ListOptions {
	if o.Offset < 0 {
		o.Offset = 0
	}
	if o.Limit <= 0 || o.Limit > 100 {
		o.Limit = 20
	}
	return o
}

type readOptions struct {
	secrets bool
}

// ReadOption tunes the projection of a read.
type ReadOption func(*readOptions)

// WithSecrets includes PasswordHash, OTP and Reset in the returned account.
func WithSecrets() ReadOption {
	return func(o *readOptions) { o.secrets = true }
}

// IncludeSecrets reports whether opts request the secret fields.
func IncludeSecrets(opts []ReadOption) bool {
	var o readOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o.secrets
}

// Project applies the read projection to a copy of a.
func Project(a Account, opts []ReadOption) Account {
	out := a.Clone()
	if IncludeSecrets(opts) {
		return out
	}
	out.PasswordHash = ""
	out.OTP = nil
	out.Reset = nil
	return out
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Mutator edits an account inside an atomic update. Returning an error aborts
// the write and is passed back to the caller unchanged.
type Mutator func(*Account) error

// Store is the account persistence contract.
type Store interface {
	// Create inserts a new account. ID must be set by the caller; CreatedAt,
	// UpdatedAt and Version are assigned by the store.
	Create(ctx context.Context, account *Account) error
	Get(ctx context.Context, id string, opts ...ReadOption) (Account, error)
	GetByEmail(ctx context.Context, email string, opts ...ReadOption) (Account, error)
	// GetByResetToken returns the account whose open reset challenge equals
	// token and has not expired at now. Secrets are included.
	GetByResetToken(ctx context.Context, token string, now time.Time) (Account, error)
	// Update runs fn against the current record and persists the result
	// atomically with respect to other updates of the same account.
	Update(ctx context.Context, id string, fn Mutator) (Account, error)
	List(ctx context.Context, opts ListOptions) ([]Account, error)
	Ping(ctx context.Context) error
	Close() error
}

// Touch advances the bookkeeping fields of a written record.
func Touch(a *Account, now time.Time) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	a.Version++
}

// ValidateChallenges rejects half-open challenges before they are persisted.
func ValidateChallenges(a *Account) error {
	if a.OTP != nil && (a.OTP.Secret == "" || a.OTP.ExpiresAt.IsZero()) {
		return errors.New("otp challenge requires both secret and expiry")
	}
	if a.Reset != nil && (a.Reset.Secret == "" || a.Reset.ExpiresAt.IsZero()) {
		return errors.New("reset challenge requires both secret and expiry")
	}
	return nil
}
