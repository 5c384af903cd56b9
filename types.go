package goAccount

import (
	"context"
	"time"

	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/store"
)

// Role is the authorization role attached to an account and its tokens.
type Role = store.Role

const (
	RoleUser      = store.RoleUser
	RoleAdmin     = store.RoleAdmin
	RoleModerator = store.RoleModerator
)

// TokenPair is the access and refresh token issued on register, login and refresh.
type TokenPair = jwt.TokenPair

// Claims is the verified identity of a request.
type Claims struct {
	AccountID string `json:"userId"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// Account is the public view of a stored account. It never carries the
// password hash or open challenges.
type Account struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func accountView(a store.Account) Account {
	return Account{
		ID:         a.ID,
		Email:      a.Email,
		Name:       a.Name,
		Phone:      a.Phone,
		Role:       a.Role,
		IsVerified: a.IsVerified,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// RegisterRequest is the input to Engine.Register. Role defaults to user.
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     Role
}

// RegisterResult is returned by Engine.Register. OTPSent reports whether the
// verification mail was handed to the mailer; delivery failure does not
// fail registration.
type RegisterResult struct {
	Account Account
	Tokens  TokenPair
	OTPSent bool
}

// ResendResult is returned by Engine.ResendOTP.
type ResendResult struct {
	OTPSent bool
}

// LoginResult is returned by Engine.Login.
type LoginResult struct {
	Account Account
	Tokens  TokenPair
}

// ForgotResult is returned by Engine.ForgotPassword. AccountFound is false for
// unknown emails; callers must not reveal it to clients. ResetToken is only
// populated when Config.PasswordReset.ExposeToken is set.
type ForgotResult struct {
	AccountFound bool
	EmailSent    bool
	ResetToken   string
}

// ProfileUpdate carries optional profile edits. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name  *string
	Phone *string
}

// Mailer delivers lifecycle messages. Implementations should bound their own
// latency; the engine calls them inline and only records the outcome.
type Mailer interface {
	SendOTP(ctx context.Context, to, name, code string) error
	SendPasswordReset(ctx context.Context, to, name, token string) error
	SendWelcome(ctx context.Context, to, name string) error
}

// Envelope is the JSON body of every API response.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
