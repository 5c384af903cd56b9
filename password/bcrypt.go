package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxBytes is the input size bcrypt actually consumes. Longer input is
// truncated before hashing and comparing so existing 72+ byte passwords keep
// verifying.
const bcryptMaxBytes = 72

// DefaultBcryptCost is the work factor used when Config leaves BcryptCost at zero.
const DefaultBcryptCost = 10

// Bcrypt hashes with a fixed work factor.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt hasher; cost must be within bcrypt's bounds.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Bcrypt{cost: cost}, nil
}

func (b *Bcrypt) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword(truncate(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (b *Bcrypt) Verify(password, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), truncate(password)) == nil
}

// NeedsUpgrade reports hashes below the configured cost, or ones bcrypt
// cannot parse.
func (b *Bcrypt) NeedsUpgrade(encodedHash string) bool {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return true
	}
	return cost < b.cost
}

func truncate(password string) []byte {
	raw := []byte(password)
	if len(raw) > bcryptMaxBytes {
		raw = raw[:bcryptMaxBytes]
	}
	return raw
}
