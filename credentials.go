package goAccount

import (
	"github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/password"
	"github.com/MrEthical07/goAccount/store"
)

// credentials is the only code path that writes Account.PasswordHash.
type credentials struct {
	hasher    *password.Hasher
	dummyHash string
}

func newCredentials(cfg password.Config) (*credentials, error) {
	hasher, err := password.New(cfg)
	if err != nil {
		return nil, err
	}
	// Login against an unknown email still pays for one verification.
	dummy, err := hasher.Hash("goaccount-timing-equalizer")
	if err != nil {
		return nil, err
	}
	return &credentials{hasher: hasher, dummyHash: dummy}, nil
}

// setPassword hashes plain and returns a setter that installs the hash. The
// expensive hash runs before any store lock is taken; the setter is applied
// inside the atomic update.
func (c *credentials) setPassword(plain string) (flows.PasswordSetter, error) {
	hash, err := c.hasher.Hash(plain)
	if err != nil {
		return nil, err
	}
	return func(a *store.Account) {
		a.PasswordHash = hash
	}, nil
}

func (c *credentials) verify(a store.Account, plain string) bool {
	if a.PasswordHash == "" {
		return false
	}
	return c.hasher.Verify(plain, a.PasswordHash)
}

func (c *credentials) burn(plain string) {
	_ = c.hasher.Verify(plain, c.dummyHash)
}

func (c *credentials) needsUpgrade(a store.Account) bool {
	return a.PasswordHash != "" && c.hasher.NeedsUpgrade(a.PasswordHash)
}
