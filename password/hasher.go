package password

import (
	"fmt"
	"strings"
)

// Algorithm names the scheme new hashes are produced with.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Config selects the hashing algorithm and its parameters.
type Config struct {
	Algorithm  Algorithm
	BcryptCost int
	Argon2     Argon2Config
}

// DefaultConfig hashes with bcrypt at cost 10.
func DefaultConfig() Config {
	return Config{
		Algorithm:  AlgorithmBcrypt,
		BcryptCost: DefaultBcryptCost,
		Argon2:     DefaultArgon2Config(),
	}
}

// Hasher produces hashes with the configured algorithm and verifies hashes of
// either supported algorithm, dispatching on the encoded prefix.
type Hasher struct {
	algorithm Algorithm
	bcrypt    *Bcrypt
	argon2    *Argon2
}

// New validates cfg and builds a Hasher.
func New(cfg Config) (*Hasher, error) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = AlgorithmBcrypt
	}
	if cfg.Argon2 == (Argon2Config{}) {
		cfg.Argon2 = DefaultArgon2Config()
	}

	b, err := NewBcrypt(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	a, err := NewArgon2(cfg.Argon2)
	if err != nil {
		return nil, err
	}

	switch cfg.Algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", cfg.Algorithm)
	}

	return &Hasher{algorithm: cfg.Algorithm, bcrypt: b, argon2: a}, nil
}

// Algorithm reports the scheme used for new hashes.
func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}

// Hash returns an encoded hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if h.algorithm == AlgorithmArgon2id {
		return h.argon2.Hash(password)
	}
	return h.bcrypt.Hash(password)
}

// Verify reports whether password matches encodedHash. It never errors:
// unknown or malformed hashes report false.
func (h *Hasher) Verify(password, encodedHash string) bool {
	switch detect(encodedHash) {
	case AlgorithmBcrypt:
		return h.bcrypt.Verify(password, encodedHash)
	case AlgorithmArgon2id:
		return h.argon2.Verify(password, encodedHash)
	}
	return false
}

// NeedsUpgrade reports whether encodedHash should be re-hashed: it uses a
// different algorithm than the configured one or weaker parameters.
func (h *Hasher) NeedsUpgrade(encodedHash string) bool {
	algo := detect(encodedHash)
	if algo != h.algorithm {
		return true
	}
	if algo == AlgorithmArgon2id {
		return h.argon2.NeedsUpgrade(encodedHash)
	}
	return h.bcrypt.NeedsUpgrade(encodedHash)
}

func detect(encodedHash string) Algorithm {
	switch {
	case strings.HasPrefix(encodedHash, argon2Prefix):
		return AlgorithmArgon2id
	case strings.HasPrefix(encodedHash, "$2a$"),
		strings.HasPrefix(encodedHash, "$2b$"),
		strings.HasPrefix(encodedHash, "$2y$"):
		return AlgorithmBcrypt
	}
	return ""
}
