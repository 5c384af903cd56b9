package goAccount

import (
	"crypto/subtle"
	"io"
	"time"

	"github.com/MrEthical07/goAccount/internal"
)

// secrets issues verification codes and reset tokens together with their
// expiry, all against the engine clock.
type secrets struct {
	random   io.Reader
	now      func() time.Time
	otpTTL   time.Duration
	resetTTL time.Duration
}

func (s secrets) generateOTP() (string, error) {
	return internal.NewOTP(s.random)
}

// expiryPrecision is the coarsest timestamp resolution among the stores
// (Mongo keeps milliseconds). Expiries are cut to it before they are saved so
// every backend reads back the exact instant that was written.
const expiryPrecision = time.Millisecond

func (s secrets) otpExpiry() time.Time {
	return s.now().Add(s.otpTTL).Truncate(expiryPrecision)
}

func (s secrets) generateResetToken() (string, error) {
	return internal.NewResetToken(s.random)
}

func (s secrets) resetTokenExpiry() time.Time {
	return s.now().Add(s.resetTTL).Truncate(expiryPrecision)
}

// isExpired is strict: a challenge is still valid at its exact expiry instant.
func (s secrets) isExpired(t time.Time) bool {
	return s.now().After(t)
}

func secretsEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
