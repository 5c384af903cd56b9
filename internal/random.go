package internal

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"math/big"
	"strconv"
)

const (
	otpMin           = 100000
	otpSpan          = 900000
	resetTokenRawLen = 32
)

// NewOTP returns a six digit code drawn uniformly from [100000, 999999].
func NewOTP(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	n, err := rand.Int(r, big.NewInt(otpSpan))
	if err != nil {
		return "", err
	}
	code := strconv.FormatInt(otpMin+n.Int64(), 10)
	if len(code) != 6 {
		return "", errors.New("invalid otp generation length")
	}
	return code, nil
}

// NewResetToken returns 32 random bytes encoded as lowercase hex.
func NewResetToken(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	var raw [resetTokenRawLen]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}
