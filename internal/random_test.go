package internal

import (
	"bytes"
	"encoding/hex"
	"strconv"
	"testing"
)

func TestNewOTPFormat(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NewOTP(nil)
		if err != nil {
			t.Fatalf("NewOTP failed: %v", err)
		}
		n, err := strconv.Atoi(code)
		if err != nil || len(code) != 6 || n < otpMin || n >= otpMin+otpSpan {
			t.Fatalf("unexpected code %q", code)
		}
	}
}

func TestNewOTPReaderError(t *testing.T) {
	if _, err := NewOTP(bytes.NewReader(nil)); err == nil {
		t.Fatal("expected error from exhausted reader")
	}
}

func TestNewResetToken(t *testing.T) {
	raw := bytes.Repeat([]byte{0xab}, resetTokenRawLen)
	token, err := NewResetToken(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("NewResetToken failed: %v", err)
	}
	if token != hex.EncodeToString(raw) || len(token) != 64 {
		t.Fatalf("unexpected token %q", token)
	}

	if _, err := NewResetToken(bytes.NewReader(raw[:8])); err == nil {
		t.Fatal("expected error from short reader")
	}
}

// FuzzNewOTP feeds arbitrary entropy to the generator. It must either fail
// cleanly or return a six digit code in range.
func FuzzNewOTP(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x00, 0x00, 0x00, 0x00})
	f.Add(bytes.Repeat([]byte{0xff}, 16))
	f.Add([]byte("0123456789abcdef"))

	f.Fuzz(func(t *testing.T, entropy []byte) {
		code, err := NewOTP(bytes.NewReader(entropy))
		if err != nil {
			return
		}
		n, convErr := strconv.Atoi(code)
		if convErr != nil || len(code) != 6 || n < otpMin || n >= otpMin+otpSpan {
			t.Fatalf("entropy %x produced %q", entropy, code)
		}
	})
}
