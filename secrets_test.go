package goAccount

import (
	"bytes"
	"testing"
	"time"
)

func TestSecretsExpiryIsStrict(t *testing.T) {
	clock := newFakeClock()
	s := secrets{now: clock.Now, otpTTL: 10 * time.Minute, resetTTL: time.Hour}

	otpAt := s.otpExpiry()
	if want := clock.Now().Add(10 * time.Minute); !otpAt.Equal(want) {
		t.Fatalf("expected otp expiry %v, got %v", want, otpAt)
	}
	resetAt := s.resetTokenExpiry()
	if want := clock.Now().Add(time.Hour); !resetAt.Equal(want) {
		t.Fatalf("expected reset expiry %v, got %v", want, resetAt)
	}

	clock.Advance(10 * time.Minute)
	if s.isExpired(otpAt) {
		t.Fatal("expected challenge valid at its exact expiry")
	}
	clock.Advance(time.Nanosecond)
	if !s.isExpired(otpAt) {
		t.Fatal("expected challenge expired just after its expiry")
	}
}

func TestSecretsExpiryKeepsMillisecondPrecision(t *testing.T) {
	clock := newFakeClock()
	clock.Advance(1234567 * time.Nanosecond)
	s := secrets{now: clock.Now, otpTTL: 10 * time.Minute, resetTTL: time.Hour}

	for _, at := range []time.Time{s.otpExpiry(), s.resetTokenExpiry()} {
		if at.Nanosecond()%int(time.Millisecond) != 0 {
			t.Fatalf("expected expiry cut to whole milliseconds, got %v", at)
		}
	}

	otpAt := s.otpExpiry()
	if want := time.Date(2024, 3, 1, 12, 10, 0, 1000000, time.UTC); !otpAt.Equal(want) {
		t.Fatalf("expected otp expiry %v, got %v", want, otpAt)
	}
	clock.Advance(10*time.Minute - 234567*time.Nanosecond)
	if s.isExpired(otpAt) {
		t.Fatal("expected challenge valid at its stored expiry")
	}
	clock.Advance(time.Nanosecond)
	if !s.isExpired(otpAt) {
		t.Fatal("expected challenge expired just after its stored expiry")
	}
}

func TestSecretsUseInjectedRandom(t *testing.T) {
	seed := bytes.Repeat([]byte{0xab}, 64)
	s := secrets{random: bytes.NewReader(seed)}

	token, err := s.generateResetToken()
	if err != nil {
		t.Fatalf("generateResetToken failed: %v", err)
	}
	if token != string(bytes.Repeat([]byte("ab"), 32)) {
		t.Fatalf("expected token derived from injected bytes, got %q", token)
	}

	if _, err := (secrets{random: bytes.NewReader(nil)}).generateOTP(); err == nil {
		t.Fatal("expected otp generation to fail on an exhausted reader")
	}
}

func TestSecretsEqual(t *testing.T) {
	if !secretsEqual("123456", "123456") {
		t.Fatal("expected equal secrets to match")
	}
	if secretsEqual("123456", "123457") || secretsEqual("123456", "1234567") || secretsEqual("", "1") {
		t.Fatal("expected different secrets not to match")
	}
}
