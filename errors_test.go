package goAccount

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/MrEthical07/goAccount/store"
)

var errDummyBackend = errors.New("connection reset by peer")

func TestKindOfAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		kind   Kind
		status int
	}{
		{ErrInvalidRequest, KindValidation, http.StatusBadRequest},
		{ErrInvalidRole, KindValidation, http.StatusBadRequest},
		{ErrOTPNotFound, KindValidation, http.StatusBadRequest},
		{ErrOTPMismatch, KindValidation, http.StatusBadRequest},
		{ErrAlreadyVerified, KindValidation, http.StatusBadRequest},
		{ErrResetTokenInvalid, KindValidation, http.StatusBadRequest},
		{ErrOTPExpired, KindExpired, http.StatusBadRequest},
		{ErrDuplicateEmail, KindConflict, http.StatusBadRequest},
		{ErrAccountNotFound, KindNotFound, http.StatusNotFound},
		{ErrInvalidCredentials, KindUnauthorized, http.StatusUnauthorized},
		{ErrWrongPassword, KindUnauthorized, http.StatusUnauthorized},
		{ErrTokenInvalid, KindUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, KindForbidden, http.StatusForbidden},
		{ErrStoreUnavailable, KindInternal, http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", ErrOTPExpired), KindExpired, http.StatusBadRequest},
		{errDummyBackend, KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		kind := KindOf(tc.err)
		if kind != tc.kind {
			t.Fatalf("KindOf(%v) = %s, want %s", tc.err, kind, tc.kind)
		}
		if kind.HTTPStatus() != tc.status {
			t.Fatalf("status of %v = %d, want %d", tc.err, kind.HTTPStatus(), tc.status)
		}
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(ErrDuplicateEmail); got != "User with this email already exists." {
		t.Fatalf("unexpected message %q", got)
	}
	if got := PublicMessage(fmt.Errorf("ctx: %w", ErrOTPExpired)); got != "OTP has expired. Please request a new one." {
		t.Fatalf("unexpected message %q", got)
	}
	if got := PublicMessage(mapStoreError(errDummyBackend)); got != "Internal server error" {
		t.Fatalf("expected internal errors to stay opaque, got %q", got)
	}
	if got := PublicMessage(nil); got != "" {
		t.Fatalf("expected empty message for nil, got %q", got)
	}
}

func TestMapStoreError(t *testing.T) {
	if !errors.Is(mapStoreError(store.ErrNotFound), ErrAccountNotFound) {
		t.Fatal("expected not found mapping")
	}
	if !errors.Is(mapStoreError(store.ErrDuplicateEmail), ErrDuplicateEmail) {
		t.Fatal("expected duplicate mapping")
	}
	if !errors.Is(mapStoreError(store.ErrConflict), ErrConcurrentUpdate) {
		t.Fatal("expected conflict mapping")
	}
	if !errors.Is(mapStoreError(context.Canceled), context.Canceled) {
		t.Fatal("expected context errors to pass through")
	}
	wrapped := mapStoreError(errDummyBackend)
	if !errors.Is(wrapped, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", wrapped)
	}
	if mapStoreError(nil) != nil {
		t.Fatal("expected nil to stay nil")
	}
}
