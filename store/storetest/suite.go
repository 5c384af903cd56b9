// Package storetest holds the conformance suite every store backend runs.
package storetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/store"
	"github.com/google/uuid"
)

// Factory returns an empty store and registers its cleanup on t.
type Factory func(t *testing.T) store.Store

var errAlreadyConsumed = errors.New("challenge already consumed")

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("CreateAndGetProjection", func(t *testing.T) { testCreateAndGetProjection(t, newStore(t)) })
	t.Run("DuplicateEmailIsCaseInsensitive", func(t *testing.T) { testDuplicateEmail(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("UpdateAbortsOnMutatorError", func(t *testing.T) { testUpdateAbort(t, newStore(t)) })
	t.Run("UpdateClearsChallenge", func(t *testing.T) { testUpdateClearsChallenge(t, newStore(t)) })
	t.Run("UpdateKeepsBothChallengesOpen", func(t *testing.T) { testUpdateBothChallenges(t, newStore(t)) })
	t.Run("ResetTokenLookup", func(t *testing.T) { testResetTokenLookup(t, newStore(t)) })
	t.Run("ConcurrentConsumeSucceedsOnce", func(t *testing.T) { testConcurrentConsume(t, newStore(t)) })
	t.Run("ListPaging", func(t *testing.T) { testListPaging(t, newStore(t)) })
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func newAccount(email string) *store.Account {
	return &store.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuuS1yC3Wz6lJw9r7m0yZ8vO2nM4kQ1xeC",
		Name:         "Ada",
		Role:         store.RoleUser,
		OTP:          &store.Challenge{Secret: "123456", ExpiresAt: now().Add(10 * time.Minute)},
	}
}

func mustCreate(t *testing.T, s store.Store, acc *store.Account) {
	t.Helper()
	if err := s.Create(context.Background(), acc); err != nil {
		t.Fatalf("Create(%s) failed: %v", acc.Email, err)
	}
}

func testCreateAndGetProjection(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := newAccount("  Ada@Example.COM ")
	mustCreate(t, s, acc)

	if acc.Email != "ada@example.com" {
		t.Fatalf("expected normalized email, got %q", acc.Email)
	}
	if acc.CreatedAt.IsZero() || acc.UpdatedAt.IsZero() {
		t.Fatal("expected store to assign timestamps")
	}

	got, err := s.Get(ctx, acc.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.PasswordHash != "" || got.OTP != nil || got.Reset != nil {
		t.Fatalf("default projection leaked secrets: %+v", got)
	}
	if got.Email != "ada@example.com" || got.Name != "Ada" || got.Role != store.RoleUser || got.IsVerified {
		t.Fatalf("unexpected account: %+v", got)
	}

	full, err := s.GetByEmail(ctx, "ADA@example.com", store.WithSecrets())
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if full.PasswordHash != acc.PasswordHash {
		t.Fatal("expected password hash with WithSecrets")
	}
	if full.OTP == nil || full.OTP.Secret != "123456" || !full.OTP.ExpiresAt.Equal(acc.OTP.ExpiresAt) {
		t.Fatalf("unexpected otp challenge: %+v", full.OTP)
	}
}

func testDuplicateEmail(t *testing.T, s store.Store) {
	mustCreate(t, s, newAccount("dup@example.com"))

	err := s.Create(context.Background(), newAccount("DUP@example.com"))
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.Get(ctx, uuid.NewString()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Get: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetByEmail(ctx, "missing@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetByEmail: expected ErrNotFound, got %v", err)
	}
	_, err := s.Update(ctx, uuid.NewString(), func(*store.Account) error { return nil })
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Update: expected ErrNotFound, got %v", err)
	}
}

func testUpdateAbort(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := newAccount("abort@example.com")
	mustCreate(t, s, acc)

	sentinel := errors.New("stop")
	_, err := s.Update(ctx, acc.ID, func(a *store.Account) error {
		a.Name = "changed"
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected mutator error, got %v", err)
	}

	got, err := s.Get(ctx, acc.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Ada" {
		t.Fatalf("aborted update was persisted: %q", got.Name)
	}
}

func testUpdateClearsChallenge(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := newAccount("verify@example.com")
	mustCreate(t, s, acc)

	updated, err := s.Update(ctx, acc.ID, func(a *store.Account) error {
		a.IsVerified = true
		a.OTP = nil
		a.Phone = "555-123-4567"
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !updated.IsVerified || updated.Phone != "555-123-4567" {
		t.Fatalf("unexpected updated account: %+v", updated)
	}
	if updated.PasswordHash != "" {
		t.Fatal("Update result must use the default projection")
	}
	if updated.Version <= acc.Version {
		t.Fatalf("expected version to advance, got %d after %d", updated.Version, acc.Version)
	}

	full, err := s.Get(ctx, acc.ID, store.WithSecrets())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if full.OTP != nil {
		t.Fatalf("expected otp cleared, got %+v", full.OTP)
	}
	if full.PasswordHash != acc.PasswordHash {
		t.Fatal("update must not drop the password hash")
	}
}

func testUpdateBothChallenges(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := newAccount("both@example.com")
	mustCreate(t, s, acc)

	expiry := now().Add(time.Hour)
	token := "b7e2" + uuid.NewString()
	if _, err := s.Update(ctx, acc.ID, func(a *store.Account) error {
		a.Name = "Ada L."
		a.Reset = &store.Challenge{Secret: token, ExpiresAt: expiry}
		return nil
	}); err != nil {
		t.Fatalf("Update with no challenge cleared failed: %v", err)
	}

	full, err := s.Get(ctx, acc.ID, store.WithSecrets())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if full.Name != "Ada L." {
		t.Fatalf("expected name updated, got %q", full.Name)
	}
	if full.OTP == nil || full.OTP.Secret != acc.OTP.Secret || !full.OTP.ExpiresAt.Equal(acc.OTP.ExpiresAt) {
		t.Fatalf("expected otp kept, got %+v", full.OTP)
	}
	if full.Reset == nil || full.Reset.Secret != token || !full.Reset.ExpiresAt.Equal(expiry) {
		t.Fatalf("expected reset challenge stored exactly, got %+v", full.Reset)
	}
}

func testResetTokenLookup(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := newAccount("reset@example.com")
	mustCreate(t, s, acc)

	expiry := now().Add(time.Hour)
	token := "a3f1c9" + uuid.NewString()
	if _, err := s.Update(ctx, acc.ID, func(a *store.Account) error {
		a.Reset = &store.Challenge{Secret: token, ExpiresAt: expiry}
		return nil
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := s.GetByResetToken(ctx, token, expiry.Add(-time.Minute))
	if err != nil {
		t.Fatalf("GetByResetToken failed: %v", err)
	}
	if got.ID != acc.ID || got.Reset == nil || got.Reset.Secret != token {
		t.Fatalf("unexpected account for reset token: %+v", got)
	}

	if _, err := s.GetByResetToken(ctx, token, expiry); err != nil {
		t.Fatalf("token must still be valid at its expiry instant: %v", err)
	}
	if _, err := s.GetByResetToken(ctx, token, expiry.Add(time.Second)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired token, got %v", err)
	}
	if _, err := s.GetByResetToken(ctx, "not-a-token", expiry.Add(-time.Minute)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown token, got %v", err)
	}

	if _, err := s.Update(ctx, acc.ID, func(a *store.Account) error {
		a.Reset = nil
		return nil
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := s.GetByResetToken(ctx, token, expiry.Add(-time.Minute)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected cleared token to be gone, got %v", err)
	}
}

func testConcurrentConsume(t *testing.T, s store.Store) {
	ctx := context.Background()
	acc := newAccount("race@example.com")
	mustCreate(t, s, acc)

	const workers = 8
	var (
		wg      sync.WaitGroup
		success atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, acc.ID, func(a *store.Account) error {
				if a.OTP == nil {
					return errAlreadyConsumed
				}
				a.OTP = nil
				a.IsVerified = true
				return nil
			})
			switch {
			case err == nil:
				success.Add(1)
			case errors.Is(err, errAlreadyConsumed), errors.Is(err, store.ErrConflict):
			default:
				t.Errorf("unexpected update error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := success.Load(); got != 1 {
		t.Fatalf("expected exactly one successful consume, got %d", got)
	}
}

func testListPaging(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, email := range []string{"l1@example.com", "l2@example.com", "l3@example.com"} {
		mustCreate(t, s, newAccount(email))
	}

	page, err := s.List(ctx, store.ListOptions{Offset: 0, Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(page))
	}
	for _, acc := range page {
		if acc.PasswordHash != "" || acc.OTP != nil {
			t.Fatal("List must use the default projection")
		}
	}

	rest, err := s.List(ctx, store.ListOptions{Offset: 2, Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("expected 1 account on second page, got %d", len(rest))
	}
}
