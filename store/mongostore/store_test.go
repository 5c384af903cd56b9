package mongostore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestDocRoundTripKeepsChallengesPaired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	acc := store.Account{
		ID:           "a1",
		Email:        "a@example.com",
		PasswordHash: "$2a$10$hash",
		Role:         store.RoleAdmin,
		OTP:          &store.Challenge{Secret: "123456", ExpiresAt: now.Add(10 * time.Minute)},
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      3,
	}

	doc := toDoc(acc)
	if doc.OTP == nil || doc.OTPExpires == nil {
		t.Fatalf("expected otp pair on doc")
	}
	if doc.ResetToken != nil || doc.ResetExpires != nil {
		t.Fatalf("expected no reset pair on doc")
	}

	back := fromDoc(doc)
	if back.OTP == nil || back.OTP.Secret != "123456" || !back.OTP.ExpiresAt.Equal(acc.OTP.ExpiresAt) {
		t.Fatalf("otp lost: %+v", back.OTP)
	}
	if back.Role != store.RoleAdmin || back.Version != 3 {
		t.Fatalf("unexpected account: %+v", back)
	}
}

func TestFromDocDefaultsRole(t *testing.T) {
	if got := fromDoc(accountDoc{ID: "x"}).Role; got != store.RoleUser {
		t.Fatalf("expected default role user, got %q", got)
	}
}

func TestUpdateDocUnsetsClosedChallenges(t *testing.T) {
	update := updateDoc(store.Account{
		Reset: &store.Challenge{Secret: "tok", ExpiresAt: time.Now()},
	})

	set := update["$set"].(bson.M)
	unset := update["$unset"].(bson.M)
	if _, ok := set["resetPasswordToken"]; !ok {
		t.Fatalf("expected reset token in $set")
	}
	if _, ok := unset["otp"]; !ok {
		t.Fatalf("expected otp in $unset")
	}
	if _, ok := unset["otpExpires"]; !ok {
		t.Fatalf("expected otpExpires in $unset")
	}
	if _, ok := unset["resetPasswordToken"]; ok {
		t.Fatalf("reset token must not be unset while open")
	}
}

func TestUpdateDocOmitsUnsetWhenBothChallengesOpen(t *testing.T) {
	expires := time.Now()
	update := updateDoc(store.Account{
		OTP:   &store.Challenge{Secret: "123456", ExpiresAt: expires},
		Reset: &store.Challenge{Secret: "tok", ExpiresAt: expires},
	})

	if _, ok := update["$unset"]; ok {
		t.Fatalf("expected no $unset when nothing is cleared, got %v", update)
	}
	set := update["$set"].(bson.M)
	for _, key := range []string{"otp", "otpExpires", "resetPasswordToken", "resetPasswordExpires"} {
		if _, ok := set[key]; !ok {
			t.Fatalf("expected %s in $set", key)
		}
	}
}

func TestMapError(t *testing.T) {
	if !errors.Is(mapError(mongo.ErrNoDocuments), store.ErrNotFound) {
		t.Fatalf("expected not found")
	}
	if !errors.Is(mapError(context.Canceled), context.Canceled) {
		t.Fatalf("expected cancellation passthrough")
	}
	if !errors.Is(mapError(errors.New("socket closed")), store.ErrUnavailable) {
		t.Fatalf("expected unavailable")
	}
}
