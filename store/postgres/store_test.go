package postgres

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/store"
	"github.com/jackc/pgx/v5"
)

func TestMapError(t *testing.T) {
	if err := mapError(pgx.ErrNoRows); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mapError(context.Canceled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled passthrough, got %v", err)
	}
	if err := mapError(errors.New("connection reset")); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestChallengeArgsPairing(t *testing.T) {
	code, expires := challengeArgs(nil)
	if code != nil || expires != nil {
		t.Fatal("closed challenge must map to two NULL columns")
	}

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	code, expires = challengeArgs(&store.Challenge{Secret: "123456", ExpiresAt: at})
	if code == nil || *code != "123456" {
		t.Fatalf("unexpected code %v", code)
	}
	if expires == nil || !expires.Equal(at) || expires.Location() != time.UTC {
		t.Fatalf("expected UTC expiry equal to input, got %v", expires)
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrations, migrationsDir)
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one embedded migration")
	}
	for _, entry := range entries {
		data, err := fs.ReadFile(migrations, migrationsDir+"/"+entry.Name())
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name(), err)
		}
		body := string(data)
		if !strings.Contains(body, "-- +goose Up") || !strings.Contains(body, "-- +goose Down") {
			t.Fatalf("migration %s must declare Up and Down sections", entry.Name())
		}
	}
}
