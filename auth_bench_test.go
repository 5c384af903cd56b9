package goAccount

import (
	"context"
	"testing"

	"github.com/MrEthical07/goAccount/store/redisstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const benchPassword = "correct-password-123"

func BenchmarkVerifyAccessToken(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	res, err := engine.Login(context.Background(), "alice@example.com", benchPassword)
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.VerifyAccessToken(context.Background(), res.Tokens.AccessToken); err != nil {
			b.Fatalf("verify failed: %v", err)
		}
	}
}

func BenchmarkRefreshTokens(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	res, err := engine.Login(context.Background(), "alice@example.com", benchPassword)
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}
	refresh := res.Tokens.RefreshToken

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pair, err := engine.RefreshTokens(context.Background(), refresh)
		if err != nil {
			b.Fatalf("refresh failed: %v", err)
		}
		refresh = pair.RefreshToken
	}
}

func BenchmarkLogin(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Login(context.Background(), "alice@example.com", benchPassword); err != nil {
			b.Fatalf("login failed: %v", err)
		}
	}
}

func BenchmarkGetProfile(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	res, err := engine.Login(context.Background(), "alice@example.com", benchPassword)
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.GetProfile(context.Background(), res.Account.ID); err != nil {
			b.Fatalf("profile failed: %v", err)
		}
	}
}

// newBenchmarkEngine seeds alice@example.com on a miniredis-backed store.
func newBenchmarkEngine(tb testing.TB) (*Engine, func()) {
	tb.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		tb.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := testConfig()
	cfg.Metrics.Enabled = false

	engine, err := New().
		WithConfig(cfg).
		WithStore(redisstore.New(rdb, "bench", nil)).
		Build()
	if err != nil {
		tb.Fatalf("Build failed: %v", err)
	}
	if _, err := engine.SeedAdmin(context.Background(), "alice@example.com", benchPassword, "Alice"); err != nil {
		tb.Fatalf("SeedAdmin failed: %v", err)
	}

	return engine, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}
