package goAccount

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/store"
	"github.com/MrEthical07/goAccount/store/memory"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type sentMail struct {
	Kind  string
	To    string
	Name  string
	Value string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

var errMailDown = errors.New("smtp down")

func (m *captureMailer) record(kind, to, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errMailDown
	}
	m.sent = append(m.sent, sentMail{Kind: kind, To: to, Name: name, Value: value})
	return nil
}

func (m *captureMailer) SendOTP(_ context.Context, to, name, code string) error {
	return m.record("otp", to, name, code)
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, name, token string) error {
	return m.record("reset", to, name, token)
}

func (m *captureMailer) SendWelcome(_ context.Context, to, name string) error {
	return m.record("welcome", to, name, "")
}

func (m *captureMailer) setFail(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

func (m *captureMailer) last(kind string) (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Kind == kind {
			return m.sent[i], true
		}
	}
	return sentMail{}, false
}

func (m *captureMailer) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

func newMemoryStore(clock *fakeClock) *memory.Store {
	return memory.New(clock.Now)
}

type testEnv struct {
	engine *Engine
	store  store.Store
	mailer *captureMailer
	clock  *fakeClock
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = "access-secret-for-tests"
	cfg.JWT.RefreshSecret = "refresh-secret-for-tests"
	cfg.Password.BcryptCost = bcrypt.MinCost
	cfg.Audit.Enabled = false
	return cfg
}

func newTestEnv(t *testing.T, mutate ...func(*Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}
	clock := newFakeClock()
	st := newMemoryStore(clock)
	mailer := &captureMailer{}

	engine, err := New().
		WithConfig(cfg).
		WithStore(st).
		WithMailer(mailer).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{engine: engine, store: st, mailer: mailer, clock: clock}
}

// registerVerified registers email and consumes its OTP.
func (env *testEnv) registerVerified(t *testing.T, email, password string) Account {
	t.Helper()

	ctx := context.Background()
	if _, err := env.engine.Register(ctx, RegisterRequest{Email: email, Password: password, Name: "Test"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	mail, ok := env.mailer.last("otp")
	if !ok {
		t.Fatal("expected otp mail")
	}
	account, err := env.engine.VerifyOTP(ctx, email, mail.Value)
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	return account
}

func (env *testEnv) stored(t *testing.T, email string) store.Account {
	t.Helper()

	a, err := env.store.GetByEmail(context.Background(), email, store.WithSecrets())
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	return a
}
