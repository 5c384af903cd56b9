package goAccount

import (
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/store"
	"github.com/google/uuid"
)

// Builder assembles an Engine. A Builder is single use.
type Builder struct {
	config Config

	store     store.Store
	mailer    Mailer
	auditSink AuditSink
	logger    *slog.Logger

	now    func() time.Time
	random io.Reader
	newID  func() string

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore sets the account store. It is required.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithMailer sets the delivery collaborator. Without one every send is
// treated as failed and OTPSent/EmailSent report false.
func (b *Builder) WithMailer(m Mailer) *Builder {
	b.mailer = m
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces time.Now for challenge expiry, token timestamps and
// audit events.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithRandom replaces crypto/rand as the source for OTPs and reset tokens.
func (b *Builder) WithRandom(r io.Reader) *Builder {
	b.random = r
	return b
}

// WithIDGenerator replaces the UUIDv4 account ID generator.
func (b *Builder) WithIDGenerator(fn func() string) *Builder {
	b.newID = fn
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine. Close the
// Engine to flush pending audit events.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("account store required")
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	random := b.random
	if random == nil {
		random = rand.Reader
	}
	newID := b.newID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	// -------- TOKENS --------
	tokens, err := jwt.NewManager(jwt.Config{
		AccessSecret:  []byte(cfg.JWT.AccessSecret),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	// -------- PASSWORDS --------
	creds, err := newCredentials(cfg.passwordConfig())
	if err != nil {
		return nil, err
	}

	b.built = true

	return &Engine{
		config:  cfg,
		store:   b.store,
		mailer:  b.mailer,
		tokens:  tokens,
		creds:   creds,
		secrets: secrets{random: random, now: now, otpTTL: cfg.OTP.TTL, resetTTL: cfg.PasswordReset.TTL},
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger.With(slog.String("component", "goaccount")),
		now:     now,
		newID:   newID,
	}, nil
}
