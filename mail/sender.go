package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	ErrNoTransport = errors.New("mail: transport required")
	ErrNoRecipient = errors.New("mail: recipient required")
)

const (
	SubjectOTP     = "Your OTP Code"
	SubjectReset   = "Password Reset Request"
	SubjectWelcome = "Welcome to Our Platform"
)

// Message is one rendered mail handed to a Transport.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Transport delivers rendered messages.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Config controls rendering. Zero values fall back to DefaultConfig.
type Config struct {
	From        string
	FrontendURL string
	OTPTTL      time.Duration
	ResetTTL    time.Duration
}

// DefaultConfig mirrors the daemon defaults.
func DefaultConfig() Config {
	return Config{
		From:        "noreply@yourdomain.com",
		FrontendURL: "http://localhost:3000",
		OTPTTL:      10 * time.Minute,
		ResetTTL:    time.Hour,
	}
}

// Sender renders lifecycle mails and hands them to a Transport. It satisfies
// goAccount.Mailer.
type Sender struct {
	cfg       Config
	transport Transport
	tmpl      *template.Template
}

// NewSender parses the embedded templates and binds them to transport.
func NewSender(cfg Config, transport Transport) (*Sender, error) {
	if transport == nil {
		return nil, ErrNoTransport
	}
	def := DefaultConfig()
	if cfg.From == "" {
		cfg.From = def.From
	}
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = def.FrontendURL
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = def.OTPTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = def.ResetTTL
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("mail: parse templates: %w", err)
	}
	return &Sender{cfg: cfg, transport: transport, tmpl: tmpl}, nil
}

func (s *Sender) SendOTP(ctx context.Context, to, _ string, code string) error {
	return s.deliver(ctx, to, SubjectOTP, "otp.html", map[string]any{
		"Code": code,
		"TTL":  humanDuration(s.cfg.OTPTTL),
	})
}

func (s *Sender) SendPasswordReset(ctx context.Context, to, _ string, token string) error {
	return s.deliver(ctx, to, SubjectReset, "reset.html", map[string]any{
		"URL": s.ResetURL(token),
		"TTL": humanDuration(s.cfg.ResetTTL),
	})
}

func (s *Sender) SendWelcome(ctx context.Context, to, name string) error {
	if strings.TrimSpace(name) == "" {
		name = "User"
	}
	return s.deliver(ctx, to, SubjectWelcome, "welcome.html", map[string]any{
		"Name": name,
	})
}

// ResetURL builds the frontend link carrying token.
func (s *Sender) ResetURL(token string) string {
	return s.cfg.FrontendURL + "/reset-password?token=" + url.QueryEscape(token)
}

func (s *Sender) deliver(ctx context.Context, to, subject, name string, data any) error {
	if strings.TrimSpace(to) == "" {
		return ErrNoRecipient
	}
	var body bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("mail: render %s: %w", name, err)
	}
	msg := Message{
		From:    s.cfg.From,
		To:      to,
		Subject: subject,
		HTML:    body.String(),
	}
	if err := s.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("mail: send %q: %w", subject, err)
	}
	return nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
