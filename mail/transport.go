package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailgun/mailgun-go/v5"
	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig addresses an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPTransport delivers through an SMTP relay. Port 465 dials implicit TLS;
// any other port upgrades with STARTTLS when the server offers it.
type SMTPTransport struct {
	client *gomail.Client
}

func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail: smtp host required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(cfg.Timeout),
	}
	if cfg.Port == 465 {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: smtp client: %w", err)
	}
	return &SMTPTransport{client: client}, nil
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m, err := buildSMTPMessage(msg)
	if err != nil {
		return err
	}
	return t.client.DialAndSendWithContext(ctx, m)
}

func buildSMTPMessage(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	return m, nil
}

// MailgunConfig addresses a Mailgun sending domain.
type MailgunConfig struct {
	Domain string
	APIKey string
}

// MailgunTransport delivers through the Mailgun HTTP API.
type MailgunTransport struct {
	domain string
	send   func(ctx context.Context, m *mailgun.PlainMessage) error
}

func NewMailgunTransport(cfg MailgunConfig) (*MailgunTransport, error) {
	if cfg.Domain == "" || cfg.APIKey == "" {
		return nil, errors.New("mail: mailgun domain and api key required")
	}
	client := mailgun.NewMailgun(cfg.APIKey)
	return &MailgunTransport{
		domain: cfg.Domain,
		send: func(ctx context.Context, m *mailgun.PlainMessage) error {
			_, err := client.Send(ctx, m)
			return err
		},
	}, nil
}

func (t *MailgunTransport) Send(ctx context.Context, msg Message) error {
	m := mailgun.NewMessage(t.domain, msg.From, msg.Subject, "", msg.To)
	m.SetHTML(msg.HTML)
	if err := t.send(ctx, m); err != nil {
		return fmt.Errorf("mailgun: %w", err)
	}
	return nil
}

// LogTransport writes messages to a logger instead of delivering them.
// Development only: the body carries live secrets.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTransport{logger: logger.With(slog.String("component", "mail"))}
}

func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	t.logger.InfoContext(ctx, "mail captured",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("bytes", len(msg.HTML)),
		slog.String("body", msg.HTML),
	)
	return nil
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, msg Message) error

func (f TransportFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }
