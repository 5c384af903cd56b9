package main

import (
	"fmt"
	"log/slog"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/internal/config"
	"github.com/MrEthical07/goAccount/mail"
)

// newTransport picks the delivery backend named by MAIL_TRANSPORT.
func newTransport(cfg config.MailConfig, log *slog.Logger) (mail.Transport, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Transport)) {
	case "", "smtp":
		return mail.NewSMTPTransport(mail.SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.User,
			Password: cfg.Password,
		})
	case "mailgun":
		return mail.NewMailgunTransport(mail.MailgunConfig{
			Domain: cfg.MailgunDomain,
			APIKey: cfg.MailgunAPIKey,
		})
	case "log":
		return mail.NewLogTransport(log), nil
	default:
		return nil, fmt.Errorf("unsupported mail transport %q", cfg.Transport)
	}
}

func newMailer(cfg config.Config, engine goAccount.Config, log *slog.Logger) (*mail.Sender, error) {
	transport, err := newTransport(cfg.Mail, log)
	if err != nil {
		return nil, err
	}
	from := cfg.Mail.From
	if from == "" {
		from = cfg.Mail.User
	}
	return mail.NewSender(mail.Config{
		From:        from,
		FrontendURL: cfg.Mail.FrontendURL,
		OTPTTL:      engine.OTP.TTL,
		ResetTTL:    engine.PasswordReset.TTL,
	}, transport)
}
