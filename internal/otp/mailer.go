package otp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/mail.v2"
)

// SMTPConfig holds outgoing mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SSL      bool
}

// SMTPMailer sends codes over SMTP.
type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *mail.Dialer
}

// NewSMTPMailer returns a mailer for cfg. From defaults to the username.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = 20 * time.Second
	d.SSL = cfg.SSL
	return &SMTPMailer{cfg: cfg, dialer: d}
}

func (m *SMTPMailer) SendCode(ctx context.Context, to, code string, ttl time.Duration) error {
	msg := NewCodeMessage(m.cfg.From, to, code, ttl)

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp: %w", err)
		}
		slog.Info("login code sent", "to", to)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewCodeMessage builds the login code email.
func NewCodeMessage(from, to, code string, ttl time.Duration) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your Wildcat Market login code")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Your login code is %s\n\nIt expires in %d minutes. If you did not request it, ignore this email.\n",
		code, int(ttl.Minutes()),
	))
	return msg
}

// LogMailer writes codes to the log instead of sending them. Used when SMTP is not configured.
type LogMailer struct{}

func (LogMailer) SendCode(_ context.Context, to, code string, ttl time.Duration) error {
	slog.Warn("smtp not configured, logging login code", "to", to, "code", code, "ttl", ttl)
	return nil
}
