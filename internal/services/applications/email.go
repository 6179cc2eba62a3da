package applications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/valusophy/city/internal/platform/config"
	"github.com/valusophy/city/internal/platform/timeouts"
)

// Sender delivers operator notifications. A nil Sender disables email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// smtpEnv holds raw env values before post-parse validation.
type smtpEnv struct {
	Host     string `env:"VALUSOPHY_CITY_SMTP_HOST"`
	Port     int    `env:"VALUSOPHY_CITY_SMTP_PORT" envDefault:"587"`
	Username string `env:"VALUSOPHY_CITY_SMTP_USERNAME"`
	Password string `env:"VALUSOPHY_CITY_SMTP_PASSWORD"`
	From     string `env:"VALUSOPHY_CITY_SMTP_FROM"`
}

// SMTPSender delivers mail over SMTP with PLAIN auth.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
}

var _ Sender = (*SMTPSender)(nil)

// NewSMTPSenderFromEnv builds a sender from SMTP env configuration. It
// returns (nil, nil) when no host is configured, which disables email.
func NewSMTPSenderFromEnv() (*SMTPSender, error) {
	var raw smtpEnv
	if err := config.ParseEnv(&raw); err != nil {
		return nil, fmt.Errorf("parse smtp env: %w", err)
	}
	host := strings.TrimSpace(raw.Host)
	if host == "" {
		return nil, nil
	}
	from := strings.TrimSpace(raw.From)
	if from == "" {
		return nil, fmt.Errorf("VALUSOPHY_CITY_SMTP_FROM is required when SMTP is configured")
	}

	var auth smtp.Auth
	if raw.Username != "" {
		auth = smtp.PlainAuth("", raw.Username, raw.Password, host)
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%d", host, raw.Port),
		auth: auth,
		from: from,
	}, nil
}

// Send delivers one message. The context deadline bounds the attempt.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if s == nil {
		return fmt.Errorf("smtp sender is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	message := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"Date: " + time.Now().UTC().Format(time.RFC1123Z),
		"",
		body,
	}, "\r\n")

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(message))
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sendTimeout bounds one notification attempt.
const sendTimeout = timeouts.EmailSend
