package sender

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/lexassist/core/internal/infrastructure/config"
	"github.com/lexassist/core/internal/infrastructure/logger"
)

// EmailSender delivers notifications over SMTP.
type EmailSender struct {
	cfg    config.SMTPConfig
	logger *logger.Logger
}

// NewEmailSender creates a new SMTP email sender
func NewEmailSender(cfg config.SMTPConfig, logger *logger.Logger) *EmailSender {
	return &EmailSender{cfg: cfg, logger: logger}
}

// Send composes and sends a plain-text email to the recipient address.
func (s *EmailSender) Send(_ context.Context, recipient, subject, body string) error {
	if recipient == "" {
		return fmt.Errorf("email recipient is empty")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s\r\n",
		s.cfg.From, recipient, subject, body,
	))

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{recipient}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Debug("Email sent", "recipient", recipient, "subject", subject)
	return nil
}
