package sender

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/lexassist/core/internal/infrastructure/config"
	"github.com/lexassist/core/internal/infrastructure/logger"
)

// SMSSender delivers notifications through a Twilio-compatible REST gateway.
// WhatsApp messages ride the same API with channel-prefixed numbers.
type SMSSender struct {
	cfg    config.SMSGatewayConfig
	client *http.Client
	logger *logger.Logger
}

// NewSMSSender creates a new SMS gateway sender
func NewSMSSender(cfg config.SMSGatewayConfig, logger *logger.Logger) *SMSSender {
	return &SMSSender{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Send posts one message to the gateway. whatsapp switches the addressing
// scheme; the recipient phone number is used as-is otherwise.
func (s *SMSSender) Send(ctx context.Context, recipient, message string, whatsapp bool) error {
	if recipient == "" {
		return fmt.Errorf("sms recipient is empty")
	}

	to := recipient
	from := s.cfg.FromNumber
	if whatsapp {
		to = "whatsapp:" + recipient
		from = "whatsapp:" + s.cfg.FromNumber
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway rejected message: status %d: %s", resp.StatusCode, string(body))
	}

	s.logger.Debug("SMS sent", "recipient", recipient, "whatsapp", whatsapp)
	return nil
}
