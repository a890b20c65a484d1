package sender

import (
	"context"
	"fmt"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/infrastructure/logger"
	"github.com/lexassist/core/internal/ports"
)

// MultiSender routes a notification to the delivery adapter for its channel.
type MultiSender struct {
	email  *EmailSender
	sms    *SMSSender
	push   *PushSender
	logger *logger.Logger
}

// NewMultiSender creates the channel router over the concrete delivery adapters
func NewMultiSender(email *EmailSender, sms *SMSSender, push *PushSender, logger *logger.Logger) *MultiSender {
	return &MultiSender{
		email:  email,
		sms:    sms,
		push:   push,
		logger: logger,
	}
}

var _ ports.ChannelSender = (*MultiSender)(nil)

// Send delivers one notification over the given channel. WhatsApp shares the
// SMS gateway with a channel-prefixed recipient.
func (m *MultiSender) Send(ctx context.Context, channel entities.NotificationChannel, recipient, title, message string) error {
	switch channel {
	case entities.ChannelEmail:
		return m.email.Send(ctx, recipient, title, message)
	case entities.ChannelSMS:
		return m.sms.Send(ctx, recipient, message, false)
	case entities.ChannelWhatsApp:
		return m.sms.Send(ctx, recipient, message, true)
	case entities.ChannelPush:
		return m.push.Send(ctx, recipient, title, message)
	default:
		return fmt.Errorf("unsupported notification channel: %s", channel)
	}
}
