package sender

import (
	"context"

	"github.com/lexassist/core/internal/infrastructure/logger"
)

// PushSender records push notifications for an external delivery pipeline.
// Device registration and the mobile push provider live outside this service;
// until they are wired the adapter acknowledges delivery after logging.
type PushSender struct {
	logger *logger.Logger
}

// NewPushSender creates a new push sender
func NewPushSender(logger *logger.Logger) *PushSender {
	return &PushSender{logger: logger}
}

// Send logs the push payload keyed by user ID.
func (s *PushSender) Send(_ context.Context, userID, title, message string) error {
	s.logger.Info("Push notification dispatched", "user_id", userID, "title", title, "message", message)
	return nil
}
