package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/domain/schedule"
	"github.com/lexassist/core/internal/infrastructure/logger"
	"github.com/lexassist/core/internal/ports"
)

var (
	sweepProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_sweep_processed_total",
		Help: "Total notifications examined by dispatch sweeps",
	})
	sweepSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_sweep_sent_total",
		Help: "Total notifications delivered, by channel",
	}, []string{"channel"})
	sweepDeferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_sweep_deferred_total",
		Help: "Total notifications deferred by quiet hours",
	})
	sweepFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_sweep_failed_total",
		Help: "Total delivery failures, by channel",
	}, []string{"channel"})
	retentionDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_retention_deleted_total",
		Help: "Total sent notifications removed by retention sweeps",
	})
)

// NotificationService schedules deadline reminders and runs the dispatch and
// retention sweeps.
type NotificationService struct {
	notificationRepo ports.NotificationRepository
	userRepo         ports.UserRepository
	sender           ports.ChannelSender
	retention        time.Duration
	logger           *logger.Logger
}

// NewNotificationService creates a new notification service. retentionDays
// bounds how long sent notifications are kept.
func NewNotificationService(notificationRepo ports.NotificationRepository, userRepo ports.UserRepository, sender ports.ChannelSender, retentionDays int, logger *logger.Logger) *NotificationService {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		sender:           sender,
		retention:        time.Duration(retentionDays) * 24 * time.Hour,
		logger:           logger,
	}
}

// ScheduleDeadlineNotifications fans the deadline's reminder-day list out into
// one pending notification per enabled channel per reminder day. Reminder
// instants already in the past are skipped. Previously scheduled unsent
// notifications for the deadline are superseded first so a moved due date
// does not accumulate stale reminders. One failed row never aborts the rest;
// every attempt is reported in the returned outcomes.
func (s *NotificationService) ScheduleDeadlineNotifications(ctx context.Context, deadline *entities.Deadline) ([]ports.ScheduleOutcome, error) {
	user, err := s.userRepo.GetByID(ctx, deadline.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if deadline.ID != 0 {
		removed, err := s.notificationRepo.DeleteUnsentByDeadline(ctx, deadline.ID)
		if err != nil {
			s.logger.Warn("Failed to supersede stale reminders", "error", err, "deadline_id", deadline.ID)
		} else if removed > 0 {
			s.logger.Debug("Superseded stale reminders", "deadline_id", deadline.ID, "removed", removed)
		}
	}

	now := time.Now().UTC()
	hasPhone := user.Phone != nil && *user.Phone != ""

	var outcomes []ports.ScheduleOutcome
	for _, daysBefore := range deadline.ReminderDays {
		notifyAt := deadline.DueDate.AddDate(0, 0, -daysBefore)

		for _, channel := range entities.AllChannels {
			if !user.Preferences.ChannelEnabled(channel) {
				continue
			}

			outcome := ports.ScheduleOutcome{Channel: channel, DaysBefore: daysBefore}

			switch {
			case !notifyAt.After(now):
				outcome.Skipped = "reminder instant already passed"
			case (channel == entities.ChannelSMS || channel == entities.ChannelWhatsApp) && !hasPhone:
				outcome.Skipped = "no phone number on file"
			default:
				deadlineID := deadline.ID
				notification := &entities.Notification{
					UserID:       deadline.UserID,
					DeadlineID:   &deadlineID,
					Title:        fmt.Sprintf("Reminder: %s", deadline.Title),
					Message:      reminderMessage(deadline, daysBefore, channel),
					Channel:      channel,
					ScheduledFor: notifyAt,
					CreatedAt:    now,
				}
				if err := s.notificationRepo.Create(ctx, notification); err != nil {
					outcome.Err = err
				} else {
					outcome.Scheduled = true
				}
			}

			outcomes = append(outcomes, outcome)
		}
	}

	return outcomes, nil
}

// ScheduleBulk creates ad-hoc notifications outside the deadline fan-out,
// returning how many were persisted. Items with no scheduled instant go out
// on the next sweep.
func (s *NotificationService) ScheduleBulk(ctx context.Context, items []ports.BulkNotificationItem) (int, error) {
	now := time.Now().UTC()
	created := 0

	for _, item := range items {
		if !item.Channel.IsValid() {
			s.logger.Warn("Skipping bulk item with unknown channel", "channel", item.Channel, "user_id", item.UserID)
			continue
		}

		scheduledFor := item.ScheduledFor
		if scheduledFor.IsZero() {
			scheduledFor = now
		}

		notification := &entities.Notification{
			UserID:       item.UserID,
			Title:        item.Title,
			Message:      item.Message,
			Channel:      item.Channel,
			ScheduledFor: scheduledFor.UTC(),
			CreatedAt:    now,
		}
		if err := s.notificationRepo.Create(ctx, notification); err != nil {
			s.logger.Warn("Failed to create bulk notification", "error", err, "user_id", item.UserID)
			continue
		}
		created++
	}

	return created, nil
}

// ProcessPending is one dispatch sweep: it selects every due unsent
// notification, defers those inside the owner's quiet hours, and hands the
// rest to the channel sender. Delivery failures leave the row pending for the
// next sweep; the sent transition is an atomic conditional update, so a row
// is observably sent at most once even under racing sweeps. Returns the
// number of notifications examined.
func (s *NotificationService) ProcessPending(ctx context.Context, now time.Time) (int, error) {
	pending, err := s.notificationRepo.GetPending(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending notifications: %w", err)
	}

	for _, notification := range pending {
		sweepProcessed.Inc()
		s.dispatch(ctx, notification, now)
	}

	if len(pending) > 0 {
		s.logger.Info("Dispatch sweep finished", "processed", len(pending))
	}

	return len(pending), nil
}

func (s *NotificationService) dispatch(ctx context.Context, notification *entities.Notification, now time.Time) {
	user, err := s.userRepo.GetByID(ctx, notification.UserID)
	if err != nil {
		s.logger.Warn("Skipping notification for unknown user", "notification_id", notification.ID, "user_id", notification.UserID)
		return
	}

	window := schedule.QuietWindow{
		Start:    user.Preferences.QuietHoursStart,
		End:      user.Preferences.QuietHoursEnd,
		Timezone: user.Timezone,
	}

	quiet, err := window.Contains(notification.ScheduledFor)
	if err != nil {
		// Fail open: a broken timezone must not hold reminders hostage.
		s.logger.Warn("Quiet-hours check failed, sending anyway", "error", err, "notification_id", notification.ID)
	}
	if quiet {
		next, err := window.NextAllowed(notification.ScheduledFor)
		if err != nil {
			s.logger.Warn("Quiet-hours deferral fell back", "error", err, "notification_id", notification.ID)
		}
		if err := s.notificationRepo.Reschedule(ctx, notification.ID, next); err != nil {
			s.logger.Error("Failed to defer notification", "error", err, "notification_id", notification.ID)
			return
		}
		sweepDeferred.Inc()
		s.logger.Debug("Notification deferred past quiet hours", "notification_id", notification.ID, "rescheduled_for", next)
		return
	}

	recipient := contactFor(notification.Channel, user)
	if err := s.sender.Send(ctx, notification.Channel, recipient, notification.Title, notification.Message); err != nil {
		sweepFailed.WithLabelValues(string(notification.Channel)).Inc()
		s.logger.Warn("Notification delivery failed, will retry next sweep",
			"error", err,
			"notification_id", notification.ID,
			"channel", notification.Channel,
		)
		return
	}

	sent, err := s.notificationRepo.MarkSent(ctx, notification.ID, now)
	if err != nil {
		s.logger.Error("Failed to mark notification sent", "error", err, "notification_id", notification.ID)
		return
	}
	if !sent {
		s.logger.Warn("Notification already sent by a concurrent sweep", "notification_id", notification.ID)
		return
	}

	sweepSent.WithLabelValues(string(notification.Channel)).Inc()
}

// CleanupSent removes sent notifications older than the retention window and
// returns how many were deleted.
func (s *NotificationService) CleanupSent(ctx context.Context, now time.Time) (int, error) {
	deleted, err := s.notificationRepo.DeleteSentBefore(ctx, now.Add(-s.retention))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up notifications: %w", err)
	}

	retentionDeleted.Add(float64(deleted))
	if deleted > 0 {
		s.logger.Info("Retention sweep finished", "deleted", deleted)
	}
	return deleted, nil
}

// ListUserNotifications retrieves a user's notifications with pagination
func (s *NotificationService) ListUserNotifications(ctx context.Context, userID uuid.UUID, filter ports.NotificationFilter) ([]*entities.Notification, int, error) {
	filter.UserID = &userID
	notifications, total, err := s.notificationRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// MarkNotificationSent manually marks an owned notification as sent.
func (s *NotificationService) MarkNotificationSent(ctx context.Context, id int, userID uuid.UUID) (*entities.Notification, error) {
	notification, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("notification not found: %w", err)
	}
	if notification.UserID != userID {
		return nil, entities.ErrNotificationNotFound
	}

	now := time.Now().UTC()
	if _, err := s.notificationRepo.MarkSent(ctx, id, now); err != nil {
		return nil, fmt.Errorf("failed to mark notification sent: %w", err)
	}

	notification.IsSent = true
	notification.SentAt = &now
	return notification, nil
}

// reminderMessage renders the channel message. SMS and WhatsApp get the short
// form to stay within message limits.
func reminderMessage(deadline *entities.Deadline, daysBefore int, channel entities.NotificationChannel) string {
	due := deadline.DueDate.Format("2006-01-02")
	switch channel {
	case entities.ChannelSMS, entities.ChannelWhatsApp:
		return fmt.Sprintf("Deadline '%s' due in %d days on %s.", deadline.Title, daysBefore, due)
	default:
		return fmt.Sprintf("Your deadline '%s' is due in %d days on %s.", deadline.Title, daysBefore, due)
	}
}

// contactFor picks the channel-appropriate recipient contact.
func contactFor(channel entities.NotificationChannel, user *entities.User) string {
	switch channel {
	case entities.ChannelSMS, entities.ChannelWhatsApp:
		if user.Phone != nil {
			return *user.Phone
		}
		return ""
	case entities.ChannelEmail:
		return user.Email
	case entities.ChannelPush:
		return user.ID.String()
	default:
		return ""
	}
}
