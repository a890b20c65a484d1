package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/ports"
)

func futureDeadline(user *entities.User, daysOut int, reminderDays []int) *entities.Deadline {
	return &entities.Deadline{
		ID:           1,
		UserID:       user.ID,
		Title:        "Hearing preparation",
		DeadlineType: entities.DeadlineTypeCustom,
		DueDate:      time.Now().UTC().AddDate(0, 0, daysOut),
		ReminderDays: reminderDays,
	}
}

func TestScheduleFanOutAllChannels(t *testing.T) {
	user := newTestUser()
	user.Preferences = entities.NotificationPreferences{
		Email: true, SMS: true, WhatsApp: true, Push: true,
		QuietHoursStart: "22:00", QuietHoursEnd: "08:00",
	}
	env := newTestEnv(user)
	ctx := context.Background()

	outcomes, err := env.notificationSvc.ScheduleDeadlineNotifications(ctx, futureDeadline(user, 30, []int{7, 3, 1}))
	require.NoError(t, err)

	// 3 reminder days x 4 enabled channels.
	assert.Len(t, outcomes, 12)
	for _, outcome := range outcomes {
		assert.True(t, outcome.Scheduled, "channel %s days %d: %s", outcome.Channel, outcome.DaysBefore, outcome.Skipped)
	}

	pending, err := env.notifications.GetPending(ctx, time.Now().UTC().AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Len(t, pending, 12)
}

func TestSchedulePhoneGate(t *testing.T) {
	user := newTestUser()
	user.Phone = nil
	user.Preferences = entities.NotificationPreferences{
		Email: true, SMS: true, WhatsApp: true, Push: true,
		QuietHoursStart: "22:00", QuietHoursEnd: "08:00",
	}
	env := newTestEnv(user)

	outcomes, err := env.notificationSvc.ScheduleDeadlineNotifications(context.Background(), futureDeadline(user, 30, []int{7}))
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	for _, outcome := range outcomes {
		switch outcome.Channel {
		case entities.ChannelSMS, entities.ChannelWhatsApp:
			assert.False(t, outcome.Scheduled)
			assert.NotEmpty(t, outcome.Skipped)
		default:
			assert.True(t, outcome.Scheduled)
		}
	}
}

func TestScheduleSkipsPastInstants(t *testing.T) {
	user := newTestUser()
	env := newTestEnv(user)

	// Due in 2 days: the 7- and 3-day instants are already in the past.
	outcomes, err := env.notificationSvc.ScheduleDeadlineNotifications(context.Background(), futureDeadline(user, 2, []int{7, 3, 1}))
	require.NoError(t, err)

	scheduled := 0
	for _, outcome := range outcomes {
		if outcome.Scheduled {
			assert.Equal(t, 1, outcome.DaysBefore)
			scheduled++
		}
	}
	// Default preferences: email and push only.
	assert.Equal(t, 2, scheduled)
}

func TestScheduleSupersedesStaleReminders(t *testing.T) {
	user := newTestUser()
	env := newTestEnv(user)
	ctx := context.Background()

	deadline := futureDeadline(user, 30, []int{7, 3, 1})
	_, err := env.notificationSvc.ScheduleDeadlineNotifications(ctx, deadline)
	require.NoError(t, err)

	// Rescheduling the same deadline must not stack a second wave.
	deadline.DueDate = deadline.DueDate.AddDate(0, 0, 10)
	_, err = env.notificationSvc.ScheduleDeadlineNotifications(ctx, deadline)
	require.NoError(t, err)

	all, _, err := env.notifications.List(ctx, ports.NotificationFilter{DeadlineID: &deadline.ID})
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestProcessPendingSendsAndMarks(t *testing.T) {
	user := newTestUser()
	env := newTestEnv(user)
	ctx := context.Background()

	// Midday UTC is outside the default 22:00-08:00 quiet window.
	scheduledFor := time.Date(2027, 5, 10, 12, 0, 0, 0, time.UTC)
	notification := &entities.Notification{
		UserID:       user.ID,
		Title:        "Reminder: Hearing preparation",
		Message:      "Your deadline 'Hearing preparation' is due in 1 days on 2027-05-11.",
		Channel:      entities.ChannelEmail,
		ScheduledFor: scheduledFor,
	}
	require.NoError(t, env.notifications.Create(ctx, notification))

	processed, err := env.notificationSvc.ProcessPending(ctx, scheduledFor.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, env.sender.sentCount())
	assert.Equal(t, user.Email, env.sender.sent[0].Recipient)

	stored, err := env.notifications.GetByID(ctx, notification.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSent)
	require.NotNil(t, stored.SentAt)

	// A second sweep finds nothing to do.
	processed, err = env.notificationSvc.ProcessPending(ctx, scheduledFor.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Equal(t, 1, env.sender.sentCount())
}

func TestProcessPendingDefersQuietHours(t *testing.T) {
	user := newTestUser()
	env := newTestEnv(user)
	ctx := context.Background()

	// 23:30 UTC falls inside the default 22:00-08:00 window.
	scheduledFor := time.Date(2027, 5, 10, 23, 30, 0, 0, time.UTC)
	notification := &entities.Notification{
		UserID:       user.ID,
		Title:        "Reminder: Hearing preparation",
		Message:      "quiet hours message",
		Channel:      entities.ChannelPush,
		ScheduledFor: scheduledFor,
	}
	require.NoError(t, env.notifications.Create(ctx, notification))

	processed, err := env.notificationSvc.ProcessPending(ctx, scheduledFor.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Zero(t, env.sender.sentCount())

	stored, err := env.notifications.GetByID(ctx, notification.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsSent)
	deferred := time.Date(2027, 5, 11, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, deferred, stored.ScheduledFor)

	// The window end is awake: the sweep covering the deferred instant delivers
	// instead of pushing the row another day.
	processed, err = env.notificationSvc.ProcessPending(ctx, deferred)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, env.sender.sentCount())

	stored, err = env.notifications.GetByID(ctx, notification.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSent)
}

func TestProcessPendingDeliveryFailureStaysPending(t *testing.T) {
	user := newTestUser()
	env := newTestEnv(user)
	ctx := context.Background()
	env.sender.fail[entities.ChannelEmail] = errors.New("smtp unavailable")

	scheduledFor := time.Date(2027, 5, 10, 12, 0, 0, 0, time.UTC)
	notification := &entities.Notification{
		UserID:       user.ID,
		Title:        "Reminder",
		Message:      "retry me",
		Channel:      entities.ChannelEmail,
		ScheduledFor: scheduledFor,
	}
	require.NoError(t, env.notifications.Create(ctx, notification))

	processed, err := env.notificationSvc.ProcessPending(ctx, scheduledFor.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	stored, err := env.notifications.GetByID(ctx, notification.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsSent, "failed delivery must stay pending for the next sweep")

	// Sender recovers: the next sweep picks the same row up again.
	delete(env.sender.fail, entities.ChannelEmail)
	processed, err = env.notificationSvc.ProcessPending(ctx, scheduledFor.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	stored, err = env.notifications.GetByID(ctx, notification.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSent)
}

func TestCleanupSentHonorsRetention(t *testing.T) {
	user := newTestUser()
	env := newTestEnv(user)
	ctx := context.Background()

	now := time.Now().UTC()

	old := &entities.Notification{UserID: user.ID, Title: "old", Channel: entities.ChannelEmail, ScheduledFor: now.AddDate(0, 0, -41)}
	require.NoError(t, env.notifications.Create(ctx, old))
	_, err := env.notifications.MarkSent(ctx, old.ID, now.AddDate(0, 0, -40))
	require.NoError(t, err)

	recent := &entities.Notification{UserID: user.ID, Title: "recent", Channel: entities.ChannelEmail, ScheduledFor: now.AddDate(0, 0, -11)}
	require.NoError(t, env.notifications.Create(ctx, recent))
	_, err = env.notifications.MarkSent(ctx, recent.ID, now.AddDate(0, 0, -10))
	require.NoError(t, err)

	unsent := &entities.Notification{UserID: user.ID, Title: "unsent", Channel: entities.ChannelEmail, ScheduledFor: now.AddDate(0, 0, -60)}
	require.NoError(t, env.notifications.Create(ctx, unsent))

	deleted, err := env.notificationSvc.CleanupSent(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = env.notifications.GetByID(ctx, old.ID)
	assert.Error(t, err)

	// Recent sent and old unsent rows survive.
	_, err = env.notifications.GetByID(ctx, recent.ID)
	assert.NoError(t, err)
	_, err = env.notifications.GetByID(ctx, unsent.ID)
	assert.NoError(t, err)
}

func TestMarkNotificationSentOwnership(t *testing.T) {
	owner := newTestUser()
	env := newTestEnv(owner)
	ctx := context.Background()

	notification := &entities.Notification{
		UserID:       owner.ID,
		Title:        "Manual",
		Channel:      entities.ChannelPush,
		ScheduledFor: time.Now().UTC(),
	}
	require.NoError(t, env.notifications.Create(ctx, notification))

	_, err := env.notificationSvc.MarkNotificationSent(ctx, notification.ID, newTestUser().ID)
	assert.ErrorIs(t, err, entities.ErrNotificationNotFound)

	marked, err := env.notificationSvc.MarkNotificationSent(ctx, notification.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, marked.IsSent)
}

func TestScheduleBulk(t *testing.T) {
	user := newTestUser()
	env := newTestEnv(user)
	ctx := context.Background()

	created, err := env.notificationSvc.ScheduleBulk(ctx, []ports.BulkNotificationItem{
		{UserID: user.ID, Title: "Court circular", Message: "New filing hours", Channel: entities.ChannelEmail},
		{UserID: user.ID, Title: "Bad channel", Message: "ignored", Channel: entities.NotificationChannel("pigeon")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	all, total, err := env.notificationSvc.ListUserNotifications(ctx, user.ID, ports.NotificationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Court circular", all[0].Title)
}
