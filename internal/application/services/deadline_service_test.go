package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/infrastructure/logger"
	"github.com/lexassist/core/internal/ports"
)

// testEnv wires the services over the in-memory fakes the way main wires them
// over Postgres and redis.
type testEnv struct {
	users         *fakeUserRepo
	deadlines     *fakeDeadlineRepo
	notifications *fakeNotificationRepo
	rules         *fakeRuleRepo
	cache         *fakeCache
	sender        *fakeSender

	notificationSvc *NotificationService
	deadlineSvc     *DeadlineService
	complianceSvc   *ComplianceService
}

func newTestEnv(users ...*entities.User) *testEnv {
	env := &testEnv{
		users:         newFakeUserRepo(users...),
		deadlines:     newFakeDeadlineRepo(),
		notifications: newFakeNotificationRepo(),
		rules:         newFakeRuleRepo(),
		cache:         newFakeCache(),
		sender:        newFakeSender(),
	}
	log := logger.NewNop()
	env.notificationSvc = NewNotificationService(env.notifications, env.users, env.sender, 30, log)
	env.deadlineSvc = NewDeadlineService(env.deadlines, env.users, env.notificationSvc, fakeTransactor{}, env.cache, log)
	env.complianceSvc = NewComplianceService(env.rules, env.deadlines, env.deadlineSvc, nil, log)
	return env
}

func newTestUser() *entities.User {
	phone := "+911234567890"
	return &entities.User{
		ID:          uuid.New(),
		Email:       "advocate@example.com",
		Username:    "advocate",
		FirstName:   "Asha",
		LastName:    "Rao",
		Phone:       &phone,
		Role:        entities.UserRoleUser,
		IsActive:    true,
		Timezone:    "UTC",
		Preferences: entities.DefaultNotificationPreferences(),
	}
}

func TestCreateDeadlineAppliesDefaults(t *testing.T) {
	user := newTestUser()
	env := newTestEnv(user)
	ctx := context.Background()

	dueDate := time.Now().UTC().AddDate(0, 0, 30).Format(time.RFC3339)
	deadline, err := env.deadlineSvc.CreateDeadline(ctx, user.ID, ports.CreateDeadlineRequest{
		Title:        "File annual return",
		DeadlineType: entities.DeadlineTypeCustom,
		DueDate:      dueDate,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{7, 3, 1}, deadline.ReminderDays)
	assert.NotZero(t, deadline.ID)

	// Default preferences enable email and push: 3 reminder days x 2 channels.
	pending, _, err := env.notifications.List(ctx, ports.NotificationFilter{DeadlineID: &deadline.ID})
	require.NoError(t, err)
	assert.Len(t, pending, 6)
}

func TestCreateDeadlineValidation(t *testing.T) {
	user := newTestUser()
	env := newTestEnv(user)
	ctx := context.Background()

	_, err := env.deadlineSvc.CreateDeadline(ctx, user.ID, ports.CreateDeadlineRequest{
		Title:        "Bad date",
		DeadlineType: entities.DeadlineTypeCustom,
		DueDate:      "not-a-date",
	})
	assert.ErrorIs(t, err, entities.ErrInvalidDueDate)

	_, err = env.deadlineSvc.CreateDeadline(ctx, user.ID, ports.CreateDeadlineRequest{
		Title:        "Recurring without pattern",
		DeadlineType: entities.DeadlineTypeCustom,
		DueDate:      "2027-03-20",
		IsRecurring:  true,
	})
	assert.ErrorIs(t, err, entities.ErrInvalidRecurrence)

	_, err = env.deadlineSvc.CreateDeadline(ctx, uuid.New(), ports.CreateDeadlineRequest{
		Title:        "Unknown user",
		DeadlineType: entities.DeadlineTypeCustom,
		DueDate:      "2027-03-20",
	})
	assert.Error(t, err)
}

func TestCompleteRecurringSpawnsSuccessor(t *testing.T) {
	user := newTestUser()
	env := newTestEnv(user)
	ctx := context.Background()

	pattern := entities.RecurrenceMonthly
	deadline, err := env.deadlineSvc.CreateDeadline(ctx, user.ID, ports.CreateDeadlineRequest{
		Title:             "GST Monthly Return Filing",
		DeadlineType:      entities.DeadlineTypeGSTFiling,
		DueDate:           "2027-03-20T00:00:00Z",
		IsRecurring:       true,
		RecurrencePattern: &pattern,
	})
	require.NoError(t, err)

	result, err := env.deadlineSvc.CompleteDeadline(ctx, deadline.ID, user.ID)
	require.NoError(t, err)

	assert.True(t, result.Completed.IsCompleted)
	assert.NotNil(t, result.Completed.CompletedAt)

	require.NotNil(t, result.Next)
	assert.NotEqual(t, deadline.ID, result.Next.ID)
	assert.Equal(t, time.Date(2027, 4, 20, 0, 0, 0, 0, time.UTC), result.Next.DueDate)
	assert.True(t, result.Next.IsRecurring)
	assert.False(t, result.Next.IsCompleted)

	// The completed original stays as historical record.
	stored, err := env.deadlines.GetByID(ctx, deadline.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted)

	// Completing again is rejected.
	_, err = env.deadlineSvc.CompleteDeadline(ctx, deadline.ID, user.ID)
	assert.ErrorIs(t, err, entities.ErrDeadlineCompleted)
}

func TestCompleteNonRecurringHasNoSuccessor(t *testing.T) {
	user := newTestUser()
	env := newTestEnv(user)
	ctx := context.Background()

	deadline, err := env.deadlineSvc.CreateDeadline(ctx, user.ID, ports.CreateDeadlineRequest{
		Title:        "One-off hearing",
		DeadlineType: entities.DeadlineTypeCustom,
		DueDate:      "2027-06-01",
	})
	require.NoError(t, err)

	result, err := env.deadlineSvc.CompleteDeadline(ctx, deadline.ID, user.ID)
	require.NoError(t, err)
	assert.Nil(t, result.Next)

	_, total, err := env.deadlines.List(ctx, ports.DeadlineFilter{UserID: &user.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestUpdateDueDateRebuildsReminders(t *testing.T) {
	user := newTestUser()
	env := newTestEnv(user)
	ctx := context.Background()

	deadline, err := env.deadlineSvc.CreateDeadline(ctx, user.ID, ports.CreateDeadlineRequest{
		Title:        "Trademark renewal",
		DeadlineType: entities.DeadlineTypeRenewal,
		DueDate:      time.Now().UTC().AddDate(0, 0, 30).Format(time.RFC3339),
	})
	require.NoError(t, err)

	before, _, err := env.notifications.List(ctx, ports.NotificationFilter{DeadlineID: &deadline.ID})
	require.NoError(t, err)
	require.Len(t, before, 6)

	newDue := time.Now().UTC().AddDate(0, 0, 60).Format(time.RFC3339)
	updated, err := env.deadlineSvc.UpdateDeadline(ctx, deadline.ID, user.ID, ports.UpdateDeadlineRequest{DueDate: &newDue})
	require.NoError(t, err)

	after, _, err := env.notifications.List(ctx, ports.NotificationFilter{DeadlineID: &deadline.ID})
	require.NoError(t, err)
	assert.Len(t, after, 6)
	for _, n := range after {
		assert.True(t, n.ScheduledFor.After(time.Now().UTC().AddDate(0, 0, 30)),
			"reminders must track the new due date")
	}
	assert.Equal(t, updated.DueDate.Format(time.RFC3339), newDue)
}

func TestDeadlineOwnershipScoping(t *testing.T) {
	owner := newTestUser()
	intruder := newTestUser()
	intruder.ID = uuid.New()
	intruder.Email = "other@example.com"
	intruder.Username = "other"
	env := newTestEnv(owner, intruder)
	ctx := context.Background()

	deadline, err := env.deadlineSvc.CreateDeadline(ctx, owner.ID, ports.CreateDeadlineRequest{
		Title:        "Confidential filing",
		DeadlineType: entities.DeadlineTypeCustom,
		DueDate:      "2027-01-15",
	})
	require.NoError(t, err)

	_, err = env.deadlineSvc.GetDeadline(ctx, deadline.ID, intruder.ID)
	assert.Error(t, err)

	_, err = env.deadlineSvc.CompleteDeadline(ctx, deadline.ID, intruder.ID)
	assert.Error(t, err)

	err = env.deadlineSvc.DeleteDeadline(ctx, deadline.ID, intruder.ID)
	assert.Error(t, err)
}

func TestDeadlineStats(t *testing.T) {
	user := newTestUser()
	env := newTestEnv(user)
	ctx := context.Background()

	first, err := env.deadlineSvc.CreateDeadline(ctx, user.ID, ports.CreateDeadlineRequest{
		Title:        "First",
		DeadlineType: entities.DeadlineTypeCustom,
		DueDate:      time.Now().UTC().AddDate(0, 0, 10).Format(time.RFC3339),
	})
	require.NoError(t, err)
	_, err = env.deadlineSvc.CreateDeadline(ctx, user.ID, ports.CreateDeadlineRequest{
		Title:        "Second",
		DeadlineType: entities.DeadlineTypeCustom,
		DueDate:      time.Now().UTC().AddDate(0, 0, 20).Format(time.RFC3339),
	})
	require.NoError(t, err)

	_, err = env.deadlineSvc.CompleteDeadline(ctx, first.ID, user.ID)
	require.NoError(t, err)

	stats, err := env.deadlineSvc.GetDeadlineStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Upcoming)
	assert.InDelta(t, 50.0, stats.CompletionRate, 0.01)

	// Second read comes from cache and must agree.
	again, err := env.deadlineSvc.GetDeadlineStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, stats, again)
}

func TestDeadlineStatusAtDueInstant(t *testing.T) {
	user := newTestUser()
	env := newTestEnv(user)
	ctx := context.Background()

	now := time.Date(2027, 5, 10, 12, 0, 0, 0, time.UTC)
	horizon := now.AddDate(0, 0, 30)

	seed := func(title string, due time.Time) *entities.Deadline {
		d := &entities.Deadline{
			UserID:       user.ID,
			Title:        title,
			DeadlineType: entities.DeadlineTypeCustom,
			DueDate:      due,
		}
		require.NoError(t, env.deadlines.Create(ctx, d))
		return d
	}

	seed("past", now.Add(-time.Minute))
	atNow := seed("at instant", now)
	atHorizon := seed("at horizon", horizon)
	seed("beyond horizon", horizon.Add(time.Minute))

	// A deadline due exactly at the instant is not yet overdue.
	overdue, err := env.deadlines.GetOverdue(ctx, user.ID, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "past", overdue[0].Title)

	// The upcoming range is open at the start and closed at the horizon, so
	// the row due at the instant belongs to overdue-or-now, not upcoming.
	upcoming, err := env.deadlines.GetUpcoming(ctx, user.ID, now, horizon)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, atHorizon.ID, upcoming[0].ID)

	counts, err := env.deadlines.CountByStatus(ctx, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Total)
	assert.Equal(t, 1, counts.Overdue)
	assert.Equal(t, 3, counts.Upcoming)

	// Status counting and the overdue listing agree on the same row.
	assert.NotEqual(t, atNow.ID, overdue[0].ID)
}
