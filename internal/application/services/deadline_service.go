package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/domain/schedule"
	"github.com/lexassist/core/internal/infrastructure/logger"
	"github.com/lexassist/core/internal/ports"
)

const statsCacheTTL = 5 * time.Minute

// DeadlineService owns the deadline lifecycle: creation, edits, completion
// with recurring-series advancement, and the upcoming/overdue queries.
type DeadlineService struct {
	deadlineRepo ports.DeadlineRepository
	userRepo     ports.UserRepository
	scheduler    ports.NotificationService
	tx           ports.Transactor
	cache        ports.CacheRepository
	logger       *logger.Logger
}

// NewDeadlineService creates a new deadline service
func NewDeadlineService(deadlineRepo ports.DeadlineRepository, userRepo ports.UserRepository, scheduler ports.NotificationService, tx ports.Transactor, cache ports.CacheRepository, logger *logger.Logger) *DeadlineService {
	return &DeadlineService{
		deadlineRepo: deadlineRepo,
		userRepo:     userRepo,
		scheduler:    scheduler,
		tx:           tx,
		cache:        cache,
		logger:       logger,
	}
}

// CreateDeadline validates and persists a new deadline, then schedules its
// reminder notifications. Scheduling failures never fail the creation.
func (s *DeadlineService) CreateDeadline(ctx context.Context, userID uuid.UUID, req ports.CreateDeadlineRequest) (*entities.Deadline, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	if !req.DeadlineType.IsValid() {
		return nil, fmt.Errorf("%w: unknown deadline type %q", entities.ErrInvalidDueDate, req.DeadlineType)
	}

	reminderDays := req.ReminderDays
	if len(reminderDays) == 0 {
		reminderDays = []int{7, 3, 1}
	}

	now := time.Now().UTC()
	deadline := &entities.Deadline{
		UserID:            userID,
		DocumentID:        req.DocumentID,
		Title:             req.Title,
		Description:       req.Description,
		DeadlineType:      req.DeadlineType,
		DueDate:           dueDate,
		IsRecurring:       req.IsRecurring,
		RecurrencePattern: req.RecurrencePattern,
		ReminderDays:      reminderDays,
		Metadata:          req.Metadata,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := deadline.Validate(); err != nil {
		return nil, err
	}

	if err := s.deadlineRepo.Create(ctx, deadline); err != nil {
		return nil, fmt.Errorf("failed to create deadline: %w", err)
	}

	s.logger.Info("Deadline created", "deadline_id", deadline.ID, "user_id", userID, "due_date", deadline.DueDate)
	s.invalidateStats(ctx, userID)
	s.scheduleNotifications(ctx, deadline)

	return deadline, nil
}

// GetDeadline retrieves a deadline owned by the user
func (s *DeadlineService) GetDeadline(ctx context.Context, id int, userID uuid.UUID) (*entities.Deadline, error) {
	deadline, err := s.deadlineRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("deadline not found: %w", err)
	}
	return deadline, nil
}

// UpdateDeadline applies the patch to an owned deadline. A due date change
// rebuilds the reminder schedule, superseding stale unsent notifications.
func (s *DeadlineService) UpdateDeadline(ctx context.Context, id int, userID uuid.UUID, req ports.UpdateDeadlineRequest) (*entities.Deadline, error) {
	deadline, err := s.deadlineRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("deadline not found: %w", err)
	}

	dueDateChanged := false

	if req.Title != nil {
		deadline.Title = *req.Title
	}
	if req.Description != nil {
		deadline.Description = req.Description
	}
	if req.DueDate != nil {
		dueDate, err := parseDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		dueDateChanged = !dueDate.Equal(deadline.DueDate)
		deadline.DueDate = dueDate
	}
	if req.IsRecurring != nil {
		deadline.IsRecurring = *req.IsRecurring
	}
	if req.RecurrencePattern != nil {
		deadline.RecurrencePattern = req.RecurrencePattern
	}
	if req.ReminderDays != nil {
		deadline.ReminderDays = req.ReminderDays
	}
	if req.Metadata != nil {
		deadline.Metadata = req.Metadata
	}

	deadline.UpdatedAt = time.Now().UTC()

	if err := deadline.Validate(); err != nil {
		return nil, err
	}

	if err := s.deadlineRepo.Update(ctx, deadline); err != nil {
		return nil, fmt.Errorf("failed to update deadline: %w", err)
	}

	s.logger.Info("Deadline updated", "deadline_id", deadline.ID, "user_id", userID, "due_date_changed", dueDateChanged)
	s.invalidateStats(ctx, userID)

	if dueDateChanged {
		s.scheduleNotifications(ctx, deadline)
	}

	return deadline, nil
}

// CompleteDeadline marks the deadline completed and, for recurring deadlines,
// spawns the next occurrence inside the same transaction. The completed row is
// kept as historical record.
func (s *DeadlineService) CompleteDeadline(ctx context.Context, id int, userID uuid.UUID) (*ports.CompleteDeadlineResult, error) {
	deadline, err := s.deadlineRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("deadline not found: %w", err)
	}

	now := time.Now().UTC()
	if err := deadline.Complete(now); err != nil {
		return nil, err
	}

	var next *entities.Deadline
	if deadline.IsRecurring && deadline.RecurrencePattern != nil {
		nextDue := schedule.NextDueDate(deadline.DueDate, *deadline.RecurrencePattern)
		next = deadline.NextOccurrence(nextDue)
		next.CreatedAt = now
		next.UpdatedAt = now
	}

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.deadlineRepo.Update(txCtx, deadline); err != nil {
			return fmt.Errorf("failed to mark deadline completed: %w", err)
		}
		if next != nil {
			if err := s.deadlineRepo.Create(txCtx, next); err != nil {
				return fmt.Errorf("failed to create next occurrence: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Deadline completed", "deadline_id", deadline.ID, "user_id", userID, "recurring", next != nil)
	s.invalidateStats(ctx, userID)

	if next != nil {
		s.scheduleNotifications(ctx, next)
	}

	return &ports.CompleteDeadlineResult{Completed: deadline, Next: next}, nil
}

// DeleteDeadline hard-deletes an owned deadline. Historical notifications are
// kept; the dangling deadline reference is tolerated on read.
func (s *DeadlineService) DeleteDeadline(ctx context.Context, id int, userID uuid.UUID) error {
	if err := s.deadlineRepo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to delete deadline: %w", err)
	}

	s.logger.Info("Deadline deleted", "deadline_id", id, "user_id", userID)
	s.invalidateStats(ctx, userID)
	return nil
}

// ListDeadlines retrieves deadlines with filtering and pagination
func (s *DeadlineService) ListDeadlines(ctx context.Context, filter ports.DeadlineFilter) ([]*entities.Deadline, int, error) {
	deadlines, total, err := s.deadlineRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list deadlines: %w", err)
	}
	return deadlines, total, nil
}

// GetUpcomingDeadlines returns incomplete deadlines due within the horizon,
// ordered by due date ascending.
func (s *DeadlineService) GetUpcomingDeadlines(ctx context.Context, userID uuid.UUID, horizonDays int) ([]*entities.Deadline, error) {
	if horizonDays <= 0 {
		horizonDays = 30
	}

	now := time.Now().UTC()
	deadlines, err := s.deadlineRepo.GetUpcoming(ctx, userID, now, now.AddDate(0, 0, horizonDays))
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming deadlines: %w", err)
	}
	return deadlines, nil
}

// GetOverdueDeadlines returns incomplete deadlines whose due date has passed.
func (s *DeadlineService) GetOverdueDeadlines(ctx context.Context, userID uuid.UUID) ([]*entities.Deadline, error) {
	deadlines, err := s.deadlineRepo.GetOverdue(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get overdue deadlines: %w", err)
	}
	return deadlines, nil
}

// GetDeadlineStats aggregates the user's deadline counts and completion rate.
// Served from cache when fresh.
func (s *DeadlineService) GetDeadlineStats(ctx context.Context, userID uuid.UUID) (*ports.DeadlineStats, error) {
	cacheKey := statsCacheKey(userID)

	var cached ports.DeadlineStats
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	counts, err := s.deadlineRepo.CountByStatus(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get deadline stats: %w", err)
	}

	stats := &ports.DeadlineStats{
		Total:     counts.Total,
		Completed: counts.Completed,
		Upcoming:  counts.Upcoming,
		Overdue:   counts.Overdue,
	}
	if counts.Total > 0 {
		stats.CompletionRate = float64(counts.Completed) / float64(counts.Total) * 100
	}

	if err := s.cache.Set(ctx, cacheKey, stats, statsCacheTTL); err != nil {
		s.logger.Warn("Failed to cache deadline stats", "error", err, "user_id", userID)
	}

	return stats, nil
}

// scheduleNotifications rebuilds the reminder schedule for a deadline.
// Best-effort: outcomes are logged, the surrounding mutation never fails.
func (s *DeadlineService) scheduleNotifications(ctx context.Context, deadline *entities.Deadline) {
	outcomes, err := s.scheduler.ScheduleDeadlineNotifications(ctx, deadline)
	if err != nil {
		s.logger.Warn("Failed to schedule deadline notifications", "error", err, "deadline_id", deadline.ID)
		return
	}

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			s.logger.Warn("Reminder scheduling failed",
				"deadline_id", deadline.ID,
				"channel", outcome.Channel,
				"days_before", outcome.DaysBefore,
				"error", outcome.Err,
			)
		}
	}
}

func (s *DeadlineService) invalidateStats(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Delete(ctx, statsCacheKey(userID)); err != nil {
		s.logger.Debug("Failed to invalidate stats cache", "error", err, "user_id", userID)
	}
}

func statsCacheKey(userID uuid.UUID) string {
	return "deadline_stats:" + userID.String()
}

// parseDueDate accepts RFC 3339 instants and bare dates, normalized to UTC.
func parseDueDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", entities.ErrInvalidDueDate, raw)
}
