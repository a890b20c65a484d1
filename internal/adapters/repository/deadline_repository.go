package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/ports"
)

// DeadlineRepositoryImpl implements the DeadlineRepository interface
type DeadlineRepositoryImpl struct {
	db *sqlx.DB
}

// NewDeadlineRepository creates a new deadline repository
func NewDeadlineRepository(db *sqlx.DB) ports.DeadlineRepository {
	return &DeadlineRepositoryImpl{db: db}
}

const deadlineColumns = `id, user_id, document_id, title, description, deadline_type, due_date,
	is_recurring, recurrence_pattern, reminder_days, is_completed, completed_at, metadata,
	created_at, updated_at`

func (r *DeadlineRepositoryImpl) Create(ctx context.Context, deadline *entities.Deadline) error {
	query := `
		INSERT INTO deadlines (user_id, document_id, title, description, deadline_type, due_date,
			is_recurring, recurrence_pattern, reminder_days, is_completed, completed_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	reminderDays, err := marshalJSONB(deadline.ReminderDays)
	if err != nil {
		return err
	}
	metadata, err := marshalJSONB(deadline.Metadata)
	if err != nil {
		return err
	}

	err = executorFrom(ctx, r.db).QueryRowContext(ctx, query,
		deadline.UserID, deadline.DocumentID, deadline.Title, deadline.Description,
		deadline.DeadlineType, deadline.DueDate, deadline.IsRecurring,
		deadline.RecurrencePattern, reminderDays, deadline.IsCompleted,
		deadline.CompletedAt, metadata,
	).Scan(&deadline.ID, &deadline.CreatedAt, &deadline.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create deadline: %w", err)
	}

	return nil
}

func (r *DeadlineRepositoryImpl) GetByID(ctx context.Context, id int, userID uuid.UUID) (*entities.Deadline, error) {
	query := fmt.Sprintf(`SELECT %s FROM deadlines WHERE id = $1 AND user_id = $2`, deadlineColumns)

	row := executorFrom(ctx, r.db).QueryRowContext(ctx, query, id, userID)
	deadline, err := scanDeadline(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrDeadlineNotFound
		}
		return nil, fmt.Errorf("get deadline: %w", err)
	}

	return deadline, nil
}

func (r *DeadlineRepositoryImpl) Update(ctx context.Context, deadline *entities.Deadline) error {
	query := `
		UPDATE deadlines
		SET title = $3, description = $4, due_date = $5, is_recurring = $6,
			recurrence_pattern = $7, reminder_days = $8, is_completed = $9,
			completed_at = $10, metadata = $11, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`

	reminderDays, err := marshalJSONB(deadline.ReminderDays)
	if err != nil {
		return err
	}
	metadata, err := marshalJSONB(deadline.Metadata)
	if err != nil {
		return err
	}

	err = executorFrom(ctx, r.db).QueryRowContext(ctx, query,
		deadline.ID, deadline.UserID, deadline.Title, deadline.Description,
		deadline.DueDate, deadline.IsRecurring, deadline.RecurrencePattern,
		reminderDays, deadline.IsCompleted, deadline.CompletedAt, metadata,
	).Scan(&deadline.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrDeadlineNotFound
		}
		return fmt.Errorf("update deadline: %w", err)
	}

	return nil
}

func (r *DeadlineRepositoryImpl) Delete(ctx context.Context, id int, userID uuid.UUID) error {
	query := `DELETE FROM deadlines WHERE id = $1 AND user_id = $2`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete deadline: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrDeadlineNotFound
	}

	return nil
}

func (r *DeadlineRepositoryImpl) List(ctx context.Context, filter ports.DeadlineFilter) ([]*entities.Deadline, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.DeadlineType != nil {
		conditions = append(conditions, fmt.Sprintf("deadline_type = $%d", argIndex))
		args = append(args, *filter.DeadlineType)
		argIndex++
	}

	if filter.IsCompleted != nil {
		conditions = append(conditions, fmt.Sprintf("is_completed = $%d", argIndex))
		args = append(args, *filter.IsCompleted)
		argIndex++
	}

	if filter.UpcomingOnly {
		conditions = append(conditions, "NOT is_completed AND due_date > NOW()")
	}

	if filter.DueBefore != nil {
		conditions = append(conditions, fmt.Sprintf("due_date <= $%d", argIndex))
		args = append(args, *filter.DueBefore)
		argIndex++
	}

	if filter.DueAfter != nil {
		conditions = append(conditions, fmt.Sprintf("due_date >= $%d", argIndex))
		args = append(args, *filter.DueAfter)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM deadlines %s", whereClause)
	var total int
	err := executorFrom(ctx, r.db).QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count deadlines: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM deadlines %s
		ORDER BY due_date ASC
		LIMIT $%d OFFSET $%d`, deadlineColumns, whereClause, argIndex, argIndex+1)

	args = append(args, limit, filter.Offset)

	return r.queryDeadlines(ctx, query, total, args...)
}

func (r *DeadlineRepositoryImpl) GetUpcoming(ctx context.Context, userID uuid.UUID, from, until time.Time) ([]*entities.Deadline, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM deadlines
		WHERE user_id = $1 AND NOT is_completed AND due_date > $2 AND due_date <= $3
		ORDER BY due_date ASC`, deadlineColumns)

	deadlines, _, err := r.queryDeadlines(ctx, query, 0, userID, from, until)
	if err != nil {
		return nil, fmt.Errorf("get upcoming deadlines: %w", err)
	}
	return deadlines, nil
}

func (r *DeadlineRepositoryImpl) GetOverdue(ctx context.Context, userID uuid.UUID, now time.Time) ([]*entities.Deadline, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM deadlines
		WHERE user_id = $1 AND NOT is_completed AND due_date < $2
		ORDER BY due_date ASC`, deadlineColumns)

	deadlines, _, err := r.queryDeadlines(ctx, query, 0, userID, now)
	if err != nil {
		return nil, fmt.Errorf("get overdue deadlines: %w", err)
	}
	return deadlines, nil
}

func (r *DeadlineRepositoryImpl) ExistsForPeriod(ctx context.Context, userID uuid.UUID, deadlineType entities.DeadlineType, dueDate time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM deadlines WHERE user_id = $1 AND deadline_type = $2 AND due_date = $3)`

	var exists bool
	err := executorFrom(ctx, r.db).QueryRowContext(ctx, query, userID, deadlineType, dueDate).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check deadline exists: %w", err)
	}
	return exists, nil
}

func (r *DeadlineRepositoryImpl) CountByStatus(ctx context.Context, userID uuid.UUID, now time.Time) (*ports.DeadlineCounts, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE is_completed) AS completed,
			COUNT(*) FILTER (WHERE NOT is_completed AND due_date >= $2) AS upcoming,
			COUNT(*) FILTER (WHERE NOT is_completed AND due_date < $2) AS overdue
		FROM deadlines
		WHERE user_id = $1`

	var counts ports.DeadlineCounts
	err := executorFrom(ctx, r.db).QueryRowContext(ctx, query, userID, now).Scan(
		&counts.Total, &counts.Completed, &counts.Upcoming, &counts.Overdue,
	)
	if err != nil {
		return nil, fmt.Errorf("count deadlines by status: %w", err)
	}

	return &counts, nil
}

func (r *DeadlineRepositoryImpl) queryDeadlines(ctx context.Context, query string, total int, args ...interface{}) ([]*entities.Deadline, int, error) {
	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query deadlines: %w", err)
	}
	defer rows.Close()

	var deadlines []*entities.Deadline
	for rows.Next() {
		deadline, err := scanDeadline(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan deadline: %w", err)
		}
		deadlines = append(deadlines, deadline)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return deadlines, total, nil
}

func scanDeadline(row rowScanner) (*entities.Deadline, error) {
	var deadline entities.Deadline
	var reminderDays, metadata []byte

	err := row.Scan(
		&deadline.ID, &deadline.UserID, &deadline.DocumentID, &deadline.Title,
		&deadline.Description, &deadline.DeadlineType, &deadline.DueDate,
		&deadline.IsRecurring, &deadline.RecurrencePattern, &reminderDays,
		&deadline.IsCompleted, &deadline.CompletedAt, &metadata,
		&deadline.CreatedAt, &deadline.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(reminderDays, &deadline.ReminderDays); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(metadata, &deadline.Metadata); err != nil {
		return nil, err
	}

	deadline.DueDate = deadline.DueDate.UTC()
	return &deadline, nil
}
