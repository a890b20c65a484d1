package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/ports"
)

// NotificationRepositoryImpl implements the NotificationRepository interface
type NotificationRepositoryImpl struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlx.DB) ports.NotificationRepository {
	return &NotificationRepositoryImpl{db: db}
}

const notificationColumns = `id, user_id, deadline_id, title, message, notification_type,
	is_sent, sent_at, scheduled_for, metadata, created_at`

func (r *NotificationRepositoryImpl) Create(ctx context.Context, notification *entities.Notification) error {
	query := `
		INSERT INTO notifications (user_id, deadline_id, title, message, notification_type,
			is_sent, sent_at, scheduled_for, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	metadata, err := marshalJSONB(notification.Metadata)
	if err != nil {
		return err
	}

	err = executorFrom(ctx, r.db).QueryRowContext(ctx, query,
		notification.UserID, notification.DeadlineID, notification.Title,
		notification.Message, notification.Channel, notification.IsSent,
		notification.SentAt, notification.ScheduledFor, metadata,
	).Scan(&notification.ID, &notification.CreatedAt)

	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

func (r *NotificationRepositoryImpl) GetByID(ctx context.Context, id int) (*entities.Notification, error) {
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE id = $1`, notificationColumns)

	row := executorFrom(ctx, r.db).QueryRowContext(ctx, query, id)
	notification, err := scanNotification(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}

	return notification, nil
}

func (r *NotificationRepositoryImpl) List(ctx context.Context, filter ports.NotificationFilter) ([]*entities.Notification, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}

	if filter.DeadlineID != nil {
		conditions = append(conditions, fmt.Sprintf("deadline_id = $%d", argIndex))
		args = append(args, *filter.DeadlineID)
		argIndex++
	}

	if filter.Channel != nil {
		conditions = append(conditions, fmt.Sprintf("notification_type = $%d", argIndex))
		args = append(args, *filter.Channel)
		argIndex++
	}

	if filter.UnsentOnly {
		conditions = append(conditions, "NOT is_sent")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM notifications %s", whereClause)
	var total int
	err := executorFrom(ctx, r.db).QueryRowContext(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM notifications %s
		ORDER BY scheduled_for DESC
		LIMIT $%d OFFSET $%d`, notificationColumns, whereClause, argIndex, argIndex+1)

	args = append(args, limit, filter.Offset)

	notifications, err := r.queryNotifications(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

func (r *NotificationRepositoryImpl) GetPending(ctx context.Context, now time.Time) ([]*entities.Notification, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM notifications
		WHERE NOT is_sent AND scheduled_for <= $1
		ORDER BY scheduled_for ASC`, notificationColumns)

	return r.queryNotifications(ctx, query, now)
}

// MarkSent flips the sent flag with a conditional update so a row is sent at
// most once even when sweeps race. The false return means another sweep won.
func (r *NotificationRepositoryImpl) MarkSent(ctx context.Context, id int, sentAt time.Time) (bool, error) {
	query := `UPDATE notifications SET is_sent = true, sent_at = $2 WHERE id = $1 AND NOT is_sent`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query, id, sentAt)
	if err != nil {
		return false, fmt.Errorf("mark notification sent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

func (r *NotificationRepositoryImpl) Reschedule(ctx context.Context, id int, scheduledFor time.Time) error {
	query := `UPDATE notifications SET scheduled_for = $2 WHERE id = $1 AND NOT is_sent`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query, id, scheduledFor)
	if err != nil {
		return fmt.Errorf("reschedule notification: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrNotificationNotFound
	}

	return nil
}

func (r *NotificationRepositoryImpl) DeleteUnsentByDeadline(ctx context.Context, deadlineID int) (int, error) {
	query := `DELETE FROM notifications WHERE deadline_id = $1 AND NOT is_sent`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query, deadlineID)
	if err != nil {
		return 0, fmt.Errorf("delete unsent notifications: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

func (r *NotificationRepositoryImpl) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM notifications WHERE is_sent AND sent_at < $1`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete sent notifications: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

func (r *NotificationRepositoryImpl) queryNotifications(ctx context.Context, query string, args ...interface{}) ([]*entities.Notification, error) {
	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entities.Notification
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, notification)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return notifications, nil
}

func scanNotification(row rowScanner) (*entities.Notification, error) {
	var notification entities.Notification
	var metadata []byte

	err := row.Scan(
		&notification.ID, &notification.UserID, &notification.DeadlineID,
		&notification.Title, &notification.Message, &notification.Channel,
		&notification.IsSent, &notification.SentAt, &notification.ScheduledFor,
		&metadata, &notification.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJSONB(metadata, &notification.Metadata); err != nil {
		return nil, err
	}

	notification.ScheduledFor = notification.ScheduledFor.UTC()
	return &notification, nil
}
