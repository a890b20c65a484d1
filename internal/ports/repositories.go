package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lexassist/core/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter UserFilter) ([]*entities.User, int, error)
}

// DeadlineRepository defines the interface for deadline data operations.
// Mutations scoped by (id, userID) enforce ownership at the row level.
type DeadlineRepository interface {
	Create(ctx context.Context, deadline *entities.Deadline) error
	GetByID(ctx context.Context, id int, userID uuid.UUID) (*entities.Deadline, error)
	Update(ctx context.Context, deadline *entities.Deadline) error
	Delete(ctx context.Context, id int, userID uuid.UUID) error
	List(ctx context.Context, filter DeadlineFilter) ([]*entities.Deadline, int, error)
	GetUpcoming(ctx context.Context, userID uuid.UUID, from, until time.Time) ([]*entities.Deadline, error)
	GetOverdue(ctx context.Context, userID uuid.UUID, now time.Time) ([]*entities.Deadline, error)
	// ExistsForPeriod reports whether a deadline of the given type with the
	// exact due date already exists for the user. Guards idempotent statutory
	// generation.
	ExistsForPeriod(ctx context.Context, userID uuid.UUID, deadlineType entities.DeadlineType, dueDate time.Time) (bool, error)
	CountByStatus(ctx context.Context, userID uuid.UUID, now time.Time) (*DeadlineCounts, error)
}

// NotificationRepository defines the interface for notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, notification *entities.Notification) error
	GetByID(ctx context.Context, id int) (*entities.Notification, error)
	List(ctx context.Context, filter NotificationFilter) ([]*entities.Notification, int, error)
	// GetPending returns unsent notifications whose scheduled instant has
	// passed, ordered by scheduled_for ascending.
	GetPending(ctx context.Context, now time.Time) ([]*entities.Notification, error)
	// MarkSent flips is_sent atomically with a conditional update; returns
	// false when the row was already sent (or missing), so concurrent sweeps
	// cannot double-send.
	MarkSent(ctx context.Context, id int, sentAt time.Time) (bool, error)
	Reschedule(ctx context.Context, id int, scheduledFor time.Time) error
	// DeleteUnsentByDeadline removes stale pending reminders before a
	// deadline's schedule is rebuilt.
	DeleteUnsentByDeadline(ctx context.Context, deadlineID int) (int, error)
	// DeleteSentBefore removes sent notifications older than the cutoff.
	DeleteSentBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// DocumentRepository defines the interface for document data operations
type DocumentRepository interface {
	Create(ctx context.Context, document *entities.Document) error
	GetByID(ctx context.Context, id int, userID uuid.UUID) (*entities.Document, error)
	Update(ctx context.Context, document *entities.Document) error
	Delete(ctx context.Context, id int, userID uuid.UUID) error
	List(ctx context.Context, filter DocumentFilter) ([]*entities.Document, int, error)
}

// TemplateRepository defines the interface for template data operations
type TemplateRepository interface {
	Create(ctx context.Context, template *entities.Template) error
	GetByID(ctx context.Context, id int) (*entities.Template, error)
	ListByType(ctx context.Context, documentType entities.DocumentType) ([]*entities.Template, error)
}

// ComplianceRuleRepository defines the interface for compliance rule operations
type ComplianceRuleRepository interface {
	Create(ctx context.Context, rule *entities.ComplianceRule) error
	GetByID(ctx context.Context, id int) (*entities.ComplianceRule, error)
	GetActiveByType(ctx context.Context, ruleType string) ([]*entities.ComplianceRule, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Transactor runs fn inside a database transaction. Repository calls made with
// the ctx it passes to fn join that transaction; any error rolls everything
// back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ChannelSender delivers one notification over a concrete channel. recipient
// is the channel-appropriate contact (email address or phone number; ignored
// for push). A false return or error leaves the notification pending for the
// next sweep.
type ChannelSender interface {
	Send(ctx context.Context, channel entities.NotificationChannel, recipient, title, message string) error
}

// Filter types for repository queries

type UserFilter struct {
	Role     *entities.UserRole
	IsActive *bool
	Search   *string
	Limit    int
	Offset   int
}

type DeadlineFilter struct {
	UserID       *uuid.UUID
	DeadlineType *entities.DeadlineType
	IsCompleted  *bool
	UpcomingOnly bool
	DueBefore    *time.Time
	DueAfter     *time.Time
	Limit        int
	Offset       int
}

type NotificationFilter struct {
	UserID     *uuid.UUID
	DeadlineID *int
	Channel    *entities.NotificationChannel
	UnsentOnly bool
	Limit      int
	Offset     int
}

type DocumentFilter struct {
	UserID       *uuid.UUID
	DocumentType *entities.DocumentType
	IsActive     *bool
	Search       *string
	Limit        int
	Offset       int
}

// DeadlineCounts aggregates a user's deadlines by lifecycle state.
type DeadlineCounts struct {
	Total     int `json:"total" db:"total"`
	Completed int `json:"completed" db:"completed"`
	Upcoming  int `json:"upcoming" db:"upcoming"`
	Overdue   int `json:"overdue" db:"overdue"`
}
