package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lexassist/core/internal/domain/entities"
)

// AuthService interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// UserService interface for user management operations
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*entities.User, error)
	UpdatePreferences(ctx context.Context, id uuid.UUID, prefs entities.NotificationPreferences) (*entities.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]*entities.User, int, error)
}

// DeadlineService interface for deadline lifecycle operations
type DeadlineService interface {
	CreateDeadline(ctx context.Context, userID uuid.UUID, req CreateDeadlineRequest) (*entities.Deadline, error)
	GetDeadline(ctx context.Context, id int, userID uuid.UUID) (*entities.Deadline, error)
	UpdateDeadline(ctx context.Context, id int, userID uuid.UUID, req UpdateDeadlineRequest) (*entities.Deadline, error)
	CompleteDeadline(ctx context.Context, id int, userID uuid.UUID) (*CompleteDeadlineResult, error)
	DeleteDeadline(ctx context.Context, id int, userID uuid.UUID) error
	ListDeadlines(ctx context.Context, filter DeadlineFilter) ([]*entities.Deadline, int, error)
	GetUpcomingDeadlines(ctx context.Context, userID uuid.UUID, horizonDays int) ([]*entities.Deadline, error)
	GetOverdueDeadlines(ctx context.Context, userID uuid.UUID) ([]*entities.Deadline, error)
	GetDeadlineStats(ctx context.Context, userID uuid.UUID) (*DeadlineStats, error)
}

// NotificationService interface for reminder scheduling and dispatch
type NotificationService interface {
	ScheduleDeadlineNotifications(ctx context.Context, deadline *entities.Deadline) ([]ScheduleOutcome, error)
	ScheduleBulk(ctx context.Context, items []BulkNotificationItem) (int, error)
	ProcessPending(ctx context.Context, now time.Time) (int, error)
	CleanupSent(ctx context.Context, now time.Time) (int, error)
	ListUserNotifications(ctx context.Context, userID uuid.UUID, filter NotificationFilter) ([]*entities.Notification, int, error)
	MarkNotificationSent(ctx context.Context, id int, userID uuid.UUID) (*entities.Notification, error)
}

// BulkNotificationItem is one entry in an ad-hoc bulk scheduling request.
type BulkNotificationItem struct {
	UserID       uuid.UUID                    `json:"user_id" validate:"required"`
	Title        string                       `json:"title" validate:"required,max=200"`
	Message      string                       `json:"message" validate:"required"`
	Channel      entities.NotificationChannel `json:"channel" validate:"required"`
	ScheduledFor time.Time                    `json:"scheduled_for"`
}

// ComplianceService interface for compliance checks and rules
type ComplianceService interface {
	CheckCompliance(ctx context.Context, documentType entities.DocumentType, userData map[string]any, userID uuid.UUID) (*ComplianceResult, error)
	GetComplianceSummary(ctx context.Context, userID uuid.UUID) (*ComplianceSummary, error)
	CreateRule(ctx context.Context, req CreateRuleRequest, createdBy uuid.UUID) (*entities.ComplianceRule, error)
}

// DocumentService interface for document and template operations
type DocumentService interface {
	CreateDocument(ctx context.Context, userID uuid.UUID, req CreateDocumentRequest) (*entities.Document, error)
	GetDocument(ctx context.Context, id int, userID uuid.UUID) (*entities.Document, error)
	UpdateDocument(ctx context.Context, id int, userID uuid.UUID, req UpdateDocumentRequest) (*entities.Document, error)
	DeleteDocument(ctx context.Context, id int, userID uuid.UUID) error
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]*entities.Document, int, error)
	ListTemplates(ctx context.Context, documentType entities.DocumentType) ([]*entities.Template, error)
}

// Request/Response Types

// Auth related types
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
	Timezone  string `json:"timezone" validate:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"`
	User        *entities.User `json:"user"`
}

type Claims struct {
	UserID string            `json:"user_id"`
	Email  string            `json:"email"`
	Role   entities.UserRole `json:"role"`
}

// User related types
type UpdateUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
	Timezone  *string `json:"timezone" validate:"omitempty,max=50"`
	Language  *string `json:"language_preference" validate:"omitempty,len=2"`
}

// Deadline related types
type CreateDeadlineRequest struct {
	Title             string                      `json:"title" validate:"required,max=200"`
	Description       *string                     `json:"description" validate:"omitempty,max=2000"`
	DeadlineType      entities.DeadlineType       `json:"deadline_type" validate:"required"`
	DueDate           string                      `json:"due_date" validate:"required"`
	DocumentID        *int                        `json:"document_id"`
	IsRecurring       bool                        `json:"is_recurring"`
	RecurrencePattern *entities.RecurrencePattern `json:"recurrence_pattern"`
	ReminderDays      []int                       `json:"reminder_days"`
	Metadata          map[string]any              `json:"metadata"`
}

type UpdateDeadlineRequest struct {
	Title             *string                     `json:"title" validate:"omitempty,max=200"`
	Description       *string                     `json:"description" validate:"omitempty,max=2000"`
	DueDate           *string                     `json:"due_date"`
	IsRecurring       *bool                       `json:"is_recurring"`
	RecurrencePattern *entities.RecurrencePattern `json:"recurrence_pattern"`
	ReminderDays      []int                       `json:"reminder_days"`
	Metadata          map[string]any              `json:"metadata"`
}

// CompleteDeadlineResult carries both the completed deadline and, for
// recurring deadlines, the freshly spawned successor.
type CompleteDeadlineResult struct {
	Completed *entities.Deadline `json:"completed"`
	Next      *entities.Deadline `json:"next,omitempty"`
}

type DeadlineStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Upcoming       int     `json:"upcoming"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completion_rate"`
}

// ScheduleOutcome records one per-channel, per-reminder-day scheduling attempt
// so the fan-out's partial failures stay observable.
type ScheduleOutcome struct {
	Channel    entities.NotificationChannel `json:"channel"`
	DaysBefore int                          `json:"days_before"`
	Scheduled  bool                         `json:"scheduled"`
	Skipped    string                       `json:"skipped,omitempty"`
	Err        error                        `json:"-"`
}

// Compliance related types
type ComplianceRequirement struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Critical    bool   `json:"critical"`
	Action      string `json:"action"`
}

type ComplianceDeadline struct {
	Type          string `json:"type"`
	Description   string `json:"description"`
	DueDate       string `json:"due_date"`
	DaysRemaining int    `json:"days_remaining"`
	Critical      bool   `json:"critical"`
}

type ComplianceResult struct {
	IsCompliant     bool                    `json:"is_compliant"`
	Requirements    []ComplianceRequirement `json:"requirements"`
	Deadlines       []ComplianceDeadline    `json:"deadlines"`
	Warnings        []string                `json:"warnings"`
	Recommendations []string                `json:"recommendations"`
}

type ComplianceSummary struct {
	TotalDeadlines      int     `json:"total_deadlines"`
	CompletedDeadlines  int     `json:"completed_deadlines"`
	UpcomingDeadlines   int     `json:"upcoming_deadlines"`
	OverdueDeadlines    int     `json:"overdue_deadlines"`
	CompletionRate      float64 `json:"completion_rate"`
	GSTDeadlines        int     `json:"gst_deadlines"`
	ComplianceDeadlines int     `json:"compliance_deadlines"`
	CustomDeadlines     int     `json:"custom_deadlines"`
}

type CreateRuleRequest struct {
	Name        string                   `json:"name" validate:"required,max=200"`
	Description *string                  `json:"description" validate:"omitempty,max=2000"`
	RuleType    string                   `json:"rule_type" validate:"required,max=50"`
	Conditions  []entities.RuleCondition `json:"conditions" validate:"required,min=1"`
	Actions     []entities.RuleAction    `json:"actions" validate:"required,min=1"`
}

// Document related types
type CreateDocumentRequest struct {
	Title        string                `json:"title" validate:"required,max=200"`
	DocumentType entities.DocumentType `json:"document_type" validate:"required"`
	TemplateID   *int                  `json:"template_id"`
	Content      *string               `json:"content"`
	FormData     map[string]string     `json:"form_data"`
	Metadata     map[string]any        `json:"metadata"`
}

type UpdateDocumentRequest struct {
	Title    *string        `json:"title" validate:"omitempty,max=200"`
	Content  *string        `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// Response types for pagination and common structures
type PaginatedResponse[T any] struct {
	Data   []T `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
