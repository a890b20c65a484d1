package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrDeadlineNotFound      = errors.New("deadline not found")
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrTemplateNotFound      = errors.New("template not found")
	ErrRuleNotFound          = errors.New("compliance rule not found")
	ErrInvalidDueDate        = errors.New("invalid due date")
	ErrInvalidRecurrence     = errors.New("recurring deadline requires a recurrence pattern")
	ErrInvalidReminderDays   = errors.New("reminder days must be non-negative")
	ErrDuplicateDeadline     = errors.New("deadline already exists for this filing period")
	ErrDeadlineCompleted     = errors.New("deadline is already completed")
	ErrNotificationSent      = errors.New("notification has already been sent")
	ErrUnauthorized          = errors.New("unauthorized")
)

// Enums and types
type UserRole string

const (
	UserRoleUser   UserRole = "user"
	UserRoleLawyer UserRole = "lawyer"
	UserRoleAdmin  UserRole = "admin"
)

type DocumentType string

const (
	DocumentTypeContract   DocumentType = "contract"
	DocumentTypeTrademark  DocumentType = "trademark"
	DocumentTypeCopyright  DocumentType = "copyright"
	DocumentTypeBanking    DocumentType = "banking"
	DocumentTypeProperty   DocumentType = "property"
	DocumentTypeBonds      DocumentType = "bonds"
	DocumentTypeCriminal   DocumentType = "criminal"
	DocumentTypeDivorce    DocumentType = "divorce"
	DocumentTypeGST        DocumentType = "gst"
	DocumentTypeCompliance DocumentType = "compliance"
)

type DeadlineType string

const (
	DeadlineTypeGSTFiling  DeadlineType = "gst_filing"
	DeadlineTypeRenewal    DeadlineType = "renewal"
	DeadlineTypeCompliance DeadlineType = "compliance"
	DeadlineTypeCustom     DeadlineType = "custom"
)

type NotificationChannel string

const (
	ChannelEmail    NotificationChannel = "email"
	ChannelSMS      NotificationChannel = "sms"
	ChannelWhatsApp NotificationChannel = "whatsapp"
	ChannelPush     NotificationChannel = "push"
)

// AllChannels lists every supported delivery channel. Fan-out iterates this
// slice so a new channel only needs a constant and a sender case.
var AllChannels = []NotificationChannel{ChannelEmail, ChannelSMS, ChannelWhatsApp, ChannelPush}

type RecurrencePattern string

const (
	RecurrenceDaily     RecurrencePattern = "daily"
	RecurrenceWeekly    RecurrencePattern = "weekly"
	RecurrenceMonthly   RecurrencePattern = "monthly"
	RecurrenceQuarterly RecurrencePattern = "quarterly"
	RecurrenceAnnually  RecurrencePattern = "annually"
)

type FilingCadence string

const (
	CadenceMonthly   FilingCadence = "monthly"
	CadenceQuarterly FilingCadence = "quarterly"
	CadenceAnnual    FilingCadence = "annual"
)

// NotificationPreferences holds a user's per-channel opt-ins and quiet-hours
// window. Quiet hours are local HH:MM strings interpreted in the user's timezone.
type NotificationPreferences struct {
	Email           bool   `json:"email"`
	SMS             bool   `json:"sms"`
	WhatsApp        bool   `json:"whatsapp"`
	Push            bool   `json:"push"`
	QuietHoursStart string `json:"quiet_hours_start"`
	QuietHoursEnd   string `json:"quiet_hours_end"`
}

// DefaultNotificationPreferences returns the preferences applied to new users.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		Email:           true,
		SMS:             false,
		WhatsApp:        false,
		Push:            true,
		QuietHoursStart: "22:00",
		QuietHoursEnd:   "08:00",
	}
}

// ChannelEnabled reports whether the given channel is opted in.
func (p NotificationPreferences) ChannelEnabled(ch NotificationChannel) bool {
	switch ch {
	case ChannelEmail:
		return p.Email
	case ChannelSMS:
		return p.SMS
	case ChannelWhatsApp:
		return p.WhatsApp
	case ChannelPush:
		return p.Push
	default:
		return false
	}
}

// User represents a user account in the system
type User struct {
	ID                 uuid.UUID               `json:"id" db:"id"`
	Email              string                  `json:"email" db:"email"`
	Username           string                  `json:"username" db:"username"`
	PasswordHash       string                  `json:"-" db:"password_hash"`
	FirstName          string                  `json:"first_name" db:"first_name"`
	LastName           string                  `json:"last_name" db:"last_name"`
	Phone              *string                 `json:"phone" db:"phone"`
	Role               UserRole                `json:"role" db:"role"`
	IsActive           bool                    `json:"is_active" db:"is_active"`
	IsVerified         bool                    `json:"is_verified" db:"is_verified"`
	LanguagePreference string                  `json:"language_preference" db:"language_preference"`
	Timezone           string                  `json:"timezone" db:"timezone"`
	Preferences        NotificationPreferences `json:"notification_preferences" db:"notification_preferences"`
	CreatedAt          time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at" db:"updated_at"`
}

// Document represents a user-owned legal document
type Document struct {
	ID           int            `json:"id" db:"id"`
	UserID       uuid.UUID      `json:"user_id" db:"user_id"`
	Title        string         `json:"title" db:"title"`
	DocumentType DocumentType   `json:"document_type" db:"document_type"`
	TemplateID   *int           `json:"template_id" db:"template_id"`
	Content      *string        `json:"content" db:"content"`
	FilePath     *string        `json:"file_path" db:"file_path"`
	Metadata     map[string]any `json:"metadata" db:"metadata"`
	Version      int            `json:"version" db:"version"`
	IsActive     bool           `json:"is_active" db:"is_active"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// TemplateField describes one input in a template's form.
type TemplateField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// Template represents a reusable document template
type Template struct {
	ID           int             `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	DocumentType DocumentType    `json:"document_type" db:"document_type"`
	Description  *string         `json:"description" db:"description"`
	Content      string          `json:"template_content" db:"template_content"`
	FormFields   []TemplateField `json:"form_fields" db:"form_fields"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	CreatedBy    *uuid.UUID      `json:"created_by" db:"created_by"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Deadline represents a user-owned obligation with a due instant, optionally
// recurring. Due dates are always stored in UTC.
type Deadline struct {
	ID                int                `json:"id" db:"id"`
	UserID            uuid.UUID          `json:"user_id" db:"user_id"`
	DocumentID        *int               `json:"document_id" db:"document_id"`
	Title             string             `json:"title" db:"title"`
	Description       *string            `json:"description" db:"description"`
	DeadlineType      DeadlineType       `json:"deadline_type" db:"deadline_type"`
	DueDate           time.Time          `json:"due_date" db:"due_date"`
	IsRecurring       bool               `json:"is_recurring" db:"is_recurring"`
	RecurrencePattern *RecurrencePattern `json:"recurrence_pattern" db:"recurrence_pattern"`
	ReminderDays      []int              `json:"reminder_days" db:"reminder_days"`
	IsCompleted       bool               `json:"is_completed" db:"is_completed"`
	CompletedAt       *time.Time         `json:"completed_at" db:"completed_at"`
	Metadata          map[string]any     `json:"metadata" db:"metadata"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" db:"updated_at"`
}

// Notification represents a single scheduled reminder on one channel.
type Notification struct {
	ID           int                 `json:"id" db:"id"`
	UserID       uuid.UUID           `json:"user_id" db:"user_id"`
	DeadlineID   *int                `json:"deadline_id" db:"deadline_id"`
	Title        string              `json:"title" db:"title"`
	Message      string              `json:"message" db:"message"`
	Channel      NotificationChannel `json:"notification_type" db:"notification_type"`
	IsSent       bool                `json:"is_sent" db:"is_sent"`
	SentAt       *time.Time          `json:"sent_at" db:"sent_at"`
	ScheduledFor time.Time           `json:"scheduled_for" db:"scheduled_for"`
	Metadata     map[string]any      `json:"metadata" db:"metadata"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
}

// RuleCondition is one field/operator/value predicate in a compliance rule.
type RuleCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// RuleAction is one outcome a matching rule produces. Type is "requirement"
// or "warning"; the remaining fields apply per type.
type RuleAction struct {
	Type        string `json:"type"`
	ID          string `json:"id,omitempty"`
	Description string `json:"description,omitempty"`
	Critical    bool   `json:"critical,omitempty"`
	Action      string `json:"action,omitempty"`
	Message     string `json:"message,omitempty"`
}

// ComplianceRule represents a declarative condition/action rule evaluated
// against user-supplied data during compliance checks.
type ComplianceRule struct {
	ID          int             `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description" db:"description"`
	RuleType    string          `json:"rule_type" db:"rule_type"`
	Conditions  []RuleCondition `json:"conditions" db:"conditions"`
	Actions     []RuleAction    `json:"actions" db:"actions"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedBy   *uuid.UUID      `json:"created_by" db:"created_by"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Business logic methods for Deadline

func (d *Deadline) IsOverdue() bool {
	return !d.IsCompleted && time.Now().UTC().After(d.DueDate)
}

func (d *Deadline) DaysUntilDue() int {
	return int(time.Until(d.DueDate).Hours() / 24)
}

// Validate checks the invariants a deadline must hold before persisting.
func (d *Deadline) Validate() error {
	if d.DueDate.IsZero() {
		return ErrInvalidDueDate
	}
	if d.IsRecurring && (d.RecurrencePattern == nil || !d.RecurrencePattern.IsValid()) {
		return ErrInvalidRecurrence
	}
	for _, days := range d.ReminderDays {
		if days < 0 {
			return ErrInvalidReminderDays
		}
	}
	return nil
}

// Complete marks the deadline completed at the given instant.
func (d *Deadline) Complete(now time.Time) error {
	if d.IsCompleted {
		return ErrDeadlineCompleted
	}
	d.IsCompleted = true
	d.CompletedAt = &now
	d.UpdatedAt = now
	return nil
}

// NextOccurrence clones the deadline's configuration onto a successor with the
// advanced due date. The receiver is kept as historical record.
func (d *Deadline) NextOccurrence(nextDue time.Time) *Deadline {
	return &Deadline{
		UserID:            d.UserID,
		DocumentID:        d.DocumentID,
		Title:             d.Title,
		Description:       d.Description,
		DeadlineType:      d.DeadlineType,
		DueDate:           nextDue,
		IsRecurring:       d.IsRecurring,
		RecurrencePattern: d.RecurrencePattern,
		ReminderDays:      d.ReminderDays,
		Metadata:          d.Metadata,
	}
}

// Business logic methods for Notification

func (n *Notification) IsDue(now time.Time) bool {
	return !n.IsSent && !n.ScheduledFor.After(now)
}

// MarkSent records a successful delivery. A sent notification is final.
func (n *Notification) MarkSent(now time.Time) error {
	if n.IsSent {
		return ErrNotificationSent
	}
	n.IsSent = true
	n.SentAt = &now
	return nil
}

// Defer pushes the scheduled instant forward without touching the sent flag.
func (n *Notification) Defer(until time.Time) {
	n.ScheduledFor = until.UTC()
}

// Utility methods

func (ur UserRole) IsValid() bool {
	switch ur {
	case UserRoleUser, UserRoleLawyer, UserRoleAdmin:
		return true
	default:
		return false
	}
}

func (dt DocumentType) IsValid() bool {
	switch dt {
	case DocumentTypeContract, DocumentTypeTrademark, DocumentTypeCopyright,
		DocumentTypeBanking, DocumentTypeProperty, DocumentTypeBonds,
		DocumentTypeCriminal, DocumentTypeDivorce, DocumentTypeGST, DocumentTypeCompliance:
		return true
	default:
		return false
	}
}

func (dt DeadlineType) IsValid() bool {
	switch dt {
	case DeadlineTypeGSTFiling, DeadlineTypeRenewal, DeadlineTypeCompliance, DeadlineTypeCustom:
		return true
	default:
		return false
	}
}

func (ch NotificationChannel) IsValid() bool {
	switch ch {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp, ChannelPush:
		return true
	default:
		return false
	}
}

func (rp RecurrencePattern) IsValid() bool {
	switch rp {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceQuarterly, RecurrenceAnnually:
		return true
	default:
		return false
	}
}

func (fc FilingCadence) IsValid() bool {
	switch fc {
	case CadenceMonthly, CadenceQuarterly, CadenceAnnual:
		return true
	default:
		return false
	}
}

// RecurrencePattern maps a filing cadence onto the recurrence pattern used for
// the generated deadline's series.
func (fc FilingCadence) RecurrencePattern() RecurrencePattern {
	switch fc {
	case CadenceQuarterly:
		return RecurrenceQuarterly
	case CadenceAnnual:
		return RecurrenceAnnually
	default:
		return RecurrenceMonthly
	}
}
