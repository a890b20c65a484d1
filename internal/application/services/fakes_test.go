package services

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexassist/core/internal/domain/entities"
	"github.com/lexassist/core/internal/ports"
)

// In-memory repository fakes backing the service tests.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entities.User
}

func newFakeUserRepo(users ...*entities.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*entities.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, user *entities.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return entities.ErrUserNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, _ ports.UserFilter) ([]*entities.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []*entities.User
	for _, user := range r.users {
		copied := *user
		users = append(users, &copied)
	}
	return users, len(users), nil
}

type fakeDeadlineRepo struct {
	mu        sync.Mutex
	nextID    int
	deadlines map[int]*entities.Deadline
}

func newFakeDeadlineRepo() *fakeDeadlineRepo {
	return &fakeDeadlineRepo{nextID: 1, deadlines: make(map[int]*entities.Deadline)}
}

func (r *fakeDeadlineRepo) Create(_ context.Context, deadline *entities.Deadline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deadline.ID = r.nextID
	r.nextID++
	copied := *deadline
	r.deadlines[deadline.ID] = &copied
	return nil
}

func (r *fakeDeadlineRepo) GetByID(_ context.Context, id int, userID uuid.UUID) (*entities.Deadline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deadline, ok := r.deadlines[id]
	if !ok || deadline.UserID != userID {
		return nil, entities.ErrDeadlineNotFound
	}
	copied := *deadline
	return &copied, nil
}

func (r *fakeDeadlineRepo) Update(_ context.Context, deadline *entities.Deadline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deadlines[deadline.ID]; !ok {
		return entities.ErrDeadlineNotFound
	}
	copied := *deadline
	r.deadlines[deadline.ID] = &copied
	return nil
}

func (r *fakeDeadlineRepo) Delete(_ context.Context, id int, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	deadline, ok := r.deadlines[id]
	if !ok || deadline.UserID != userID {
		return entities.ErrDeadlineNotFound
	}
	delete(r.deadlines, id)
	return nil
}

func (r *fakeDeadlineRepo) List(_ context.Context, filter ports.DeadlineFilter) ([]*entities.Deadline, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deadlines []*entities.Deadline
	for _, d := range r.deadlines {
		if filter.UserID != nil && d.UserID != *filter.UserID {
			continue
		}
		if filter.DeadlineType != nil && d.DeadlineType != *filter.DeadlineType {
			continue
		}
		if filter.IsCompleted != nil && d.IsCompleted != *filter.IsCompleted {
			continue
		}
		copied := *d
		deadlines = append(deadlines, &copied)
	}
	sort.Slice(deadlines, func(i, j int) bool { return deadlines[i].ID < deadlines[j].ID })
	return deadlines, len(deadlines), nil
}

func (r *fakeDeadlineRepo) GetUpcoming(_ context.Context, userID uuid.UUID, from, until time.Time) ([]*entities.Deadline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deadlines []*entities.Deadline
	for _, d := range r.deadlines {
		if d.UserID != userID || d.IsCompleted {
			continue
		}
		if !d.DueDate.After(from) || d.DueDate.After(until) {
			continue
		}
		copied := *d
		deadlines = append(deadlines, &copied)
	}
	sort.Slice(deadlines, func(i, j int) bool { return deadlines[i].DueDate.Before(deadlines[j].DueDate) })
	return deadlines, nil
}

func (r *fakeDeadlineRepo) GetOverdue(_ context.Context, userID uuid.UUID, now time.Time) ([]*entities.Deadline, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deadlines []*entities.Deadline
	for _, d := range r.deadlines {
		if d.UserID == userID && !d.IsCompleted && d.DueDate.Before(now) {
			copied := *d
			deadlines = append(deadlines, &copied)
		}
	}
	return deadlines, nil
}

func (r *fakeDeadlineRepo) ExistsForPeriod(_ context.Context, userID uuid.UUID, deadlineType entities.DeadlineType, dueDate time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deadlines {
		if d.UserID == userID && d.DeadlineType == deadlineType && d.DueDate.Equal(dueDate) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeDeadlineRepo) CountByStatus(_ context.Context, userID uuid.UUID, now time.Time) (*ports.DeadlineCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := &ports.DeadlineCounts{}
	for _, d := range r.deadlines {
		if d.UserID != userID {
			continue
		}
		counts.Total++
		switch {
		case d.IsCompleted:
			counts.Completed++
		case d.DueDate.Before(now):
			counts.Overdue++
		default:
			counts.Upcoming++
		}
	}
	return counts, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	nextID        int
	notifications map[int]*entities.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1, notifications: make(map[int]*entities.Notification)}
}

func (r *fakeNotificationRepo) Create(_ context.Context, notification *entities.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification.ID = r.nextID
	r.nextID++
	copied := *notification
	r.notifications[notification.ID] = &copied
	return nil
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id int) (*entities.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification, ok := r.notifications[id]
	if !ok {
		return nil, entities.ErrNotificationNotFound
	}
	copied := *notification
	return &copied, nil
}

func (r *fakeNotificationRepo) List(_ context.Context, filter ports.NotificationFilter) ([]*entities.Notification, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var notifications []*entities.Notification
	for _, n := range r.notifications {
		if filter.UserID != nil && n.UserID != *filter.UserID {
			continue
		}
		if filter.DeadlineID != nil && (n.DeadlineID == nil || *n.DeadlineID != *filter.DeadlineID) {
			continue
		}
		if filter.Channel != nil && n.Channel != *filter.Channel {
			continue
		}
		if filter.UnsentOnly && n.IsSent {
			continue
		}
		copied := *n
		notifications = append(notifications, &copied)
	}
	sort.Slice(notifications, func(i, j int) bool { return notifications[i].ID < notifications[j].ID })
	return notifications, len(notifications), nil
}

func (r *fakeNotificationRepo) GetPending(_ context.Context, now time.Time) ([]*entities.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []*entities.Notification
	for _, n := range r.notifications {
		if !n.IsSent && !n.ScheduledFor.After(now) {
			copied := *n
			pending = append(pending, &copied)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ScheduledFor.Before(pending[j].ScheduledFor) })
	return pending, nil
}

func (r *fakeNotificationRepo) MarkSent(_ context.Context, id int, sentAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification, ok := r.notifications[id]
	if !ok || notification.IsSent {
		return false, nil
	}
	notification.IsSent = true
	at := sentAt
	notification.SentAt = &at
	return true, nil
}

func (r *fakeNotificationRepo) Reschedule(_ context.Context, id int, scheduledFor time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification, ok := r.notifications[id]
	if !ok {
		return entities.ErrNotificationNotFound
	}
	notification.ScheduledFor = scheduledFor
	return nil
}

func (r *fakeNotificationRepo) DeleteUnsentByDeadline(_ context.Context, deadlineID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, n := range r.notifications {
		if !n.IsSent && n.DeadlineID != nil && *n.DeadlineID == deadlineID {
			delete(r.notifications, id)
			removed++
		}
	}
	return removed, nil
}

func (r *fakeNotificationRepo) DeleteSentBefore(_ context.Context, cutoff time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, n := range r.notifications {
		if n.IsSent && n.SentAt != nil && n.SentAt.Before(cutoff) {
			delete(r.notifications, id)
			removed++
		}
	}
	return removed, nil
}

type fakeRuleRepo struct {
	mu     sync.Mutex
	nextID int
	rules  map[int]*entities.ComplianceRule
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{nextID: 1, rules: make(map[int]*entities.ComplianceRule)}
}

func (r *fakeRuleRepo) Create(_ context.Context, rule *entities.ComplianceRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule.ID = r.nextID
	r.nextID++
	copied := *rule
	r.rules[rule.ID] = &copied
	return nil
}

func (r *fakeRuleRepo) GetByID(_ context.Context, id int) (*entities.ComplianceRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, entities.ErrRuleNotFound
	}
	copied := *rule
	return &copied, nil
}

func (r *fakeRuleRepo) GetActiveByType(_ context.Context, ruleType string) ([]*entities.ComplianceRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rules []*entities.ComplianceRule
	for _, rule := range r.rules {
		if rule.IsActive && rule.RuleType == ruleType {
			copied := *rule
			rules = append(rules, &copied)
		}
	}
	return rules, nil
}

// fakeCache round-trips values through JSON like the redis adapter does.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// fakeTransactor runs the function directly; the fakes have no transactions.
type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type sentMessage struct {
	Channel   entities.NotificationChannel
	Recipient string
	Title     string
	Message   string
}

// fakeSender records deliveries and can be told to fail specific channels.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[entities.NotificationChannel]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{fail: make(map[entities.NotificationChannel]error)}
}

func (s *fakeSender) Send(_ context.Context, channel entities.NotificationChannel, recipient, title, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.fail[channel]; ok {
		return err
	}
	s.sent = append(s.sent, sentMessage{Channel: channel, Recipient: recipient, Title: title, Message: message})
	return nil
}

func (s *fakeSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeDocumentRepo struct {
	mu        sync.Mutex
	nextID    int
	documents map[int]*entities.Document
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{nextID: 1, documents: make(map[int]*entities.Document)}
}

func (r *fakeDocumentRepo) Create(_ context.Context, document *entities.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	document.ID = r.nextID
	r.nextID++
	copied := *document
	r.documents[document.ID] = &copied
	return nil
}

func (r *fakeDocumentRepo) GetByID(_ context.Context, id int, userID uuid.UUID) (*entities.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	document, ok := r.documents[id]
	if !ok || document.UserID != userID || !document.IsActive {
		return nil, entities.ErrDocumentNotFound
	}
	copied := *document
	return &copied, nil
}

func (r *fakeDocumentRepo) Update(_ context.Context, document *entities.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.documents[document.ID]; !ok {
		return entities.ErrDocumentNotFound
	}
	copied := *document
	r.documents[document.ID] = &copied
	return nil
}

func (r *fakeDocumentRepo) Delete(_ context.Context, id int, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	document, ok := r.documents[id]
	if !ok || document.UserID != userID {
		return entities.ErrDocumentNotFound
	}
	document.IsActive = false
	return nil
}

func (r *fakeDocumentRepo) List(_ context.Context, filter ports.DocumentFilter) ([]*entities.Document, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var documents []*entities.Document
	for _, d := range r.documents {
		if filter.UserID != nil && d.UserID != *filter.UserID {
			continue
		}
		if filter.DocumentType != nil && d.DocumentType != *filter.DocumentType {
			continue
		}
		if filter.IsActive != nil {
			if d.IsActive != *filter.IsActive {
				continue
			}
		} else if !d.IsActive {
			continue
		}
		copied := *d
		documents = append(documents, &copied)
	}
	sort.Slice(documents, func(i, j int) bool { return documents[i].ID < documents[j].ID })
	return documents, len(documents), nil
}

type fakeTemplateRepo struct {
	mu        sync.Mutex
	nextID    int
	templates map[int]*entities.Template
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{nextID: 1, templates: make(map[int]*entities.Template)}
}

func (r *fakeTemplateRepo) Create(_ context.Context, template *entities.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	template.ID = r.nextID
	r.nextID++
	copied := *template
	r.templates[template.ID] = &copied
	return nil
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, id int) (*entities.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	template, ok := r.templates[id]
	if !ok || !template.IsActive {
		return nil, entities.ErrTemplateNotFound
	}
	copied := *template
	return &copied, nil
}

func (r *fakeTemplateRepo) ListByType(_ context.Context, documentType entities.DocumentType) ([]*entities.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var templates []*entities.Template
	for _, tpl := range r.templates {
		if !tpl.IsActive {
			continue
		}
		if documentType != "" && tpl.DocumentType != documentType {
			continue
		}
		copied := *tpl
		templates = append(templates, &copied)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}
