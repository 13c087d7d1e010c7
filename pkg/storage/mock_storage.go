package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/atimaspi/fcbb-1-1-59/pkg/models"
	"github.com/pkg/errors"
)

// mockStore implements Store with in-memory storage. It honours the same
// compare-and-swap contract as the Postgres implementation so service tests
// can exercise conflict handling without a database.
type mockStore struct {
	mu            sync.Mutex
	items         []models.ContentItem
	schedules     []models.ScheduledPublication
	auditEntries  []models.AuditLogEntry
	notifications []models.Notification
	roles         map[string]models.Role

	// Optional failure injection for scheduler/partial-failure tests.
	failUpdateFor map[string]error
}

func NewMockStore() Store {
	return &mockStore{
		roles:         make(map[string]models.Role),
		failUpdateFor: make(map[string]error),
	}
}

// Transactions are a no-op in memory: Begin hands back the same instance
// and writes are applied immediately.
func (m *mockStore) Begin() (Store, error) { return m, nil }
func (m *mockStore) Commit() error         { return nil }
func (m *mockStore) Rollback() error       { return nil }
func (m *mockStore) Close() error          { return nil }

func (m *mockStore) GetContentItem(collection, id string) (models.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.Collection == collection && it.ID == id {
			return it, nil
		}
	}
	return models.ContentItem{}, ErrNotFound
}

func (m *mockStore) ListContentItems(collection string, f ContentFilter) ([]models.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ContentItem
	for _, it := range m.items {
		if it.Collection != collection {
			continue
		}
		if f.Status != "" && it.Status != f.Status {
			continue
		}
		if f.AuthorID != "" && (it.AuthorID == nil || *it.AuthorID != f.AuthorID) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockStore) InsertContentItem(item models.ContentItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Collection == item.Collection && existing.ID == item.ID {
			return errors.New("content item already exists")
		}
	}
	m.items = append(m.items, item)
	return nil
}

func (m *mockStore) UpdateContentItem(collection, id string, patch ContentPatch, expectedUpdatedAt time.Time) (models.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failUpdateFor[id]; ok {
		return models.ContentItem{}, err
	}
	for i, it := range m.items {
		if it.Collection != collection || it.ID != id {
			continue
		}
		if !it.UpdatedAt.Equal(expectedUpdatedAt) {
			return models.ContentItem{}, ErrConflict
		}
		if patch.Status != nil {
			it.Status = *patch.Status
		}
		if patch.ReviewerID != nil {
			if *patch.ReviewerID == "" {
				it.ReviewerID = nil
			} else {
				rid := *patch.ReviewerID
				it.ReviewerID = &rid
			}
		}
		if patch.PublishedAt != nil {
			t := *patch.PublishedAt
			it.PublishedAt = &t
		}
		if patch.ScheduledPublishAt != nil {
			t := *patch.ScheduledPublishAt
			it.ScheduledPublishAt = &t
		}
		it.UpdatedAt = patch.UpdatedAt
		m.items[i] = it
		return it, nil
	}
	return models.ContentItem{}, ErrNotFound
}

func (m *mockStore) SaveScheduledPublication(sp models.ScheduledPublication) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules = append(m.schedules, sp)
	return nil
}

func (m *mockStore) ListDueScheduledPublications(now time.Time) ([]models.ScheduledPublication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []models.ScheduledPublication
	for _, sp := range m.schedules {
		if sp.Status == models.PendingScheduleStatus && !sp.ScheduledDate.After(now) {
			due = append(due, sp)
		}
	}
	return due, nil
}

func (m *mockStore) CompleteScheduledPublication(id string, status models.ScheduleStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sp := range m.schedules {
		if sp.ID != id {
			continue
		}
		if sp.Status != models.PendingScheduleStatus {
			return ErrConflict
		}
		m.schedules[i].Status = status
		return nil
	}
	return ErrNotFound
}

func (m *mockStore) SaveAuditEntry(e models.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditEntries = append(m.auditEntries, e)
	return nil
}

func (m *mockStore) ListAuditEntries(collection, contentID string) ([]models.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditLogEntry
	for _, e := range m.auditEntries {
		if (collection == "" || e.Collection == collection) && (contentID == "" || e.ContentID == contentID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockStore) SaveNotification(n models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockStore) GetUserRole(userID string) (models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if role, ok := m.roles[userID]; ok {
		return role, nil
	}
	return models.UserRole, nil
}

// SetUserRole seeds a role for tests.
func SetUserRole(s Store, userID string, role models.Role) {
	if m, ok := s.(*mockStore); ok {
		m.mu.Lock()
		m.roles[userID] = role
		m.mu.Unlock()
	}
}

// FailUpdatesFor makes UpdateContentItem fail for the given content ID,
// simulating a storage outage for one row.
func FailUpdatesFor(s Store, contentID string, err error) {
	if m, ok := s.(*mockStore); ok {
		m.mu.Lock()
		m.failUpdateFor[contentID] = err
		m.mu.Unlock()
	}
}

// Notifications returns the notifications recorded by the mock sink path.
func Notifications(s Store) []models.Notification {
	if m, ok := s.(*mockStore); ok {
		m.mu.Lock()
		defer m.mu.Unlock()
		return append([]models.Notification(nil), m.notifications...)
	}
	return nil
}
