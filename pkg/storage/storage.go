package storage

import (
	"time"

	"github.com/atimaspi/fcbb-1-1-59/pkg/models"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an optimistic-concurrency check fails,
	// i.e. the row changed since it was read.
	ErrConflict = errors.New("conflict")
)

// ContentFilter narrows ListContentItems. Zero values mean "no filter".
type ContentFilter struct {
	Status   models.ContentStatus
	AuthorID string
}

// ContentPatch is the set of fields a workflow transition may change.
// Nil pointers leave the column untouched.
type ContentPatch struct {
	Status             *models.ContentStatus
	ReviewerID         *string // set *ReviewerID == "" to clear the column
	PublishedAt        *time.Time
	ScheduledPublishAt *time.Time
	UpdatedAt          time.Time
}

// Store defines the persistence operations for the content workflow.
type Store interface {
	Begin() (Store, error)
	Commit() error
	Rollback() error
	Close() error

	// Content operations
	GetContentItem(collection, id string) (models.ContentItem, error)
	ListContentItems(collection string, f ContentFilter) ([]models.ContentItem, error)
	InsertContentItem(item models.ContentItem) error
	// UpdateContentItem applies the patch only if the row's updated_at still
	// equals expectedUpdatedAt, returning ErrConflict otherwise.
	UpdateContentItem(collection, id string, patch ContentPatch, expectedUpdatedAt time.Time) (models.ContentItem, error)

	// Scheduled publication operations
	SaveScheduledPublication(sp models.ScheduledPublication) error
	ListDueScheduledPublications(now time.Time) ([]models.ScheduledPublication, error)
	// CompleteScheduledPublication moves a PENDING row to the given terminal
	// status, returning ErrConflict if the row is no longer PENDING.
	CompleteScheduledPublication(id string, status models.ScheduleStatus) error

	// Audit operations
	SaveAuditEntry(e models.AuditLogEntry) error
	ListAuditEntries(collection, contentID string) ([]models.AuditLogEntry, error)

	// Notification persistence (store-backed sink)
	SaveNotification(n models.Notification) error

	// Role lookup; missing profile maps to the "user" role
	GetUserRole(userID string) (models.Role, error)
}
