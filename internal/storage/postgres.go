package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/atimaspi/fcbb-1-1-59/pkg/models"
	"github.com/atimaspi/fcbb-1-1-59/pkg/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type DBInterface interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	QueryRowx(query string, args ...interface{}) *sqlx.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type PostgresStore struct {
	db DBInterface
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Begin() (storage.Store, error) {
	if db, ok := s.db.(*sqlx.DB); ok {
		tx, err := db.Beginx()
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: tx}, nil
	}
	return nil, fmt.Errorf("cannot begin transaction on unknown type")
}

func (s *PostgresStore) Commit() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Commit()
	}
	return fmt.Errorf("cannot commit: not a transaction")
}

func (s *PostgresStore) Rollback() error {
	if tx, ok := s.db.(*sqlx.Tx); ok {
		return tx.Rollback()
	}
	return fmt.Errorf("cannot rollback: not a transaction")
}

func (s *PostgresStore) Close() error {
	if db, ok := s.db.(*sqlx.DB); ok {
		return db.Close()
	}
	return nil // No-op for *sqlx.Tx
}

// GetContentItem retrieves one row of a collection by ID
func (s *PostgresStore) GetContentItem(collection, id string) (models.ContentItem, error) {
	var item models.ContentItem
	err := s.db.Get(&item, "SELECT * FROM content_items WHERE collection = $1 AND id = $2", collection, id)
	if err == sql.ErrNoRows {
		return models.ContentItem{}, storage.ErrNotFound
	}
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("get %s item %s: %w", collection, id, err)
	}
	return item, nil
}

// ListContentItems retrieves the rows of a collection, newest first
func (s *PostgresStore) ListContentItems(collection string, f storage.ContentFilter) ([]models.ContentItem, error) {
	query := "SELECT * FROM content_items WHERE collection = $1"
	args := []interface{}{collection}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.AuthorID != "" {
		args = append(args, f.AuthorID)
		query += fmt.Sprintf(" AND author_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	items := []models.ContentItem{}
	if err := s.db.Select(&items, query, args...); err != nil {
		return nil, fmt.Errorf("list %s items: %w", collection, err)
	}
	return items, nil
}

// InsertContentItem creates a new content row
func (s *PostgresStore) InsertContentItem(item models.ContentItem) error {
	_, err := s.db.Exec(`
		INSERT INTO content_items (id, collection, title, status, author_id, reviewer_id, scheduled_publish_at, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.Collection, item.Title, item.Status, item.AuthorID, item.ReviewerID,
		item.ScheduledPublishAt, item.PublishedAt, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert %s item %s: %w", item.Collection, item.ID, err)
	}
	return nil
}

// UpdateContentItem applies the patch only while the row's updated_at still
// matches what the caller observed; a stale token yields ErrConflict.
func (s *PostgresStore) UpdateContentItem(collection, id string, patch storage.ContentPatch, expectedUpdatedAt time.Time) (models.ContentItem, error) {
	set := []string{"updated_at = $1"}
	args := []interface{}{patch.UpdatedAt}
	if patch.Status != nil {
		args = append(args, *patch.Status)
		set = append(set, fmt.Sprintf("status = $%d", len(args)))
	}
	if patch.ReviewerID != nil {
		if *patch.ReviewerID == "" {
			set = append(set, "reviewer_id = NULL")
		} else {
			args = append(args, *patch.ReviewerID)
			set = append(set, fmt.Sprintf("reviewer_id = $%d", len(args)))
		}
	}
	if patch.PublishedAt != nil {
		args = append(args, *patch.PublishedAt)
		set = append(set, fmt.Sprintf("published_at = $%d", len(args)))
	}
	if patch.ScheduledPublishAt != nil {
		args = append(args, *patch.ScheduledPublishAt)
		set = append(set, fmt.Sprintf("scheduled_publish_at = $%d", len(args)))
	}

	args = append(args, collection, id, expectedUpdatedAt)
	query := fmt.Sprintf(`
		UPDATE content_items SET %s
		WHERE collection = $%d AND id = $%d AND updated_at = $%d
		RETURNING *`,
		strings.Join(set, ", "), len(args)-2, len(args)-1, len(args))

	var updated models.ContentItem
	err := s.db.QueryRowx(query, args...).StructScan(&updated)
	if err == sql.ErrNoRows {
		// No row matched: either the item is gone or the token is stale.
		if _, getErr := s.GetContentItem(collection, id); getErr != nil {
			return models.ContentItem{}, storage.ErrNotFound
		}
		return models.ContentItem{}, storage.ErrConflict
	}
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("update %s item %s: %w", collection, id, err)
	}
	return updated, nil
}

// SaveScheduledPublication queues a publication for the publisher
func (s *PostgresStore) SaveScheduledPublication(sp models.ScheduledPublication) error {
	_, err := s.db.Exec(`
		INSERT INTO scheduled_publications (id, collection, content_id, scheduled_date, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sp.ID, sp.Collection, sp.ContentID, sp.ScheduledDate, sp.Status, sp.CreatedBy, sp.CreatedAt)
	if err != nil {
		return fmt.Errorf("save scheduled publication %s: %w", sp.ID, err)
	}
	return nil
}

// ListDueScheduledPublications retrieves PENDING rows due at or before now
func (s *PostgresStore) ListDueScheduledPublications(now time.Time) ([]models.ScheduledPublication, error) {
	due := []models.ScheduledPublication{}
	err := s.db.Select(&due, `
		SELECT * FROM scheduled_publications
		WHERE status = $1 AND scheduled_date <= $2
		ORDER BY scheduled_date`,
		models.PendingScheduleStatus, now)
	if err != nil {
		return nil, fmt.Errorf("list due scheduled publications: %w", err)
	}
	return due, nil
}

// CompleteScheduledPublication claims a PENDING row; only one caller wins
func (s *PostgresStore) CompleteScheduledPublication(id string, status models.ScheduleStatus) error {
	res, err := s.db.Exec(`
		UPDATE scheduled_publications SET status = $1
		WHERE id = $2 AND status = $3`,
		status, id, models.PendingScheduleStatus)
	if err != nil {
		return fmt.Errorf("complete scheduled publication %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var existing models.ScheduledPublication
		if getErr := s.db.Get(&existing, "SELECT * FROM scheduled_publications WHERE id = $1", id); getErr == sql.ErrNoRows {
			return storage.ErrNotFound
		}
		return storage.ErrConflict
	}
	return nil
}

// SaveAuditEntry records one immutable audit row
func (s *PostgresStore) SaveAuditEntry(e models.AuditLogEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO audit_log (id, actor_id, action, collection, content_id, before_state, after_state, ip_address, client_info, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.ActorID, e.Action, e.Collection, e.ContentID, e.BeforeState, e.AfterState, e.IPAddress, e.ClientInfo, e.LoggedAt)
	if err != nil {
		return fmt.Errorf("save audit entry for %s/%s: %w", e.Collection, e.ContentID, err)
	}
	return nil
}

// ListAuditEntries retrieves audit rows, optionally scoped to one item
func (s *PostgresStore) ListAuditEntries(collection, contentID string) ([]models.AuditLogEntry, error) {
	query := "SELECT * FROM audit_log"
	args := []interface{}{}
	var where []string
	if collection != "" {
		args = append(args, collection)
		where = append(where, fmt.Sprintf("collection = $%d", len(args)))
	}
	if contentID != "" {
		args = append(args, contentID)
		where = append(where, fmt.Sprintf("content_id = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY logged_at"

	entries := []models.AuditLogEntry{}
	if err := s.db.Select(&entries, query, args...); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

// SaveNotification records a notification in the in-database inbox
func (s *PostgresStore) SaveNotification(n models.Notification) error {
	_, err := s.db.Exec(`
		INSERT INTO notifications (id, user_id, title, message, type, collection, content_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Title, n.Message, n.Type, n.Collection, n.ContentID, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("save notification %s: %w", n.ID, err)
	}
	return nil
}

// GetUserRole resolves a user's role; a missing profile is the "user" role
func (s *PostgresStore) GetUserRole(userID string) (models.Role, error) {
	var role string
	err := s.db.Get(&role, "SELECT role FROM profiles WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return models.UserRole, nil
	}
	if err != nil {
		return models.UserRole, fmt.Errorf("get role for %s: %w", userID, err)
	}
	return models.ParseRole(role), nil
}
