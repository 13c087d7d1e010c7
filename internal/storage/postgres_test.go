package storage_test

import (
	"testing"
	"time"

	internal_storage "github.com/atimaspi/fcbb-1-1-59/internal/storage"
	"github.com/atimaspi/fcbb-1-1-59/internal/testutil"
	"github.com/atimaspi/fcbb-1-1-59/pkg/models"
	"github.com/atimaspi/fcbb-1-1-59/pkg/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func newItem(collection, title, authorID string) models.ContentItem {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return models.ContentItem{
		ID:         uuid.NewString(),
		Collection: collection,
		Title:      title,
		Status:     models.DraftContentStatus,
		AuthorID:   &authorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestPostgresStore(t *testing.T) {
	testDB := testutil.SetupTestDB(t)
	defer testDB.Teardown(t)

	store, err := internal_storage.InitStore(testDB.ConnStr)
	assert.NoError(t, err)
	defer store.Close()

	t.Run("InsertAndGetContentItem", func(t *testing.T) {
		defer testDB.Truncate(t)
		item := newItem("news", "Nova notícia", "u1")
		assert.NoError(t, store.InsertContentItem(item))

		got, err := store.GetContentItem("news", item.ID)
		assert.NoError(t, err)
		assert.Equal(t, item.Title, got.Title)
		assert.Equal(t, models.DraftContentStatus, got.Status)
		assert.Equal(t, "u1", *got.AuthorID)
		assert.Nil(t, got.ReviewerID)
	})

	t.Run("GetMissingItemIsNotFound", func(t *testing.T) {
		_, err := store.GetContentItem("news", uuid.NewString())
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})

	t.Run("ListContentItemsFilters", func(t *testing.T) {
		defer testDB.Truncate(t)
		mine := newItem("news", "Minha", "u1")
		other := newItem("news", "Outra", "u2")
		elsewhere := newItem("clubs", "Clube", "u1")
		assert.NoError(t, store.InsertContentItem(mine))
		assert.NoError(t, store.InsertContentItem(other))
		assert.NoError(t, store.InsertContentItem(elsewhere))

		all, err := store.ListContentItems("news", storage.ContentFilter{})
		assert.NoError(t, err)
		assert.Len(t, all, 2)

		onlyMine, err := store.ListContentItems("news", storage.ContentFilter{AuthorID: "u1"})
		assert.NoError(t, err)
		assert.Len(t, onlyMine, 1)
		assert.Equal(t, "Minha", onlyMine[0].Title)

		drafts, err := store.ListContentItems("clubs", storage.ContentFilter{Status: models.DraftContentStatus})
		assert.NoError(t, err)
		assert.Len(t, drafts, 1)
	})

	t.Run("UpdateContentItemCompareAndSwap", func(t *testing.T) {
		defer testDB.Truncate(t)
		item := newItem("news", "Concorrência", "u1")
		assert.NoError(t, store.InsertContentItem(item))

		loaded, err := store.GetContentItem("news", item.ID)
		assert.NoError(t, err)

		newStatus := models.InReviewContentStatus
		patch := storage.ContentPatch{Status: &newStatus, UpdatedAt: time.Now().UTC().Truncate(time.Microsecond)}
		updated, err := store.UpdateContentItem("news", item.ID, patch, loaded.UpdatedAt)
		assert.NoError(t, err)
		assert.Equal(t, models.InReviewContentStatus, updated.Status)

		// A second writer holding the stale token must get a conflict
		published := models.PublishedContentStatus
		stale := storage.ContentPatch{Status: &published, UpdatedAt: time.Now()}
		_, err = store.UpdateContentItem("news", item.ID, stale, loaded.UpdatedAt)
		assert.True(t, errors.Is(err, storage.ErrConflict))

		// Missing rows are NotFound, not Conflict
		_, err = store.UpdateContentItem("news", uuid.NewString(), stale, loaded.UpdatedAt)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})

	t.Run("UpdateClearsReviewer", func(t *testing.T) {
		defer testDB.Truncate(t)
		item := newItem("news", "Revisão", "u1")
		reviewer := "revA"
		item.Status = models.RejectedContentStatus
		item.ReviewerID = &reviewer
		assert.NoError(t, store.InsertContentItem(item))

		loaded, err := store.GetContentItem("news", item.ID)
		assert.NoError(t, err)

		inReview := models.InReviewContentStatus
		clear := ""
		patch := storage.ContentPatch{Status: &inReview, ReviewerID: &clear, UpdatedAt: time.Now().UTC().Truncate(time.Microsecond)}
		updated, err := store.UpdateContentItem("news", item.ID, patch, loaded.UpdatedAt)
		assert.NoError(t, err)
		assert.Nil(t, updated.ReviewerID)
	})

	t.Run("ScheduledPublicationLifecycle", func(t *testing.T) {
		defer testDB.Truncate(t)
		item := newItem("news", "Agendada", "u1")
		assert.NoError(t, store.InsertContentItem(item))

		sp := models.ScheduledPublication{
			ID:            uuid.NewString(),
			Collection:    "news",
			ContentID:     item.ID,
			ScheduledDate: time.Now().Add(-time.Hour),
			Status:        models.PendingScheduleStatus,
			CreatedBy:     "adm",
			CreatedAt:     time.Now(),
		}
		assert.NoError(t, store.SaveScheduledPublication(sp))

		due, err := store.ListDueScheduledPublications(time.Now())
		assert.NoError(t, err)
		assert.Len(t, due, 1)
		assert.Equal(t, item.ID, due[0].ContentID)

		assert.NoError(t, store.CompleteScheduledPublication(sp.ID, models.CompletedScheduleStatus))

		// The claim is single-shot: a second completion conflicts
		err = store.CompleteScheduledPublication(sp.ID, models.CompletedScheduleStatus)
		assert.True(t, errors.Is(err, storage.ErrConflict))

		err = store.CompleteScheduledPublication(uuid.NewString(), models.CompletedScheduleStatus)
		assert.True(t, errors.Is(err, storage.ErrNotFound))

		due, err = store.ListDueScheduledPublications(time.Now())
		assert.NoError(t, err)
		assert.Empty(t, due)
	})

	t.Run("AuditEntries", func(t *testing.T) {
		defer testDB.Truncate(t)
		item := newItem("news", "Auditada", "u1")
		assert.NoError(t, store.InsertContentItem(item))

		actor := "revA"
		entry := models.AuditLogEntry{
			ID:          uuid.NewString(),
			ActorID:     &actor,
			Action:      models.SubmitAuditAction,
			Collection:  "news",
			ContentID:   item.ID,
			BeforeState: string(models.DraftContentStatus),
			AfterState:  string(models.InReviewContentStatus),
			LoggedAt:    time.Now(),
		}
		assert.NoError(t, store.SaveAuditEntry(entry))

		entries, err := store.ListAuditEntries("news", item.ID)
		assert.NoError(t, err)
		assert.Len(t, entries, 1)
		assert.Equal(t, models.SubmitAuditAction, entries[0].Action)
		assert.Equal(t, "revA", *entries[0].ActorID)
	})

	t.Run("Notifications", func(t *testing.T) {
		defer testDB.Truncate(t)
		item := newItem("news", "Notificada", "u1")
		assert.NoError(t, store.InsertContentItem(item))

		n := models.Notification{
			ID:         uuid.NewString(),
			UserID:     "u1",
			Title:      "Content rejected",
			Message:    "Reason: needs sources",
			Type:       models.ContentRejectedNotification,
			Collection: "news",
			ContentID:  item.ID,
			CreatedAt:  time.Now(),
		}
		assert.NoError(t, store.SaveNotification(n))
	})

	t.Run("UserRoles", func(t *testing.T) {
		defer testDB.Truncate(t)
		_, err := testDB.DB.Exec("INSERT INTO profiles (user_id, role) VALUES ($1, $2)", "revA", "revisor")
		assert.NoError(t, err)
		_, err = testDB.DB.Exec("INSERT INTO profiles (user_id, role) VALUES ($1, $2)", "odd", "superuser")
		assert.NoError(t, err)

		role, err := store.GetUserRole("revA")
		assert.NoError(t, err)
		assert.Equal(t, models.RevisorRole, role)

		// Unknown role strings never escalate
		role, err = store.GetUserRole("odd")
		assert.NoError(t, err)
		assert.Equal(t, models.UserRole, role)

		// Missing profile is the anonymous role
		role, err = store.GetUserRole("ghost")
		assert.NoError(t, err)
		assert.Equal(t, models.UserRole, role)
	})

	t.Run("TransactionRollback", func(t *testing.T) {
		defer testDB.Truncate(t)
		tx, err := store.Begin()
		assert.NoError(t, err)
		item := newItem("news", "Transacional", "u1")
		assert.NoError(t, tx.InsertContentItem(item))
		assert.NoError(t, tx.Rollback())

		_, err = store.GetContentItem("news", item.ID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})
}
