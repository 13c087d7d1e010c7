package service

import (
	"fmt"
	"time"

	"github.com/atimaspi/fcbb-1-1-59/pkg/models"
	"github.com/atimaspi/fcbb-1-1-59/pkg/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Logger defines the logging interface for the workflow services.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// WorkflowService is the single parametrized engine behind every admin
// surface: it owns the status state machine (DRAFT -> IN_REVIEW ->
// PUBLISHED/REJECTED), the capability checks per transition, and the
// audit/notification side effects. Collection names are data, not code
// branches; direct status writes that bypass the engine are a correctness
// violation.
type WorkflowService struct {
	store  storage.Store
	perms  *PermissionResolver
	sink   Sink
	logger Logger
}

func NewWorkflowService(store storage.Store, sink Sink, logger Logger) *WorkflowService {
	return &WorkflowService{
		store:  store,
		perms:  NewPermissionResolver(store),
		sink:   sink,
		logger: logger,
	}
}

// Permissions exposes the resolver for callers that gate UI surfaces.
func (s *WorkflowService) Permissions() *PermissionResolver {
	return s.perms
}

// CreateDraft inserts a new content item in DRAFT for the calling author.
func (s *WorkflowService) CreateDraft(collection, title, callerID string) (item models.ContentItem, err error) {
	if !models.ValidCollection(collection) {
		return models.ContentItem{}, errors.Wrap(ErrUnknownCollection, collection)
	}
	if title == "" {
		return models.ContentItem{}, errors.New("title cannot be empty")
	}
	role := s.perms.ResolveRole(callerID)
	if !s.perms.Can(role, collection, "create") {
		return models.ContentItem{}, errors.Wrapf(ErrForbidden, "role '%s' cannot create %s", role, collection)
	}

	now := time.Now()
	authorID := callerID
	item = models.ContentItem{
		ID:         uuid.NewString(),
		Collection: collection,
		Title:      title,
		Status:     models.DraftContentStatus,
		AuthorID:   &authorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	txStore, err := s.store.Begin()
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	if err = txStore.InsertContentItem(item); err != nil {
		return models.ContentItem{}, errors.Wrapf(err, "failed to insert %s item", collection)
	}
	if err = txStore.SaveAuditEntry(s.auditEntry(&callerID, models.CreateAuditAction, item, "", item.Status)); err != nil {
		return models.ContentItem{}, errors.Wrap(err, "failed to save audit entry")
	}

	s.logger.Infof("Created %s draft '%s' (%s) by %s", collection, title, item.ID, callerID)
	return item, nil
}

// ListContent returns the items of a collection visible to the caller,
// newest first. A redator only ever sees their own rows.
func (s *WorkflowService) ListContent(collection, callerID string) ([]models.ContentItem, error) {
	if !models.ValidCollection(collection) {
		return nil, errors.Wrap(ErrUnknownCollection, collection)
	}
	role := s.perms.ResolveRole(callerID)
	if !s.perms.Can(role, collection, "view") {
		return nil, errors.Wrapf(ErrForbidden, "role '%s' cannot view %s", role, collection)
	}
	filter := storage.ContentFilter{}
	if role == models.RedatorRole {
		filter.AuthorID = callerID
	}
	return s.store.ListContentItems(collection, filter)
}

// SubmitForReview moves a DRAFT (or a REJECTED item being resubmitted)
// into IN_REVIEW. Only the item's author may submit it. Resubmission
// clears the previous reviewer.
func (s *WorkflowService) SubmitForReview(collection, id, callerID string) (models.ContentItem, error) {
	item, err := s.loadItem(collection, id)
	if err != nil {
		return models.ContentItem{}, err
	}
	if item.Status != models.DraftContentStatus && item.Status != models.RejectedContentStatus {
		return models.ContentItem{}, errors.Wrapf(ErrInvalidTransition, "cannot submit %s item in status %s", collection, item.Status)
	}
	role := s.perms.ResolveRole(callerID)
	if item.AuthorID == nil || *item.AuthorID != callerID {
		return models.ContentItem{}, errors.Wrap(ErrForbidden, "only the author may submit for review")
	}
	if !s.perms.Can(role, collection, "create") && !s.perms.Can(role, collection, "edit") {
		return models.ContentItem{}, errors.Wrapf(ErrForbidden, "role '%s' cannot edit %s", role, collection)
	}

	newStatus := models.InReviewContentStatus
	clearReviewer := ""
	patch := storage.ContentPatch{
		Status:     &newStatus,
		ReviewerID: &clearReviewer,
		UpdatedAt:  time.Now(),
	}
	updated, err := s.applyTransition(item, patch, s.auditEntry(&callerID, models.SubmitAuditAction, item, item.Status, newStatus), nil)
	if err != nil {
		return models.ContentItem{}, err
	}

	s.notify(callerID, models.ContentPendingNotification,
		fmt.Sprintf("New content for review: %s", collection),
		fmt.Sprintf("'%s' was submitted for review.", item.Title),
		collection, id)
	s.logger.Infof("Submitted %s item %s for review by %s", collection, id, callerID)
	return updated, nil
}

// Approve publishes an IN_REVIEW item. Reviewer capability required.
func (s *WorkflowService) Approve(collection, id, callerID string) (models.ContentItem, error) {
	item, err := s.loadItem(collection, id)
	if err != nil {
		return models.ContentItem{}, err
	}
	if item.Status != models.InReviewContentStatus {
		return models.ContentItem{}, errors.Wrapf(ErrInvalidTransition, "cannot approve %s item in status %s", collection, item.Status)
	}
	role := s.perms.ResolveRole(callerID)
	if !s.perms.CanReview(role) {
		return models.ContentItem{}, errors.Wrapf(ErrForbidden, "role '%s' cannot review content", role)
	}

	now := time.Now()
	newStatus := models.PublishedContentStatus
	patch := storage.ContentPatch{
		Status:     &newStatus,
		ReviewerID: &callerID,
		UpdatedAt:  now,
	}
	if item.PublishedAt == nil {
		patch.PublishedAt = &now
	}
	updated, err := s.applyTransition(item, patch, s.auditEntry(&callerID, models.PublishAuditAction, item, item.Status, newStatus), nil)
	if err != nil {
		return models.ContentItem{}, err
	}

	if item.AuthorID != nil {
		s.notify(*item.AuthorID, models.ContentApprovedNotification,
			"Content approved",
			fmt.Sprintf("'%s' was approved and published.", item.Title),
			collection, id)
	}
	s.logger.Infof("Approved %s item %s by %s", collection, id, callerID)
	return updated, nil
}

// Reject moves an IN_REVIEW item to REJECTED and notifies the author with
// the reviewer's reason. Reviewer capability required.
func (s *WorkflowService) Reject(collection, id, callerID, reason string) (models.ContentItem, error) {
	item, err := s.loadItem(collection, id)
	if err != nil {
		return models.ContentItem{}, err
	}
	if item.Status != models.InReviewContentStatus {
		return models.ContentItem{}, errors.Wrapf(ErrInvalidTransition, "cannot reject %s item in status %s", collection, item.Status)
	}
	role := s.perms.ResolveRole(callerID)
	if !s.perms.CanReview(role) {
		return models.ContentItem{}, errors.Wrapf(ErrForbidden, "role '%s' cannot review content", role)
	}

	newStatus := models.RejectedContentStatus
	patch := storage.ContentPatch{
		Status:     &newStatus,
		ReviewerID: &callerID,
		UpdatedAt:  time.Now(),
	}
	updated, err := s.applyTransition(item, patch, s.auditEntry(&callerID, models.RejectAuditAction, item, item.Status, newStatus), nil)
	if err != nil {
		return models.ContentItem{}, err
	}

	if item.AuthorID != nil {
		s.notify(*item.AuthorID, models.ContentRejectedNotification,
			"Content rejected",
			fmt.Sprintf("'%s' was rejected. Reason: %s", item.Title, reason),
			collection, id)
	}
	s.logger.Infof("Rejected %s item %s by %s", collection, id, callerID)
	return updated, nil
}

// SchedulePublication stamps a future publish time on a DRAFT or
// IN_REVIEW item and queues a PENDING scheduled publication for the
// publisher to pick up. The item's status does not change here.
func (s *WorkflowService) SchedulePublication(collection, id, callerID string, scheduledDate time.Time) (models.ContentItem, error) {
	item, err := s.loadItem(collection, id)
	if err != nil {
		return models.ContentItem{}, err
	}
	if item.Status != models.DraftContentStatus && item.Status != models.InReviewContentStatus {
		return models.ContentItem{}, errors.Wrapf(ErrInvalidTransition, "cannot schedule %s item in status %s", collection, item.Status)
	}
	role := s.perms.ResolveRole(callerID)
	if !s.perms.CanSchedule(role) {
		return models.ContentItem{}, errors.Wrapf(ErrForbidden, "role '%s' cannot schedule publications", role)
	}

	patch := storage.ContentPatch{
		ScheduledPublishAt: &scheduledDate,
		UpdatedAt:          time.Now(),
	}
	sp := models.ScheduledPublication{
		ID:            uuid.NewString(),
		Collection:    collection,
		ContentID:     id,
		ScheduledDate: scheduledDate,
		Status:        models.PendingScheduleStatus,
		CreatedBy:     callerID,
		CreatedAt:     time.Now(),
	}
	updated, err := s.applyTransition(item, patch,
		s.auditEntry(&callerID, models.ScheduleAuditAction, item, item.Status, item.Status),
		func(tx storage.Store) error {
			return tx.SaveScheduledPublication(sp)
		})
	if err != nil {
		return models.ContentItem{}, err
	}

	s.logger.Infof("Scheduled %s item %s for %s by %s", collection, id, scheduledDate.Format(time.RFC3339), callerID)
	return updated, nil
}

// AuditTrail returns the audit entries recorded for one content item.
func (s *WorkflowService) AuditTrail(collection, id string) ([]models.AuditLogEntry, error) {
	if !models.ValidCollection(collection) {
		return nil, errors.Wrap(ErrUnknownCollection, collection)
	}
	return s.store.ListAuditEntries(collection, id)
}

func (s *WorkflowService) loadItem(collection, id string) (models.ContentItem, error) {
	if !models.ValidCollection(collection) {
		return models.ContentItem{}, errors.Wrap(ErrUnknownCollection, collection)
	}
	item, err := s.store.GetContentItem(collection, id)
	if err != nil {
		return models.ContentItem{}, errors.Wrapf(err, "failed to load %s item %s", collection, id)
	}
	return item, nil
}

// applyTransition persists a transition and its audit entry atomically.
// The update is conditioned on the status/updated_at observed when the
// item was loaded, so concurrent transitions on the same item surface as
// storage.ErrConflict instead of silently double-applying.
func (s *WorkflowService) applyTransition(item models.ContentItem, patch storage.ContentPatch, entry models.AuditLogEntry, extra func(tx storage.Store) error) (updated models.ContentItem, err error) {
	txStore, err := s.store.Begin()
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				s.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			s.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	updated, err = txStore.UpdateContentItem(item.Collection, item.ID, patch, item.UpdatedAt)
	if err != nil {
		return models.ContentItem{}, errors.Wrapf(err, "failed to update %s item %s", item.Collection, item.ID)
	}
	if err = txStore.SaveAuditEntry(entry); err != nil {
		return models.ContentItem{}, errors.Wrap(err, "failed to save audit entry")
	}
	if extra != nil {
		if err = extra(txStore); err != nil {
			return models.ContentItem{}, err
		}
	}
	return updated, nil
}

func (s *WorkflowService) auditEntry(actorID *string, action models.AuditAction, item models.ContentItem, before, after models.ContentStatus) models.AuditLogEntry {
	return models.AuditLogEntry{
		ID:          uuid.NewString(),
		ActorID:     actorID,
		Action:      action,
		Collection:  item.Collection,
		ContentID:   item.ID,
		BeforeState: string(before),
		AfterState:  string(after),
		LoggedAt:    time.Now(),
	}
}

// notify delivers through the sink, swallowing failures: the committed
// status change is the source of truth, a lost notification is only a log line.
func (s *WorkflowService) notify(userID, typ, title, message, collection, contentID string) {
	if s.sink == nil || userID == "" {
		return
	}
	n := models.Notification{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      title,
		Message:    message,
		Type:       typ,
		Collection: collection,
		ContentID:  contentID,
		CreatedAt:  time.Now(),
	}
	if err := s.sink.Notify(n); err != nil {
		s.logger.Errorf("Failed to deliver %s notification for %s/%s: %v", typ, collection, contentID, err)
	}
}
