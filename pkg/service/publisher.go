package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/atimaspi/fcbb-1-1-59/pkg/models"
	"github.com/atimaspi/fcbb-1-1-59/pkg/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Summary reports the outcome of one publisher pass.
type Summary struct {
	Processed int      `json:"processed"` // Due rows attempted
	Published int      `json:"published"` // Successful publications
	Failures  []string `json:"failures"`  // Content IDs that could not be published
}

// PublisherService drives due scheduled publications through the publish
// transition. It is stateless between invocations and safe to re-run: the
// publish write is conditioned per item and schedule rows are claimed with
// a PENDING -> terminal compare-and-swap, so a crash mid-batch leaves
// PENDING rows to retry and none double-applied.
//
// Publishing here intentionally bypasses the review gate: scheduling is an
// admin/revisor override path, the item is published whatever its current
// status.
type PublisherService struct {
	store   storage.Store
	logger  Logger
	workers int
	mu      sync.Mutex
}

func NewPublisherService(store storage.Store, logger Logger) *PublisherService {
	return &PublisherService{store: store, logger: logger}
}

// SetWorkers caps the per-item fan-out; <= 0 means runtime.NumCPU.
func (p *PublisherService) SetWorkers(n int) {
	p.workers = n
}

// RunDue processes every PENDING scheduled publication due at or before
// now. Items are disjoint, so they are published in parallel; a failure on
// one item never aborts the batch.
func (p *PublisherService) RunDue(ctx context.Context, now time.Time) (Summary, error) {
	due, err := p.store.ListDueScheduledPublications(now)
	if err != nil {
		return Summary{}, errors.Wrap(err, "failed to list due scheduled publications")
	}
	p.logger.Infof("Found %d scheduled publications due at %s", len(due), now.Format(time.RFC3339))

	summary := Summary{Processed: len(due)}
	if len(due) == 0 {
		return summary, nil
	}

	workers := p.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(due) {
		workers = len(due)
	}

	jobs := make(chan models.ScheduledPublication)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sp := range jobs {
				published, err := p.processOne(sp, now)
				if err != nil {
					p.logger.Errorf("Failed to publish %s/%s (schedule %s): %v", sp.Collection, sp.ContentID, sp.ID, err)
					if markErr := p.store.CompleteScheduledPublication(sp.ID, models.FailedScheduleStatus); markErr != nil && !errors.Is(markErr, storage.ErrConflict) {
						p.logger.Errorf("Failed to mark schedule %s as failed: %v", sp.ID, markErr)
					}
					p.mu.Lock()
					summary.Failures = append(summary.Failures, sp.ContentID)
					p.mu.Unlock()
					continue
				}
				if published {
					p.mu.Lock()
					summary.Published++
					p.mu.Unlock()
				}
			}
		}()
	}

loop:
	for _, sp := range due {
		select {
		case jobs <- sp:
		case <-ctx.Done():
			break loop
		}
	}
	close(jobs)
	wg.Wait()

	p.logger.Infof("Publisher pass done: processed=%d published=%d failed=%d",
		summary.Processed, summary.Published, len(summary.Failures))
	return summary, ctx.Err()
}

// processOne publishes the item behind one schedule row and completes the
// row. It reports whether a publish write actually happened: duplicate
// PENDING rows for an already-published item are completed without a
// second audit entry, publish write, or published count.
func (p *PublisherService) processOne(sp models.ScheduledPublication, now time.Time) (bool, error) {
	item, err := p.store.GetContentItem(sp.Collection, sp.ContentID)
	if err != nil {
		return false, errors.Wrapf(err, "failed to load %s item %s", sp.Collection, sp.ContentID)
	}

	published := false
	if item.Status != models.PublishedContentStatus {
		if err := p.publishItem(item, now); err != nil {
			if !errors.Is(err, storage.ErrConflict) {
				return false, err
			}
			// Lost the race: someone else published (or otherwise mutated)
			// the row. Re-read and only complete if it really is published.
			item, err = p.store.GetContentItem(sp.Collection, sp.ContentID)
			if err != nil {
				return false, errors.Wrapf(err, "failed to reload %s item %s after conflict", sp.Collection, sp.ContentID)
			}
			if item.Status != models.PublishedContentStatus {
				return false, errors.Wrapf(storage.ErrConflict, "item %s/%s changed concurrently", sp.Collection, sp.ContentID)
			}
		} else {
			published = true
		}
	}

	if err := p.store.CompleteScheduledPublication(sp.ID, models.CompletedScheduleStatus); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Another pass already claimed this row; the item is published,
			// so there is nothing left to do and nothing to double-count.
			p.logger.Infof("Schedule %s already claimed, skipping", sp.ID)
			return published, nil
		}
		return false, errors.Wrapf(err, "failed to complete schedule %s", sp.ID)
	}

	if published {
		p.logger.Infof("Published %s/%s via schedule %s", sp.Collection, sp.ContentID, sp.ID)
	}
	return published, nil
}

func (p *PublisherService) publishItem(item models.ContentItem, now time.Time) (err error) {
	txStore, err := p.store.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := txStore.Rollback(); rollbackErr != nil {
				p.logger.Errorf("Failed to rollback after error: %v (original error: %v)", rollbackErr, err)
			}
			return
		}
		if commitErr := txStore.Commit(); commitErr != nil {
			p.logger.Errorf("Failed to commit: %v", commitErr)
			err = commitErr
		}
	}()

	newStatus := models.PublishedContentStatus
	patch := storage.ContentPatch{
		Status:    &newStatus,
		UpdatedAt: now,
	}
	if item.PublishedAt == nil {
		publishedAt := now
		patch.PublishedAt = &publishedAt
	}
	if _, err = txStore.UpdateContentItem(item.Collection, item.ID, patch, item.UpdatedAt); err != nil {
		return err
	}

	// ActorID is nil: the publisher acts as the system, not a user.
	entry := models.AuditLogEntry{
		ID:          uuid.NewString(),
		Action:      models.PublishAuditAction,
		Collection:  item.Collection,
		ContentID:   item.ID,
		BeforeState: string(item.Status),
		AfterState:  string(newStatus),
		LoggedAt:    now,
	}
	if err = txStore.SaveAuditEntry(entry); err != nil {
		return errors.Wrap(err, "failed to save audit entry")
	}
	return nil
}
