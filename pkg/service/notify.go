package service

import (
	"time"

	"github.com/atimaspi/fcbb-1-1-59/pkg/models"
	"github.com/atimaspi/fcbb-1-1-59/pkg/storage"
	"github.com/google/uuid"
)

// Sink delivers a notification to a user. Delivery is best-effort: the
// engine logs a failed Notify and moves on, it never unwinds a committed
// transition because of it.
type Sink interface {
	Notify(n models.Notification) error
}

// StoreSink records notifications in the notifications table, the
// in-database inbox the admin dashboard reads.
type StoreSink struct {
	store storage.Store
}

func NewStoreSink(store storage.Store) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Notify(n models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return s.store.SaveNotification(n)
}

// MultiSink fans one notification out to several sinks. The first error is
// reported, but every sink gets its attempt.
type MultiSink []Sink

func (m MultiSink) Notify(n models.Notification) error {
	var firstErr error
	for _, s := range m {
		if err := s.Notify(n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
