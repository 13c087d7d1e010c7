package models

import "time"

type ScheduleStatus string

const (
	PendingScheduleStatus   ScheduleStatus = "PENDING"
	CompletedScheduleStatus ScheduleStatus = "COMPLETED"
	FailedScheduleStatus    ScheduleStatus = "FAILED"
)

// ScheduledPublication is a queued instruction to publish a content item
// at a future time, independent of the item's current review status.
type ScheduledPublication struct {
	ID            string         `json:"id" db:"id"`                         // UUID
	Collection    string         `json:"collection" db:"collection"`         // Target collection
	ContentID     string         `json:"content_id" db:"content_id"`         // Target content item
	ScheduledDate time.Time      `json:"scheduled_date" db:"scheduled_date"` // When the item becomes due
	Status        ScheduleStatus `json:"status" db:"status"`                 // PENDING until processed
	CreatedBy     string         `json:"created_by" db:"created_by"`         // User who scheduled it
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`         // Creation timestamp
}
