package models

import "time"

const (
	ContentPendingNotification  = "content_pending"
	ContentApprovedNotification = "content_approved"
	ContentRejectedNotification = "content_rejected"
)

// Notification is a best-effort message to a user. Delivery failures are
// logged and never unwind the transition that produced them.
type Notification struct {
	ID         string    `json:"id" db:"id"`                 // UUID
	UserID     string    `json:"user_id" db:"user_id"`       // Recipient
	Title      string    `json:"title" db:"title"`           // Short headline
	Message    string    `json:"message" db:"message"`       // Body (e.g. rejection reason)
	Type       string    `json:"type" db:"type"`             // One of the *Notification constants
	Collection string    `json:"collection" db:"collection"` // Related collection
	ContentID  string    `json:"content_id" db:"content_id"` // Related item
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // Creation timestamp
}
