package models

import "time"

type AuditAction string

const (
	CreateAuditAction   AuditAction = "create"
	UpdateAuditAction   AuditAction = "update"
	DeleteAuditAction   AuditAction = "delete"
	SubmitAuditAction   AuditAction = "submit"
	ApproveAuditAction  AuditAction = "approve"
	RejectAuditAction   AuditAction = "reject"
	PublishAuditAction  AuditAction = "publish"
	ScheduleAuditAction AuditAction = "schedule"
)

// AuditLogEntry is an immutable record of a workflow action. One entry is
// written in the same transaction as every status transition.
type AuditLogEntry struct {
	ID          string      `json:"id" db:"id"`                               // UUID
	ActorID     *string     `json:"actor_id,omitempty" db:"actor_id"`         // nil means the system (e.g. the publisher)
	Action      AuditAction `json:"action" db:"action"`                       // What happened
	Collection  string      `json:"collection" db:"collection"`               // Affected collection
	ContentID   string      `json:"content_id" db:"content_id"`               // Affected item
	BeforeState string      `json:"before_state,omitempty" db:"before_state"` // Status before the transition
	AfterState  string      `json:"after_state,omitempty" db:"after_state"`   // Status after the transition
	IPAddress   string      `json:"ip_address,omitempty" db:"ip_address"`     // Optional request metadata
	ClientInfo  string      `json:"client_info,omitempty" db:"client_info"`   // Optional request metadata
	LoggedAt    time.Time   `json:"logged_at" db:"logged_at"`                 // Timestamp of the entry
}
