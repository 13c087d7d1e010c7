package models

import "time"

type ContentStatus string

const (
	DraftContentStatus     ContentStatus = "DRAFT"
	InReviewContentStatus  ContentStatus = "IN_REVIEW"
	PublishedContentStatus ContentStatus = "PUBLISHED"
	RejectedContentStatus  ContentStatus = "REJECTED"
)

// ContentItem represents one row of a named content collection
// (news, championships, clubs, ...) subject to the editorial workflow.
type ContentItem struct {
	ID                 string        `json:"id" db:"id"`                                                     // UUID
	Collection         string        `json:"collection" db:"collection"`                                     // Logical content type (e.g. "news")
	Title              string        `json:"title" db:"title"`                                               // Display label for audit/notifications
	Status             ContentStatus `json:"status" db:"status"`                                             // Workflow status
	AuthorID           *string       `json:"author_id,omitempty" db:"author_id"`                             // Creator; nil for system-originated rows
	ReviewerID         *string       `json:"reviewer_id,omitempty" db:"reviewer_id"`                         // Last reviewer; cleared on resubmission
	ScheduledPublishAt *time.Time    `json:"scheduled_publish_at,omitempty" db:"scheduled_publish_at"`       // Pending scheduled-publish intent
	PublishedAt        *time.Time    `json:"published_at,omitempty" db:"published_at"`                       // Set once, on transition to PUBLISHED
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`                                     // Creation timestamp
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`                                     // Changes on every transition; optimistic-lock token
}

// Collections is the allow-list of content types managed through the
// workflow. Anything outside this list is rejected at the boundary.
var Collections = []string{
	"news",
	"championships",
	"clubs",
	"national_teams",
	"referees",
	"training_programs",
	"broadcasts",
	"federation_members",
	"gallery",
	"partners",
}

func ValidCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}
