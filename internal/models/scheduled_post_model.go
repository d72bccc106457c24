package models

import "time"

type ScheduledPost struct {
	ID           string    `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	DraftID      *string   `db:"draft_id" json:"draft_id,omitempty"`
	ContentType  string    `db:"content_type" json:"content_type"` // single_post, thread
	Items        []string  `db:"items" json:"items"`
	ScheduledFor time.Time `db:"scheduled_for" json:"scheduled_for"`
	Status       string    `db:"status" json:"status"`
	JobID        *string   `db:"job_id" json:"job_id,omitempty"`
	PostedIDs    []string  `db:"posted_ids" json:"posted_ids"`
	Error        *string   `db:"error" json:"error,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

const (
	ContentTypeSinglePost = "single_post"
	ContentTypeThread     = "thread"
)

const (
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPosted     = "posted"
	PostStatusFailed     = "failed"
	PostStatusCancelled  = "cancelled"
)

// Terminal reports whether the post can never change status again.
func (p *ScheduledPost) Terminal() bool {
	return p.Status == PostStatusPosted || p.Status == PostStatusCancelled
}
