package models

import "time"

// CapturedPost is the read model shared by the publish backfill and the
// capture extension: one row per tweet the user authored, keyed by tweet id.
type CapturedPost struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	TweetID      string    `db:"tweet_id" json:"tweet_id"`
	Text         string    `db:"text" json:"text"`
	AuthorHandle string    `db:"author_handle" json:"author_handle"`
	URL          string    `db:"url" json:"url"`
	Source       string    `db:"source" json:"source"`
	PostedAt     time.Time `db:"posted_at" json:"posted_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	CapturedSourcePublished = "published"
	CapturedSourceExtension = "extension"
)
