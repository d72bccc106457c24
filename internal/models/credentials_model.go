package models

import "time"

// TwitterCredentials holds the per-user OAuth1.0a material needed to sign
// requests: the user's own app key/secret plus the account token/secret.
// The four secrets are stored AES-GCM encrypted.
type TwitterCredentials struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Handle       string    `db:"handle" json:"handle"`
	APIKey       string    `db:"api_key" json:"-"`
	APISecret    string    `db:"api_secret" json:"-"`
	AccessToken  string    `db:"access_token" json:"-"`
	AccessSecret string    `db:"access_secret" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
