package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/arjndr/postpilot/internal/models"
)

type CredentialsRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.TwitterCredentials, bool, error)
	Upsert(ctx context.Context, creds *models.TwitterCredentials) error
	Remove(ctx context.Context, userID int64) error
}

type credentialsRepository struct {
	db *sql.DB
}

func NewCredentialsRepository(db *sql.DB) CredentialsRepository {
	return &credentialsRepository{db: db}
}

func (r *credentialsRepository) GetByUserID(ctx context.Context, userID int64) (*models.TwitterCredentials, bool, error) {
	query := `SELECT id, user_id, handle, api_key, api_secret, access_token, access_secret, created_at, updated_at FROM twitter_credentials WHERE user_id = $1`
	row := r.db.QueryRowContext(ctx, query, userID)

	var creds models.TwitterCredentials
	err := row.Scan(&creds.ID, &creds.UserID, &creds.Handle, &creds.APIKey, &creds.APISecret,
		&creds.AccessToken, &creds.AccessSecret, &creds.CreatedAt, &creds.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	return &creds, true, nil
}

func (r *credentialsRepository) Upsert(ctx context.Context, creds *models.TwitterCredentials) error {
	query := `
		INSERT INTO twitter_credentials (user_id, handle, api_key, api_secret, access_token, access_secret)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET handle = EXCLUDED.handle,
			api_key = EXCLUDED.api_key,
			api_secret = EXCLUDED.api_secret,
			access_token = EXCLUDED.access_token,
			access_secret = EXCLUDED.access_secret,
			updated_at = $7
	`
	_, err := r.db.ExecContext(ctx, query, creds.UserID, creds.Handle, creds.APIKey, creds.APISecret,
		creds.AccessToken, creds.AccessSecret, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *credentialsRepository) Remove(ctx context.Context, userID int64) error {
	query := `DELETE FROM twitter_credentials WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
