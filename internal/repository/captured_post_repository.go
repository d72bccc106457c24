package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/arjndr/postpilot/internal/models"
)

type CapturedPostRepository interface {
	Create(ctx context.Context, cp *models.CapturedPost) (int64, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.CapturedPost, error)
}

type capturedPostRepository struct {
	db *sql.DB
}

func NewCapturedPostRepository(db *sql.DB) CapturedPostRepository {
	return &capturedPostRepository{db: db}
}

func (r *capturedPostRepository) Create(ctx context.Context, cp *models.CapturedPost) (int64, error) {
	query := `
		INSERT INTO captured_posts (user_id, tweet_id, text, author_handle, url, source, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, cp.UserID, cp.TweetID, cp.Text, cp.AuthorHandle, cp.URL, cp.Source, cp.PostedAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *capturedPostRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.CapturedPost, error) {
	query := `SELECT id, user_id, tweet_id, text, author_handle, url, source, posted_at, created_at FROM captured_posts WHERE user_id = $1 ORDER BY posted_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var cps []*models.CapturedPost
	for rows.Next() {
		var cp models.CapturedPost
		err := rows.Scan(&cp.ID, &cp.UserID, &cp.TweetID, &cp.Text, &cp.AuthorHandle, &cp.URL, &cp.Source, &cp.PostedAt, &cp.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		cps = append(cps, &cp)
	}
	return cps, nil
}
