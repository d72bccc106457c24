package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/arjndr/postpilot/internal/models"
	"github.com/lib/pq"
)

type ScheduledPostRepository interface {
	Create(ctx context.Context, post *models.ScheduledPost) error
	GetByID(ctx context.Context, id string, userID int64) (*models.ScheduledPost, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error)
	SetJobID(ctx context.Context, id, jobID string) error
	MarkPublishing(ctx context.Context, id string) error
	SetPostedIDs(ctx context.Context, id string, postedIDs []string) error
	SetOutcome(ctx context.Context, id, status string, postedIDs []string, errMsg string) error
	Cancel(ctx context.Context, id string, userID int64) (bool, error)
	GetOverdue(ctx context.Context, before time.Time) ([]*models.ScheduledPost, error)
	GetStalePublishing(ctx context.Context, before time.Time) ([]*models.ScheduledPost, error)
}

type scheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

const scheduledPostColumns = `id, user_id, draft_id, content_type, items, scheduled_for, status, job_id, posted_ids, error, created_at, updated_at`

func (r *scheduledPostRepository) Create(ctx context.Context, post *models.ScheduledPost) error {
	query := `
		INSERT INTO scheduled_posts (id, user_id, draft_id, content_type, items, scheduled_for, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.UserID, post.DraftID, post.ContentType,
		pq.Array(post.Items), post.ScheduledFor, post.Status)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func scanScheduledPost(row interface{ Scan(...any) error }) (*models.ScheduledPost, error) {
	var post models.ScheduledPost
	var draftID, jobID, errMsg sql.NullString

	err := row.Scan(&post.ID, &post.UserID, &draftID, &post.ContentType,
		pq.Array(&post.Items), &post.ScheduledFor, &post.Status, &jobID,
		pq.Array(&post.PostedIDs), &errMsg, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if draftID.Valid {
		post.DraftID = &draftID.String
	}
	if jobID.Valid {
		post.JobID = &jobID.String
	}
	if errMsg.Valid {
		post.Error = &errMsg.String
	}
	return &post, nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id string, userID int64) (*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE id = $1 AND user_id = $2`
	row := r.db.QueryRowContext(ctx, query, id, userID)

	post, err := scanScheduledPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *scheduledPostRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE user_id = $1 ORDER BY scheduled_for DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (r *scheduledPostRepository) SetJobID(ctx context.Context, id, jobID string) error {
	query := `UPDATE scheduled_posts SET job_id = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, jobID, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// MarkPublishing also clears the previous error so the stored failure reason
// always belongs to the latest attempt.
func (r *scheduledPostRepository) MarkPublishing(ctx context.Context, id string) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			error = NULL,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// SetPostedIDs records thread progress mid-publish so a redelivery after a
// crash resumes from the exact posted prefix.
func (r *scheduledPostRepository) SetPostedIDs(ctx context.Context, id string, postedIDs []string) error {
	query := `UPDATE scheduled_posts SET posted_ids = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, pq.Array(postedIDs), time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) SetOutcome(ctx context.Context, id, status string, postedIDs []string, errMsg string) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			posted_ids = $2,
			error = $3,
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, status, pq.Array(postedIDs),
		sql.NullString{String: errMsg, Valid: errMsg != ""}, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Cancel flips a post to cancelled only while it is still waiting; once the
// worker has begun publishing the in-flight attempt cannot be preempted.
func (r *scheduledPostRepository) Cancel(ctx context.Context, id string, userID int64) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusCancelled, time.Now(), id, userID, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *scheduledPostRepository) GetOverdue(ctx context.Context, before time.Time) ([]*models.ScheduledPost, error) {
	return r.getByStatusBefore(ctx, models.PostStatusScheduled, "scheduled_for", before)
}

func (r *scheduledPostRepository) GetStalePublishing(ctx context.Context, before time.Time) ([]*models.ScheduledPost, error) {
	return r.getByStatusBefore(ctx, models.PostStatusPublishing, "updated_at", before)
}

func (r *scheduledPostRepository) getByStatusBefore(ctx context.Context, status, column string, before time.Time) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE status = $1 AND ` + column + ` < $2`
	rows, err := r.db.QueryContext(ctx, query, status, before)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}
