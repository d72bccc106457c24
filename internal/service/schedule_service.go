package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arjndr/postpilot/internal/models"
	"github.com/arjndr/postpilot/internal/repository"
	"github.com/arjndr/postpilot/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// pastGrace absorbs client clock skew: a scheduled_for slightly in the past
// is accepted and published immediately instead of rejected.
const pastGrace = time.Minute

type ScheduleService interface {
	Create(ctx context.Context, userID int64, sc *transfer.ScheduleCreation) (string, time.Duration, error)
	List(ctx context.Context, userID int64) ([]*models.ScheduledPost, error)
	Info(ctx context.Context, userID int64, postID string) (*models.ScheduledPost, error)
	Cancel(ctx context.Context, userID int64, postID string) error
	PrepareRetry(ctx context.Context, userID int64, postID string) error
	AttachJob(ctx context.Context, postID, jobID string) error
}

type scheduleService struct {
	sp repository.ScheduledPostRepository
}

func NewScheduleService(sp repository.ScheduledPostRepository) ScheduleService {
	return &scheduleService{sp: sp}
}

// Create validates the request and inserts the scheduled row. The returned
// delay is what the caller passes to the queue; scheduled_for is immutable
// afterwards, so job due time and row stay in lockstep (reschedule = cancel
// and recreate).
func (s *scheduleService) Create(ctx context.Context, userID int64, sc *transfer.ScheduleCreation) (string, time.Duration, error) {
	if sc == nil {
		err := errors.New("schedule request is nil")
		slog.Info(err.Error())
		return "", 0, err
	}

	items, err := normalizePayload(sc.ContentType, sc.Payload)
	if err != nil {
		slog.Info(err.Error())
		return "", 0, err
	}

	scheduledFor, err := parseScheduledFor(sc.ScheduledFor)
	if err != nil {
		slog.Info(err.Error())
		return "", 0, err
	}

	if time.Until(scheduledFor) < -pastGrace {
		err := errors.New("scheduled time is in the past")
		slog.Info(err.Error())
		return "", 0, err
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", 0, err
	}

	post := &models.ScheduledPost{
		ID:           id,
		UserID:       userID,
		ContentType:  sc.ContentType,
		Items:        items,
		ScheduledFor: scheduledFor,
		Status:       models.PostStatusScheduled,
	}
	if sc.DraftID != "" {
		draftID := sc.DraftID
		post.DraftID = &draftID
	}

	if err := s.sp.Create(ctx, post); err != nil {
		return "", 0, fmt.Errorf("error creating scheduled post: %w", err)
	}

	delay := time.Until(scheduledFor)
	if delay < 0 {
		delay = 0
	}

	return id, delay, nil
}

func parseScheduledFor(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02T15:04", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid scheduled time format: %w", err)
	}
	return t, nil
}

func (s *scheduleService) List(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	posts, err := s.sp.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing scheduled posts")
	}
	return posts, nil
}

func (s *scheduleService) Info(ctx context.Context, userID int64, postID string) (*models.ScheduledPost, error) {
	if postID == "" {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.sp.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting post info")
	}
	if post == nil {
		err = errors.New("post doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (s *scheduleService) Cancel(ctx context.Context, userID int64, postID string) error {
	if postID == "" {
		err := errors.New("post id is not valid")
		slog.Info(err.Error())
		return err
	}

	cancelled, err := s.sp.Cancel(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !cancelled {
		err = errors.New("post is no longer cancellable")
		slog.Info(err.Error())
		return err
	}
	return nil
}

// PrepareRetry gates the manual failed -> publishing path: only a failed
// post may be re-enqueued. The worker resumes the thread from the posted
// prefix, so retrying a partial thread never reposts delivered items.
func (s *scheduleService) PrepareRetry(ctx context.Context, userID int64, postID string) error {
	post, err := s.Info(ctx, userID, postID)
	if err != nil {
		return err
	}

	if post.Status != models.PostStatusFailed {
		err = fmt.Errorf("only failed posts can be retried, status is %s", post.Status)
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (s *scheduleService) AttachJob(ctx context.Context, postID, jobID string) error {
	return s.sp.SetJobID(ctx, postID, jobID)
}
