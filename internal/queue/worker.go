package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/arjndr/postpilot/internal/models"
	"github.com/arjndr/postpilot/internal/service"
	"github.com/hibiken/asynq"
)

func (w *Worker) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("bad publish payload: %v: %w", err, asynq.SkipRetry)
	}

	return w.PublishScheduledPost(ctx, payload.ScheduledPostID, payload.UserID)
}

// PublishScheduledPost drives the scheduled post through its state machine.
// The queue guarantees a single worker holds this job, so the row is never
// mutated concurrently.
func (w *Worker) PublishScheduledPost(ctx context.Context, postID string, userID int64) error {
	post, err := w.sp.GetByID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if post == nil {
		log.Printf("Scheduled post %s not found, consuming job", postID)
		return nil
	}

	// Cancelled before pickup, or a redelivery after the outcome already
	// stuck: consume the job without touching the platform.
	if post.Terminal() {
		log.Printf("Scheduled post %s is %s, nothing to do", post.ID, post.Status)
		return nil
	}

	// The publishing transition lands before any network call. A crash from
	// here on is visible as "was publishing, outcome unknown" instead of
	// silently reverting to scheduled, and redelivery resumes from the
	// posted prefix rather than reposting it.
	if err := w.sp.MarkPublishing(ctx, post.ID); err != nil {
		return err
	}

	progress := func(tweetIDs []string) {
		if err := w.sp.SetPostedIDs(ctx, post.ID, tweetIDs); err != nil {
			log.Printf("Error persisting thread progress for post %s: %v", post.ID, err)
		}
	}

	tweetIDs, err := w.ps.Execute(ctx, post.UserID, post.Items, post.PostedIDs, progress)
	if err != nil {
		if dbErr := w.sp.SetOutcome(ctx, post.ID, models.PostStatusFailed, tweetIDs, err.Error()); dbErr != nil {
			log.Printf("Error recording failure for post %s: %v", post.ID, dbErr)
		}

		if errors.Is(err, service.ErrNoCredentials) || errors.Is(err, service.ErrEmptyPayload) {
			// Precondition failures cannot heal on their own; redelivery
			// would fail identically.
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	if err := w.sp.SetOutcome(ctx, post.ID, models.PostStatusPosted, tweetIDs, ""); err != nil {
		return err
	}

	w.ps.Reconcile(ctx, post.UserID, post.ID, post.Items, tweetIDs)

	return nil
}
