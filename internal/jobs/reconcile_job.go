package job

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/arjndr/postpilot/internal/queue"
	"github.com/arjndr/postpilot/internal/repository"
	"github.com/hibiken/asynq"
)

// overdueGrace is how far past its due time a still-scheduled post must be
// before the sweep treats its queue job as lost and re-enqueues it.
const overdueGrace = 5 * time.Minute

// publishingStale flags posts whose worker likely crashed mid-publish; the
// queue's redelivery normally resumes them, so the sweep only reports.
const publishingStale = 30 * time.Minute

type ReconcileJob struct {
	sp          repository.ScheduledPostRepository
	asynqClient *asynq.Client
}

func NewReconcileJob(sp repository.ScheduledPostRepository, asynqClient *asynq.Client) *ReconcileJob {
	return &ReconcileJob{
		sp:          sp,
		asynqClient: asynqClient,
	}
}

func (c *ReconcileJob) ReconcileSchedules() {
	ctx := context.Background()
	now := time.Now()

	overdue, err := c.sp.GetOverdue(ctx, now.Add(-overdueGrace))
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range overdue {
		jobID, err := queue.EnqueuePublish(c.asynqClient, queue.PublishPostPayload{
			ScheduledPostID: post.ID,
			UserID:          post.UserID,
		}, 0)
		if err != nil {
			slog.Info(err.Error())
			continue
		}

		if err := c.sp.SetJobID(ctx, post.ID, jobID); err != nil {
			slog.Info(err.Error())
		}
		log.Printf("Re-enqueued overdue scheduled post %s as job %s", post.ID, jobID)
	}

	stale, err := c.sp.GetStalePublishing(ctx, now.Add(-publishingStale))
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range stale {
		// Publishing with no outcome this long means a worker died
		// mid-attempt. The posted prefix is persisted, so redelivery resumes
		// correctly; this log is the operator's trail.
		log.Printf("Scheduled post %s stuck in publishing since %s with %d items posted",
			post.ID, post.UpdatedAt.Format(time.RFC3339), len(post.PostedIDs))
	}
}
