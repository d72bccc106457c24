package queue

import (
	"github.com/arjndr/postpilot/internal/repository"
	"github.com/arjndr/postpilot/internal/service"
)

const TaskTypePublishPost = "publish:post"

// MaxRetry bounds queue-level redelivery; asynq applies exponential backoff
// between attempts.
const MaxRetry = 3

type PublishPostPayload struct {
	ScheduledPostID string `json:"scheduled_post_id"`
	UserID          int64  `json:"user_id"`
}

type Worker struct {
	sp repository.ScheduledPostRepository
	ps service.PublishService
}

func NewWorker(sp repository.ScheduledPostRepository, ps service.PublishService) *Worker {
	return &Worker{
		sp: sp,
		ps: ps,
	}
}
