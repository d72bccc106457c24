package queue

import (
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// EnqueuePublish schedules one publish job and returns the queue's task id,
// which the caller persists on the scheduled post for correlation.
func EnqueuePublish(asynqClient *asynq.Client, payload PublishPostPayload, delay time.Duration) (string, error) {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	info, err := asynqClient.Enqueue(task, asynq.ProcessIn(delay), asynq.MaxRetry(MaxRetry))
	if err != nil {
		return "", err
	}

	log.Printf("Publish job scheduled: %+v", payload)
	return info.ID, nil
}
