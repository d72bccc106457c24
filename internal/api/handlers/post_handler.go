package handlers

import (
	"errors"
	"log/slog"

	"github.com/arjndr/postpilot/internal/queue"
	"github.com/arjndr/postpilot/internal/service"
	"github.com/arjndr/postpilot/internal/transfer"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
)

type PostHandler struct {
	s           service.ScheduleService
	ps          service.PublishService
	AsynqClient *asynq.Client
}

func NewPostHandler(s service.ScheduleService, ps service.PublishService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: s, ps: ps, AsynqClient: asynqClient}
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var sc transfer.ScheduleCreation
	if err := c.BodyParser(&sc); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	postID, delay, err := h.s.Create(c.Context(), userID, &sc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	jobID, err := queue.EnqueuePublish(h.AsynqClient, queue.PublishPostPayload{
		ScheduledPostID: postID,
		UserID:          userID,
	}, delay)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error scheduling post",
		})
	}

	if err := h.s.AttachJob(c.Context(), postID, jobID); err != nil {
		slog.Info(err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":      postID,
		"message": "Post scheduled successfully",
	})
}

func (h *PostHandler) PublishNow(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	postedIDs, err := h.ps.PublishNow(c.Context(), userID, &req)
	if err != nil {
		status := fiber.StatusBadGateway
		if errors.Is(err, service.ErrNoCredentials) {
			status = fiber.StatusPreconditionFailed
		}
		return c.Status(status).JSON(fiber.Map{
			"error":      err.Error(),
			"posted_ids": postedIDs,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"posted_ids": postedIDs,
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")

	if postID != "" {
		post, err := h.s.Info(c.Context(), userID, postID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.Status(fiber.StatusOK).JSON(post)
	}

	posts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list scheduled posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) CancelPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")

	err := h.s.Cancel(c.Context(), userID, postID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.SendStatus(fiber.StatusOK)
}

func (h *PostHandler) RetryPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID := c.Query("id")

	if err := h.s.PrepareRetry(c.Context(), userID, postID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	jobID, err := queue.EnqueuePublish(h.AsynqClient, queue.PublishPostPayload{
		ScheduledPostID: postID,
		UserID:          userID,
	}, 0)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error re-enqueueing post",
		})
	}

	if err := h.s.AttachJob(c.Context(), postID, jobID); err != nil {
		slog.Info(err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"job_id":  jobID,
		"message": "Post re-enqueued",
	})
}
