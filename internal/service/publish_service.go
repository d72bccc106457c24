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
	"github.com/arjndr/postpilot/internal/twitter"
)

// TweetPoster is the single platform operation the publish pipeline needs.
type TweetPoster interface {
	PostTweet(ctx context.Context, creds twitter.Credentials, text, inReplyToID string) (string, error)
}

// Precondition failures: retrying cannot succeed without user action, so the
// worker must not hand these back to the queue for redelivery.
var (
	ErrNoCredentials = errors.New("twitter account is not connected")
	ErrEmptyPayload  = errors.New("nothing to publish")
)

type PublishService interface {
	Execute(ctx context.Context, userID int64, items, alreadyPosted []string, progress func([]string)) ([]string, error)
	Reconcile(ctx context.Context, userID int64, postID string, items, tweetIDs []string)
	PublishNow(ctx context.Context, userID int64, req *transfer.PublishRequest) ([]string, error)
}

type publishService struct {
	tw TweetPoster
	cs CredentialsService
	cp repository.CapturedPostRepository
	ar ReceiptArchiver
}

func NewPublishService(tw TweetPoster, cs CredentialsService, cp repository.CapturedPostRepository, ar ReceiptArchiver) PublishService {
	return &publishService{
		tw: tw,
		cs: cs,
		cp: cp,
		ar: ar,
	}
}

// Execute posts items in order, each after the first as a reply to its
// predecessor's id. alreadyPosted is the prefix a previous delivery got
// through before failing; posting resumes after it rather than from zero,
// since those tweets are already live and there is no way to retract a
// duplicate. The returned slice always holds every id posted so far, even
// when an error is returned alongside it. progress, when non-nil, is called
// after each successful item with the ids posted so far, letting the worker
// persist thread progress before the next network call.
func (s *publishService) Execute(ctx context.Context, userID int64, items, alreadyPosted []string, progress func([]string)) ([]string, error) {
	if len(items) == 0 {
		return nil, ErrEmptyPayload
	}
	for _, item := range items {
		if item == "" {
			return nil, ErrEmptyPayload
		}
	}

	creds, _, isConnected, err := s.cs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !isConnected {
		slog.Info(ErrNoCredentials.Error())
		return nil, ErrNoCredentials
	}

	if len(alreadyPosted) >= len(items) {
		// Redelivered after the final item went out but before the status
		// update stuck. Nothing left to post.
		return alreadyPosted[:len(items)], nil
	}

	tweetIDs := append([]string{}, alreadyPosted...)
	for i := len(tweetIDs); i < len(items); i++ {
		inReplyTo := ""
		if len(tweetIDs) > 0 {
			inReplyTo = tweetIDs[len(tweetIDs)-1]
		}

		id, err := s.tw.PostTweet(ctx, creds, items[i], inReplyTo)
		if err != nil {
			return tweetIDs, fmt.Errorf("posted %d of %d items: %w", len(tweetIDs), len(items), err)
		}
		tweetIDs = append(tweetIDs, id)
		if progress != nil {
			progress(tweetIDs)
		}
	}

	return tweetIDs, nil
}

// Reconcile backfills the captured-posts read model and archives a receipt.
// Both are strictly best-effort: the tweets are already live, so nothing
// here may surface as a publish failure. Duplicate tweet ids (redelivery
// after a crash between posting and status update) hit the unique index and
// are logged and dropped.
func (s *publishService) Reconcile(ctx context.Context, userID int64, postID string, items, tweetIDs []string) {
	_, handle, isConnected, err := s.cs.Get(ctx, userID)
	if err != nil || !isConnected {
		slog.Info(fmt.Sprintf("backfill skipped, credentials unavailable for user %d", userID))
		return
	}

	postedAt := time.Now()
	for i, id := range tweetIDs {
		cp := &models.CapturedPost{
			UserID:       userID,
			TweetID:      id,
			Text:         items[i],
			AuthorHandle: handle,
			URL:          tweetURL(handle, id),
			Source:       models.CapturedSourcePublished,
			PostedAt:     postedAt,
		}
		if _, err := s.cp.Create(ctx, cp); err != nil {
			slog.Info(fmt.Sprintf("backfill insert failed for tweet %s: %v", id, err))
		}
	}

	receipt := &PublishReceipt{
		PostID:   postID,
		UserID:   userID,
		Items:    items,
		TweetIDs: tweetIDs,
		PostedAt: postedAt,
	}
	if err := s.ar.Archive(ctx, receipt); err != nil {
		slog.Info(fmt.Sprintf("receipt archive failed for user %d: %v", userID, err))
	}
}

// PublishNow is the synchronous path: same sequencing and backfill as the
// scheduled worker, no persisted state machine row.
func (s *publishService) PublishNow(ctx context.Context, userID int64, req *transfer.PublishRequest) ([]string, error) {
	if req == nil {
		return nil, errors.New("publish request is required")
	}

	items, err := normalizePayload(req.ContentType, req.Payload)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	tweetIDs, err := s.Execute(ctx, userID, items, nil, nil)
	if err != nil {
		return tweetIDs, err
	}

	s.Reconcile(ctx, userID, "", items, tweetIDs)

	return tweetIDs, nil
}
