package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/arjndr/postpilot/internal/models"
	"github.com/arjndr/postpilot/internal/service"
	"github.com/arjndr/postpilot/internal/transfer"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockScheduledPostRepo struct {
	mock.Mock
}

func (m *mockScheduledPostRepo) Create(ctx context.Context, post *models.ScheduledPost) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *mockScheduledPostRepo) GetByID(ctx context.Context, id string, userID int64) (*models.ScheduledPost, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduledPost), args.Error(1)
}

func (m *mockScheduledPostRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	args := m.Called(ctx, userID)
	return nil, args.Error(1)
}

func (m *mockScheduledPostRepo) SetJobID(ctx context.Context, id, jobID string) error {
	args := m.Called(ctx, id, jobID)
	return args.Error(0)
}

func (m *mockScheduledPostRepo) MarkPublishing(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockScheduledPostRepo) SetPostedIDs(ctx context.Context, id string, postedIDs []string) error {
	args := m.Called(ctx, id, postedIDs)
	return args.Error(0)
}

func (m *mockScheduledPostRepo) SetOutcome(ctx context.Context, id, status string, postedIDs []string, errMsg string) error {
	args := m.Called(ctx, id, status, postedIDs, errMsg)
	return args.Error(0)
}

func (m *mockScheduledPostRepo) Cancel(ctx context.Context, id string, userID int64) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockScheduledPostRepo) GetOverdue(ctx context.Context, before time.Time) ([]*models.ScheduledPost, error) {
	args := m.Called(ctx, before)
	return nil, args.Error(1)
}

func (m *mockScheduledPostRepo) GetStalePublishing(ctx context.Context, before time.Time) ([]*models.ScheduledPost, error) {
	args := m.Called(ctx, before)
	return nil, args.Error(1)
}

type mockPublishService struct {
	mock.Mock
}

func (m *mockPublishService) Execute(ctx context.Context, userID int64, items, alreadyPosted []string, progress func([]string)) ([]string, error) {
	args := m.Called(ctx, userID, items, alreadyPosted)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockPublishService) Reconcile(ctx context.Context, userID int64, postID string, items, tweetIDs []string) {
	m.Called(ctx, userID, postID, items, tweetIDs)
}

func (m *mockPublishService) PublishNow(ctx context.Context, userID int64, req *transfer.PublishRequest) ([]string, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func TestWorker_PublishesSinglePost(t *testing.T) {
	sp := new(mockScheduledPostRepo)
	ps := new(mockPublishService)
	w := NewWorker(sp, ps)
	ctx := context.Background()

	post := &models.ScheduledPost{
		ID:     "p1",
		UserID: 7,
		Status: models.PostStatusScheduled,
		Items:  []string{"hello"},
	}
	sp.On("GetByID", ctx, "p1", int64(7)).Return(post, nil)
	sp.On("MarkPublishing", ctx, "p1").Return(nil)
	ps.On("Execute", ctx, int64(7), []string{"hello"}, []string(nil)).Return([]string{"900"}, nil)
	sp.On("SetOutcome", ctx, "p1", models.PostStatusPosted, []string{"900"}, "").Return(nil)
	ps.On("Reconcile", ctx, int64(7), "p1", []string{"hello"}, []string{"900"}).Return()

	err := w.PublishScheduledPost(ctx, "p1", 7)

	require.NoError(t, err)
	sp.AssertExpectations(t)
	ps.AssertExpectations(t)
}

func TestWorker_CancelledPostIsNoOp(t *testing.T) {
	sp := new(mockScheduledPostRepo)
	ps := new(mockPublishService)
	w := NewWorker(sp, ps)
	ctx := context.Background()

	sp.On("GetByID", ctx, "p1", int64(7)).Return(&models.ScheduledPost{
		ID:     "p1",
		UserID: 7,
		Status: models.PostStatusCancelled,
		Items:  []string{"never posted"},
	}, nil)

	err := w.PublishScheduledPost(ctx, "p1", 7)

	require.NoError(t, err)
	sp.AssertNotCalled(t, "MarkPublishing", mock.Anything, mock.Anything)
	ps.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWorker_AlreadyPostedRedeliveryIsNoOp(t *testing.T) {
	sp := new(mockScheduledPostRepo)
	ps := new(mockPublishService)
	w := NewWorker(sp, ps)
	ctx := context.Background()

	sp.On("GetByID", ctx, "p1", int64(7)).Return(&models.ScheduledPost{
		ID:        "p1",
		UserID:    7,
		Status:    models.PostStatusPosted,
		Items:     []string{"x"},
		PostedIDs: []string{"1"},
	}, nil)

	require.NoError(t, w.PublishScheduledPost(ctx, "p1", 7))
	ps.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWorker_MissingPostConsumesJob(t *testing.T) {
	sp := new(mockScheduledPostRepo)
	ps := new(mockPublishService)
	w := NewWorker(sp, ps)
	ctx := context.Background()

	sp.On("GetByID", ctx, "gone", int64(7)).Return(nil, nil)

	require.NoError(t, w.PublishScheduledPost(ctx, "gone", 7))
}

func TestWorker_ResumesPartialThread(t *testing.T) {
	sp := new(mockScheduledPostRepo)
	ps := new(mockPublishService)
	w := NewWorker(sp, ps)
	ctx := context.Background()

	// Redelivered mid-thread: two of three items already live.
	post := &models.ScheduledPost{
		ID:        "p1",
		UserID:    7,
		Status:    models.PostStatusPublishing,
		Items:     []string{"a", "b", "c"},
		PostedIDs: []string{"100", "101"},
	}
	sp.On("GetByID", ctx, "p1", int64(7)).Return(post, nil)
	sp.On("MarkPublishing", ctx, "p1").Return(nil)
	ps.On("Execute", ctx, int64(7), []string{"a", "b", "c"}, []string{"100", "101"}).
		Return([]string{"100", "101", "102"}, nil)
	sp.On("SetOutcome", ctx, "p1", models.PostStatusPosted, []string{"100", "101", "102"}, "").Return(nil)
	ps.On("Reconcile", ctx, int64(7), "p1", []string{"a", "b", "c"}, []string{"100", "101", "102"}).Return()

	require.NoError(t, w.PublishScheduledPost(ctx, "p1", 7))
	sp.AssertExpectations(t)
	ps.AssertExpectations(t)
}

func TestWorker_TransientFailurePropagatesForRetry(t *testing.T) {
	sp := new(mockScheduledPostRepo)
	ps := new(mockPublishService)
	w := NewWorker(sp, ps)
	ctx := context.Background()

	post := &models.ScheduledPost{
		ID:     "p1",
		UserID: 7,
		Status: models.PostStatusScheduled,
		Items:  []string{"a", "b"},
	}
	execErr := errors.New("posted 1 of 2 items: connection reset")
	sp.On("GetByID", ctx, "p1", int64(7)).Return(post, nil)
	sp.On("MarkPublishing", ctx, "p1").Return(nil)
	ps.On("Execute", ctx, int64(7), []string{"a", "b"}, []string(nil)).Return([]string{"100"}, execErr)
	sp.On("SetOutcome", ctx, "p1", models.PostStatusFailed, []string{"100"}, execErr.Error()).Return(nil)

	err := w.PublishScheduledPost(ctx, "p1", 7)

	require.Error(t, err)
	// Transient failures go back to the queue for backoff and redelivery.
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	ps.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWorker_PreconditionFailureSkipsRetry(t *testing.T) {
	sp := new(mockScheduledPostRepo)
	ps := new(mockPublishService)
	w := NewWorker(sp, ps)
	ctx := context.Background()

	post := &models.ScheduledPost{
		ID:     "p1",
		UserID: 7,
		Status: models.PostStatusScheduled,
		Items:  []string{"a"},
	}
	sp.On("GetByID", ctx, "p1", int64(7)).Return(post, nil)
	sp.On("MarkPublishing", ctx, "p1").Return(nil)
	ps.On("Execute", ctx, int64(7), []string{"a"}, []string(nil)).Return(nil, service.ErrNoCredentials)
	sp.On("SetOutcome", ctx, "p1", models.PostStatusFailed, []string(nil), service.ErrNoCredentials.Error()).Return(nil)

	err := w.PublishScheduledPost(ctx, "p1", 7)

	require.Error(t, err)
	// Redelivery cannot succeed until the user reconnects the account.
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestWorker_HandleTask(t *testing.T) {
	sp := new(mockScheduledPostRepo)
	ps := new(mockPublishService)
	w := NewWorker(sp, ps)
	ctx := context.Background()

	payload, err := json.Marshal(PublishPostPayload{ScheduledPostID: "p1", UserID: 7})
	require.NoError(t, err)

	sp.On("GetByID", ctx, "p1", int64(7)).Return(&models.ScheduledPost{
		ID:     "p1",
		UserID: 7,
		Status: models.PostStatusCancelled,
	}, nil)

	task := asynq.NewTask(TaskTypePublishPost, payload)
	require.NoError(t, w.HandlePublishPostTask(ctx, task))

	badTask := asynq.NewTask(TaskTypePublishPost, []byte("not json"))
	err = w.HandlePublishPostTask(ctx, badTask)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
