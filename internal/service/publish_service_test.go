package service

import (
	"context"
	"errors"
	"testing"

	"github.com/arjndr/postpilot/internal/models"
	"github.com/arjndr/postpilot/internal/transfer"
	"github.com/arjndr/postpilot/internal/twitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTweetPoster struct {
	mock.Mock
}

func (m *mockTweetPoster) PostTweet(ctx context.Context, creds twitter.Credentials, text, inReplyToID string) (string, error) {
	args := m.Called(ctx, creds, text, inReplyToID)
	return args.String(0), args.Error(1)
}

type mockCredentialsService struct {
	mock.Mock
}

func (m *mockCredentialsService) Save(ctx context.Context, userID int64, cu *transfer.CredentialsUpdate) error {
	args := m.Called(ctx, userID, cu)
	return args.Error(0)
}

func (m *mockCredentialsService) Get(ctx context.Context, userID int64) (twitter.Credentials, string, bool, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(twitter.Credentials), args.String(1), args.Bool(2), args.Error(3)
}

func (m *mockCredentialsService) Status(ctx context.Context, userID int64) (map[string]any, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *mockCredentialsService) Remove(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockCapturedPostRepo struct {
	mock.Mock
}

func (m *mockCapturedPostRepo) Create(ctx context.Context, cp *models.CapturedPost) (int64, error) {
	args := m.Called(ctx, cp)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCapturedPostRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.CapturedPost, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CapturedPost), args.Error(1)
}

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Archive(ctx context.Context, receipt *PublishReceipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

var testTwitterCreds = twitter.Credentials{
	APIKey:       "k",
	APISecret:    "ks",
	AccessToken:  "t",
	AccessSecret: "ts",
}

func newPublishFixture() (*mockTweetPoster, *mockCredentialsService, *mockCapturedPostRepo, *mockArchiver, PublishService) {
	tw := new(mockTweetPoster)
	cs := new(mockCredentialsService)
	cp := new(mockCapturedPostRepo)
	ar := new(mockArchiver)
	return tw, cs, cp, ar, NewPublishService(tw, cs, cp, ar)
}

func TestExecute_Thread_ChainsReplies(t *testing.T) {
	tw, cs, _, _, ps := newPublishFixture()
	ctx := context.Background()

	cs.On("Get", ctx, int64(7)).Return(testTwitterCreds, "handle", true, nil)
	tw.On("PostTweet", ctx, testTwitterCreds, "a", "").Return("100", nil)
	tw.On("PostTweet", ctx, testTwitterCreds, "b", "100").Return("101", nil)
	tw.On("PostTweet", ctx, testTwitterCreds, "c", "101").Return("102", nil)

	var snapshots [][]string
	progress := func(ids []string) {
		snapshots = append(snapshots, append([]string{}, ids...))
	}

	ids, err := ps.Execute(ctx, 7, []string{"a", "b", "c"}, nil, progress)

	require.NoError(t, err)
	assert.Equal(t, []string{"100", "101", "102"}, ids)
	assert.Equal(t, [][]string{{"100"}, {"100", "101"}, {"100", "101", "102"}}, snapshots)
	tw.AssertExpectations(t)
}

func TestExecute_SinglePost(t *testing.T) {
	tw, cs, _, _, ps := newPublishFixture()
	ctx := context.Background()

	cs.On("Get", ctx, int64(7)).Return(testTwitterCreds, "handle", true, nil)
	tw.On("PostTweet", ctx, testTwitterCreds, "just one", "").Return("555", nil)

	ids, err := ps.Execute(ctx, 7, []string{"just one"}, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"555"}, ids)
	tw.AssertNumberOfCalls(t, "PostTweet", 1)
}

func TestExecute_ResumesFromPostedPrefix(t *testing.T) {
	tw, cs, _, _, ps := newPublishFixture()
	ctx := context.Background()

	cs.On("Get", ctx, int64(7)).Return(testTwitterCreds, "handle", true, nil)
	// Item 0 already went out on a previous delivery; only b and c post now,
	// and b replies to the persisted id for a.
	tw.On("PostTweet", ctx, testTwitterCreds, "b", "100").Return("101", nil)
	tw.On("PostTweet", ctx, testTwitterCreds, "c", "101").Return("102", nil)

	ids, err := ps.Execute(ctx, 7, []string{"a", "b", "c"}, []string{"100"}, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"100", "101", "102"}, ids)
	tw.AssertNumberOfCalls(t, "PostTweet", 2)
}

func TestExecute_AlreadyComplete(t *testing.T) {
	tw, cs, _, _, ps := newPublishFixture()
	ctx := context.Background()

	cs.On("Get", ctx, int64(7)).Return(testTwitterCreds, "handle", true, nil)

	ids, err := ps.Execute(ctx, 7, []string{"a", "b"}, []string{"100", "101"}, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"100", "101"}, ids)
	tw.AssertNumberOfCalls(t, "PostTweet", 0)
}

func TestExecute_PartialFailureKeepsPrefix(t *testing.T) {
	tw, cs, _, _, ps := newPublishFixture()
	ctx := context.Background()

	cs.On("Get", ctx, int64(7)).Return(testTwitterCreds, "handle", true, nil)
	tw.On("PostTweet", ctx, testTwitterCreds, "a", "").Return("100", nil)
	tw.On("PostTweet", ctx, testTwitterCreds, "b", "100").Return("", errors.New("connection reset"))

	ids, err := ps.Execute(ctx, 7, []string{"a", "b", "c"}, nil, nil)

	require.Error(t, err)
	assert.Equal(t, []string{"100"}, ids)
	assert.Contains(t, err.Error(), "posted 1 of 3 items")
	assert.Contains(t, err.Error(), "connection reset")
	tw.AssertNumberOfCalls(t, "PostTweet", 2)
}

func TestExecute_NoCredentials(t *testing.T) {
	tw, cs, _, _, ps := newPublishFixture()
	ctx := context.Background()

	cs.On("Get", ctx, int64(7)).Return(twitter.Credentials{}, "", false, nil)

	ids, err := ps.Execute(ctx, 7, []string{"a"}, nil, nil)

	require.ErrorIs(t, err, ErrNoCredentials)
	assert.Empty(t, ids)
	tw.AssertNumberOfCalls(t, "PostTweet", 0)
}

func TestExecute_EmptyPayload(t *testing.T) {
	tw, _, _, _, ps := newPublishFixture()

	_, err := ps.Execute(context.Background(), 7, nil, nil, nil)
	require.ErrorIs(t, err, ErrEmptyPayload)

	_, err = ps.Execute(context.Background(), 7, []string{"a", ""}, nil, nil)
	require.ErrorIs(t, err, ErrEmptyPayload)

	tw.AssertNumberOfCalls(t, "PostTweet", 0)
}

func TestReconcile_BackfillsEachTweet(t *testing.T) {
	_, cs, cp, ar, ps := newPublishFixture()
	ctx := context.Background()

	cs.On("Get", ctx, int64(7)).Return(testTwitterCreds, "jdoe", true, nil)
	cp.On("Create", ctx, mock.MatchedBy(func(c *models.CapturedPost) bool {
		return c.TweetID == "100" && c.Text == "a" && c.AuthorHandle == "jdoe" &&
			c.URL == "https://twitter.com/jdoe/status/100" && c.Source == models.CapturedSourcePublished
	})).Return(int64(1), nil)
	cp.On("Create", ctx, mock.MatchedBy(func(c *models.CapturedPost) bool {
		return c.TweetID == "101" && c.Text == "b"
	})).Return(int64(2), nil)
	ar.On("Archive", ctx, mock.AnythingOfType("*service.PublishReceipt")).Return(nil)

	ps.Reconcile(ctx, 7, "post1", []string{"a", "b"}, []string{"100", "101"})

	cp.AssertNumberOfCalls(t, "Create", 2)
	ar.AssertNumberOfCalls(t, "Archive", 1)
}

func TestReconcile_SwallowsAllErrors(t *testing.T) {
	_, cs, cp, ar, ps := newPublishFixture()
	ctx := context.Background()

	cs.On("Get", ctx, int64(7)).Return(testTwitterCreds, "jdoe", true, nil)
	cp.On("Create", ctx, mock.Anything).Return(int64(0), errors.New("duplicate key value violates unique constraint"))
	ar.On("Archive", ctx, mock.Anything).Return(errors.New("bucket unavailable"))

	// Must not panic or surface anything; the tweets are already live.
	ps.Reconcile(ctx, 7, "post1", []string{"a", "b"}, []string{"100", "101"})

	cp.AssertNumberOfCalls(t, "Create", 2)
}

func TestPublishNow_SinglePost(t *testing.T) {
	tw, cs, cp, ar, ps := newPublishFixture()
	ctx := context.Background()

	cs.On("Get", ctx, int64(7)).Return(testTwitterCreds, "jdoe", true, nil)
	tw.On("PostTweet", ctx, testTwitterCreds, "hello", "").Return("900", nil)
	cp.On("Create", ctx, mock.Anything).Return(int64(1), nil)
	ar.On("Archive", ctx, mock.Anything).Return(nil)

	ids, err := ps.PublishNow(ctx, 7, &transfer.PublishRequest{
		ContentType: models.ContentTypeSinglePost,
		Payload:     &transfer.PostPayload{Text: "hello"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"900"}, ids)
	cp.AssertNumberOfCalls(t, "Create", 1)
	ar.AssertNumberOfCalls(t, "Archive", 1)
}

func TestPublishNow_InvalidRequest(t *testing.T) {
	tw, _, _, _, ps := newPublishFixture()

	_, err := ps.PublishNow(context.Background(), 7, &transfer.PublishRequest{
		ContentType: "carousel",
		Payload:     &transfer.PostPayload{Text: "hello"},
	})
	require.Error(t, err)

	_, err = ps.PublishNow(context.Background(), 7, nil)
	require.Error(t, err)

	tw.AssertNumberOfCalls(t, "PostTweet", 0)
}
