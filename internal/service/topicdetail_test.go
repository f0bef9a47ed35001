package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/forumfront/internal/apperror"
	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/service"
)

func ptr[T any](v T) *T { return &v }

func topicFixture() *fakeBackend {
	api := newFakeBackend()
	api.topic = &model.Topic{ID: 10, Title: "Автокресло 0+", UserID: ptr(int64(1)), ViewCount: 150, LikeCount: 2}
	for i := int64(1); i <= 12; i++ {
		api.replies = append(api.replies, model.Reply{ID: 100 + i, TopicID: 10, AuthorID: 1 + i%3, Content: "ok"})
		api.replyMedia[100+i] = []model.Media{{ID: i, TopicID: 10, ReplyID: ptr(100 + i), FileName: "photo.jpg"}}
	}
	api.topicMedia = []model.Media{{ID: 500, TopicID: 10, FileName: "main.jpg"}}
	api.users[1] = user(1, "anna")
	api.users[2] = user(2, "boris")
	api.users[3] = user(3, "vera")
	return api
}

func TestTopicDetailLoad(t *testing.T) {
	api := topicFixture()
	auth, _ := newAuth(api)
	svc := service.NewTopicDetailService(api, auth, 4, testLogger())

	d, err := svc.Load(context.Background(), newSession(nil), 10)
	require.NoError(t, err)

	assert.True(t, d.Hot)
	assert.Len(t, d.Replies, 12)
	assert.Len(t, d.TopicMedia, 1)
	assert.Len(t, d.ReplyMedia, 12)
	assert.Equal(t, int32(12), api.mediaCalls.Load())

	require.NotNil(t, d.Topic.Author)
	assert.Equal(t, "anna", d.Topic.Author.Username)
	for _, r := range d.Replies {
		require.NotNil(t, r.Author, "reply %d", r.ID)
		assert.Equal(t, r.AuthorID, r.Author.ID)
	}
	assert.Equal(t, int32(1), api.usersCalls.Load(), "authors are fetched in one batch")
}

func TestTopicDetailLoad_LikedByMe(t *testing.T) {
	api := topicFixture()
	api.likedBy[1] = true
	auth, _ := newAuth(api)
	svc := service.NewTopicDetailService(api, auth, 0, testLogger())
	ctx := context.Background()

	t.Run("anonymous", func(t *testing.T) {
		d, err := svc.Load(ctx, newSession(nil), 10)
		require.NoError(t, err)
		assert.False(t, d.Liked)
	})

	t.Run("signed in and liked", func(t *testing.T) {
		me := user(1, "anna")
		d, err := svc.Load(ctx, newSession(&me), 10)
		require.NoError(t, err)
		assert.True(t, d.Liked)
	})

	t.Run("signed in, not liked", func(t *testing.T) {
		me := user(2, "boris")
		d, err := svc.Load(ctx, newSession(&me), 10)
		require.NoError(t, err)
		assert.False(t, d.Liked)
	})

	t.Run("status failure is not fatal", func(t *testing.T) {
		api.likeStatusErr = errors.New("timeout")
		defer func() { api.likeStatusErr = nil }()

		me := user(1, "anna")
		d, err := svc.Load(ctx, newSession(&me), 10)
		require.NoError(t, err)
		assert.False(t, d.Liked)
		assert.Len(t, d.Replies, 12)
	})
}

func TestTopicDetailLoad_MediaIsConcurrentAndBounded(t *testing.T) {
	api := topicFixture()
	api.mediaDelay = 20 * time.Millisecond
	auth, _ := newAuth(api)
	svc := service.NewTopicDetailService(api, auth, 4, testLogger())

	start := time.Now()
	_, err := svc.Load(context.Background(), newSession(nil), 10)
	require.NoError(t, err)

	assert.LessOrEqual(t, api.maxInFlight.Load(), int32(4))
	assert.Greater(t, api.maxInFlight.Load(), int32(1))
	assert.Less(t, time.Since(start), 12*api.mediaDelay, "requests overlap")
}

func TestTopicDetailLoad_MediaFailuresAreBestEffort(t *testing.T) {
	api := topicFixture()
	api.mediaFail[103] = true
	api.mediaFail[107] = true
	api.viewErr = errors.New("view counter down")
	auth, _ := newAuth(api)
	svc := service.NewTopicDetailService(api, auth, 0, testLogger())

	d, err := svc.Load(context.Background(), newSession(nil), 10)
	require.NoError(t, err)

	assert.Len(t, d.ReplyMedia, 10)
	assert.NotContains(t, d.ReplyMedia, int64(103))
	assert.Len(t, d.Replies, 12)
}

func TestTopicDetailLoad_Cancelled(t *testing.T) {
	api := topicFixture()
	api.mediaDelay = time.Second
	auth, _ := newAuth(api)
	svc := service.NewTopicDetailService(api, auth, 2, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := svc.Load(ctx, newSession(nil), 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestTopicDetailLoad_NotFound(t *testing.T) {
	api := topicFixture()
	auth, _ := newAuth(api)
	svc := service.NewTopicDetailService(api, auth, 0, testLogger())

	_, err := svc.Load(context.Background(), newSession(nil), 11)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = svc.Load(context.Background(), newSession(nil), 0)
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestSubmitReply(t *testing.T) {
	api := topicFixture()
	api.profile = ptr(user(2, "boris"))
	auth, _ := newAuth(api)
	svc := service.NewTopicDetailService(api, auth, 0, testLogger())
	ctx := context.Background()

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.SubmitReply(ctx, newSession(nil), 10, "hi", nil)
		assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := svc.SubmitReply(ctx, newSession(api.profile), 10, "   ", nil)
		assert.True(t, errors.Is(err, apperror.ErrValidation))
		assert.Zero(t, api.replyCalls.Load()+api.replyMediaCalls.Load())
	})

	t.Run("text only goes as JSON", func(t *testing.T) {
		sess := newSession(api.profile)
		r, err := svc.SubmitReply(ctx, sess, 10, "  Спасибо!  ", nil)
		require.NoError(t, err)
		assert.Equal(t, "Спасибо!", r.Content)
		require.NotNil(t, r.Author)
		assert.Equal(t, "boris", r.Author.Username)
		assert.Equal(t, int32(1), api.replyCalls.Load())
	})

	t.Run("files without text", func(t *testing.T) {
		sess := newSession(api.profile)
		r, err := svc.SubmitReply(ctx, sess, 10, "", []model.Upload{{FileName: "a.jpg", Data: []byte{1}}})
		require.NoError(t, err)
		assert.Equal(t, int32(1), api.replyMediaCalls.Load())

		d := &service.TopicDetail{}
		d.AddReply(*r)
		require.Len(t, d.ReplyMedia[r.ID], 1)
		assert.Equal(t, "a.jpg", d.ReplyMedia[r.ID][0].FileName)
	})
}
