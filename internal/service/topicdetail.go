package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/forumfront/internal/apperror"
	"github.com/sakif/forumfront/internal/backend"
	"github.com/sakif/forumfront/internal/forum"
	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/session"
)

// DefaultMediaConcurrency bounds parallel reply-media requests per page.
const DefaultMediaConcurrency = 8

// TopicAPI is the slice of the backend the topic page needs.
type TopicAPI interface {
	IncrementView(ctx context.Context, topicID int64) error
	GetTopic(ctx context.Context, id int64) (*model.Topic, error)
	TopicLikeStatus(ctx context.Context, topicID, userID int64) (*backend.LikeState, error)
	ListReplies(ctx context.Context, topicID int64) ([]model.Reply, error)
	TopicMedia(ctx context.Context, topicID int64) ([]model.Media, error)
	ReplyMedia(ctx context.Context, replyID int64) ([]model.Media, error)
	CreateReply(ctx context.Context, topicID int64, content string) (*model.Reply, error)
	CreateReplyWithMedia(ctx context.Context, topicID int64, content string, files []model.Upload) (*model.Reply, error)
}

// TopicDetail is everything the topic page renders.
type TopicDetail struct {
	mu sync.Mutex

	Topic      model.Topic             `json:"topic"`
	Hot        bool                    `json:"hot"`
	Liked      bool                    `json:"liked"`
	Replies    []model.Reply           `json:"replies"`
	TopicMedia []model.Media           `json:"topic_media"`
	ReplyMedia map[int64][]model.Media `json:"reply_media"`
}

// AddReply appends r and seeds its media from what the backend echoed, so
// the new reply renders without another media fetch.
func (d *TopicDetail) AddReply(r model.Reply) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Replies = append(d.Replies, r)
	if len(r.Media) > 0 {
		if d.ReplyMedia == nil {
			d.ReplyMedia = make(map[int64][]model.Media)
		}
		d.ReplyMedia[r.ID] = r.Media
	}
}

// AdjustLikes applies delta to the topic or one of its replies.
func (d *TopicDetail) AdjustLikes(target model.LikeTarget, id int64, delta int) (count, applied int, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch target {
	case model.LikeTopic:
		if d.Topic.ID != id {
			return 0, 0, false
		}
		count = max(d.Topic.LikeCount+delta, 0)
		applied = count - d.Topic.LikeCount
		d.Topic.LikeCount = count
		return count, applied, true
	case model.LikeReply:
		for i := range d.Replies {
			if d.Replies[i].ID == id {
				count = max(d.Replies[i].LikeCount+delta, 0)
				applied = count - d.Replies[i].LikeCount
				d.Replies[i].LikeCount = count
				return count, applied, true
			}
		}
	}
	return 0, 0, false
}

// TopicDetailService assembles topic pages and posts replies.
type TopicDetailService struct {
	api              TopicAPI
	users            *AuthService
	logger           *slog.Logger
	mediaConcurrency int
}

// NewTopicDetailService wires the service. mediaConcurrency <= 0 takes the
// default.
func NewTopicDetailService(api TopicAPI, users *AuthService, mediaConcurrency int, logger *slog.Logger) *TopicDetailService {
	if mediaConcurrency <= 0 {
		mediaConcurrency = DefaultMediaConcurrency
	}
	return &TopicDetailService{
		api:              api,
		users:            users,
		logger:           logger,
		mediaConcurrency: mediaConcurrency,
	}
}

// Load builds the topic page:
//
//  1. count a view (best effort)
//  2. topic, then replies (both required)
//  3. whether the signed-in user liked the topic, and topic media (best effort)
//  4. every reply's media, fetched concurrently, each best effort
//  5. authors for the topic and all replies, in one batched lookup
//
// A cancelled ctx stops the load with ctx.Err().
func (s *TopicDetailService) Load(ctx context.Context, sess *session.Session, topicID int64) (*TopicDetail, error) {
	if topicID <= 0 {
		return nil, apperror.ValidationFailed("id", "topic id must be positive")
	}
	bctx := sess.Context(ctx)

	if err := s.api.IncrementView(bctx, topicID); err != nil {
		s.logger.Warn("view count increment failed",
			slog.Int64("topicID", topicID),
			slog.String("error", err.Error()),
		)
	}

	topic, err := s.api.GetTopic(bctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("loading topic %d: %w", topicID, err)
	}

	replies, err := s.api.ListReplies(bctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("loading replies for topic %d: %w", topicID, err)
	}

	topicMedia, err := s.api.TopicMedia(bctx, topicID)
	if err != nil {
		s.logger.Warn("topic media fetch failed",
			slog.Int64("topicID", topicID),
			slog.String("error", err.Error()),
		)
		topicMedia = []model.Media{}
	}

	replyMedia, err := s.fetchReplyMedia(bctx, replies)
	if err != nil {
		return nil, err
	}

	d := &TopicDetail{
		Topic:      *topic,
		Hot:        forum.IsHotTopic(topic),
		Liked:      s.likedByMe(bctx, sess, topicID),
		Replies:    replies,
		TopicMedia: topicMedia,
		ReplyMedia: replyMedia,
	}
	s.resolveAuthors(bctx, sess, d)
	return d, nil
}

// likedByMe reports whether the session's user has liked the topic. It is
// false for anonymous sessions and when the status request fails.
func (s *TopicDetailService) likedByMe(ctx context.Context, sess *session.Session, topicID int64) bool {
	u := sess.User()
	if u == nil {
		return false
	}
	state, err := s.api.TopicLikeStatus(ctx, topicID, u.ID)
	if err != nil {
		s.logger.Warn("like status fetch failed",
			slog.Int64("topicID", topicID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return state.Liked
}

// fetchReplyMedia issues one media request per reply, at most
// mediaConcurrency at a time. A failed request is logged and that reply
// simply has no media. Only context cancellation fails the whole fetch.
func (s *TopicDetailService) fetchReplyMedia(ctx context.Context, replies []model.Reply) (map[int64][]model.Media, error) {
	var (
		mu  sync.Mutex
		out = make(map[int64][]model.Media, len(replies))
	)

	var g errgroup.Group
	g.SetLimit(s.mediaConcurrency)
	for _, r := range replies {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			media, err := s.api.ReplyMedia(ctx, r.ID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn("reply media fetch failed",
					slog.Int64("replyID", r.ID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			if len(media) == 0 {
				return nil
			}
			mu.Lock()
			out[r.ID] = media
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading reply media: %w", err)
	}
	return out, nil
}

// resolveAuthors fills Author on the topic and replies from the users
// cache, fetching unknown ids in one batch first. Failures leave authors nil.
func (s *TopicDetailService) resolveAuthors(ctx context.Context, sess *session.Session, d *TopicDetail) {
	ids := make([]int64, 0, len(d.Replies)+1)
	if id := d.Topic.AuthorID(); id > 0 && d.Topic.Author == nil {
		ids = append(ids, id)
	}
	for _, r := range d.Replies {
		if r.Author == nil {
			ids = append(ids, r.AuthorID)
		}
	}

	if _, err := s.users.FetchUsersByIDs(ctx, ids); err != nil {
		s.logger.Warn("author lookup failed", slog.String("error", err.Error()))
	}

	if d.Topic.Author == nil {
		d.Topic.Author = s.users.GetUserByID(ctx, sess, d.Topic.AuthorID())
	}
	for i := range d.Replies {
		if d.Replies[i].Author == nil {
			d.Replies[i].Author = s.users.GetUserByID(ctx, sess, d.Replies[i].AuthorID)
		}
	}
}

// SubmitReply posts a reply. Either trimmed text or at least one file is
// required. With files it goes multipart to the with-media endpoint, else
// as JSON.
func (s *TopicDetailService) SubmitReply(ctx context.Context, sess *session.Session, topicID int64, content string, files []model.Upload) (*model.Reply, error) {
	if sess.User() == nil {
		return nil, apperror.Unauthorized("sign in to reply")
	}
	content = strings.TrimSpace(content)
	if content == "" && len(files) == 0 {
		return nil, apperror.ValidationFailed("content", "reply text or a file is required")
	}

	bctx := sess.Context(ctx)
	var (
		reply *model.Reply
		err   error
	)
	if len(files) > 0 {
		reply, err = s.api.CreateReplyWithMedia(bctx, topicID, content, files)
	} else {
		reply, err = s.api.CreateReply(bctx, topicID, content)
	}
	if err != nil {
		return nil, fmt.Errorf("posting reply to topic %d: %w", topicID, err)
	}

	if reply.Author == nil {
		reply.Author = s.users.GetUserByID(ctx, sess, reply.AuthorID)
	}
	s.logger.Info("reply posted",
		slog.Int64("topicID", topicID),
		slog.Int64("replyID", reply.ID),
		slog.Int("files", len(files)),
	)
	return reply, nil
}
