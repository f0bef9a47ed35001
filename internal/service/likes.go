package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/forumfront/internal/apperror"
	"github.com/sakif/forumfront/internal/backend"
	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/session"
)

// LikeAPI is the slice of the backend that records likes.
type LikeAPI interface {
	LikeTopic(ctx context.Context, topicID int64) (*backend.LikeState, error)
	UnlikeTopic(ctx context.Context, topicID int64) (*backend.LikeState, error)
	LikeReply(ctx context.Context, replyID int64) (*backend.LikeState, error)
	UnlikeReply(ctx context.Context, replyID int64) (*backend.LikeState, error)
}

// LikeCounter is local state holding like counts that should move before
// the backend confirms. Implemented by forum.Forum and TopicDetail.
type LikeCounter interface {
	AdjustLikes(target model.LikeTarget, id int64, delta int) (count, applied int, ok bool)
}

// LikeResult is what the caller shows after a like or unlike.
type LikeResult struct {
	Liked      bool   `json:"liked"`
	LikeCount  int    `json:"like_count"`
	RolledBack bool   `json:"rolled_back"`
	Notice     string `json:"notice,omitempty"`
}

// LikeService performs likes as a two-phase update: the delta is applied to
// every counter first, and reversed on all of them if the backend call
// fails.
type LikeService struct {
	api    LikeAPI
	logger *slog.Logger
}

func NewLikeService(api LikeAPI, logger *slog.Logger) *LikeService {
	return &LikeService{api: api, logger: logger}
}

// Toggle likes (like=true) or unlikes the target. On failure the returned
// result carries the restored count and a notice for the user, alongside
// the error.
func (s *LikeService) Toggle(ctx context.Context, sess *session.Session, target model.LikeTarget, id int64, like bool, counters ...LikeCounter) (LikeResult, error) {
	if sess.User() == nil {
		return LikeResult{}, apperror.Unauthorized("sign in to like posts")
	}

	delta := -1
	if like {
		delta = 1
	}

	type undo struct {
		c       LikeCounter
		applied int
	}
	var (
		undos  []undo
		result = LikeResult{Liked: like}
		seen   bool
	)
	for _, c := range counters {
		count, applied, ok := c.AdjustLikes(target, id, delta)
		if !ok {
			continue
		}
		if !seen {
			result.LikeCount = count
			seen = true
		}
		undos = append(undos, undo{c: c, applied: applied})
	}

	state, err := s.call(sess.Context(ctx), target, id, like)
	if err != nil {
		for i, u := range undos {
			count, _, _ := u.c.AdjustLikes(target, id, -u.applied)
			if i == 0 {
				result.LikeCount = count
			}
		}
		result.Liked = !like
		result.RolledBack = true
		result.Notice = likeNotice(like)
		s.logger.Warn("like update failed, rolled back",
			slog.String("target", string(target)),
			slog.Int64("id", id),
			slog.Bool("like", like),
			slog.String("error", err.Error()),
		)
		return result, fmt.Errorf("updating %s %d like: %w", target, id, err)
	}

	if !seen && state != nil {
		result.LikeCount = state.LikeCount
	}
	return result, nil
}

func (s *LikeService) call(ctx context.Context, target model.LikeTarget, id int64, like bool) (*backend.LikeState, error) {
	switch {
	case target == model.LikeTopic && like:
		return s.api.LikeTopic(ctx, id)
	case target == model.LikeTopic:
		return s.api.UnlikeTopic(ctx, id)
	case target == model.LikeReply && like:
		return s.api.LikeReply(ctx, id)
	case target == model.LikeReply:
		return s.api.UnlikeReply(ctx, id)
	}
	return nil, apperror.ValidationFailed("target", fmt.Sprintf("unknown like target %q", target))
}

func likeNotice(like bool) string {
	if like {
		return "Не удалось поставить лайк. Попробуйте ещё раз."
	}
	return "Не удалось убрать лайк. Попробуйте ещё раз."
}
