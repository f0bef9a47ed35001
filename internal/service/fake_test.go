package service_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sakif/forumfront/internal/apperror"
	"github.com/sakif/forumfront/internal/backend"
	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/session"
)

// fakeBackend implements every backend interface the services declare.
// Counters are atomic because topic pages call it from many goroutines.
type fakeBackend struct {
	mu sync.Mutex

	profile    *model.User
	profileErr error
	users      map[int64]model.User

	topic      *model.Topic
	replies    []model.Reply
	topicMedia []model.Media
	replyMedia map[int64][]model.Media
	mediaFail  map[int64]bool
	mediaDelay time.Duration

	viewErr  error
	likeErr  error

	likedBy       map[int64]bool
	likeStatusErr error

	// usersGate, when set, holds UsersByIDs until it is closed or the
	// call's ctx is done.
	usersGate chan struct{}
	reports  []model.Report
	adminErr error

	usersCalls      atomic.Int32
	usersIDs        [][]int64
	mediaCalls      atomic.Int32
	inFlight        atomic.Int32
	maxInFlight     atomic.Int32
	replyCalls      atomic.Int32
	replyMediaCalls atomic.Int32
	likeCalls       atomic.Int32
	deleted         []int64
	statusSet       map[int64]model.ReportStatus
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users:      map[int64]model.User{},
		replyMedia: map[int64][]model.Media{},
		mediaFail:  map[int64]bool{},
		statusSet:  map[int64]model.ReportStatus{},
		likedBy:    map[int64]bool{},
	}
}

func (f *fakeBackend) Profile(ctx context.Context) (*model.User, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	if f.profile == nil {
		return nil, apperror.Unauthorized("Not authenticated")
	}
	u := *f.profile
	return &u, nil
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.User, error) {
	u := *f.profile
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	return &u, nil
}

func (f *fakeBackend) UsersByIDs(ctx context.Context, ids []int64) ([]model.User, error) {
	f.usersCalls.Add(1)
	f.mu.Lock()
	f.usersIDs = append(f.usersIDs, append([]int64(nil), ids...))
	gate := f.usersGate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	out := []model.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeBackend) Login(ctx context.Context, creds model.Credentials) ([]*http.Cookie, error) {
	if creds.Password != "secret1" {
		return nil, apperror.Unauthorized("Incorrect username or password")
	}
	return []*http.Cookie{{Name: "access_token", Value: "tok"}}, nil
}

func (f *fakeBackend) Register(ctx context.Context, creds model.Credentials) ([]*http.Cookie, error) {
	return []*http.Cookie{{Name: "access_token", Value: "new"}}, nil
}

func (f *fakeBackend) Logout(ctx context.Context) error { return nil }

func (f *fakeBackend) IncrementView(ctx context.Context, topicID int64) error { return f.viewErr }

func (f *fakeBackend) TopicLikeStatus(ctx context.Context, topicID, userID int64) (*backend.LikeState, error) {
	if f.likeStatusErr != nil {
		return nil, f.likeStatusErr
	}
	return &backend.LikeState{Liked: f.likedBy[userID]}, nil
}

func (f *fakeBackend) GetTopic(ctx context.Context, id int64) (*model.Topic, error) {
	if f.topic == nil || f.topic.ID != id {
		return nil, apperror.NotFound("topic", "x")
	}
	t := *f.topic
	return &t, nil
}

func (f *fakeBackend) ListReplies(ctx context.Context, topicID int64) ([]model.Reply, error) {
	return append([]model.Reply(nil), f.replies...), nil
}

func (f *fakeBackend) TopicMedia(ctx context.Context, topicID int64) ([]model.Media, error) {
	return f.topicMedia, nil
}

func (f *fakeBackend) ReplyMedia(ctx context.Context, replyID int64) ([]model.Media, error) {
	f.mediaCalls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	if f.mediaDelay > 0 {
		select {
		case <-time.After(f.mediaDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.mediaFail[replyID] {
		return nil, apperror.Upstream(http.StatusInternalServerError, "media service down")
	}
	return f.replyMedia[replyID], nil
}

func (f *fakeBackend) CreateReply(ctx context.Context, topicID int64, content string) (*model.Reply, error) {
	f.replyCalls.Add(1)
	return &model.Reply{ID: 900, TopicID: topicID, Content: content, AuthorID: f.profile.ID}, nil
}

func (f *fakeBackend) CreateReplyWithMedia(ctx context.Context, topicID int64, content string, files []model.Upload) (*model.Reply, error) {
	f.replyMediaCalls.Add(1)
	media := make([]model.Media, len(files))
	for i, file := range files {
		media[i] = model.Media{ID: int64(i + 1), TopicID: topicID, FileName: file.FileName}
	}
	return &model.Reply{ID: 901, TopicID: topicID, Content: content, AuthorID: f.profile.ID, Media: media}, nil
}

func (f *fakeBackend) like(count int) (*backend.LikeState, error) {
	f.likeCalls.Add(1)
	if f.likeErr != nil {
		return nil, f.likeErr
	}
	return &backend.LikeState{Liked: count > 0, LikeCount: count}, nil
}

func (f *fakeBackend) LikeTopic(ctx context.Context, id int64) (*backend.LikeState, error) {
	return f.like(1)
}

func (f *fakeBackend) UnlikeTopic(ctx context.Context, id int64) (*backend.LikeState, error) {
	return f.like(0)
}

func (f *fakeBackend) LikeReply(ctx context.Context, id int64) (*backend.LikeState, error) {
	return f.like(1)
}

func (f *fakeBackend) UnlikeReply(ctx context.Context, id int64) (*backend.LikeState, error) {
	return f.like(0)
}

func (f *fakeBackend) ListReports(ctx context.Context, status model.ReportStatus) ([]model.Report, error) {
	if f.adminErr != nil {
		return nil, f.adminErr
	}
	out := []model.Report{}
	for _, r := range f.reports {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeBackend) SetReportStatus(ctx context.Context, id int64, status model.ReportStatus) (*model.Report, error) {
	if f.adminErr != nil {
		return nil, f.adminErr
	}
	f.statusSet[id] = status
	// Mimic backends that answer 200 with an empty body.
	return &model.Report{}, nil
}

func (f *fakeBackend) AdminListTopics(ctx context.Context) ([]model.Topic, error) {
	return []model.Topic{{ID: 1}}, f.adminErr
}

func (f *fakeBackend) AdminGetTopic(ctx context.Context, id int64) (*model.Topic, error) {
	return &model.Topic{ID: id}, f.adminErr
}

func (f *fakeBackend) AdminDeleteTopic(ctx context.Context, id int64) error {
	if f.adminErr != nil {
		return f.adminErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) HighlightTopic(ctx context.Context, id int64, on bool) error {
	return f.adminErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSession(u *model.User) *session.Session {
	sess := session.NewStore(10, time.Hour, testLogger()).New()
	sess.SetUser(u)
	return sess
}

func user(id int64, name string, roles ...model.Role) model.User {
	return model.User{ID: id, Username: name, Roles: model.NewRoleSet(roles...)}
}
