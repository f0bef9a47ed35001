// Package session keeps the server-side state of each browser session: the
// backend's cookies, the signed-in user, and the session's forum view.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/xid"

	"github.com/sakif/forumfront/internal/backend"
	"github.com/sakif/forumfront/internal/forum"
	"github.com/sakif/forumfront/internal/model"
)

const (
	DefaultCapacity = 10000
	DefaultIdle     = 24 * time.Hour
)

// Session is one browser's state. All methods are safe for concurrent use.
type Session struct {
	ID string

	mu      sync.RWMutex
	cookies map[string]*http.Cookie
	user    *model.User
	forum   *forum.Forum
}

func newSession(id string) *Session {
	return &Session{ID: id, cookies: make(map[string]*http.Cookie)}
}

// Cookies returns the backend cookies to send on the next call.
func (s *Session) Cookies() []*http.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*http.Cookie, 0, len(s.cookies))
	for _, c := range s.cookies {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// SetCookies merges cookies the backend set. A cookie with MaxAge < 0 or an
// empty value deletes the stored one.
func (s *Session) SetCookies(cookies []*http.Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cookies {
		if c.MaxAge < 0 || c.Value == "" {
			delete(s.cookies, c.Name)
			continue
		}
		s.cookies[c.Name] = c
	}
}

// ClearCookies forgets every backend cookie.
func (s *Session) ClearCookies() {
	s.mu.Lock()
	s.cookies = make(map[string]*http.Cookie)
	s.mu.Unlock()
}

// Context returns ctx carrying this session's backend cookies.
func (s *Session) Context(ctx context.Context) context.Context {
	return backend.WithCookies(ctx, s.Cookies())
}

// User is the signed-in user, or nil.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) SetUser(u *model.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

// Forum returns the session's forum state, creating it with create on first
// use.
func (s *Session) Forum(create func() *forum.Forum) *forum.Forum {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forum == nil {
		s.forum = create()
	}
	return s.forum
}

// Store holds sessions in memory. Sessions idle longer than the idle timeout
// expire, and the least recently used go first once capacity is reached.
type Store struct {
	lru    *expirable.LRU[string, *Session]
	logger *slog.Logger
}

// NewStore returns a Store; non-positive arguments take the defaults.
func NewStore(capacity int, idle time.Duration, logger *slog.Logger) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Store{
		lru:    expirable.NewLRU[string, *Session](capacity, nil, idle),
		logger: logger,
	}
}

// New creates and stores a fresh session.
func (st *Store) New() *Session {
	s := newSession(xid.New().String())
	st.lru.Add(s.ID, s)
	st.logger.Debug("session created", slog.String("session", s.ID))
	return s
}

// Get looks up a session and refreshes its idle timer.
func (st *Store) Get(id string) (*Session, bool) {
	s, ok := st.lru.Get(id)
	if !ok {
		return nil, false
	}
	st.lru.Add(id, s)
	return s, true
}

// Len is the number of live sessions.
func (st *Store) Len() int {
	return st.lru.Len()
}
