// Package service contains the orchestration between the HTTP handlers, the
// forum backend, and local state (sessions and the users cache).
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates, enforces rules, orchestrates backend calls
//	backend.Client  → one HTTP request per call
//	repository      → the users cache
//
// Services depend on small interfaces rather than *backend.Client so tests
// can swap in fakes, and they never see *http.Request.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/sakif/forumfront/internal/apperror"
	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/repository"
	"github.com/sakif/forumfront/internal/session"
)

// UserAPI is the slice of the backend the auth service calls.
type UserAPI interface {
	Profile(ctx context.Context) (*model.User, error)
	UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.User, error)
	UsersByIDs(ctx context.Context, ids []int64) ([]model.User, error)
	Login(ctx context.Context, creds model.Credentials) ([]*http.Cookie, error)
	Register(ctx context.Context, creds model.Credentials) ([]*http.Cookie, error)
	Logout(ctx context.Context) error
}

// AuthService manages session identity and the shared users cache. The
// cache only ever holds User.Public projections; a signed-in user's full
// profile lives in their session alone.
type AuthService struct {
	api    UserAPI
	cache  repository.UserCache
	logger *slog.Logger

	// fill coalesces concurrent cache fills for the same missing ids.
	fill singleflight.Group
}

// NewAuthService wires the service. The cache is shared by all sessions.
func NewAuthService(api UserAPI, cache repository.UserCache, logger *slog.Logger) *AuthService {
	return &AuthService{api: api, cache: cache, logger: logger}
}

// FetchUserData loads the profile for the session's backend cookies. Any
// failure, whether "not signed in" or a network error, leaves the session
// anonymous.
func (s *AuthService) FetchUserData(ctx context.Context, sess *session.Session) (*model.User, error) {
	u, err := s.api.Profile(sess.Context(ctx))
	if err != nil {
		sess.SetUser(nil)
		return nil, fmt.Errorf("fetching profile: %w", err)
	}

	sess.SetUser(u)
	return u, nil
}

// FetchUsersByIDs makes sure the given users are cached and returns those it
// could resolve. Ids already cached cost nothing; if every id is cached (or
// ids is empty) no request is made. The rest are fetched in one batch.
func (s *AuthService) FetchUsersByIDs(ctx context.Context, ids []int64) (map[int64]model.User, error) {
	ids = normalizeIDs(ids)
	if len(ids) == 0 {
		return map[int64]model.User{}, nil
	}

	found, err := s.cache.GetMany(ctx, ids)
	if err != nil {
		s.logger.Warn("users cache read failed", slog.String("error", err.Error()))
		found = map[int64]model.User{}
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return found, nil
	}

	// The shared fetch outlives any one caller: each caller waits on its
	// own ctx, and a cancelled caller must not fail the others.
	fillCtx := context.WithoutCancel(ctx)
	ch := s.fill.DoChan(idsKey(missing), func() (any, error) {
		users, err := s.api.UsersByIDs(fillCtx, missing)
		if err != nil {
			return nil, err
		}
		public := make([]model.User, len(users))
		for i, u := range users {
			public[i] = u.Public()
		}
		if err := s.cache.PutMany(fillCtx, public); err != nil {
			s.logger.Warn("users cache write failed", slog.String("error", err.Error()))
		}
		return public, nil
	})

	var v any
	select {
	case <-ctx.Done():
		return found, fmt.Errorf("fetching users %v: %w", missing, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return found, fmt.Errorf("fetching users %v: %w", missing, res.Err)
		}
		v = res.Val
	}

	for _, u := range v.([]model.User) {
		found[u.ID] = u
	}
	return found, nil
}

// GetUserByID resolves id from the session user or the cache without any
// backend request. It returns nil when neither knows the id.
func (s *AuthService) GetUserByID(ctx context.Context, sess *session.Session, id int64) *model.User {
	if u := sess.User(); u != nil && u.ID == id {
		return u
	}
	u, err := s.cache.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("users cache lookup failed",
				slog.Int64("userID", id),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return u
}

// Login forwards creds to the backend, keeps the cookies it issues, and
// loads the profile.
func (s *AuthService) Login(ctx context.Context, sess *session.Session, creds model.Credentials) (*model.User, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if creds.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	cookies, err := s.api.Login(sess.Context(ctx), creds)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	sess.SetCookies(cookies)

	u, err := s.FetchUserData(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", slog.Int64("userID", u.ID), slog.String("session", sess.ID))
	return u, nil
}

// Register creates the account and, like Login, loads the new profile.
func (s *AuthService) Register(ctx context.Context, sess *session.Session, creds model.Credentials) (*model.User, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	creds.Email = strings.TrimSpace(creds.Email)
	switch {
	case creds.Username == "":
		return nil, apperror.ValidationFailed("username", "username is required")
	case !strings.Contains(creds.Email, "@"):
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	case len(creds.Password) < MinPasswordLength:
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	cookies, err := s.api.Register(sess.Context(ctx), creds)
	if err != nil {
		return nil, fmt.Errorf("registering: %w", err)
	}
	sess.SetCookies(cookies)

	u, err := s.FetchUserData(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", slog.Int64("userID", u.ID))
	return u, nil
}

// MinPasswordLength is checked before a registration reaches the backend.
const MinPasswordLength = 6

// Logout signs the session out. Local state is cleared even when the
// backend call fails; the error is returned for logging only.
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) error {
	err := s.api.Logout(sess.Context(ctx))
	sess.SetUser(nil)
	sess.ClearCookies()
	if err != nil {
		s.logger.Warn("backend logout failed", slog.String("session", sess.ID), slog.String("error", err.Error()))
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// UpdateUserProfile patches the signed-in user's profile.
func (s *AuthService) UpdateUserProfile(ctx context.Context, sess *session.Session, upd model.ProfileUpdate) (*model.User, error) {
	if sess.User() == nil {
		return nil, apperror.Unauthorized("sign in to edit your profile")
	}
	if upd.Email != nil && !strings.Contains(*upd.Email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	}

	u, err := s.api.UpdateProfile(sess.Context(ctx), upd)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	sess.SetUser(u)
	return u, nil
}

// normalizeIDs drops non-positive ids and duplicates and sorts the rest.
func normalizeIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func idsKey(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
