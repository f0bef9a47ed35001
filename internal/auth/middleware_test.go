package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/session"
)

func newTestStack(t *testing.T) (*TokenService, *session.Store, http.Handler, *string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := newTestTokenService(t)
	store := session.NewStore(10, time.Hour, logger)

	seen := new(string)
	h := Sessions(ts, store, false, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := FromContext(r.Context())
		if ok {
			*seen = sess.ID
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	return ts, store, h, seen
}

func TestSessions_IssuesCookieForNewVisitor(t *testing.T) {
	ts, store, h, seen := newTestStack(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusNoContent, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	id, err := ts.Validate(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, *seen, id)
	assert.Equal(t, 1, store.Len())
}

func TestSessions_ReusesExistingSession(t *testing.T) {
	ts, store, h, seen := newTestStack(t)
	sess := store.New()
	token, err := ts.Generate(sess.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, sess.ID, *seen)
	assert.Empty(t, rr.Result().Cookies(), "no new cookie for a known session")
}

func TestSessions_UnknownSessionGetsFreshOne(t *testing.T) {
	ts, store, h, seen := newTestStack(t)
	token, err := ts.Generate("gone-after-restart")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.NotEqual(t, "gone-after-restart", *seen)
	assert.Len(t, rr.Result().Cookies(), 1)
	assert.Equal(t, 1, store.Len())
}

func TestRequireUser(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := session.NewStore(10, time.Hour, logger)
	sess := store.New()

	ok := RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("anonymous is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithSession(req.Context(), sess))
		rr := httptest.NewRecorder()
		ok.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("signed-in user passes", func(t *testing.T) {
		sess.SetUser(&model.User{ID: 7, Username: "mama"})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithSession(req.Context(), sess))
		rr := httptest.NewRecorder()
		ok.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
