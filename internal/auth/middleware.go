package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/forumfront/internal/session"
)

// CookieName is the browser cookie holding the session token.
const CookieName = "token"

// contextKey is unexported so only this package can read or write the
// session stored in a request context.
type contextKey string

const sessionKey contextKey = "session"

// Sessions attaches a session to every request. A valid token resolves to
// its stored session; a missing, invalid or orphaned token gets a fresh
// anonymous session and a new cookie. Anonymous visitors still need forum
// state, so this never rejects a request.
func Sessions(tokens *TokenService, store *session.Store, secure bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := lookup(r, tokens, store)
			if sess == nil {
				sess = store.New()
				tokenStr, err := tokens.Generate(sess.ID)
				if err != nil {
					logger.Error("issuing session token", slog.String("error", err.Error()))
					http.Error(w, `{"error":"internal_error","message":"An internal error occurred"}`, http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    tokenStr,
					Path:     "/",
					MaxAge:   int(tokens.TTL().Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests whose session has no signed-in user.
// It must run after Sessions.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := FromContext(r.Context())
		if !ok || sess.User() == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FromContext returns the request's session.
func FromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*session.Session)
	return s, ok && s != nil
}

// WithSession stores s in ctx. Handlers get sessions from Sessions; this is
// for tests and background callers.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func lookup(r *http.Request, tokens *TokenService, store *session.Store) *session.Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	id, err := tokens.Validate(cookie.Value)
	if err != nil {
		return nil
	}
	sess, ok := store.Get(id)
	if !ok {
		return nil
	}
	return sess
}
