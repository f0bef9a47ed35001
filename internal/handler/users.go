package handler

import (
	"cmp"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/sakif/forumfront/internal/apperror"
	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/service"
)

// UsersHandler resolves author display data through the users cache.
type UsersHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewUsersHandler(auth *service.AuthService, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{auth: auth, logger: logger}
}

// HandleBatch returns the users with the given ids, fetching only the ones
// not already cached.
//
// HTTP: GET /api/users?ids=1,2,3
func (h *UsersHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ids, err := parseIDs(r.URL.Query().Get("ids"))
	if err != nil {
		writeError(w, err)
		return
	}

	found, err := h.auth.FetchUsersByIDs(sess.Context(r.Context()), ids)
	if err != nil {
		// Partial results are still useful for rendering.
		h.logger.Warn("batch user fetch failed", slog.String("error", err.Error()))
	}

	users := make([]model.User, 0, len(found))
	for _, u := range found {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b model.User) int { return cmp.Compare(a.ID, b.ID) })
	writeJSON(w, http.StatusOK, users)
}

// HandleGet returns one user.
//
// HTTP: GET /api/users/{id}
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if u := h.auth.GetUserByID(r.Context(), sess, id); u != nil {
		writeJSON(w, http.StatusOK, u)
		return
	}
	found, err := h.auth.FetchUsersByIDs(sess.Context(r.Context()), []int64{id})
	if err != nil {
		writeError(w, err)
		return
	}
	u, ok := found[id]
	if !ok {
		writeError(w, apperror.NotFound("user", strconv.FormatInt(id, 10)))
		return
	}
	writeJSON(w, http.StatusOK, u)
}
