package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/forumfront/internal/forum"
	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/service"
	"github.com/sakif/forumfront/internal/session"
)

// AdminHandler serves the forum moderation screens.
type AdminHandler struct {
	moderation *service.ModerationService
	source     forum.Source
	logger     *slog.Logger
}

func NewAdminHandler(moderation *service.ModerationService, source forum.Source, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{moderation: moderation, source: source, logger: logger}
}

// HandlePermissions returns the capability flags for the signed-in user.
// Anonymous visitors get all false.
//
// HTTP: GET /api/admin/permissions
func (h *AdminHandler) HandlePermissions(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service.DerivePermissions(sess.User()))
}

// HandleListReports lists reports, optionally filtered by ?status=.
//
// HTTP: GET /api/admin/reports?status=pending|approved|rejected
func (h *AdminHandler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	status := model.ReportStatus(r.URL.Query().Get("status"))
	reports, err := h.moderation.ListReports(r.Context(), sess, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// HTTP: PUT /api/admin/reports/{id}/approve
func (h *AdminHandler) HandleApproveReport(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.moderation.ApproveReport)
}

// HTTP: PUT /api/admin/reports/{id}/reject
func (h *AdminHandler) HandleRejectReport(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.moderation.RejectReport)
}

func (h *AdminHandler) moderate(w http.ResponseWriter, r *http.Request, set func(ctx context.Context, sess *session.Session, id int64) (*model.Report, error)) {
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
	report, err := set(r.Context(), sess, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HTTP: GET /api/admin/topics
func (h *AdminHandler) HandleListTopics(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	topics, err := h.moderation.ListTopics(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topics)
}

// HTTP: GET /api/admin/topics/{id}
func (h *AdminHandler) HandleGetTopic(w http.ResponseWriter, r *http.Request) {
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
	t, err := h.moderation.GetTopic(r.Context(), sess, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// HandleDeleteTopic deletes a topic and drops it from the moderator's own
// forum list.
//
// HTTP: DELETE /api/admin/topics/{id}
func (h *AdminHandler) HandleDeleteTopic(w http.ResponseWriter, r *http.Request) {
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
	f := sess.Forum(func() *forum.Forum { return forum.New(h.source, h.logger) })
	if err := h.moderation.DeleteTopic(r.Context(), sess, id, f); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleHighlight sets or clears a topic's highlight.
//
// HTTP: PUT /api/admin/topics/{id}/highlight  {"is_highlighted": true}
func (h *AdminHandler) HandleHighlight(w http.ResponseWriter, r *http.Request) {
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
	var body struct {
		IsHighlighted bool `json:"is_highlighted"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.moderation.HighlightTopic(r.Context(), sess, id, body.IsHighlighted); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "is_highlighted": body.IsHighlighted})
}
