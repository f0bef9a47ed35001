package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/forumfront/internal/apperror"
	"github.com/sakif/forumfront/internal/forum"
	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/service"
	"github.com/sakif/forumfront/internal/session"
)

// ForumHandler serves the forum pages' data.
type ForumHandler struct {
	source  forum.Source
	details *service.TopicDetailService
	likes   *service.LikeService
	logger  *slog.Logger
}

func NewForumHandler(source forum.Source, details *service.TopicDetailService, likes *service.LikeService, logger *slog.Logger) *ForumHandler {
	return &ForumHandler{source: source, details: details, likes: likes, logger: logger}
}

// forumFor returns the session's forum state, creating it on first use.
func (h *ForumHandler) forumFor(sess *session.Session) *forum.Forum {
	return sess.Forum(func() *forum.Forum { return forum.New(h.source, h.logger) })
}

type resourceState struct {
	Loading bool   `json:"loading"`
	Loaded  bool   `json:"loaded"`
	Error   string `json:"error,omitempty"`
}

func stateOf(r forum.Resource) resourceState {
	return resourceState{Loading: r.Loading, Loaded: r.Loaded, Error: r.Error()}
}

type topicsResponse struct {
	Topics          []forum.TopicView `json:"topics"`
	Categories      []categoryView    `json:"categories"`
	TopicsState     resourceState     `json:"topics_state"`
	CategoriesState resourceState     `json:"categories_state"`
	Category        string            `json:"category"`
	Search          string            `json:"search"`
	Sort            forum.SortBy      `json:"sort"`
}

type categoryView struct {
	model.Category
	ColorClass string `json:"color_class"`
}

func (h *ForumHandler) writeTopics(w http.ResponseWriter, r *http.Request, f *forum.Forum) {
	q := r.URL.Query()
	flt := forum.Filter{
		Category: q.Get("category"),
		Search:   q.Get("q"),
		Sort:     forum.ParseSort(q.Get("sort")),
	}
	if flt.Category == "" {
		flt.Category = forum.AllCategories
	}

	snap := f.Snapshot()
	cats := make([]categoryView, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		cats = append(cats, categoryView{Category: c, ColorClass: f.CategoryColor(c.Name)})
	}

	writeJSON(w, http.StatusOK, topicsResponse{
		Topics:          f.Processed(flt),
		Categories:      cats,
		TopicsState:     stateOf(snap.TopicsState),
		CategoriesState: stateOf(snap.CategoriesState),
		Category:        flt.Category,
		Search:          flt.Search,
		Sort:            flt.Sort,
	})
}

// HandleListTopics returns the filtered, sorted topic list. The lists are
// fetched from the backend on the session's first visit. Load failures are
// reported per list in the body, not as an HTTP error, so a failed category
// fetch still shows topics.
//
// HTTP: GET /api/forum/topics?category=&q=&sort=newest|popular|active
func (h *ForumHandler) HandleListTopics(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f := h.forumFor(sess)
	f.EnsureLoaded(sess.Context(r.Context()))
	h.writeTopics(w, r, f)
}

// HandleReload refetches both lists ("try again").
//
// HTTP: POST /api/forum/reload
func (h *ForumHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f := h.forumFor(sess)
	_ = f.Load(sess.Context(r.Context()))
	h.writeTopics(w, r, f)
}

// HandleCategories returns the categories with their colour classes.
//
// HTTP: GET /api/forum/categories
func (h *ForumHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f := h.forumFor(sess)
	f.EnsureLoaded(sess.Context(r.Context()))

	snap := f.Snapshot()
	if snap.CategoriesState.Err != nil {
		writeError(w, snap.CategoriesState.Err)
		return
	}
	cats := make([]categoryView, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		cats = append(cats, categoryView{Category: c, ColorClass: f.CategoryColor(c.Name)})
	}
	writeJSON(w, http.StatusOK, cats)
}

// HandleCreateTopic creates a topic from a multipart form (with optional
// "files") or a JSON body.
//
// HTTP: POST /api/forum/topics
func (h *ForumHandler) HandleCreateTopic(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if sess.User() == nil {
		writeError(w, apperror.Unauthorized("sign in to create topics"))
		return
	}

	var in model.NewTopic
	if isMultipart(r) {
		if err := parseMultipart(w, r); err != nil {
			writeError(w, err)
			return
		}
		in.Title = r.FormValue("title")
		in.Content = r.FormValue("content")
		if raw := r.FormValue("category_id"); raw != "" {
			in.CategoryID, err = strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeError(w, apperror.ValidationFailed("category_id", "category_id must be an integer"))
				return
			}
		}
		if in.Files, err = readUploads(r); err != nil {
			writeError(w, err)
			return
		}
	} else if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	t, err := h.forumFor(sess).CreateTopic(sess.Context(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// HandleTopic returns the full topic page.
//
// HTTP: GET /api/forum/topics/{id}
func (h *ForumHandler) HandleTopic(w http.ResponseWriter, r *http.Request) {
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

	d, err := h.details.Load(r.Context(), sess, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleReply posts a reply, multipart when files are attached.
//
// HTTP: POST /api/forum/topics/{id}/replies
func (h *ForumHandler) HandleReply(w http.ResponseWriter, r *http.Request) {
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

	var (
		content string
		files   []model.Upload
	)
	if isMultipart(r) {
		if err := parseMultipart(w, r); err != nil {
			writeError(w, err)
			return
		}
		content = r.FormValue("content")
		if files, err = readUploads(r); err != nil {
			writeError(w, err)
			return
		}
	} else {
		var body struct {
			Content string `json:"content"`
		}
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, err)
			return
		}
		content = body.Content
	}

	reply, err := h.details.SubmitReply(r.Context(), sess, id, content, files)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

// likeErrorResponse carries the rolled-back count next to the error so the
// page can restore its counter and show the notice.
type likeErrorResponse struct {
	ErrorResponse
	Result service.LikeResult `json:"result"`
}

func (h *ForumHandler) handleLike(target model.LikeTarget, like bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		res, err := h.likes.Toggle(r.Context(), sess, target, id, like, h.forumFor(sess))
		if err != nil {
			if !res.RolledBack {
				writeError(w, err)
				return
			}
			status, kind := errorStatus(err)
			writeJSON(w, status, likeErrorResponse{
				ErrorResponse: ErrorResponse{Error: kind, Message: res.Notice},
				Result:        res,
			})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// HTTP: POST /api/forum/topics/{id}/like
func (h *ForumHandler) HandleLikeTopic(w http.ResponseWriter, r *http.Request) {
	h.handleLike(model.LikeTopic, true)(w, r)
}

// HTTP: DELETE /api/forum/topics/{id}/like
func (h *ForumHandler) HandleUnlikeTopic(w http.ResponseWriter, r *http.Request) {
	h.handleLike(model.LikeTopic, false)(w, r)
}

// HTTP: POST /api/forum/replies/{id}/like
func (h *ForumHandler) HandleLikeReply(w http.ResponseWriter, r *http.Request) {
	h.handleLike(model.LikeReply, true)(w, r)
}

// HTTP: DELETE /api/forum/replies/{id}/like
func (h *ForumHandler) HandleUnlikeReply(w http.ResponseWriter, r *http.Request) {
	h.handleLike(model.LikeReply, false)(w, r)
}
