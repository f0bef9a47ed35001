package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/sakif/forumfront/internal/model"
)

// LikeState is the backend's answer to like/unlike and like-status calls.
type LikeState struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// TopicQuery pages through /forum/topic/all.
type TopicQuery struct {
	Skip       int
	Limit      int
	CategoryID int64
}

func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	return getList[model.Category](ctx, c, "/forum/categories", nil)
}

func (c *Client) ListTopics(ctx context.Context, q TopicQuery) ([]model.Topic, error) {
	v := url.Values{}
	v.Set("skip", strconv.Itoa(q.Skip))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.CategoryID > 0 {
		v.Set("category_id", strconv.FormatInt(q.CategoryID, 10))
	}
	return getList[model.Topic](ctx, c, "/forum/topic/all", v)
}

// CreateTopic posts the topic as multipart form data; files go under the
// repeated "files" field.
func (c *Client) CreateTopic(ctx context.Context, in model.NewTopic) (*model.Topic, error) {
	req, err := multipartRequest("/forum/topic/", map[string]string{
		"title":       in.Title,
		"content":     in.Content,
		"category_id": strconv.FormatInt(in.CategoryID, 10),
	}, in.Files)
	if err != nil {
		return nil, err
	}
	var t model.Topic
	if _, err := c.do(ctx, req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) GetTopic(ctx context.Context, id int64) (*model.Topic, error) {
	var t model.Topic
	if _, err := c.do(ctx, request{method: http.MethodGet, path: topicPath(id)}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) ListReplies(ctx context.Context, topicID int64) ([]model.Reply, error) {
	return getList[model.Reply](ctx, c, topicPath(topicID)+"/replies", nil)
}

func (c *Client) TopicMedia(ctx context.Context, topicID int64) ([]model.Media, error) {
	return getList[model.Media](ctx, c, topicPath(topicID)+"/media", nil)
}

func (c *Client) IncrementView(ctx context.Context, topicID int64) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: topicPath(topicID) + "/view"}, nil)
	return err
}

func (c *Client) TopicLikeStatus(ctx context.Context, topicID, userID int64) (*LikeState, error) {
	v := url.Values{}
	if userID > 0 {
		v.Set("userId", strconv.FormatInt(userID, 10))
	}
	var s LikeState
	if _, err := c.do(ctx, request{method: http.MethodGet, path: topicPath(topicID) + "/like", query: v}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) LikeTopic(ctx context.Context, topicID int64) (*LikeState, error) {
	return c.like(ctx, http.MethodPost, topicPath(topicID)+"/like")
}

func (c *Client) UnlikeTopic(ctx context.Context, topicID int64) (*LikeState, error) {
	return c.like(ctx, http.MethodDelete, topicPath(topicID)+"/like")
}

func (c *Client) LikeReply(ctx context.Context, replyID int64) (*LikeState, error) {
	return c.like(ctx, http.MethodPost, replyPath(replyID)+"/like")
}

func (c *Client) UnlikeReply(ctx context.Context, replyID int64) (*LikeState, error) {
	return c.like(ctx, http.MethodDelete, replyPath(replyID)+"/like")
}

func (c *Client) like(ctx context.Context, method, path string) (*LikeState, error) {
	var s LikeState
	if _, err := c.do(ctx, request{method: method, path: path}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateReply posts a text-only reply as JSON.
func (c *Client) CreateReply(ctx context.Context, topicID int64, content string) (*model.Reply, error) {
	req, err := jsonRequest(http.MethodPost, topicPath(topicID)+"/reply", map[string]string{"content": content})
	if err != nil {
		return nil, err
	}
	var r model.Reply
	if _, err := c.do(ctx, req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReplyWithMedia posts a reply with attachments as multipart form data.
// The backend echoes the stored media on the returned reply.
func (c *Client) CreateReplyWithMedia(ctx context.Context, topicID int64, content string, files []model.Upload) (*model.Reply, error) {
	req, err := multipartRequest(topicPath(topicID)+"/reply/with-media", map[string]string{"content": content}, files)
	if err != nil {
		return nil, err
	}
	var r model.Reply
	if _, err := c.do(ctx, req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) ReplyMedia(ctx context.Context, replyID int64) ([]model.Media, error) {
	return getList[model.Media](ctx, c, replyPath(replyID)+"/media", nil)
}

func topicPath(id int64) string { return "/forum/topic/" + strconv.FormatInt(id, 10) }
func replyPath(id int64) string { return "/forum/reply/" + strconv.FormatInt(id, 10) }

// multipartRequest encodes fields and files into a multipart body. Field
// order is fixed so requests are reproducible in tests.
func multipartRequest(path string, fields map[string]string, files []model.Upload) (request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, name := range []string{"title", "content", "category_id"} {
		v, ok := fields[name]
		if !ok {
			continue
		}
		if err := w.WriteField(name, v); err != nil {
			return request{}, fmt.Errorf("backend: writing field %s: %w", name, err)
		}
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.FileName))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return request{}, fmt.Errorf("backend: creating file part %s: %w", f.FileName, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return request{}, fmt.Errorf("backend: writing file part %s: %w", f.FileName, err)
		}
	}

	if err := w.Close(); err != nil {
		return request{}, fmt.Errorf("backend: closing multipart body: %w", err)
	}
	return request{
		method:      http.MethodPost,
		path:        path,
		body:        &buf,
		contentType: w.FormDataContentType(),
	}, nil
}
