package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sakif/forumfront/internal/model"
)

func (c *Client) ListReports(ctx context.Context, status model.ReportStatus) ([]model.Report, error) {
	var v url.Values
	if status != "" {
		v = url.Values{"status": {string(status)}}
	}
	return getList[model.Report](ctx, c, "/api/forum/reports", v)
}

func (c *Client) SetReportStatus(ctx context.Context, id int64, status model.ReportStatus) (*model.Report, error) {
	req, err := jsonRequest(http.MethodPut, "/api/forum/reports/"+strconv.FormatInt(id, 10),
		map[string]model.ReportStatus{"status": status})
	if err != nil {
		return nil, err
	}
	var r model.Report
	if _, err := c.do(ctx, req, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) AdminListTopics(ctx context.Context) ([]model.Topic, error) {
	return getList[model.Topic](ctx, c, "/api/forum/topics", nil)
}

func (c *Client) AdminGetTopic(ctx context.Context, id int64) (*model.Topic, error) {
	var t model.Topic
	if _, err := c.do(ctx, request{method: http.MethodGet, path: adminTopicPath(id)}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) AdminDeleteTopic(ctx context.Context, id int64) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, path: adminTopicPath(id)}, nil)
	return err
}

func (c *Client) HighlightTopic(ctx context.Context, id int64, on bool) error {
	req, err := jsonRequest(http.MethodPut, adminTopicPath(id)+"/highlight", map[string]bool{"is_highlighted": on})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, req, nil)
	return err
}

func adminTopicPath(id int64) string { return "/api/forum/topics/" + strconv.FormatInt(id, 10) }
