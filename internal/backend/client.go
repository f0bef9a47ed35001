// Package backend is the HTTP client for the forum's REST API.
//
// Every method issues exactly one request: no retries, no backoff. The
// caller's context bounds the request, so a cancelled browser request (or a
// navigation away from a page) aborts the backend call instead of letting a
// stale response land later.
//
// Session cookies travel on the context (see WithCookies), mirroring the
// browser's `credentials: 'include'`.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/forumfront/internal/apperror"
)

// maxErrorBody caps how much of an error response we read for its message.
const maxErrorBody = 64 << 10

// Config holds the client settings.
type Config struct {
	// BaseURL is the backend root, e.g. "https://api.example.org".
	BaseURL string
	// Timeout bounds each request on top of the caller's context. Zero means
	// the context alone decides.
	Timeout time.Duration
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// Client talks to the forum backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger
}

// New validates cfg and returns a Client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("backend: base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend: base URL must be http(s), got %q", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{baseURL: u, http: hc, logger: logger}, nil
}

type cookiesKey struct{}

// WithCookies attaches the caller's backend session cookies to ctx.
func WithCookies(ctx context.Context, cookies []*http.Cookie) context.Context {
	return context.WithValue(ctx, cookiesKey{}, cookies)
}

func cookiesFrom(ctx context.Context) []*http.Cookie {
	c, _ := ctx.Value(cookiesKey{}).([]*http.Cookie)
	return c
}

// request describes one backend call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func jsonRequest(method, path string, payload any) (request, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("backend: encoding %s %s body: %w", method, path, err)
	}
	return request{method: method, path: path, body: bytes.NewReader(b), contentType: "application/json"}, nil
}

// do sends req, decodes a 2xx body into out (when out is non-nil and the body
// is non-empty) and returns the cookies the backend set.
func (c *Client) do(ctx context.Context, req request, out any) ([]*http.Cookie, error) {
	u := c.baseURL.JoinPath(req.path)
	// JoinPath drops a trailing slash; some routes need it.
	if strings.HasSuffix(req.path, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), req.body)
	if err != nil {
		return nil, fmt.Errorf("backend: building %s %s: %w", req.method, req.path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	for _, ck := range cookiesFrom(ctx) {
		httpReq.AddCookie(ck)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend: %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.Cookies(), errorFromResponse(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Cookies(), nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: reading %s %s: %w", req.method, req.path, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return resp.Cookies(), nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("backend: decoding %s %s: %w", req.method, req.path, err)
	}
	return resp.Cookies(), nil
}

// errorFromResponse turns a non-2xx response into an *apperror.AppError whose
// message is the server's error text, or a generic fallback.
func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := serverMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}

	e := apperror.Upstream(resp.StatusCode, msg)
	switch resp.StatusCode {
	case http.StatusNotFound:
		e.Err = apperror.ErrNotFound
	case http.StatusUnauthorized:
		e.Err = apperror.ErrUnauthorized
	case http.StatusForbidden:
		e.Err = apperror.ErrForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		e.Err = apperror.ErrValidation
	case http.StatusConflict:
		e.Err = apperror.ErrConflict
	}
	return e
}

// serverMessage extracts a human message from an error body. It understands
// {"detail": "..."}, {"detail": [{"msg": "..."}]}, {"message": "..."} and
// {"error": "..."}; anything else that is short plain text is used as is.
func serverMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if body[0] == '{' && json.Unmarshal(body, &envelope) == nil {
		if len(envelope.Detail) > 0 {
			var s string
			if json.Unmarshal(envelope.Detail, &s) == nil && s != "" {
				return s
			}
			var items []struct {
				Msg string `json:"msg"`
			}
			if json.Unmarshal(envelope.Detail, &items) == nil && len(items) > 0 && items[0].Msg != "" {
				return items[0].Msg
			}
		}
		if envelope.Message != "" {
			return envelope.Message
		}
		return envelope.Error
	}

	if body[0] == '<' || len(body) > 300 {
		return ""
	}
	return string(body)
}

// listEnvelope accepts either a bare JSON array or an object wrapping it
// under "items", "topics" or "data".
type listEnvelope[T any] struct {
	items []T
}

func (l *listEnvelope[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, &l.items)
	}
	var obj struct {
		Items  []T `json:"items"`
		Topics []T `json:"topics"`
		Data   []T `json:"data"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	switch {
	case obj.Items != nil:
		l.items = obj.Items
	case obj.Topics != nil:
		l.items = obj.Topics
	default:
		l.items = obj.Data
	}
	return nil
}

func getList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var env listEnvelope[T]
	if _, err := c.do(ctx, request{method: http.MethodGet, path: path, query: query}, &env); err != nil {
		return nil, err
	}
	if env.items == nil {
		return []T{}, nil
	}
	return env.items, nil
}
