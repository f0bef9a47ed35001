package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sakif/forumfront/internal/model"
)

// Profile returns the user owning the session cookies on ctx.
func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var u model.User
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/users/profile"}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.User, error) {
	req, err := jsonRequest(http.MethodPatch, "/users/profile", upd)
	if err != nil {
		return nil, err
	}
	var u model.User
	if _, err := c.do(ctx, req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UsersByIDs fetches several profiles in one request.
func (c *Client) UsersByIDs(ctx context.Context, ids []int64) ([]model.User, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	v := url.Values{}
	v.Set("ids", strings.Join(parts, ","))
	return getList[model.User](ctx, c, "/users", v)
}

// Login returns the session cookies the backend issued.
func (c *Client) Login(ctx context.Context, creds model.Credentials) ([]*http.Cookie, error) {
	req, err := jsonRequest(http.MethodPost, "/login", creds)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req, nil)
}

func (c *Client) Register(ctx context.Context, creds model.Credentials) ([]*http.Cookie, error) {
	req, err := jsonRequest(http.MethodPost, "/register", creds)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/logout"}, nil)
	return err
}
