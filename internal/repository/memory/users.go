// Package memory is the in-process users cache.
//
// Entries are bounded both by count (least recently used goes first) and by
// age, so a long-lived process neither grows without limit nor serves a
// profile that changed hours ago.
package memory

import (
	"context"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/sakif/forumfront/internal/apperror"
	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/repository"
)

const (
	DefaultSize = 5000
	DefaultTTL  = 10 * time.Minute
)

// UserCache is safe for concurrent use.
type UserCache struct {
	lru *expirable.LRU[int64, model.User]
}

var _ repository.UserCache = (*UserCache)(nil)

// NewUserCache returns a cache holding at most size users for ttl each.
// Non-positive values fall back to the defaults.
func NewUserCache(size int, ttl time.Duration) *UserCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &UserCache{lru: expirable.NewLRU[int64, model.User](size, nil, ttl)}
}

func (c *UserCache) Get(_ context.Context, id int64) (*model.User, error) {
	u, ok := c.lru.Get(id)
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	return &u, nil
}

func (c *UserCache) GetMany(_ context.Context, ids []int64) (map[int64]model.User, error) {
	out := make(map[int64]model.User, len(ids))
	for _, id := range ids {
		if u, ok := c.lru.Get(id); ok {
			out[id] = u
		}
	}
	return out, nil
}

func (c *UserCache) PutMany(_ context.Context, users []model.User) error {
	for _, u := range users {
		c.lru.Add(u.ID, u)
	}
	return nil
}

// Len reports the number of live entries.
func (c *UserCache) Len() int {
	return c.lru.Len()
}
