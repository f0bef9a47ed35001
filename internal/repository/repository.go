// Package repository defines the storage interfaces the services depend on.
//
// The users cache used to be an ambient dictionary owned by the UI tree.
// Here it is an explicit store so population and eviction can be tested on
// their own and swapped per deployment (memory only, or memory in front of
// sqlite).
package repository

import (
	"context"

	"github.com/sakif/forumfront/internal/model"
)

// UserCache stores user profiles by id.
//
// Get returns an error wrapping apperror.ErrNotFound on a miss. GetMany
// returns only the hits; missing ids are simply absent from the map.
type UserCache interface {
	Get(ctx context.Context, id int64) (*model.User, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]model.User, error)
	PutMany(ctx context.Context, users []model.User) error
}
