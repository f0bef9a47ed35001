package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/forumfront/internal/apperror"
	"github.com/sakif/forumfront/internal/model"
)

// Tiered reads through Front to Back and writes to both. Hits found only in
// Back are copied into Front.
type Tiered struct {
	Front UserCache
	Back  UserCache
}

var _ UserCache = (*Tiered)(nil)

func (t *Tiered) Get(ctx context.Context, id int64) (*model.User, error) {
	u, err := t.Front.Get(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	u, err = t.Back.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.Front.PutMany(ctx, []model.User{*u}); err != nil {
		return nil, fmt.Errorf("repository: promoting user %d: %w", id, err)
	}
	return u, nil
}

func (t *Tiered) GetMany(ctx context.Context, ids []int64) (map[int64]model.User, error) {
	found, err := t.Front.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	var rest []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			rest = append(rest, id)
		}
	}
	if len(rest) == 0 {
		return found, nil
	}

	back, err := t.Back.GetMany(ctx, rest)
	if err != nil {
		return nil, err
	}
	promote := make([]model.User, 0, len(back))
	for id, u := range back {
		found[id] = u
		promote = append(promote, u)
	}
	if len(promote) > 0 {
		if err := t.Front.PutMany(ctx, promote); err != nil {
			return nil, fmt.Errorf("repository: promoting users: %w", err)
		}
	}
	return found, nil
}

func (t *Tiered) PutMany(ctx context.Context, users []model.User) error {
	if err := t.Back.PutMany(ctx, users); err != nil {
		return err
	}
	return t.Front.PutMany(ctx, users)
}
