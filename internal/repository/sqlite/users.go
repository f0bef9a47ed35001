package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sakif/forumfront/internal/apperror"
	"github.com/sakif/forumfront/internal/model"
	"github.com/sakif/forumfront/internal/repository"
)

// compile-time check that *DB implements repository.UserCache
var _ repository.UserCache = (*DB)(nil)

// Get returns a fresh cached user or an apperror.ErrNotFound.
func (db *DB) Get(ctx context.Context, id int64) (*model.User, error) {
	var payload string
	err := db.conn.QueryRowContext(ctx,
		`SELECT payload FROM cached_users WHERE id = ? AND fetched_at >= ?`,
		id, db.cutoff(),
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting cached user %d: %w", id, err)
	}

	var u model.User
	if err := json.Unmarshal([]byte(payload), &u); err != nil {
		return nil, fmt.Errorf("sqlite: decoding cached user %d: %w", id, err)
	}
	return &u, nil
}

// GetMany returns the fresh hits among ids.
func (db *DB) GetMany(ctx context.Context, ids []int64) (map[int64]model.User, error) {
	out := make(map[int64]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	// One placeholder per id; the values themselves are still bound
	// parameters, never spliced into the SQL.
	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, db.cutoff())
	query := `SELECT id, payload FROM cached_users WHERE id IN (` +
		strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") +
		`) AND fetched_at >= ?`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying cached users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id      int64
			payload string
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("sqlite: scanning cached user: %w", err)
		}
		var u model.User
		if err := json.Unmarshal([]byte(payload), &u); err != nil {
			return nil, fmt.Errorf("sqlite: decoding cached user %d: %w", id, err)
		}
		out[id] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating cached users: %w", err)
	}
	return out, nil
}

// PutMany upserts users in one transaction, stamping them with the current
// time.
func (db *DB) PutMany(ctx context.Context, users []model.User) error {
	if len(users) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cached_users (id, payload, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("sqlite: preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := db.now().Unix()
	for _, u := range users {
		payload, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("sqlite: encoding user %d: %w", u.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, u.ID, string(payload), now); err != nil {
			return fmt.Errorf("sqlite: upserting user %d: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing users: %w", err)
	}
	return nil
}
