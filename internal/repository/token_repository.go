package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/pipeline-tokens/internal/model"
	"github.com/iliyamo/pipeline-tokens/internal/utils"
)

// TokenRepo reads pipeline tokens and rotates their secret.  The secret is
// stored only as a keyed hash (single 'hash' column).
type TokenRepo struct {
	DB      *sql.DB
	hashKey []byte
}

func NewTokenRepo(db *sql.DB, hashKey []byte) *TokenRepo {
	return &TokenRepo{DB: db, hashKey: hashKey}
}

// GetByID fetches a token by id.  Value is never populated here.
func (r *TokenRepo) GetByID(ctx context.Context, id uint64) (*model.Token, error) {
	var (
		t        model.Token
		lastUsed sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, pipeline_id, name, description, hash, last_used FROM tokens WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.PipelineID, &t.Name, &t.Description, &t.Hash, &lastUsed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if lastUsed.Valid {
		ts := lastUsed.Time
		t.LastUsed = &ts
	}
	return &t, nil
}

// Refresh generates a new secret for t and persists its hash.  The UPDATE is
// conditional on the hash t was loaded with, so of two concurrent refreshes
// of the same token only one is stored; the other gets ErrTokenRotated and
// its secret is never handed out.  Only the hash column changes; the returned
// copy carries the plain Value and all of t's other fields unchanged.
func (r *TokenRepo) Refresh(ctx context.Context, t *model.Token) (*model.Token, error) {
	value, err := utils.NewTokenValue()
	if err != nil {
		return nil, fmt.Errorf("generate token value: %w", err)
	}
	hash := utils.HashTokenValue(r.hashKey, value)

	res, err := r.DB.ExecContext(ctx, "UPDATE tokens SET hash=? WHERE id=? AND hash=?", hash, t.ID, t.Hash)
	if err != nil {
		return nil, fmt.Errorf("update token hash: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update token hash: %w", err)
	}
	if n == 0 {
		return nil, r.missedUpdate(ctx, t.ID)
	}

	refreshed := *t
	refreshed.Hash = hash
	refreshed.Value = value
	return &refreshed, nil
}

// missedUpdate explains an UPDATE that matched no row: the token is gone, or
// its hash changed since it was read.
func (r *TokenRepo) missedUpdate(ctx context.Context, id uint64) error {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM tokens WHERE id=? LIMIT 1", id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrTokenNotFound
	case err != nil:
		return fmt.Errorf("check token: %w", err)
	default:
		return ErrTokenRotated
	}
}
