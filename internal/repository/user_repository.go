package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/pipeline-tokens/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// GetByUsername fetches the user identified by (username, scmContext).
func (r *UserRepo) GetByUsername(ctx context.Context, username, scmContext string) (*model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,scm_context FROM users WHERE username=? AND scm_context=? LIMIT 1",
		username, scmContext).Scan(&u.ID, &u.Username, &u.SCMContext)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
