package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/pipeline-tokens/internal/model"
)

// PermissionRepo resolves a user's capabilities on an SCM resource from the
// scm_permissions table, which the SCM sync job keeps current.  A user with
// no row for a resource holds no capabilities on it.
type PermissionRepo struct {
	db *sql.DB
}

func NewPermissionRepo(db *sql.DB) *PermissionRepo {
	return &PermissionRepo{db: db}
}

// GetPermissions reads the capability row for (user, scmURI).  Every call
// queries the table; nothing is cached.
func (r *PermissionRepo) GetPermissions(ctx context.Context, u *model.User, scmURI string) (model.Permissions, error) {
	const q = "SELECT is_admin, can_push, can_pull FROM scm_permissions WHERE username = ? AND scm_context = ? AND scm_uri = ?"
	var p model.Permissions
	err := r.db.QueryRowContext(ctx, q, u.Username, u.SCMContext, scmURI).Scan(&p.Admin, &p.Push, &p.Pull)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Permissions{}, nil
		}
		return model.Permissions{}, err
	}
	return p, nil
}
