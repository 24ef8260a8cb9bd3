package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"rimshield/internal/core/apperror"
	"rimshield/internal/domain/auth"
)

const adminUsersTable = "admin_users"

var _ auth.Repository = (*AuthRepo)(nil)

// AuthRepo implements auth.Repository.
type AuthRepo struct {
	repoBase
}

// NewAuthRepo creates a new admin user repository.
func NewAuthRepo(tm *TxManager) *AuthRepo {
	return &AuthRepo{repoBase: newRepoBase(tm)}
}

func (r *AuthRepo) GetByEmail(ctx context.Context, email string) (*auth.AdminUser, error) {
	q := r.Builder().
		Select("id", "email", "name", "password_hash", "created_at").
		From(adminUsersTable).
		Where(squirrel.Eq{"email": strings.ToLower(email)})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var user auth.AdminUser
	querier := r.tm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &user, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("admin user", email)
		}
		return nil, apperror.NewDatabase("get admin user", err)
	}
	return &user, nil
}
