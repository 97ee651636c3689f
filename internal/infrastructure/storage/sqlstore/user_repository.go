package sqlstore

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"reptisync/internal/domain/user"
)

type UserRepository struct {
	store *Store
}

func (r *UserRepository) Ensure(ctx context.Context, login string) (user.User, error) {
	_, err := r.store.db.Insert("users").
		Prepared(true).
		Rows(goqu.Record{
			"login":      login,
			"created_at": r.store.now(),
		}).
		OnConflict(goqu.DoNothing()).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}
	return r.FindByLogin(ctx, login)
}

func (r *UserRepository) FindByLogin(ctx context.Context, login string) (user.User, error) {
	var u user.User
	found, err := r.store.db.From("users").
		Prepared(true).
		Where(goqu.C("login").Eq(login)).
		ScanStructContext(ctx, &u)
	if err != nil {
		return user.User{}, fmt.Errorf("select user: %w", err)
	}
	if !found {
		return user.User{}, user.ErrNotFound
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

var _ user.Repository = (*UserRepository)(nil)
