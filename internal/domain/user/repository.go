package user

import (
	"context"
)

type Repository interface {
	// Ensure возвращает пользователя с логином, создавая его при отсутствии.
	Ensure(ctx context.Context, login string) (User, error)
	FindByLogin(ctx context.Context, login string) (User, error)
}
