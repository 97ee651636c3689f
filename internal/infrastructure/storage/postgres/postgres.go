package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/exp/slog"

	"reptisync/internal/app/server/config"
	"reptisync/internal/infrastructure/migration"
	"reptisync/internal/infrastructure/storage/sqlstore"
)

// New поднимает пул pgx, применяет миграции и отдает хранилище поверх database/sql.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*sqlstore.Store, error) {
	pool, err := pgxpool.New(ctx, cfg.DB.DatabaseURI)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	mg := migration.NewMigration(cfg, migration.DefaultEngine)
	if err := mg.Up(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)

	store, err := sqlstore.New(db, "postgres", log.With(slog.String("storage", "postgres")),
		sqlstore.WithPullIsolation(sql.LevelRepeatableRead),
		sqlstore.WithUniqueViolation(isUniqueViolation),
		sqlstore.WithCloser(func() error {
			pool.Close()
			return nil
		}))
	if err != nil {
		db.Close()
		pool.Close()
		return nil, err
	}
	return store, nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
