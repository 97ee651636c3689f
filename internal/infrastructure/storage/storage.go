package storage

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"

	"reptisync/internal/app/server/config"
	"reptisync/internal/infrastructure/storage/postgres"
	"reptisync/internal/infrastructure/storage/sqlite"
	"reptisync/internal/infrastructure/storage/sqlstore"
)

// Open выбирает движок по схеме DATABASE_URI.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*sqlstore.Store, error) {
	dialect, err := cfg.DB.Dialect()
	if err != nil {
		return nil, err
	}

	switch dialect {
	case config.DialectPostgres:
		return postgres.New(ctx, cfg, log)
	case config.DialectSQLite:
		return sqlite.New(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}
