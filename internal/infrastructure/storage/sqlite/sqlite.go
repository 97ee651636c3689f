package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slog"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"reptisync/internal/app/server/config"
	"reptisync/internal/infrastructure/migration"
	"reptisync/internal/infrastructure/storage/sqlstore"
)

// Время пишется в формате sqlite с зоной, поэтому сравнение строк совпадает с хронологическим для UTC.
const dsnParams = "?_time_format=sqlite&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// New открывает файл базы, применяет миграции и отдает хранилище.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*sqlstore.Store, error) {
	path := cfg.DB.SQLitePath()
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	mg := migration.NewMigration(cfg, migration.DefaultEngine)
	if err := mg.Up(); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	db, err := sql.Open("sqlite", path+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// один писатель на файл
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store, err := sqlstore.New(db, "sqlite3", log.With(slog.String("storage", "sqlite")),
		sqlstore.WithUniqueViolation(isUniqueViolation))
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// isUniqueViolation без расширенных кодов ошибки sqlite отдает общий SQLITE_CONSTRAINT,
// тогда нарушение уникальности отличаем от внешнего ключа по тексту.
func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}
