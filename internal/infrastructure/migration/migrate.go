package migration

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"reptisync/internal/app/server/config"
)

// Migrator часть *migrate.Migrate, которой пользуется пакет
type Migrator interface {
	Up() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Close() (source error, database error)
}

// Engine открывает мигратор по каталогу миграций и адресу базы
type Engine func(sourceURL, databaseURL string) (Migrator, error)

type Migration struct {
	cfg    *config.Config
	engine Engine
}

func NewMigration(cfg *config.Config, engine Engine) *Migration {
	if engine == nil {
		engine = DefaultEngine
	}
	return &Migration{cfg: cfg, engine: engine}
}

func DefaultEngine(sourceURL, databaseURL string) (Migrator, error) {
	return migrate.New(sourceURL, databaseURL)
}

// SourceURL каталог миграций выбранного диалекта: <MIGRATIONS_PATH>/<dialect>
func (mg *Migration) SourceURL() (string, error) {
	dialect, err := mg.cfg.DB.Dialect()
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(filepath.Join(mg.cfg.DB.Migrations, dialect)), nil
}

// Up применяет все новые миграции. Актуальная схема не считается ошибкой.
func (mg *Migration) Up() error {
	return mg.run(func(m Migrator) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration up: %w", err)
		}
		return nil
	})
}

// Rollback откатывает steps последних миграций
func (mg *Migration) Rollback(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	return mg.run(func(m Migrator) error {
		if err := m.Steps(-steps); err != nil {
			return fmt.Errorf("migration rollback %d: %w", steps, err)
		}
		return nil
	})
}

// Version текущая версия схемы. Для пустой базы 0.
func (mg *Migration) Version() (version uint, dirty bool, err error) {
	err = mg.run(func(m Migrator) error {
		var verr error
		version, dirty, verr = m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			return nil
		}
		return verr
	})
	return version, dirty, err
}

func (mg *Migration) run(fn func(Migrator) error) error {
	source, err := mg.SourceURL()
	if err != nil {
		return err
	}

	m, err := mg.engine(source, mg.cfg.DB.DatabaseURI)
	if err != nil {
		return err
	}

	err = fn(m)
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		srcErr = fmt.Errorf("close migration source: %w", srcErr)
	}
	if dbErr != nil {
		dbErr = fmt.Errorf("close migration database: %w", dbErr)
	}
	return errors.Join(err, srcErr, dbErr)
}
