package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	// диалекты регистрируются при импорте, без них goqu.New собирает SQL по умолчанию
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"golang.org/x/exp/slog"

	"reptisync/internal/domain/entity"
)

// Store хранилище записей, сессий и пользователей поверх database/sql.
// Один и тот же код обслуживает postgres и sqlite, различается только диалект goqu.
type Store struct {
	raw      *sql.DB
	db       *goqu.Database
	log      *slog.Logger
	clock    func() time.Time
	catalog  *entity.Catalog
	repos    map[entity.Table]*repository
	registry *entity.Registry
	onClose  func() error
	pullTx   sql.TxOptions
	dup      func(error) bool
}

type Option func(*Store)

// WithClock подменяет серверные часы.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithCloser вызывается после закрытия *sql.DB, например чтобы закрыть пул pgx.
func WithCloser(fn func() error) Option {
	return func(s *Store) {
		s.onClose = fn
	}
}

// WithPullIsolation уровень изоляции транзакции, в которой pull читает все таблицы.
func WithPullIsolation(level sql.IsolationLevel) Option {
	return func(s *Store) {
		s.pullTx = sql.TxOptions{Isolation: level, ReadOnly: true}
	}
}

// WithUniqueViolation распознает ошибку драйвера о нарушении уникальности ключа.
func WithUniqueViolation(fn func(error) bool) Option {
	return func(s *Store) {
		s.dup = fn
	}
}

// New dialect это имя диалекта goqu: "postgres" или "sqlite3".
func New(raw *sql.DB, dialect string, log *slog.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		raw:     raw,
		db:      goqu.New(dialect, raw),
		log:     log,
		clock:   time.Now,
		catalog: entity.NewCatalog(),
		repos:   make(map[entity.Table]*repository, len(entity.Tables())),
	}
	for _, opt := range opts {
		opt(s)
	}

	repos := make(map[entity.Table]entity.Repository, len(entity.Tables()))
	for _, t := range entity.Tables() {
		schema, err := s.catalog.Schema(t)
		if err != nil {
			return nil, err
		}
		r := &repository{store: s, table: t, schema: schema}
		s.repos[t] = r
		repos[t] = r
	}

	registry, err := entity.NewRegistry(repos)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	s.registry = registry

	return s, nil
}

// Registry хранилища всех синхронизируемых таблиц.
func (s *Store) Registry() *entity.Registry {
	return s.registry
}

func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{store: s}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.raw.PingContext(ctx)
}

func (s *Store) Close() error {
	err := s.raw.Close()
	if s.onClose != nil {
		if cerr := s.onClose(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (s *Store) duplicate(err error) bool {
	return s.dup != nil && s.dup(err)
}

func (s *Store) now() time.Time {
	return entity.Now(s.clock)
}
