package sync

import (
	"context"
	"time"

	"golang.org/x/exp/slog"

	"reptisync/internal/domain/entity"
)

const DefaultMaxBatchSize = 500

// Servicer интерфейс сервиса синхронизации
type Servicer interface {
	// Pull возвращает изменения пользователя после since
	Pull(ctx context.Context, userID int, since time.Time) (*entity.Changes, error)

	// Push применяет одну операцию к таблице
	Push(ctx context.Context, userID int, table entity.Table, op Operation) (Result, error)

	// PushBatch применяет пакет операций по порядку
	PushBatch(ctx context.Context, userID int, items []BatchItem) (*BatchOutcome, error)
}

// Config настройки сервиса синхронизации
type Config struct {
	MaxBatchSize int
}

// Service реализация сервиса синхронизации
type Service struct {
	processor *Processor
	batch     *Coordinator
	puller    *Puller
	log       *slog.Logger
	config    *Config
}

// NewService собирает сервис из хранилищ таблиц и ленты изменений
func NewService(registry *entity.Registry, feed entity.ChangeFeed, log *slog.Logger, config *Config) *Service {
	if config == nil {
		config = &Config{MaxBatchSize: DefaultMaxBatchSize}
	}

	processor := NewProcessor(registry, entity.NewCatalog(), NewResolver(), log)

	return &Service{
		processor: processor,
		batch:     NewCoordinator(processor, config.MaxBatchSize, log),
		puller:    NewPuller(feed, log),
		log:       log,
		config:    config,
	}
}

func (s *Service) Pull(ctx context.Context, userID int, since time.Time) (*entity.Changes, error) {
	return s.puller.Pull(ctx, userID, since)
}

func (s *Service) Push(ctx context.Context, userID int, table entity.Table, op Operation) (Result, error) {
	return s.processor.Process(ctx, userID, table, op)
}

func (s *Service) PushBatch(ctx context.Context, userID int, items []BatchItem) (*BatchOutcome, error) {
	return s.batch.Run(ctx, userID, items)
}
