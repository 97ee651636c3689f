package client

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"reptisync/internal/domain/entity"
	"reptisync/internal/domain/sync"
)

var ErrSyncInProgress = errors.New("синхронизация уже выполняется")

// Remote сервер синхронизации
type Remote interface {
	HealthCheck(ctx context.Context) error
	Pull(ctx context.Context, since int64) (*PullData, error)
	PushBatch(ctx context.Context, items []BatchItem) (*sync.BatchDTO, error)
}

// Storage локальное хранилище записей и очереди изменений
type Storage interface {
	SaveLocalChange(ctx context.Context, rec *LocalRecord, op PendingOp) error
	GetRecord(ctx context.Context, table entity.Table, id string) (*LocalRecord, error)
	ListRecords(ctx context.Context, table entity.Table, showDeleted bool) ([]*LocalRecord, error)
	PendingOps(ctx context.Context) ([]PendingOp, error)
	CompleteOp(ctx context.Context, seq int64) error
	FailOp(ctx context.Context, seq int64, msg string) error
	ApplyServerRecord(ctx context.Context, table entity.Table, data map[string]any, force bool) (bool, error)
	Checkpoint(ctx context.Context) (time.Time, error)
	SetCheckpoint(ctx context.Context, t time.Time) error
	Status(ctx context.Context) (*SyncStatus, error)
	Close() error
}

// SyncService отправляет очередь изменений пакетами и забирает изменения с сервера
type SyncService struct {
	storage   Storage
	remote    Remote
	log       *slog.Logger
	batchSize int
	mu        gosync.Mutex
	isSyncing bool
}

func NewSyncService(storage Storage, remote Remote, batchSize int, log *slog.Logger) *SyncService {
	return &SyncService{
		storage:   storage,
		remote:    remote,
		log:       log.With(slog.String("component", "sync")),
		batchSize: batchSize,
	}
}

// Sync сначала отправляет локальные изменения, затем забирает серверные
func (s *SyncService) Sync(ctx context.Context) (*SyncResult, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	start := time.Now()
	result := &SyncResult{}

	push, err := s.push(ctx)
	if err != nil {
		return nil, fmt.Errorf("отправка изменений: %w", err)
	}
	result.Push = *push

	pull, err := s.pull(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение изменений: %w", err)
	}
	result.Pull = *pull
	result.Duration = time.Since(start)

	s.log.Info("Синхронизация завершена",
		"sent", push.Sent, "conflicts", push.Conflicts, "failed", push.Failed,
		"received", pull.Received, "duration", result.Duration)
	return result, nil
}

func (s *SyncService) Push(ctx context.Context) (*PushReport, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()
	return s.push(ctx)
}

func (s *SyncService) Pull(ctx context.Context) (*PullReport, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()
	return s.pull(ctx)
}

func (s *SyncService) Status(ctx context.Context) (*SyncStatus, error) {
	return s.storage.Status(ctx)
}

func (s *SyncService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isSyncing {
		return ErrSyncInProgress
	}
	s.isSyncing = true
	return nil
}

func (s *SyncService) end() {
	s.mu.Lock()
	s.isSyncing = false
	s.mu.Unlock()
}

func (s *SyncService) push(ctx context.Context) (*PushReport, error) {
	ops, err := s.storage.PendingOps(ctx)
	if err != nil {
		return nil, err
	}

	report := &PushReport{}
	for start := 0; start < len(ops); start += s.batchSize {
		end := min(start+s.batchSize, len(ops))
		chunk := ops[start:end]

		items := make([]BatchItem, len(chunk))
		for i, op := range chunk {
			items[i] = BatchItem{
				Table: op.Table,
				Operation: OperationRequest{
					Operation:       op.Operation,
					RecordID:        op.RecordID,
					Payload:         op.Payload,
					ClientTimestamp: op.ClientTimestamp,
				},
			}
		}

		out, err := s.remote.PushBatch(ctx, items)
		if err != nil {
			return report, err
		}

		// без соответствия один к одному нельзя понять, какой операции какой ответ
		if n := len(out.Results); n != len(chunk) {
			return report, fmt.Errorf("сервер вернул %d результатов на %d операций", n, len(chunk))
		}
		for i, res := range out.Results {
			if err := s.settle(ctx, chunk[i], res, report); err != nil {
				return report, err
			}
		}
		report.Sent += len(chunk)
	}

	return report, nil
}

// settle разбирает результат одной операции: принятые и конфликтные снимаются с очереди,
// ошибки остаются в очереди с текстом ошибки
func (s *SyncService) settle(ctx context.Context, op PendingOp, res sync.ResultDTO, report *PushReport) error {
	switch {
	case res.Success:
		report.Applied++
		if err := s.storage.CompleteOp(ctx, op.Seq); err != nil {
			return err
		}
		return s.applyReturned(ctx, op.Table, res.Data)

	case res.Conflict:
		// Сервер новее: локальная копия заменяется серверной
		report.Conflicts++
		s.log.Warn("Конфликт, принята серверная версия",
			"table", op.Table, "record_id", op.RecordID, "reason", res.Error)
		if err := s.storage.CompleteOp(ctx, op.Seq); err != nil {
			return err
		}
		return s.applyReturned(ctx, op.Table, res.Data)

	case res.ErrorType == string(sync.KindNotFound) && op.Operation == sync.OpDelete:
		// Удалять нечего: считаем запись уже удаленной
		report.Applied++
		return s.storage.CompleteOp(ctx, op.Seq)

	default:
		report.Failed++
		msg := fmt.Sprintf("%s: %s", res.ErrorType, res.Error)
		report.Errors = append(report.Errors, fmt.Sprintf("%s/%s %s", op.Table, op.RecordID, msg))
		return s.storage.FailOp(ctx, op.Seq, msg)
	}
}

func (s *SyncService) applyReturned(ctx context.Context, table entity.Table, data any) error {
	record, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	// Более поздние операции по той же записи еще в очереди, их версия главнее
	_, err := s.storage.ApplyServerRecord(ctx, table, record, false)
	return err
}

func (s *SyncService) pull(ctx context.Context) (*PullReport, error) {
	since, err := s.storage.Checkpoint(ctx)
	if err != nil {
		return nil, err
	}

	data, err := s.remote.Pull(ctx, since.UnixMilli())
	if err != nil {
		return nil, err
	}

	report := &PullReport{}
	byTable := data.ByTable()
	for _, table := range entity.Tables() {
		for _, record := range byTable[table] {
			report.Received++
			applied, err := s.storage.ApplyServerRecord(ctx, table, record, false)
			if err != nil {
				return nil, err
			}
			if applied {
				report.Applied++
			} else {
				report.Skipped++
			}
		}
	}

	report.Checkpoint = time.UnixMilli(data.ServerTimestamp).UTC()
	if err := s.storage.SetCheckpoint(ctx, report.Checkpoint); err != nil {
		return nil, err
	}
	return report, nil
}
