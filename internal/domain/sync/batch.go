package sync

import (
	"context"
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/slog"

	"reptisync/internal/domain/entity"
)

// Applier применяет одну операцию. Реализуется Processor.
type Applier interface {
	Process(ctx context.Context, userID int, table entity.Table, op Operation) (Result, error)
}

// Coordinator обрабатывает пакет операций последовательно, каждую независимо.
type Coordinator struct {
	applier  Applier
	maxItems int
	log      *slog.Logger
}

func NewCoordinator(applier Applier, maxItems int, log *slog.Logger) *Coordinator {
	return &Coordinator{
		applier:  applier,
		maxItems: maxItems,
		log:      log,
	}
}

// Run проверяет таблицы всех элементов до обработки первого. Ошибка одного
// элемента не прерывает пакет и попадает в его результат.
func (c *Coordinator) Run(ctx context.Context, userID int, items []BatchItem) (*BatchOutcome, error) {
	if len(items) == 0 {
		return nil, ErrEmptyBatch
	}
	if c.maxItems > 0 && len(items) > c.maxItems {
		return nil, fmt.Errorf("%w: %d operations, at most %d allowed", ErrBatchTooLarge, len(items), c.maxItems)
	}

	tables, err := resolveTables(items)
	if err != nil {
		return nil, err
	}

	out := &BatchOutcome{Results: make([]Result, 0, len(items))}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch stopped after %d of %d operations: %w", i, len(items), err)
		}

		res := c.apply(ctx, userID, i, tables[i], item.Operation)
		out.Results = append(out.Results, res)
		out.Summary.add(res)
	}

	c.log.Info("batch processed",
		slog.Int("user_id", userID),
		slog.Int("total", out.Summary.Total),
		slog.Int("success", out.Summary.Success),
		slog.Int("failed", out.Summary.Failed),
		slog.Int("conflicts", out.Summary.Conflicts))

	return out, nil
}

func (c *Coordinator) apply(ctx context.Context, userID, index int, table entity.Table, op *Operation) Result {
	if op == nil {
		return validationFailure("operation: is required")
	}

	res, err := c.applier.Process(ctx, userID, table, *op)
	if err != nil {
		c.log.Error("batch operation failed",
			slog.Int("index", index),
			slog.String("table", table.String()),
			slog.String("record_id", op.RecordID),
			slog.String("error", err.Error()))
		return Failure{Kind: KindSyncError, Message: "failed to apply operation"}
	}
	return res
}

func resolveTables(items []BatchItem) ([]entity.Table, error) {
	tables := make([]entity.Table, len(items))
	invalid := mapset.NewThreadUnsafeSet[string]()

	for i, item := range items {
		t, ok := entity.ParseTable(item.Table)
		if !ok {
			invalid.Add(item.Table)
			continue
		}
		tables[i] = t
	}

	if invalid.Cardinality() > 0 {
		names := invalid.ToSlice()
		sort.Strings(names)
		return nil, &InvalidTableError{Tables: names}
	}
	return tables, nil
}
