package sync

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"reptisync/internal/domain/entity"
)

const maxRecordIDLen = 128

// Processor применяет одну операцию к таблице.
type Processor struct {
	registry *entity.Registry
	catalog  *entity.Catalog
	resolver *Resolver
	log      *slog.Logger
}

func NewProcessor(registry *entity.Registry, catalog *entity.Catalog, resolver *Resolver, log *slog.Logger) *Processor {
	return &Processor{
		registry: registry,
		catalog:  catalog,
		resolver: resolver,
		log:      log,
	}
}

// Process возвращает ошибку только при сбое хранилища. Все ожидаемые исходы приходят в Result.
func (p *Processor) Process(ctx context.Context, userID int, table entity.Table, op Operation) (Result, error) {
	repo, err := p.registry.For(table)
	if err != nil {
		return validationFailure(fmt.Sprintf("table %q is not synchronized", table)), nil
	}
	schema, err := p.catalog.Schema(table)
	if err != nil {
		return validationFailure(fmt.Sprintf("table %q is not synchronized", table)), nil
	}

	if violations := validateOperation(op); len(violations) > 0 {
		p.log.Debug("operation rejected",
			slog.String("table", table.String()),
			slog.Any("violations", violations))
		return validationFailure(violations...), nil
	}

	existing, err := find(ctx, repo, op.RecordID)
	if err != nil {
		return nil, err
	}

	var res Result
	switch op.Operation {
	case OpCreate:
		res, err = p.create(ctx, userID, repo, schema, op, existing)
	case OpUpdate:
		res, err = p.update(ctx, userID, repo, schema, op, existing)
	case OpDelete:
		res, err = p.delete(ctx, userID, repo, op, existing)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperation, op.Operation)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", op.Operation, table, op.RecordID, err)
	}

	p.log.Debug("operation processed",
		slog.String("table", table.String()),
		slog.String("operation", string(op.Operation)),
		slog.String("record_id", op.RecordID),
		slog.String("result", describe(res)))

	return res, nil
}

func (p *Processor) create(ctx context.Context, userID int, repo entity.Repository, schema *entity.Schema, op Operation, existing entity.Entity) (Result, error) {
	if existing != nil && !existing.Base().Owned(userID) {
		return forbidden("record %s belongs to another user", op.RecordID), nil
	}

	incoming, err := schema.Build(nil, op.Payload)
	if err != nil {
		return fromBuildError(err)
	}

	if res, err := p.checkParent(ctx, userID, incoming); res != nil || err != nil {
		return res, err
	}

	verdict, err := p.resolver.Resolve(Resolution{
		Operation:  op.Operation,
		UserID:     userID,
		ClientTime: op.ClientTime(),
		Existing:   existing,
		Incoming:   incoming,
	})
	if err != nil {
		return nil, err
	}

	switch verdict {
	case VerdictIdempotent:
		return Success{Record: existing, Idempotent: true}, nil
	case VerdictConflict:
		return Conflict{Server: existing, Reason: "record already exists"}, nil
	case VerdictForbidden:
		return forbidden("record %s belongs to another user", op.RecordID), nil
	}

	meta := incoming.Base()
	meta.ID = op.RecordID
	meta.UserID = userID

	created, err := repo.Create(ctx, incoming)
	if errors.Is(err, entity.ErrDuplicate) && existing == nil {
		// параллельный CREATE успел раньше, решаем заново против его строки
		current, ferr := find(ctx, repo, op.RecordID)
		if ferr != nil {
			return nil, ferr
		}
		if current != nil {
			return p.create(ctx, userID, repo, schema, op, current)
		}
	}
	if err != nil {
		return nil, err
	}
	return Success{Record: created}, nil
}

func (p *Processor) update(ctx context.Context, userID int, repo entity.Repository, schema *entity.Schema, op Operation, existing entity.Entity) (Result, error) {
	if res, ok, err := p.precheck(op, userID, existing); ok || err != nil {
		return res, err
	}

	fields, err := entity.Fields(existing)
	if err != nil {
		return nil, err
	}
	merged, err := schema.Build(fields, op.Payload)
	if err != nil {
		return fromBuildError(err)
	}

	// Родителя проверяем, только если клиент перенес запись к другой рептилии.
	if parentChanged(existing, merged) {
		if res, err := p.checkParent(ctx, userID, merged); res != nil || err != nil {
			return res, err
		}
	}

	*merged.Base() = *existing.Base()

	updated, err := repo.Update(ctx, merged)
	if err != nil {
		return p.writeFailed(ctx, repo, op.RecordID, err)
	}
	return Success{Record: updated}, nil
}

func (p *Processor) delete(ctx context.Context, userID int, repo entity.Repository, op Operation, existing entity.Entity) (Result, error) {
	if res, ok, err := p.precheck(op, userID, existing); ok || err != nil {
		return res, err
	}

	deleted, err := repo.SoftDelete(ctx, existing)
	if err != nil {
		return p.writeFailed(ctx, repo, op.RecordID, err)
	}
	return Success{Record: deleted, Deleted: true}, nil
}

// precheck общая часть UPDATE и DELETE. ok=true значит, что результат уже известен.
func (p *Processor) precheck(op Operation, userID int, existing entity.Entity) (Result, bool, error) {
	verdict, err := p.resolver.Resolve(Resolution{
		Operation:  op.Operation,
		UserID:     userID,
		ClientTime: op.ClientTime(),
		Existing:   existing,
	})
	if err != nil {
		return nil, false, err
	}

	switch verdict {
	case VerdictNotFound:
		return notFound("record %s not found", op.RecordID), true, nil
	case VerdictForbidden:
		return forbidden("record %s belongs to another user", op.RecordID), true, nil
	case VerdictConflict:
		return Conflict{Server: existing, Reason: "server version is newer"}, true, nil
	}
	return nil, false, nil
}

// writeFailed разбирает отказ условной записи: запись успели изменить или удалить между чтением и записью.
func (p *Processor) writeFailed(ctx context.Context, repo entity.Repository, id string, err error) (Result, error) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return notFound("record %s not found", id), nil
	case errors.Is(err, entity.ErrStale):
		current, ferr := find(ctx, repo, id)
		if ferr != nil {
			return nil, ferr
		}
		if current == nil || current.Base().Deleted() {
			return notFound("record %s not found", id), nil
		}
		return Conflict{Server: current, Reason: "server version is newer"}, nil
	default:
		return nil, err
	}
}

func (p *Processor) checkParent(ctx context.Context, userID int, e entity.Entity) (Result, error) {
	child, ok := e.(entity.Child)
	if !ok {
		return nil, nil
	}

	repo, err := p.registry.For(entity.Reptiles)
	if err != nil {
		return nil, err
	}
	parent, err := find(ctx, repo, child.ParentID())
	if err != nil {
		return nil, err
	}

	if parent == nil || parent.Base().Deleted() {
		return validationFailure(fmt.Sprintf("payload.reptileId: reptile %s not found", child.ParentID())), nil
	}
	if !parent.Base().Owned(userID) {
		return forbidden("reptile %s belongs to another user", child.ParentID()), nil
	}
	return nil, nil
}

func validateOperation(op Operation) []string {
	var violations []string

	if !op.Operation.Valid() {
		violations = append(violations, fmt.Sprintf("operation: must be one of %s, %s, %s", OpCreate, OpUpdate, OpDelete))
	}
	switch {
	case op.RecordID == "":
		violations = append(violations, "recordId: must not be empty")
	case len(op.RecordID) > maxRecordIDLen:
		violations = append(violations, fmt.Sprintf("recordId: must be at most %d characters", maxRecordIDLen))
	}
	switch {
	case op.ClientTimestamp == nil:
		violations = append(violations, "clientTimestamp: is required")
	case *op.ClientTimestamp < 0:
		violations = append(violations, "clientTimestamp: must not be negative")
	}

	return violations
}

func find(ctx context.Context, repo entity.Repository, id string) (entity.Entity, error) {
	e, err := repo.FindByID(ctx, id)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", id, err)
	}
	return e, nil
}

func parentChanged(before, after entity.Entity) bool {
	a, ok := before.(entity.Child)
	if !ok {
		return false
	}
	b, ok := after.(entity.Child)
	if !ok {
		return false
	}
	return a.ParentID() != b.ParentID()
}

func fromBuildError(err error) (Result, error) {
	var ve *entity.ValidationError
	if errors.As(err, &ve) {
		details := ve.Details
		if len(details) == 0 {
			details = []string{ve.Message()}
		}
		return validationFailure(details...), nil
	}
	return nil, err
}

func describe(r Result) string {
	switch v := r.(type) {
	case Success:
		if v.Idempotent {
			return "idempotent"
		}
		return "success"
	case Conflict:
		return "conflict"
	case Failure:
		return string(v.Kind)
	default:
		return "unknown"
	}
}
