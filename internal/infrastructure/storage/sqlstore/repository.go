package sqlstore

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/doug-martin/goqu/v9"

	"reptisync/internal/domain/entity"
)

// querier общая часть goqu.Database и goqu.TxDatabase.
type querier interface {
	From(from ...interface{}) *goqu.SelectDataset
}

// repository реализует entity.Repository для одной таблицы.
type repository struct {
	store  *Store
	table  entity.Table
	schema *entity.Schema
}

func (r *repository) FindByID(ctx context.Context, id string) (entity.Entity, error) {
	e := r.schema.New()
	found, err := r.store.db.From(r.table.SQLName()).
		Prepared(true).
		Where(goqu.C("id").Eq(id)).
		ScanStructContext(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", r.table, err)
	}
	if !found {
		return nil, entity.ErrNotFound
	}
	normalize(e)
	return e, nil
}

func (r *repository) Create(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	meta := e.Base()
	now := r.store.now()
	meta.CreatedAt = now
	meta.UpdatedAt = now
	meta.DeletedAt = nil

	_, err := r.store.db.Insert(r.table.SQLName()).
		Prepared(true).
		Rows(row(e)).
		Executor().
		ExecContext(ctx)
	if r.store.duplicate(err) {
		return nil, fmt.Errorf("insert %s %s: %w", r.table, meta.ID, entity.ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", r.table, err)
	}
	return r.FindByID(ctx, meta.ID)
}

func (r *repository) Update(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	return r.write(ctx, e, func(meta *entity.Meta, now time.Time) {
		meta.UpdatedAt = now
	})
}

func (r *repository) SoftDelete(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	return r.write(ctx, e, func(meta *entity.Meta, now time.Time) {
		meta.UpdatedAt = now
		meta.DeletedAt = &now
	})
}

// write условная перезапись: строка должна быть жива и иметь тот же updated_at, что прочитал вызывающий.
func (r *repository) write(ctx context.Context, e entity.Entity, stamp func(*entity.Meta, time.Time)) (entity.Entity, error) {
	meta := e.Base()
	prev := *meta

	now := r.store.now()
	// updatedAt строго растет, иначе курсор pull может пропустить изменение
	if !now.After(prev.UpdatedAt) {
		now = prev.UpdatedAt.Add(time.Millisecond)
	}
	stamp(meta, now)

	res, err := r.store.db.Update(r.table.SQLName()).
		Prepared(true).
		Set(row(e)).
		Where(goqu.Ex{
			"id":         prev.ID,
			"user_id":    prev.UserID,
			"updated_at": prev.UpdatedAt,
			"deleted_at": nil,
		}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		*meta = prev
		return nil, fmt.Errorf("update %s: %w", r.table, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		*meta = prev
		return nil, fmt.Errorf("update %s: %w", r.table, err)
	}
	if n == 0 {
		*meta = prev
		return nil, entity.ErrStale
	}

	return r.FindByID(ctx, prev.ID)
}

// changedSince живые и удаленные записи пользователя с updated_at > since.
func (r *repository) changedSince(ctx context.Context, q querier, userID int, since time.Time) ([]entity.Entity, error) {
	slicePtr := reflect.New(reflect.SliceOf(reflect.TypeOf(r.schema.New())))

	err := q.From(r.table.SQLName()).
		Prepared(true).
		Where(
			goqu.C("user_id").Eq(userID),
			goqu.C("updated_at").Gt(since.UTC()),
		).
		Order(goqu.C("updated_at").Asc(), goqu.C("id").Asc()).
		ScanStructsContext(ctx, slicePtr.Interface())
	if err != nil {
		return nil, fmt.Errorf("select %s changes: %w", r.table, err)
	}

	slice := slicePtr.Elem()
	out := make([]entity.Entity, slice.Len())
	for i := range out {
		e := slice.Index(i).Interface().(entity.Entity)
		normalize(e)
		out[i] = e
	}
	return out, nil
}

// row разыменовывает запись: goqu строит колонки по полям структуры.
func row(e entity.Entity) interface{} {
	return reflect.Indirect(reflect.ValueOf(e)).Interface()
}

// normalize приводит служебные метки к UTC, драйверы возвращают их в локальной зоне.
func normalize(e entity.Entity) {
	meta := e.Base()
	meta.CreatedAt = meta.CreatedAt.UTC()
	meta.UpdatedAt = meta.UpdatedAt.UTC()
	if meta.DeletedAt != nil {
		t := meta.DeletedAt.UTC()
		meta.DeletedAt = &t
	}
}
