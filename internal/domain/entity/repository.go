package entity

import (
	"context"
	"fmt"
	"time"
)

// Repository общий контракт хранилища одной таблицы.
// Временные метки Meta выставляет реализация по серверным часам.
type Repository interface {
	// FindByID возвращает запись вместе с удаленными. ErrNotFound если записи нет.
	FindByID(ctx context.Context, id string) (Entity, error)
	// Create сохраняет новую запись с ID и UserID из Meta. ErrDuplicate если ID уже занят.
	Create(ctx context.Context, e Entity) (Entity, error)
	// Update перезаписывает поля. UpdatedAt в Meta служит предусловием: ErrStale если запись изменилась.
	Update(ctx context.Context, e Entity) (Entity, error)
	// SoftDelete выставляет deletedAt с тем же предусловием, что и Update.
	SoftDelete(ctx context.Context, e Entity) (Entity, error)
}

// ChangeFeed выдает изменения всех таблиц пользователя после отметки времени.
type ChangeFeed interface {
	ChangesSince(ctx context.Context, userID int, since time.Time) (*Changes, error)
}

// Changes записи, измененные после since, сгруппированные по таблицам.
type Changes struct {
	Records         map[Table][]Entity
	ServerTimestamp time.Time
}

// Count число записей таблицы.
func (c *Changes) Count(t Table) int {
	return len(c.Records[t])
}

// Total число записей по всем таблицам.
func (c *Changes) Total() int {
	total := 0
	for _, records := range c.Records {
		total += len(records)
	}
	return total
}

// Registry сопоставляет каждой таблице ее хранилище.
type Registry struct {
	repos map[Table]Repository
}

// NewRegistry проверяет, что хранилище задано для каждой таблицы.
func NewRegistry(repos map[Table]Repository) (*Registry, error) {
	r := &Registry{repos: make(map[Table]Repository, len(repos))}
	for _, t := range Tables() {
		repo, ok := repos[t]
		if !ok || repo == nil {
			return nil, fmt.Errorf("no repository for table %s", t)
		}
		r.repos[t] = repo
	}
	return r, nil
}

// For возвращает хранилище таблицы.
func (r *Registry) For(t Table) (Repository, error) {
	repo, ok := r.repos[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, t)
	}
	return repo, nil
}

// Now усекает время до миллисекунд в UTC: точность clientTimestamp.
func Now(clock func() time.Time) time.Time {
	return clock().UTC().Truncate(time.Millisecond)
}
