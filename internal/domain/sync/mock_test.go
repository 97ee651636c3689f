package sync

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"reptisync/internal/domain/entity"
)

// MockRepository is a mock implementation of entity.Repository for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (entity.Entity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entity.Entity), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entity.Entity), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entity.Entity), args.Error(1)
}

func (m *MockRepository) SoftDelete(ctx context.Context, e entity.Entity) (entity.Entity, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entity.Entity), args.Error(1)
}

// MockFeed is a mock implementation of entity.ChangeFeed
type MockFeed struct {
	mock.Mock
}

func (m *MockFeed) ChangesSince(ctx context.Context, userID int, since time.Time) (*entity.Changes, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Changes), args.Error(1)
}

// MockApplier is a mock implementation of Applier
type MockApplier struct {
	mock.Mock
}

func (m *MockApplier) Process(ctx context.Context, userID int, table entity.Table, op Operation) (Result, error) {
	args := m.Called(ctx, userID, table, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Result), args.Error(1)
}

func ms(v int64) *int64 {
	return &v
}

var (
	t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
	t2 = t0.Add(2 * time.Hour)
)

func reptile(id string, userID int, updatedAt time.Time, name string) *entity.Reptile {
	return &entity.Reptile{
		Meta: entity.Meta{
			ID:        id,
			UserID:    userID,
			CreatedAt: t0,
			UpdatedAt: updatedAt,
		},
		ReptileData: entity.ReptileData{
			Name:    name,
			Species: "Python regius",
			Sex:     "UNKNOWN",
		},
	}
}

func feeding(id, reptileID string, userID int, updatedAt time.Time) *entity.Feeding {
	return &entity.Feeding{
		Meta: entity.Meta{
			ID:        id,
			UserID:    userID,
			CreatedAt: t0,
			UpdatedAt: updatedAt,
		},
		FeedingData: entity.FeedingData{
			ReptileID: reptileID,
			FedAt:     t0,
			PreyType:  "mouse",
			Quantity:  1,
		},
	}
}
