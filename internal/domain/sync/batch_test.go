package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"reptisync/internal/domain/entity"
)

func op(kind OperationType, id string) *Operation {
	return &Operation{Operation: kind, RecordID: id, ClientTimestamp: ms(t1.UnixMilli())}
}

func TestCoordinator_Run(t *testing.T) {
	ctx := context.Background()

	// Arrange
	applier := new(MockApplier)
	coordinator := NewCoordinator(applier, 10, slog.Default())

	stored := reptile("r-1", 7, t1, "Noodle")
	applier.On("Process", ctx, 7, entity.Reptiles, *op(OpCreate, "r-1")).Return(Success{Record: stored}, nil)
	applier.On("Process", ctx, 7, entity.Feedings, *op(OpUpdate, "f-1")).Return(Conflict{Server: feeding("f-1", "r-1", 7, t2)}, nil)
	applier.On("Process", ctx, 7, entity.Sheds, *op(OpDelete, "s-1")).Return(notFound("record s-1 not found"), nil)
	applier.On("Process", ctx, 7, entity.Photos, *op(OpDelete, "p-1")).Return(nil, errors.New("disk full"))

	items := []BatchItem{
		{Table: "reptiles", Operation: op(OpCreate, "r-1")},
		{Table: "feedings", Operation: op(OpUpdate, "f-1")},
		{Table: "sheds", Operation: op(OpDelete, "s-1")},
		{Table: "photos", Operation: op(OpDelete, "p-1")},
		{Table: "weights"},
	}

	// Act
	out, err := coordinator.Run(ctx, 7, items)

	// Assert
	require.NoError(t, err)
	require.Len(t, out.Results, len(items))
	assert.Equal(t, Success{Record: stored}, out.Results[0])
	assert.IsType(t, Conflict{}, out.Results[1])
	assert.Equal(t, KindNotFound, out.Results[2].(Failure).Kind)
	assert.Equal(t, Failure{Kind: KindSyncError, Message: "failed to apply operation"}, out.Results[3])
	assert.Equal(t, KindValidation, out.Results[4].(Failure).Kind)
	assert.Equal(t, BatchSummary{Total: 5, Success: 1, Failed: 3, Conflicts: 1}, out.Summary)
	applier.AssertExpectations(t)
}

func TestCoordinator_Run_InvalidTables(t *testing.T) {
	applier := new(MockApplier)
	coordinator := NewCoordinator(applier, 10, slog.Default())

	_, err := coordinator.Run(context.Background(), 7, []BatchItem{
		{Table: "reptiles", Operation: op(OpCreate, "r-1")},
		{Table: "users", Operation: op(OpCreate, "u-1")},
		{Table: "cages", Operation: op(OpCreate, "c-1")},
		{Table: "users", Operation: op(OpCreate, "u-2")},
	})

	var tableErr *InvalidTableError
	require.True(t, errors.As(err, &tableErr))
	assert.Equal(t, []string{"cages", "users"}, tableErr.Tables)
	assert.Equal(t, `invalid table: "cages", "users"`, tableErr.Error())
	// ни одна операция не применена
	applier.AssertNotCalled(t, "Process", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCoordinator_Run_Limits(t *testing.T) {
	coordinator := NewCoordinator(new(MockApplier), 2, slog.Default())

	tests := []struct {
		name  string
		items []BatchItem
		want  error
	}{
		{name: "empty", items: nil, want: ErrEmptyBatch},
		{
			name: "too large",
			items: []BatchItem{
				{Table: "reptiles", Operation: op(OpCreate, "r-1")},
				{Table: "reptiles", Operation: op(OpCreate, "r-2")},
				{Table: "reptiles", Operation: op(OpCreate, "r-3")},
			},
			want: ErrBatchTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coordinator.Run(context.Background(), 7, tt.items)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCoordinator_Run_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	applier := new(MockApplier)
	coordinator := NewCoordinator(applier, 10, slog.Default())

	applier.On("Process", ctx, 7, entity.Reptiles, *op(OpCreate, "r-1")).
		Run(func(mock.Arguments) { cancel() }).
		Return(Success{Record: reptile("r-1", 7, t1, "Noodle")}, nil)

	_, err := coordinator.Run(ctx, 7, []BatchItem{
		{Table: "reptiles", Operation: op(OpCreate, "r-1")},
		{Table: "reptiles", Operation: op(OpCreate, "r-2")},
	})

	assert.ErrorIs(t, err, context.Canceled)
	applier.AssertNumberOfCalls(t, "Process", 1)
}
