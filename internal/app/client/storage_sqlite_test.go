package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reptisync/internal/domain/entity"
	"reptisync/internal/domain/sync"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func serverRecord(id, name string, updatedAt time.Time, deleted bool) map[string]any {
	rec := map[string]any{
		"id":        id,
		"userId":    float64(1),
		"name":      name,
		"species":   "Python regius",
		"createdAt": updatedAt.Format(time.RFC3339Nano),
		"updatedAt": updatedAt.Format(time.RFC3339Nano),
		"deletedAt": nil,
	}
	if deleted {
		rec["deletedAt"] = updatedAt.Format(time.RFC3339Nano)
	}
	return rec
}

func TestSQLiteStorage_LocalChangeQueue(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	rec := &LocalRecord{Table: entity.Reptiles, ID: "r-1", Data: map[string]any{"name": "Noodle"}, UpdatedAt: now}
	require.NoError(t, s.SaveLocalChange(ctx, rec, PendingOp{
		Table: entity.Reptiles, RecordID: "r-1", Operation: sync.OpCreate,
		Payload: map[string]any{"name": "Noodle"}, ClientTimestamp: now.UnixMilli(),
	}))
	other := &LocalRecord{Table: entity.Reptiles, ID: "r-2", Data: map[string]any{"name": "Biscuit"}, UpdatedAt: now, Deleted: true}
	require.NoError(t, s.SaveLocalChange(ctx, other, PendingOp{
		Table: entity.Reptiles, RecordID: "r-2", Operation: sync.OpDelete, ClientTimestamp: now.UnixMilli() + 1,
	}))

	ops, err := s.PendingOps(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, sync.OpCreate, ops[0].Operation)
	assert.Equal(t, "Noodle", ops[0].Payload["name"])
	assert.Equal(t, sync.OpDelete, ops[1].Operation)
	assert.Nil(t, ops[1].Payload)
	assert.Less(t, ops[0].Seq, ops[1].Seq)

	got, err := s.GetRecord(ctx, entity.Reptiles, "r-1")
	require.NoError(t, err)
	assert.True(t, got.Pending)
	assert.True(t, got.UpdatedAt.Equal(now))

	require.NoError(t, s.FailOp(ctx, ops[1].Seq, "SYNC_ERROR: boom"))
	require.NoError(t, s.CompleteOp(ctx, ops[0].Seq))

	status, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Pending)
	require.Len(t, status.Failed, 1)
	assert.Equal(t, 1, status.Failed[0].Attempts)
	assert.Equal(t, 1, status.Records[entity.Reptiles])

	_, err = s.GetRecord(ctx, entity.Reptiles, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSQLiteStorage_ApplyServerRecord(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	// запись без очереди применяется
	applied, err := s.ApplyServerRecord(ctx, entity.Reptiles, serverRecord("r-1", "Noodle", t0, false), false)
	require.NoError(t, err)
	assert.True(t, applied)

	// запись с неотправленным изменением не трогается без force
	local := &LocalRecord{Table: entity.Reptiles, ID: "r-1", Data: map[string]any{"name": "Local"}, UpdatedAt: t0}
	require.NoError(t, s.SaveLocalChange(ctx, local, PendingOp{
		Table: entity.Reptiles, RecordID: "r-1", Operation: sync.OpUpdate, ClientTimestamp: t0.UnixMilli(),
	}))
	applied, err = s.ApplyServerRecord(ctx, entity.Reptiles, serverRecord("r-1", "Server", t0.Add(time.Hour), false), false)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := s.GetRecord(ctx, entity.Reptiles, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "Local", got.Data["name"])

	applied, err = s.ApplyServerRecord(ctx, entity.Reptiles, serverRecord("r-1", "Server", t0.Add(time.Hour), true), true)
	require.NoError(t, err)
	assert.True(t, applied)

	got, err = s.GetRecord(ctx, entity.Reptiles, "r-1")
	require.NoError(t, err)
	assert.Equal(t, "Server", got.Data["name"])
	assert.True(t, got.Deleted)

	list, err := s.ListRecords(ctx, "", false)
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = s.ListRecords(ctx, entity.Reptiles, true)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.ApplyServerRecord(ctx, entity.Reptiles, map[string]any{"name": "no id"}, false)
	assert.Error(t, err)
}

func TestSQLiteStorage_Checkpoint(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	cp, err := s.Checkpoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cp.UnixMilli())

	want := time.UnixMilli(1704067200000).UTC()
	require.NoError(t, s.SetCheckpoint(ctx, want))
	require.NoError(t, s.SetCheckpoint(ctx, want))

	cp, err = s.Checkpoint(ctx)
	require.NoError(t, err)
	assert.True(t, cp.Equal(want))
}

func TestSQLiteStorage_LocalChangeMerge(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	create := PendingOp{
		Table: entity.Reptiles, RecordID: "r-1", Operation: sync.OpCreate,
		Payload: map[string]any{"name": "Noodle", "species": "Python regius"}, ClientTimestamp: now.UnixMilli(),
	}
	update := func(name string, ts time.Time) PendingOp {
		return PendingOp{
			Table: entity.Reptiles, RecordID: "r-1", Operation: sync.OpUpdate,
			Payload: map[string]any{"name": name}, ClientTimestamp: ts.UnixMilli(),
		}
	}
	del := PendingOp{Table: entity.Reptiles, RecordID: "r-1", Operation: sync.OpDelete, ClientTimestamp: now.Add(3 * time.Minute).UnixMilli()}

	tests := []struct {
		name        string
		ops         []PendingOp
		wantOp      sync.OperationType
		wantPayload map[string]any
		wantTS      int64
		wantEmpty   bool
	}{
		{
			name:        "create then updates stay one create",
			ops:         []PendingOp{create, update("Noodle II", now.Add(time.Minute)), update("Noodle III", now.Add(2*time.Minute))},
			wantOp:      sync.OpCreate,
			wantPayload: map[string]any{"name": "Noodle III", "species": "Python regius"},
			wantTS:      now.Add(2 * time.Minute).UnixMilli(),
		},
		{
			name:      "create then delete leaves nothing to send",
			ops:       []PendingOp{create, update("Noodle II", now.Add(time.Minute)), del},
			wantEmpty: true,
		},
		{
			name:   "update then delete becomes delete",
			ops:    []PendingOp{update("Noodle II", now.Add(time.Minute)), del},
			wantOp: sync.OpDelete,
			wantTS: del.ClientTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			s := newTestStorage(t)
			ctx := context.Background()
			rec := &LocalRecord{Table: entity.Reptiles, ID: "r-1", Data: map[string]any{"name": "Noodle"}, UpdatedAt: now}

			// Act
			for _, op := range tt.ops {
				rec.Deleted = op.Operation == sync.OpDelete
				require.NoError(t, s.SaveLocalChange(ctx, rec, op))
			}

			// Assert
			ops, err := s.PendingOps(ctx)
			require.NoError(t, err)
			if tt.wantEmpty {
				assert.Empty(t, ops)
				got, err := s.GetRecord(ctx, entity.Reptiles, "r-1")
				require.NoError(t, err)
				assert.True(t, got.Deleted)
				assert.False(t, got.Pending)
				return
			}
			require.Len(t, ops, 1)
			assert.Equal(t, tt.wantOp, ops[0].Operation)
			assert.Equal(t, tt.wantPayload, ops[0].Payload)
			assert.Equal(t, tt.wantTS, ops[0].ClientTimestamp)
		})
	}
}

func TestSQLiteStorage_MergeReplacesInFlightSeq(t *testing.T) {
	// Arrange
	s := newTestStorage(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rec := &LocalRecord{Table: entity.Reptiles, ID: "r-1", Data: map[string]any{"name": "Noodle"}, UpdatedAt: now}

	require.NoError(t, s.SaveLocalChange(ctx, rec, PendingOp{
		Table: entity.Reptiles, RecordID: "r-1", Operation: sync.OpUpdate,
		Payload: map[string]any{"name": "Noodle"}, ClientTimestamp: now.UnixMilli(),
	}))
	before, err := s.PendingOps(ctx)
	require.NoError(t, err)
	require.Len(t, before, 1)
	require.NoError(t, s.FailOp(ctx, before[0].Seq, "SYNC_ERROR: boom"))

	// Act
	require.NoError(t, s.SaveLocalChange(ctx, rec, PendingOp{
		Table: entity.Reptiles, RecordID: "r-1", Operation: sync.OpUpdate,
		Payload: map[string]any{"name": "Noodle II"}, ClientTimestamp: now.Add(time.Minute).UnixMilli(),
	}))
	require.NoError(t, s.CompleteOp(ctx, before[0].Seq))

	// Assert
	ops, err := s.PendingOps(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Greater(t, ops[0].Seq, before[0].Seq)
	assert.Equal(t, "Noodle II", ops[0].Payload["name"])
	assert.Zero(t, ops[0].Attempts)
	assert.Empty(t, ops[0].LastError)
}
