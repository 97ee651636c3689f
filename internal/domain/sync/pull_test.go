package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"reptisync/internal/domain/entity"
)

func TestParseSince(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "empty", raw: "", want: time.UnixMilli(0).UTC()},
		{name: "zero", raw: "0", want: time.UnixMilli(0).UTC()},
		{name: "epoch millis", raw: "1714557600000", want: t0},
		{name: "float millis", raw: "1714557600000.0", want: t0},
		{name: "rfc3339", raw: "2024-05-01T10:00:00Z", want: t0},
		{name: "rfc3339 with offset", raw: "2024-05-01T13:00:00+03:00", want: t0},
		{name: "fractional seconds", raw: "2024-05-01T10:00:00.250Z", want: t0.Add(250 * time.Millisecond)},
		{name: "date only", raw: "2024-05-01", want: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{name: "padded", raw: " 1714557600000 ", want: t0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSince(tt.raw)

			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseSince_Invalid(t *testing.T) {
	for _, raw := range []string{"yesterday", "2024-13-45", "NaN", "12abc"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseSince(raw)
			assert.ErrorIs(t, err, ErrInvalidTimestamp)
		})
	}
}

func TestPuller_Pull(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		feed := new(MockFeed)
		changes := &entity.Changes{
			Records:         map[entity.Table][]entity.Entity{entity.Reptiles: {reptile("r-1", 7, t1, "Noodle")}},
			ServerTimestamp: t2,
		}
		feed.On("ChangesSince", ctx, 7, t0).Return(changes, nil)

		got, err := NewPuller(feed, slog.Default()).Pull(ctx, 7, t0)

		require.NoError(t, err)
		assert.Same(t, changes, got)
		feed.AssertExpectations(t)
	})

	t.Run("storage error", func(t *testing.T) {
		feed := new(MockFeed)
		boom := errors.New("timeout")
		feed.On("ChangesSince", ctx, 7, t0).Return(nil, boom)

		_, err := NewPuller(feed, slog.Default()).Pull(ctx, 7, t0)

		assert.ErrorIs(t, err, boom)
	})
}
