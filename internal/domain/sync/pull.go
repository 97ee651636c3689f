package sync

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"reptisync/internal/domain/entity"
)

// Форматы ISO8601, которые принимает since помимо миллисекунд эпохи.
var sinceLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseSince разбирает since: пустое значение означает начало эпохи,
// число трактуется как миллисекунды, иначе ожидается ISO8601.
func ParseSince(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.UnixMilli(0).UTC(), nil
	}

	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return time.UnixMilli(int64(f)).UTC(), nil
	}

	for _, layout := range sinceLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
}

// Puller отдает изменения пользователя по всем таблицам.
type Puller struct {
	feed entity.ChangeFeed
	log  *slog.Logger
}

func NewPuller(feed entity.ChangeFeed, log *slog.Logger) *Puller {
	return &Puller{feed: feed, log: log}
}

func (p *Puller) Pull(ctx context.Context, userID int, since time.Time) (*entity.Changes, error) {
	changes, err := p.feed.ChangesSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("changes since %s: %w", since.Format(time.RFC3339), err)
	}

	p.log.Debug("pull",
		slog.Int("user_id", userID),
		slog.Time("since", since),
		slog.Int("total", changes.Total()))

	return changes, nil
}
