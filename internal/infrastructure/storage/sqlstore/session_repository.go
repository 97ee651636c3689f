package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"reptisync/internal/domain/session"
)

type SessionRepository struct {
	store *Store
}

func (r *SessionRepository) Create(ctx context.Context, userID int, tokenHash string, expiresAt time.Time) error {
	_, err := r.store.db.Insert("sessions").
		Prepared(true).
		Rows(goqu.Record{
			"user_id":    userID,
			"token_hash": tokenHash,
			"expires_at": expiresAt.UTC().Truncate(time.Millisecond),
			"created_at": r.store.now(),
		}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Validate(ctx context.Context, tokenHash string) (int, error) {
	var userID int
	found, err := r.store.db.From("sessions").
		Prepared(true).
		Select("user_id").
		Where(
			goqu.C("token_hash").Eq(tokenHash),
			goqu.C("expires_at").Gt(r.store.now()),
		).
		ScanValContext(ctx, &userID)
	if err != nil {
		return 0, fmt.Errorf("select session: %w", err)
	}
	if !found {
		return 0, session.ErrInvalidSession
	}
	return userID, nil
}

var _ session.Repository = (*SessionRepository)(nil)
