package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"reptisync/internal/domain/entity"
)

var ErrRecordNotFound = errors.New("запись не найдена")

const checkpointKey = "checkpoint"

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}
	db.SetMaxOpenConns(1)

	storage := &SQLiteStorage{db: db}

	// Создаем таблицы
	if err := storage.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка инициализации таблиц: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			tbl TEXT NOT NULL,
			id TEXT NOT NULL,
			data TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			deleted BOOLEAN NOT NULL DEFAULT 0,
			PRIMARY KEY (tbl, id)
		);

		CREATE TABLE IF NOT EXISTS pending_ops (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			tbl TEXT NOT NULL,
			record_id TEXT NOT NULL,
			operation TEXT NOT NULL,
			payload TEXT,
			client_ts INTEGER NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_records_updated ON records(tbl, updated_at);
		CREATE INDEX IF NOT EXISTS idx_pending_record ON pending_ops(tbl, record_id);
	`)

	return err
}

// SaveLocalChange сохраняет запись и ставит операцию в очередь одной транзакцией.
// Операция сворачивается с последней неотправленной операцией той же записи,
// так что на сервер уходит одно изменение с последней меткой клиента.
func (s *SQLiteStorage) SaveLocalChange(ctx context.Context, rec *LocalRecord, op PendingOp) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("ошибка сериализации записи: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	if err := upsertRecord(ctx, tx, rec.Table, rec.ID, data, rec.UpdatedAt, rec.Deleted); err != nil {
		return err
	}

	prev, err := lastPendingOp(ctx, tx, op.Table, op.RecordID)
	if err != nil {
		return err
	}
	next := &op
	if prev != nil {
		if merged, ok := mergeOps(*prev, op); ok {
			// старая операция уходит целиком: завершение ее seq в идущей синхронизации не заденет новую
			if _, err := tx.ExecContext(ctx, "DELETE FROM pending_ops WHERE seq = ?", prev.Seq); err != nil {
				return fmt.Errorf("ошибка обновления очереди: %w", err)
			}
			next = merged
		}
	}
	if next == nil {
		return tx.Commit()
	}

	var payload []byte
	if next.Payload != nil {
		if payload, err = json.Marshal(next.Payload); err != nil {
			return fmt.Errorf("ошибка сериализации изменения: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pending_ops (tbl, record_id, operation, payload, client_ts)
		VALUES (?, ?, ?, ?, ?)
	`, next.Table, next.RecordID, next.Operation, nullableJSON(payload), next.ClientTimestamp)
	if err != nil {
		return fmt.Errorf("ошибка постановки изменения в очередь: %w", err)
	}

	return tx.Commit()
}

func lastPendingOp(ctx context.Context, tx *sql.Tx, table entity.Table, id string) (*PendingOp, error) {
	var (
		op      PendingOp
		payload sql.NullString
	)
	err := tx.QueryRowContext(ctx, `
		SELECT seq, tbl, record_id, operation, payload, client_ts, attempts, last_error
		FROM pending_ops WHERE tbl = ? AND record_id = ?
		ORDER BY seq DESC LIMIT 1
	`, table, id).Scan(&op.Seq, &op.Table, &op.RecordID, &op.Operation, &payload,
		&op.ClientTimestamp, &op.Attempts, &op.LastError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения очереди: %w", err)
	}
	if payload.Valid {
		if err := json.Unmarshal([]byte(payload.String), &op.Payload); err != nil {
			return nil, fmt.Errorf("ошибка разбора изменения %d: %w", op.Seq, err)
		}
	}
	return &op, nil
}

func (s *SQLiteStorage) GetRecord(ctx context.Context, table entity.Table, id string) (*LocalRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.tbl, r.id, r.data, r.updated_at, r.deleted,
		       EXISTS(SELECT 1 FROM pending_ops p WHERE p.tbl = r.tbl AND p.record_id = r.id)
		FROM records r
		WHERE r.tbl = ? AND r.id = ?
	`, table, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, table, id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записи: %w", err)
	}
	return rec, nil
}

// ListRecords пустая table означает все таблицы
func (s *SQLiteStorage) ListRecords(ctx context.Context, table entity.Table, showDeleted bool) ([]*LocalRecord, error) {
	query := `
		SELECT r.tbl, r.id, r.data, r.updated_at, r.deleted,
		       EXISTS(SELECT 1 FROM pending_ops p WHERE p.tbl = r.tbl AND p.record_id = r.id)
		FROM records r WHERE 1=1`
	args := []any{}

	if !showDeleted {
		query += " AND r.deleted = 0"
	}
	if table != "" {
		query += " AND r.tbl = ?"
		args = append(args, table)
	}
	query += " ORDER BY r.tbl, r.updated_at DESC, r.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	var records []*LocalRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// PendingOps очередь в порядке постановки
func (s *SQLiteStorage) PendingOps(ctx context.Context) ([]PendingOp, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, tbl, record_id, operation, payload, client_ts, attempts, last_error
		FROM pending_ops ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения очереди: %w", err)
	}
	defer rows.Close()

	var ops []PendingOp
	for rows.Next() {
		var (
			op      PendingOp
			payload sql.NullString
		)
		if err := rows.Scan(&op.Seq, &op.Table, &op.RecordID, &op.Operation, &payload,
			&op.ClientTimestamp, &op.Attempts, &op.LastError); err != nil {
			return nil, fmt.Errorf("ошибка сканирования очереди: %w", err)
		}
		if payload.Valid {
			if err := json.Unmarshal([]byte(payload.String), &op.Payload); err != nil {
				return nil, fmt.Errorf("ошибка разбора изменения %d: %w", op.Seq, err)
			}
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func (s *SQLiteStorage) CompleteOp(ctx context.Context, seq int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pending_ops WHERE seq = ?", seq); err != nil {
		return fmt.Errorf("ошибка удаления из очереди: %w", err)
	}
	return nil
}

// FailOp оставляет операцию в очереди с текстом последней ошибки
func (s *SQLiteStorage) FailOp(ctx context.Context, seq int64, msg string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE pending_ops SET attempts = attempts + 1, last_error = ? WHERE seq = ?", msg, seq)
	if err != nil {
		return fmt.Errorf("ошибка обновления очереди: %w", err)
	}
	return nil
}

// ApplyServerRecord записывает серверную версию. Без force запись с неотправленными
// изменениями не трогается. Возвращает, была ли запись применена.
func (s *SQLiteStorage) ApplyServerRecord(ctx context.Context, table entity.Table, data map[string]any, force bool) (bool, error) {
	id, _ := data["id"].(string)
	if id == "" {
		return false, fmt.Errorf("серверная запись %s без id", table)
	}
	updatedAt, err := parseServerTime(data["updatedAt"])
	if err != nil {
		return false, fmt.Errorf("серверная запись %s/%s: %w", table, id, err)
	}
	deleted := data["deletedAt"] != nil

	raw, err := json.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("ошибка сериализации записи: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback()

	if !force {
		var pending bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM pending_ops WHERE tbl = ? AND record_id = ?)", table, id).Scan(&pending)
		if err != nil {
			return false, fmt.Errorf("ошибка проверки очереди: %w", err)
		}
		if pending {
			return false, nil
		}
	}

	if err := upsertRecord(ctx, tx, table, id, raw, updatedAt, deleted); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (s *SQLiteStorage) Checkpoint(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM sync_state WHERE key = ?", checkpointKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.UnixMilli(0).UTC(), nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("ошибка чтения отметки синхронизации: %w", err)
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("испорченная отметка синхронизации %q: %w", value, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (s *SQLiteStorage) SetCheckpoint(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, checkpointKey, strconv.FormatInt(t.UnixMilli(), 10))
	if err != nil {
		return fmt.Errorf("ошибка сохранения отметки синхронизации: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Status(ctx context.Context) (*SyncStatus, error) {
	status := &SyncStatus{Records: make(map[entity.Table]int)}

	rows, err := s.db.QueryContext(ctx, "SELECT tbl, COUNT(*) FROM records WHERE deleted = 0 GROUP BY tbl")
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчета записей: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			table entity.Table
			count int
		)
		if err := rows.Scan(&table, &count); err != nil {
			return nil, fmt.Errorf("ошибка подсчета записей: %w", err)
		}
		status.Records[table] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ops, err := s.PendingOps(ctx)
	if err != nil {
		return nil, err
	}
	status.Pending = len(ops)
	for _, op := range ops {
		if op.LastError != "" {
			status.Failed = append(status.Failed, op)
		}
	}

	if status.Checkpoint, err = s.Checkpoint(ctx); err != nil {
		return nil, err
	}
	return status, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*LocalRecord, error) {
	var (
		rec       LocalRecord
		data      string
		updatedAt int64
	)
	if err := row.Scan(&rec.Table, &rec.ID, &data, &updatedAt, &rec.Deleted, &rec.Pending); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return nil, fmt.Errorf("ошибка разбора записи %s: %w", rec.ID, err)
	}
	rec.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &rec, nil
}

func upsertRecord(ctx context.Context, tx *sql.Tx, table entity.Table, id string, data []byte, updatedAt time.Time, deleted bool) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO records (tbl, id, data, updated_at, deleted) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tbl, id) DO UPDATE SET
			data = excluded.data, updated_at = excluded.updated_at, deleted = excluded.deleted
	`, table, id, string(data), updatedAt.UnixMilli(), deleted)
	if err != nil {
		return fmt.Errorf("ошибка сохранения записи: %w", err)
	}
	return nil
}

func nullableJSON(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func parseServerTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case float64:
		return time.UnixMilli(int64(t)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("неизвестный формат updatedAt: %v", v)
	}
}
