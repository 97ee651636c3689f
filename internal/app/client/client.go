package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"reptisync/internal/app/client/config"
	"reptisync/internal/domain/entity"
	"reptisync/internal/domain/sync"
)

var (
	ErrUnknownTable    = errors.New("неизвестная таблица")
	ErrNotInitialized  = errors.New("клиент не настроен, выполните: reptisync init")
	ErrAlreadyDeleted  = errors.New("запись уже удалена")
	ErrEmptyChangeset  = errors.New("нет изменений")
	ErrInvalidServer   = errors.New("адрес сервера не может быть пустым")
	ErrInvalidTokenArg = errors.New("токен не может быть пустым")
)

type App struct {
	config  *config.Config
	log     *slog.Logger
	remote  *httpClient
	storage Storage
	catalog *entity.Catalog
	sync    *SyncService
	now     func() time.Time
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	storage, err := NewSQLiteStorage(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации хранилища: %w", err)
	}

	remote := NewHTTPClient(cfg, log)

	return &App{
		config:  cfg,
		log:     log,
		remote:  remote,
		storage: storage,
		catalog: entity.NewCatalog(),
		sync:    NewSyncService(storage, remote, cfg.BatchSize, log),
		now:     time.Now,
	}, nil
}

// IsInitialized есть ли токен для сервера
func (a *App) IsInitialized() bool {
	return a.config.Token != ""
}

// Init сохраняет адрес сервера и токен в файл конфигурации
func (a *App) Init(server, token string, tls bool) error {
	if server == "" {
		return ErrInvalidServer
	}
	if token == "" {
		return ErrInvalidTokenArg
	}

	a.config.ServerAddress = server
	a.config.Token = token
	a.config.EnableTLS = tls
	if err := a.config.Save(); err != nil {
		return err
	}

	a.remote.baseURL = a.config.BaseURL()
	a.remote.SetToken(token)
	return nil
}

// CheckConnection проверяет соединение с сервером
func (a *App) CheckConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return a.remote.HealthCheck(ctx)
}

// AddRecord создает запись локально и ставит CREATE в очередь
func (a *App) AddRecord(ctx context.Context, tableName string, payload map[string]any) (*LocalRecord, error) {
	table, schema, err := a.schema(tableName)
	if err != nil {
		return nil, err
	}

	fields, err := buildFields(schema, nil, payload)
	if err != nil {
		return nil, err
	}

	now := a.clientNow()
	id := uuid.NewString()
	fields["id"] = id

	rec := &LocalRecord{Table: table, ID: id, Data: fields, UpdatedAt: now}
	op := PendingOp{
		Table:           table,
		RecordID:        id,
		Operation:       sync.OpCreate,
		Payload:         payload,
		ClientTimestamp: now.UnixMilli(),
	}
	if err := a.storage.SaveLocalChange(ctx, rec, op); err != nil {
		return nil, err
	}

	a.log.Debug("Запись создана", "table", table, "id", id)
	return rec, nil
}

// UpdateRecord применяет изменения к локальной копии и ставит UPDATE в очередь
func (a *App) UpdateRecord(ctx context.Context, tableName, id string, payload map[string]any) (*LocalRecord, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyChangeset
	}
	table, schema, err := a.schema(tableName)
	if err != nil {
		return nil, err
	}

	rec, err := a.storage.GetRecord(ctx, table, id)
	if err != nil {
		return nil, err
	}
	if rec.Deleted {
		return nil, ErrAlreadyDeleted
	}

	fields, err := buildFields(schema, rec.Data, payload)
	if err != nil {
		return nil, err
	}
	for _, key := range []string{"id", "userId", "createdAt", "updatedAt", "deletedAt"} {
		if v, ok := rec.Data[key]; ok {
			fields[key] = v
		}
	}

	now := a.clientNow()
	rec.Data = fields
	rec.UpdatedAt = now

	op := PendingOp{
		Table:           table,
		RecordID:        id,
		Operation:       sync.OpUpdate,
		Payload:         payload,
		ClientTimestamp: now.UnixMilli(),
	}
	if err := a.storage.SaveLocalChange(ctx, rec, op); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteRecord помечает запись удаленной и ставит DELETE в очередь
func (a *App) DeleteRecord(ctx context.Context, tableName, id string) error {
	table, _, err := a.schema(tableName)
	if err != nil {
		return err
	}

	rec, err := a.storage.GetRecord(ctx, table, id)
	if err != nil {
		return err
	}
	if rec.Deleted {
		return ErrAlreadyDeleted
	}

	now := a.clientNow()
	rec.Deleted = true
	rec.UpdatedAt = now

	return a.storage.SaveLocalChange(ctx, rec, PendingOp{
		Table:           table,
		RecordID:        id,
		Operation:       sync.OpDelete,
		ClientTimestamp: now.UnixMilli(),
	})
}

// ListRecords пустое имя таблицы означает все таблицы
func (a *App) ListRecords(ctx context.Context, tableName string, showDeleted bool) ([]*LocalRecord, error) {
	var table entity.Table
	if tableName != "" {
		t, ok := entity.ParseTable(tableName)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTable, tableName)
		}
		table = t
	}
	return a.storage.ListRecords(ctx, table, showDeleted)
}

func (a *App) Sync(ctx context.Context) (*SyncResult, error) {
	if !a.IsInitialized() {
		return nil, ErrNotInitialized
	}
	return a.sync.Sync(ctx)
}

func (a *App) Push(ctx context.Context) (*PushReport, error) {
	if !a.IsInitialized() {
		return nil, ErrNotInitialized
	}
	return a.sync.Push(ctx)
}

func (a *App) Pull(ctx context.Context) (*PullReport, error) {
	if !a.IsInitialized() {
		return nil, ErrNotInitialized
	}
	return a.sync.Pull(ctx)
}

func (a *App) Status(ctx context.Context) (*SyncStatus, error) {
	return a.sync.Status(ctx)
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Close() error {
	return a.storage.Close()
}

func (a *App) schema(name string) (entity.Table, *entity.Schema, error) {
	table, ok := entity.ParseTable(name)
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	schema, err := a.catalog.Schema(table)
	if err != nil {
		return "", nil, err
	}
	return table, schema, nil
}

// clientNow время изменения в мс, как его передает протокол
func (a *App) clientNow() time.Time {
	return a.now().UTC().Truncate(time.Millisecond)
}

// buildFields проверяет изменение той же схемой, что и сервер
func buildFields(schema *entity.Schema, base, payload map[string]any) (map[string]any, error) {
	e, err := schema.Build(base, payload)
	if err != nil {
		return nil, err
	}
	return entity.Fields(e)
}

type appKey struct{}

// WithApp кладет приложение в контекст команды
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

// FromContext достает приложение, положенное WithApp
func FromContext(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey{}).(*App)
	if !ok || app == nil {
		return nil, fmt.Errorf("приложение не инициализировано")
	}
	return app, nil
}
