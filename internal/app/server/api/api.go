// GET  /api/v1/health      # Проверка доступности (публичный)
// GET  /sync/pull?since=   # Изменения после since (auth)
// POST /sync/batch         # Пакет операций (auth)
// POST /sync/{table}       # Одна операция над таблицей (auth)

package api

import (
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/exp/slog"

	"reptisync/internal/app/server/api/http/apierror"
	healthAPI "reptisync/internal/app/server/api/http/health"
	"reptisync/internal/app/server/api/http/middleware"
	"reptisync/internal/app/server/api/http/middleware/auth"
	"reptisync/internal/app/server/api/http/middleware/logger"
	"reptisync/internal/app/server/api/http/middleware/recoverer"
	"reptisync/internal/app/server/api/http/middleware/requestid"
	syncAPI "reptisync/internal/app/server/api/http/sync"
	"reptisync/internal/app/server/config"
	"reptisync/internal/domain/session"
	"reptisync/internal/domain/sync"
	"reptisync/internal/infrastructure/storage/sqlstore"
)

type Handlers struct {
	Health *healthAPI.Handler
	Sync   *syncAPI.Handler
}

// New создает *chi.Mux с ВСЕМИ операциями через huma.Register.
// Возвращаемая функция освобождает кеш сессий.
func New(store *sqlstore.Store, cfg *config.Config, log *slog.Logger) (*chi.Mux, func(), error) {
	apierror.Install()

	mux := chi.NewMux()
	mux.Use(chimw.RealIP)
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierror.WriteHTTP(w, apierror.NotFound(fmt.Sprintf("route %s %s not found", r.Method, r.URL.Path)))
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierror.WriteHTTP(w, apierror.New(http.StatusMethodNotAllowed, apierror.CodeInvalidRequest,
			fmt.Sprintf("method %s not allowed for %s", r.Method, r.URL.Path)))
	})

	humaConfig := huma.DefaultConfig("Reptisync API", "1.0.0")
	humaConfig.Info.Description = "Синхронизация данных о содержании рептилий между устройствами"
	// Без ссылки $schema в ответах: конверт ответа фиксирован
	humaConfig.CreateHooks = nil
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	h, closeFn, err := handlers(store, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	h.Health.SetupRoutes(API)
	h.Sync.SetupRoutes(API)

	return mux, closeFn, nil
}

func handlers(store *sqlstore.Store, cfg *config.Config, log *slog.Logger) (*Handlers, func(), error) {
	sessionService, err := session.NewService(store.Sessions(), log, &session.Config{
		TokenTTL:  cfg.Auth.TokenTTL,
		CacheTTL:  cfg.Auth.CacheTTL,
		CacheSize: cfg.Auth.CacheSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("session service: %w", err)
	}

	authMW := auth.New(sessionService, log)
	chain := baseChain(log)

	healthHandler := healthAPI.NewHandler(store, log, chain.With())

	syncService := sync.NewService(store.Registry(), store, log, &sync.Config{
		MaxBatchSize: cfg.Sync.MaxBatchSize,
	})
	syncHandler := syncAPI.NewHandler(syncService, log, chain.With(authMW.Middleware()), cfg.Server.MaxBodyBytes)

	return &Handlers{
		Health: healthHandler,
		Sync:   syncHandler,
	}, sessionService.Close, nil
}

// baseChain общие мидлвари всех маршрутов. Логгер стоит снаружи recoverer,
// чтобы запрос с паникой попал в журнал со статусом 500.
func baseChain(log *slog.Logger) *middleware.Chain {
	return middleware.NewChain(
		requestid.New().Middleware(),
		logger.New(log).Middleware(),
		recoverer.New(log).Middleware(),
	)
}
