// Публичное чтение:
//GET  /api/v1/health
//GET  /api/v1/cases, /api/v1/cases/{id}
//GET  /api/v1/hearings, /api/v1/parties, /api/v1/stats
//GET  /metrics
// Администрирование (bearer):
//GET  /api/v1/sync/status, /api/v1/sync/runs...
//POST /api/v1/sync/start, /api/v1/sync/cancel, /api/v1/sync/runs/delete
//GET|PUT /api/v1/sync/settings/...

package api

import (
	healthAPI "stortingsync/internal/app/server/api/http/health"
	"stortingsync/internal/app/server/api/http/middleware"
	"stortingsync/internal/app/server/api/http/middleware/auth"
	"stortingsync/internal/app/server/api/http/middleware/logger"
	queryAPI "stortingsync/internal/app/server/api/http/query"
	syncAPI "stortingsync/internal/app/server/api/http/sync"
	"stortingsync/internal/domain/query"
	"stortingsync/internal/domain/run"
	"stortingsync/internal/domain/schedule"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"
)

// Deps сервисы, которые публикует API
type Deps struct {
	// Storage и Journal без имени считаются памятью
	Storage        healthAPI.Backend
	Journal        healthAPI.Backend
	Engine         healthAPI.Engine
	Runs           run.Servicer
	Schedule       schedule.Servicer
	Query          query.Servicer
	AdminTokenHash string
}

type Handlers struct {
	Health *healthAPI.Handler
	Query  *queryAPI.Handler
	Sync   *syncAPI.Handler
}

// New создает *chi.Mux с ВСЕМИ операциями через huma.Register
func New(deps Deps, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()
	mux.Handle("/metrics", promhttp.Handler())

	config := huma.DefaultConfig("Stortinget Sync API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, config)

	h := handlers(API, deps, log)
	h.Health.SetupRoutes(API)
	h.Query.SetupRoutes(API)
	h.Sync.SetupRoutes(API)

	return mux
}

func handlers(api huma.API, deps Deps, log *slog.Logger) *Handlers {
	authMW := auth.New(api, deps.AdminTokenHash, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(deps.Storage, deps.Journal, deps.Engine, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	queryHandler := queryAPI.NewHandler(deps.Query, log, middlewares.GetAllAndClear())

	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	syncHandler := syncAPI.NewHandler(deps.Runs, deps.Schedule, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health: healthHandler,
		Query:  queryHandler,
		Sync:   syncHandler,
	}
}
