// Package client административный клиент HTTP API синхронизации.
package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"stortingsync/internal/app/client/config"
	"stortingsync/internal/domain/query"
	"stortingsync/internal/domain/run"
	"stortingsync/internal/domain/schedule"

	"golang.org/x/exp/slog"
)

// Health ответ /api/v1/health
type Health struct {
	Status  string          `json:"status"`
	Storage HealthComponent `json:"storage"`
	Journal HealthComponent `json:"journal"`
	Running int             `json:"running_workflows"`
}

// HealthComponent состояние хранилища или журнала
type HealthComponent struct {
	Backend string `json:"backend"`
	Durable bool   `json:"durable"`
	Status  string `json:"status"`
}

type App struct {
	config *config.Config
	log    *slog.Logger
	http   *httpClient
}

func New(cfg *config.Config, log *slog.Logger) *App {
	return &App{
		config: cfg,
		log:    log.With("component", "admin_client"),
		http:   newHTTPClient(cfg, log.With("component", "http_client")),
	}
}

// Server адрес сервера
func (a *App) Server() string {
	return a.config.Server
}

func (a *App) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := a.http.get(ctx, "/api/v1/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (a *App) Status(ctx context.Context) (*run.StatusReport, error) {
	var report run.StatusReport
	if err := a.http.get(ctx, "/api/v1/sync/status", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Runs история запусков, новые первыми
func (a *App) Runs(ctx context.Context, limit int) ([]*run.Run, error) {
	var runs []*run.Run
	if err := a.http.get(ctx, "/api/v1/sync/runs"+limitQuery(limit), &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// Run запуск по идентификатору workflow; "latest" для последнего
func (a *App) Run(ctx context.Context, workflowID string) (*run.Run, error) {
	var r run.Run
	if err := a.http.get(ctx, "/api/v1/sync/runs/"+url.PathEscape(workflowID), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (a *App) DeleteRuns(ctx context.Context, ids []int64) (int, error) {
	var out struct {
		Deleted int `json:"deleted"`
	}
	body := map[string][]int64{"ids": ids}
	if err := a.http.do(ctx, http.MethodPost, "/api/v1/sync/runs/delete", body, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (a *App) Start(ctx context.Context, force bool) (*run.StartResult, error) {
	var res run.StartResult
	body := map[string]bool{"force": force}
	if err := a.http.do(ctx, http.MethodPost, "/api/v1/sync/start", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *App) Cancel(ctx context.Context) (bool, error) {
	var out struct {
		Canceled bool `json:"canceled"`
	}
	if err := a.http.do(ctx, http.MethodPost, "/api/v1/sync/cancel", nil, &out); err != nil {
		return false, err
	}
	return out.Canceled, nil
}

func (a *App) Settings(ctx context.Context) (*schedule.Settings, error) {
	var s schedule.Settings
	if err := a.http.get(ctx, "/api/v1/sync/settings", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *App) SetNightly(ctx context.Context, enabled bool) (bool, error) {
	var out struct {
		Enabled bool `json:"enabled"`
	}
	body := map[string]bool{"enabled": enabled}
	if err := a.http.do(ctx, http.MethodPut, "/api/v1/sync/settings/nightly", body, &out); err != nil {
		return false, err
	}
	return out.Enabled, nil
}

func (a *App) SetRetention(ctx context.Context, days int) (int, error) {
	var out struct {
		Days int `json:"days"`
	}
	body := map[string]int{"days": days}
	if err := a.http.do(ctx, http.MethodPut, "/api/v1/sync/settings/retention", body, &out); err != nil {
		return 0, err
	}
	return out.Days, nil
}

func (a *App) Stats(ctx context.Context) (query.Stats, error) {
	var s query.Stats
	err := a.http.get(ctx, "/api/v1/stats", &s)
	return s, err
}

type contextKey struct{}

// WithApp кладет клиента в контекст команды
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, contextKey{}, app)
}

// FromContext клиент, положенный WithApp
func FromContext(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(contextKey{}).(*App)
	if !ok || app == nil {
		return nil, errors.New("client is not initialized")
	}
	return app, nil
}
