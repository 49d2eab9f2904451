// Package server собирает процесс синхронизации: хранилище, движок
// workflow, расписание и HTTP API под деревом suture.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stortingsync/internal/app/server/api"
	"stortingsync/internal/config"
	"stortingsync/internal/domain/pipeline"
	"stortingsync/internal/domain/query"
	"stortingsync/internal/domain/run"
	"stortingsync/internal/domain/schedule"
	syncdomain "stortingsync/internal/domain/sync"
	"stortingsync/internal/domain/workflow"
	"stortingsync/internal/infrastructure/scheduler"
	"stortingsync/internal/infrastructure/stortinget"
	"stortingsync/internal/supervisor"

	"golang.org/x/exp/slog"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	cfg *config.Config
	log *slog.Logger

	backend      *backend
	engine       *workflow.Engine
	cron         *scheduler.Cron
	runs         *run.Service
	schedule     *schedule.Service
	orchestrator *pipeline.Orchestrator
	router       http.Handler
}

// New открывает хранилище и связывает сервисы. Фоновые процессы
// стартуют только в Serve.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	client, err := stortinget.New(stortinget.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
		RPS:     cfg.Upstream.RPS,
	}, log)
	if err != nil {
		b.close(log)
		return nil, fmt.Errorf("create stortinget client: %w", err)
	}

	cron, err := scheduler.New(cfg.Sync.CronTZ, log)
	if err != nil {
		b.close(log)
		return nil, err
	}

	engine := workflow.NewEngine(b.journal, log, workflow.WithRetryPolicy(workflow.RetryPolicy{
		MaxAttempts:    cfg.Sync.RetryAttempts,
		InitialBackoff: cfg.Sync.RetryBackoff,
		Multiplier:     2,
	}))

	syncer := syncdomain.NewService(client, b.sync, log, &syncdomain.ServiceConfig{BatchSize: cfg.Sync.BatchSize})
	runs := run.NewService(b.runs, engine, log, &run.ServiceConfig{DefaultLimit: 20, MaxLimit: 100})
	orchestrator := pipeline.New(engine, syncer, runs, b.settings, log, &pipeline.Config{
		VoteParallelism:     cfg.Sync.VoteParallelism,
		ProposalParallelism: cfg.Sync.ProposalParallelism,
	})
	sched := schedule.NewService(b.settings, cron, orchestrator, log, &schedule.ServiceConfig{
		Cron:                 cfg.Sync.Cron,
		Timezone:             cfg.Sync.CronTZ,
		DefaultRetentionDays: cfg.Sync.RetentionDays,
	})

	router := api.New(api.Deps{
		Storage:        b.storageHealth,
		Journal:        b.journalHealth,
		Engine:         engine,
		Runs:           runs,
		Schedule:       sched,
		Query:          query.NewService(b.query, log),
		AdminTokenHash: cfg.Admin.TokenHash,
	}, log)

	return &App{
		cfg:          cfg,
		log:          log.With("component", "app"),
		backend:      b,
		engine:       engine,
		cron:         cron,
		runs:         runs,
		schedule:     sched,
		orchestrator: orchestrator,
		router:       router,
	}, nil
}

// Router HTTP API приложения
func (a *App) Router() http.Handler {
	return a.router
}

// Serve продолжает прерванные синхронизации, восстанавливает расписание
// и держит сервисы до отмены ctx
func (a *App) Serve(ctx context.Context) error {
	if err := a.restore(ctx); err != nil {
		return err
	}

	tree := supervisor.NewTree(a.log, supervisor.TreeConfig{ShutdownTimeout: shutdownTimeout})
	tree.AddBackground(supervisor.NewEngineService(a.engine))
	tree.AddBackground(a.cron)
	tree.AddAPI(supervisor.NewHTTPService(&http.Server{
		Addr:              a.cfg.Server.RunAddress,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}, shutdownTimeout))

	a.log.Info("server started", "address", a.cfg.Server.RunAddress, "env", a.cfg.Env)
	err := tree.Serve(ctx)
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		a.log.Error("services did not stop in time", "count", len(report))
	}
	if ctx.Err() != nil {
		err = nil
	}
	a.log.Info("server stopped")
	return err
}

func (a *App) restore(ctx context.Context) error {
	resumed, err := a.orchestrator.Resume(ctx)
	if err != nil {
		return fmt.Errorf("resume workflows: %w", err)
	}
	if resumed > 0 {
		a.log.Info("unfinished syncs resumed", "count", resumed)
	}
	if err := a.schedule.Restore(ctx); err != nil {
		return fmt.Errorf("restore schedule: %w", err)
	}
	return nil
}

// RunOnce продолжает прерванные синхронизации, запускает новую и ждет
// завершения всех экземпляров
func (a *App) RunOnce(ctx context.Context) (*run.Run, error) {
	if _, err := a.orchestrator.Resume(ctx); err != nil {
		return nil, fmt.Errorf("resume workflows: %w", err)
	}

	res, err := a.orchestrator.Start(ctx, run.TriggerManual)
	if err != nil {
		return nil, err
	}
	if !res.Started {
		return nil, fmt.Errorf("sync not started: %s", res.Reason)
	}

	done := make(chan struct{})
	go func() {
		a.engine.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.engine.Close()
		return nil, ctx.Err()
	}

	return a.runs.ByWorkflow(ctx, res.WorkflowID)
}

func (a *App) Close() {
	a.engine.Close()
	a.backend.close(a.log)
}
