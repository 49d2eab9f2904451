package server

import (
	"context"
	"fmt"

	"stortingsync/internal/app/server/api/http/health"
	"stortingsync/internal/config"
	"stortingsync/internal/domain/query"
	"stortingsync/internal/domain/run"
	"stortingsync/internal/domain/schedule"
	syncdomain "stortingsync/internal/domain/sync"
	"stortingsync/internal/domain/workflow"
	"stortingsync/internal/infrastructure/storage/memory"
	"stortingsync/internal/infrastructure/storage/postgres"
	"stortingsync/internal/infrastructure/storage/sqlite"

	"golang.org/x/exp/slog"
)

// backend репозитории выбранного хранилища и журнал workflow
type backend struct {
	sync     syncdomain.Repository
	runs     run.Repository
	settings schedule.Repository
	query    query.Repository
	journal  workflow.Journal
	// health выбранные хранилища для /api/v1/health
	storageHealth health.Backend
	journalHealth health.Backend
	closers       []func() error
}

func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backend, error) {
	b := &backend{}
	var pg *postgres.Storage

	if cfg.MemoryStorage() {
		log.Warn("DATABASE_URI is memory://, synced data is lost on exit")
		store := memory.New()
		b.sync = memory.NewSyncRepository(store)
		b.runs = memory.NewRunRepository(store)
		b.settings = memory.NewSettingsRepository(store)
		b.query = memory.NewQueryRepository(store)
		b.journal = memory.NewJournal(store)
		b.storageHealth = health.Backend{Name: health.BackendMemory}
		b.journalHealth = health.Backend{Name: health.BackendMemory}
	} else {
		var err error
		pg, err = postgres.New(ctx, cfg.DB.DatabaseURI)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		b.closers = append(b.closers, pg.Close)
		pool := pg.Pool()
		b.sync = postgres.NewSyncRepository(pool, log)
		b.runs = postgres.NewRunRepository(pool, log)
		b.settings = postgres.NewSettingsRepository(pool, log)
		b.query = postgres.NewQueryRepository(pool, log)
		b.storageHealth = health.Backend{Name: health.BackendPostgres, Pinger: pg}
	}

	if err := b.openJournal(cfg, pg, log); err != nil {
		b.close(log)
		return nil, err
	}
	return b, nil
}

// openJournal заменяет журнал по умолчанию, если выбран другой
func (b *backend) openJournal(cfg *config.Config, pg *postgres.Storage, log *slog.Logger) error {
	if path, ok := cfg.SQLiteJournal(); ok {
		j, err := sqlite.NewJournal(path, log)
		if err != nil {
			return fmt.Errorf("open sqlite journal: %w", err)
		}
		b.closers = append(b.closers, j.Close)
		b.journal = j
		b.journalHealth = health.Backend{Name: health.BackendSQLite, Pinger: j}
		log.Info("workflow journal", "backend", "sqlite", "path", path)
		return nil
	}

	switch {
	case cfg.Workflow.Journal == config.JournalMemory:
		if pg != nil {
			b.journal = memory.NewJournal(memory.New())
		}
		b.journalHealth = health.Backend{Name: health.BackendMemory}
		log.Warn("workflow journal is in memory, unfinished syncs are not resumed after restart")
	case pg != nil:
		b.journal = postgres.NewJournalRepository(pg.Pool(), log)
		b.journalHealth = health.Backend{Name: health.BackendPostgres, Pinger: pg}
		log.Info("workflow journal", "backend", "postgres")
	default:
		log.Warn("postgres journal requested with memory storage, using memory journal")
	}
	return nil
}

func (b *backend) close(log *slog.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}
	b.closers = nil
}
