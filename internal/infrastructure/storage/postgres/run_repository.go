package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/run"
	syncdomain "stortingsync/internal/domain/sync"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

// runLockKey ключ advisory-блокировки, сериализующей Begin
const runLockKey int64 = 0x73796e63

const runColumns = `id, workflow_id, trigger, status, message, started_at, finished_at, stats`

// RunRepository история запусков синхронизации
type RunRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewRunRepository(pool *pgxpool.Pool, log *slog.Logger) *RunRepository {
	return &RunRepository{
		pool: pool,
		log:  log.With("component", "run_repository"),
	}
}

// Begin создает запуск, если нет активного. Проверка и вставка
// выполняются под транзакционной advisory-блокировкой.
func (r *RunRepository) Begin(ctx context.Context, rn *run.Run) (bool, error) {
	stats, err := json.Marshal(rn.Stats)
	if err != nil {
		return false, fmt.Errorf("encode run stats: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, fmt.Errorf("begin run: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, runLockKey); err != nil {
		return false, fmt.Errorf("lock sync runs: %w", err)
	}

	var active bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sync_runs WHERE status = $1)`, string(run.StatusStarted)).Scan(&active); err != nil {
		return false, fmt.Errorf("check active run: %w", err)
	}
	if active {
		return false, nil
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO sync_runs (workflow_id, trigger, status, message, started_at, stats)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		rn.WorkflowID, string(rn.Trigger), string(rn.Status), rn.Message, rn.StartedAt, stats).Scan(&rn.ID)
	if err != nil {
		if pgCode(err) == codeUniqueViolation && constraintName(err) == "sync_runs_single_started_idx" {
			return false, nil
		}
		return false, fmt.Errorf("insert run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit run: %w", err)
	}
	return true, nil
}

// RecordCounts заменяет счетчики одного вида, не трогая остальные
func (r *RunRepository) RecordCounts(ctx context.Context, workflowID string, kind entity.Kind, counts syncdomain.Counts) error {
	data, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE sync_runs SET stats = jsonb_set(stats, $2::text[], $3::jsonb, true) WHERE workflow_id = $1`,
		workflowID, []string{string(kind)}, data)
	if err != nil {
		return fmt.Errorf("record counts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return run.ErrNotFound
	}
	return nil
}

func (r *RunRepository) Finalize(ctx context.Context, workflowID string, status run.Status, message string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sync_runs SET status = $2, message = $3, finished_at = $4
		 WHERE workflow_id = $1 AND status = $5`,
		workflowID, string(status), message, at, string(run.StatusStarted))
	if err != nil {
		return false, fmt.Errorf("finalize run: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := r.ByWorkflow(ctx, workflowID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *RunRepository) List(ctx context.Context, limit int) ([]*run.Run, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	return r.query(ctx,
		`SELECT `+runColumns+` FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT $1`, lim)
}

func (r *RunRepository) Latest(ctx context.Context) (*run.Run, error) {
	return r.one(ctx, `SELECT `+runColumns+` FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT 1`)
}

func (r *RunRepository) ByWorkflow(ctx context.Context, workflowID string) (*run.Run, error) {
	return r.one(ctx, `SELECT `+runColumns+` FROM sync_runs WHERE workflow_id = $1`, workflowID)
}

func (r *RunRepository) Active(ctx context.Context) (*run.Run, error) {
	return r.one(ctx, `SELECT `+runColumns+` FROM sync_runs WHERE status = $1 LIMIT 1`, string(run.StatusStarted))
}

func (r *RunRepository) FinishedBefore(ctx context.Context, cutoff time.Time) ([]*run.Run, error) {
	return r.query(ctx,
		`SELECT `+runColumns+` FROM sync_runs
		 WHERE finished_at IS NOT NULL AND finished_at < $1
		 ORDER BY started_at DESC, id DESC`, cutoff)
}

// Delete удаляет завершенные запуски; активный запуск пропускается
func (r *RunRepository) Delete(ctx context.Context, ids []int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`DELETE FROM sync_runs WHERE id = ANY($1) AND status <> $2 RETURNING workflow_id`,
		ids, string(run.StatusStarted))
	if err != nil {
		return nil, fmt.Errorf("delete runs: %w", err)
	}
	workflowIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("delete runs: %w", err)
	}
	return workflowIDs, nil
}

func (r *RunRepository) one(ctx context.Context, sql string, args ...any) (*run.Run, error) {
	rn, err := scanRun(r.pool.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, run.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return rn, nil
}

func (r *RunRepository) query(ctx context.Context, sql string, args ...any) ([]*run.Run, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*run.Run, 0)
	for rows.Next() {
		rn, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, rn)
	}
	return runs, rows.Err()
}

func scanRun(row pgx.Row) (*run.Run, error) {
	var (
		rn      run.Run
		trigger string
		status  string
		stats   []byte
	)
	if err := row.Scan(&rn.ID, &rn.WorkflowID, &trigger, &status, &rn.Message, &rn.StartedAt, &rn.FinishedAt, &stats); err != nil {
		return nil, err
	}
	rn.Trigger = run.Trigger(trigger)
	rn.Status = run.Status(status)
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &rn.Stats); err != nil {
			return nil, fmt.Errorf("decode run stats: %w", err)
		}
	}
	rn.StartedAt = rn.StartedAt.UTC()
	if rn.FinishedAt != nil {
		at := rn.FinishedAt.UTC()
		rn.FinishedAt = &at
	}
	return &rn, nil
}
