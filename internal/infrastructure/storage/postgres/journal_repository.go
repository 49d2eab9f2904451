package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stortingsync/internal/domain/workflow"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

const instanceColumns = `id, name, status, error, cancel_requested, created_at, updated_at, finished_at`

const stepColumns = `workflow_id, name, status, attempts, result, error, started_at, finished_at`

// JournalRepository журнал workflow в workflow_instances и workflow_steps
type JournalRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewJournalRepository(pool *pgxpool.Pool, log *slog.Logger) *JournalRepository {
	return &JournalRepository{
		pool: pool,
		log:  log.With("component", "workflow_journal"),
	}
}

func (j *JournalRepository) Create(ctx context.Context, inst *workflow.Instance) error {
	_, err := j.pool.Exec(ctx,
		`INSERT INTO workflow_instances (`+instanceColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		inst.ID, inst.Name, string(inst.Status), inst.Error, inst.CancelRequested, inst.CreatedAt, inst.UpdatedAt, inst.FinishedAt)
	if pgCode(err) == codeUniqueViolation {
		return workflow.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create workflow instance: %w", err)
	}
	return nil
}

func (j *JournalRepository) Get(ctx context.Context, id string) (*workflow.Instance, error) {
	inst, err := scanInstance(j.pool.QueryRow(ctx,
		`SELECT `+instanceColumns+` FROM workflow_instances WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow instance: %w", err)
	}
	return inst, nil
}

func (j *JournalRepository) ListByStatus(ctx context.Context, status workflow.Status) ([]*workflow.Instance, error) {
	rows, err := j.pool.Query(ctx,
		`SELECT `+instanceColumns+` FROM workflow_instances WHERE status = $1 ORDER BY created_at`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list workflow instances: %w", err)
	}
	defer rows.Close()

	var out []*workflow.Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workflow instance: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func (j *JournalRepository) RequestCancel(ctx context.Context, id string) (bool, error) {
	tag, err := j.pool.Exec(ctx,
		`UPDATE workflow_instances SET cancel_requested = TRUE, updated_at = $2
		 WHERE id = $1 AND status NOT IN ($3, $4, $5)`,
		id, time.Now().UTC(),
		string(workflow.StatusSucceeded), string(workflow.StatusFailed), string(workflow.StatusCanceled))
	if err != nil {
		return false, fmt.Errorf("request cancel: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := j.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// Finish условный переход running -> конечное состояние
func (j *JournalRepository) Finish(ctx context.Context, id string, status workflow.Status, message string, at time.Time) (bool, error) {
	tag, err := j.pool.Exec(ctx,
		`UPDATE workflow_instances SET status = $2, error = $3, updated_at = $4, finished_at = $4
		 WHERE id = $1 AND status = $5`,
		id, string(status), message, at, string(workflow.StatusRunning))
	if err != nil {
		return false, fmt.Errorf("finish workflow instance: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := j.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (j *JournalRepository) Step(ctx context.Context, id, name string) (*workflow.StepRecord, error) {
	rec, err := scanStep(j.pool.QueryRow(ctx,
		`SELECT `+stepColumns+` FROM workflow_steps WHERE workflow_id = $1 AND name = $2`, id, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.ErrStepNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow step: %w", err)
	}
	return rec, nil
}

func (j *JournalRepository) Steps(ctx context.Context, id string) ([]*workflow.StepRecord, error) {
	rows, err := j.pool.Query(ctx,
		`SELECT `+stepColumns+` FROM workflow_steps WHERE workflow_id = $1 ORDER BY started_at, name`, id)
	if err != nil {
		return nil, fmt.Errorf("list workflow steps: %w", err)
	}
	defer rows.Close()

	out := make([]*workflow.StepRecord, 0)
	for rows.Next() {
		rec, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workflow step: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (j *JournalRepository) SaveStep(ctx context.Context, rec *workflow.StepRecord) error {
	var result []byte
	if len(rec.Result) > 0 {
		result = rec.Result
	}
	_, err := j.pool.Exec(ctx,
		`INSERT INTO workflow_steps (`+stepColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (workflow_id, name) DO UPDATE SET
			status = EXCLUDED.status,
			attempts = EXCLUDED.attempts,
			result = EXCLUDED.result,
			error = EXCLUDED.error,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at`,
		rec.WorkflowID, rec.Name, string(rec.Status), rec.Attempts, result, rec.Error, rec.StartedAt, rec.FinishedAt)
	if pgCode(err) == codeForeignKeyViolation {
		return workflow.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("save workflow step: %w", err)
	}
	return nil
}

// Delete удаляет экземпляры вместе с шагами (ON DELETE CASCADE)
func (j *JournalRepository) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := j.pool.Exec(ctx, `DELETE FROM workflow_instances WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete workflow instances: %w", err)
	}
	return nil
}

func scanInstance(row pgx.Row) (*workflow.Instance, error) {
	var (
		inst   workflow.Instance
		status string
	)
	if err := row.Scan(&inst.ID, &inst.Name, &status, &inst.Error, &inst.CancelRequested,
		&inst.CreatedAt, &inst.UpdatedAt, &inst.FinishedAt); err != nil {
		return nil, err
	}
	inst.Status = workflow.Status(status)
	return &inst, nil
}

func scanStep(row pgx.Row) (*workflow.StepRecord, error) {
	var (
		rec    workflow.StepRecord
		status string
		result []byte
	)
	if err := row.Scan(&rec.WorkflowID, &rec.Name, &status, &rec.Attempts, &result, &rec.Error,
		&rec.StartedAt, &rec.FinishedAt); err != nil {
		return nil, err
	}
	rec.Status = workflow.StepStatus(status)
	if result != nil {
		rec.Result = result
	}
	return &rec, nil
}
