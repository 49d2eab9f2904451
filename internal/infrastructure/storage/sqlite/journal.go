// Package sqlite журнал workflow в локальном файле SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"stortingsync/internal/domain/workflow"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"
)

const instanceColumns = `id, name, status, error, cancel_requested, created_at, updated_at, finished_at`

const stepColumns = `workflow_id, name, status, attempts, result, error, started_at, finished_at`

type Journal struct {
	db  *sql.DB
	log *slog.Logger
}

// NewJournal открывает файл журнала и создает таблицы
func NewJournal(path string, log *slog.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite journal: %w", err)
	}
	// один писатель, параллельные шаги fan-out ждут своей очереди
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, log: log.With("component", "workflow_journal", "path", path)}
	if err := j.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite journal: %w", err)
	}
	return j, nil
}

func (j *Journal) initTables() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS workflow_instances (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			cancel_requested BOOLEAN NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_workflow_instances_status ON workflow_instances(status);

		CREATE TABLE IF NOT EXISTS workflow_steps (
			workflow_id TEXT NOT NULL REFERENCES workflow_instances(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			attempts INTEGER NOT NULL,
			result BLOB,
			error TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			PRIMARY KEY (workflow_id, name)
		);
	`)
	return err
}

func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Create(ctx context.Context, inst *workflow.Instance) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO workflow_instances (`+instanceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.ID, inst.Name, string(inst.Status), inst.Error, inst.CancelRequested,
		inst.CreatedAt.UTC(), inst.UpdatedAt.UTC(), nullTime(inst.FinishedAt))
	if isConstraint(err, sqlite3.ErrConstraintPrimaryKey) {
		return workflow.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create workflow instance: %w", err)
	}
	return nil
}

func (j *Journal) Get(ctx context.Context, id string) (*workflow.Instance, error) {
	inst, err := scanInstance(j.db.QueryRowContext(ctx,
		`SELECT `+instanceColumns+` FROM workflow_instances WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workflow.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow instance: %w", err)
	}
	return inst, nil
}

func (j *Journal) ListByStatus(ctx context.Context, status workflow.Status) ([]*workflow.Instance, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+instanceColumns+` FROM workflow_instances WHERE status = ? ORDER BY created_at`, string(status))
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

func (j *Journal) RequestCancel(ctx context.Context, id string) (bool, error) {
	res, err := j.db.ExecContext(ctx,
		`UPDATE workflow_instances SET cancel_requested = 1, updated_at = ?
		 WHERE id = ? AND status NOT IN (?, ?, ?)`,
		time.Now().UTC(), id,
		string(workflow.StatusSucceeded), string(workflow.StatusFailed), string(workflow.StatusCanceled))
	if err != nil {
		return false, fmt.Errorf("request cancel: %w", err)
	}
	return j.affected(ctx, res, id)
}

func (j *Journal) Finish(ctx context.Context, id string, status workflow.Status, message string, at time.Time) (bool, error) {
	res, err := j.db.ExecContext(ctx,
		`UPDATE workflow_instances SET status = ?, error = ?, updated_at = ?, finished_at = ?
		 WHERE id = ? AND status = ?`,
		string(status), message, at.UTC(), at.UTC(), id, string(workflow.StatusRunning))
	if err != nil {
		return false, fmt.Errorf("finish workflow instance: %w", err)
	}
	return j.affected(ctx, res, id)
}

// affected true если строка изменена; ErrNotFound если экземпляра нет
func (j *Journal) affected(ctx context.Context, res sql.Result, id string) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	if _, err := j.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (j *Journal) Step(ctx context.Context, id, name string) (*workflow.StepRecord, error) {
	rec, err := scanStep(j.db.QueryRowContext(ctx,
		`SELECT `+stepColumns+` FROM workflow_steps WHERE workflow_id = ? AND name = ?`, id, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workflow.ErrStepNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow step: %w", err)
	}
	return rec, nil
}

func (j *Journal) Steps(ctx context.Context, id string) ([]*workflow.StepRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT `+stepColumns+` FROM workflow_steps WHERE workflow_id = ? ORDER BY started_at, name`, id)
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

func (j *Journal) SaveStep(ctx context.Context, rec *workflow.StepRecord) error {
	var result []byte
	if len(rec.Result) > 0 {
		result = rec.Result
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO workflow_steps (`+stepColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (workflow_id, name) DO UPDATE SET
			status = excluded.status,
			attempts = excluded.attempts,
			result = excluded.result,
			error = excluded.error,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at`,
		rec.WorkflowID, rec.Name, string(rec.Status), rec.Attempts, result, rec.Error,
		rec.StartedAt.UTC(), rec.FinishedAt.UTC())
	if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
		return workflow.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("save workflow step: %w", err)
	}
	return nil
}

func (j *Journal) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := j.db.ExecContext(ctx,
		`DELETE FROM workflow_instances WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("delete workflow instances: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstance(row scanner) (*workflow.Instance, error) {
	var (
		inst     workflow.Instance
		status   string
		finished sql.NullTime
	)
	if err := row.Scan(&inst.ID, &inst.Name, &status, &inst.Error, &inst.CancelRequested,
		&inst.CreatedAt, &inst.UpdatedAt, &finished); err != nil {
		return nil, err
	}
	inst.Status = workflow.Status(status)
	if finished.Valid {
		at := finished.Time
		inst.FinishedAt = &at
	}
	return &inst, nil
}

func scanStep(row scanner) (*workflow.StepRecord, error) {
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
	if len(result) > 0 {
		rec.Result = result
	}
	return &rec, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == code
}
