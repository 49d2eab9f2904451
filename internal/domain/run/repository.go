package run

import (
	"context"
	"time"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/sync"
)

// Repository хранилище истории запусков
type Repository interface {
	// Begin создает запуск, если нет активного; false означает, что активный уже есть
	Begin(ctx context.Context, r *Run) (bool, error)
	RecordCounts(ctx context.Context, workflowID string, kind entity.Kind, counts sync.Counts) error
	// Finalize завершает запуск ровно один раз
	Finalize(ctx context.Context, workflowID string, status Status, message string, at time.Time) (bool, error)
	List(ctx context.Context, limit int) ([]*Run, error)
	Latest(ctx context.Context) (*Run, error)
	ByWorkflow(ctx context.Context, workflowID string) (*Run, error)
	Active(ctx context.Context) (*Run, error)
	FinishedBefore(ctx context.Context, cutoff time.Time) ([]*Run, error)
	// Delete удаляет завершенные запуски и возвращает их workflow ID
	Delete(ctx context.Context, ids []int64) ([]string, error)
}

// StateReleaser освобождает долговременное состояние workflow
type StateReleaser interface {
	Cleanup(ctx context.Context, workflowIDs ...string) error
}
