package workflow

import (
	"context"
	"time"
)

// Journal долговременное хранилище состояния workflow
type Journal interface {
	Create(ctx context.Context, inst *Instance) error
	Get(ctx context.Context, id string) (*Instance, error)
	ListByStatus(ctx context.Context, status Status) ([]*Instance, error)
	// RequestCancel выставляет флаг отмены у незавершенного экземпляра
	RequestCancel(ctx context.Context, id string) (bool, error)
	// Finish переводит running-экземпляр в конечное состояние; false если он уже завершен
	Finish(ctx context.Context, id string, status Status, message string, at time.Time) (bool, error)
	Step(ctx context.Context, id, name string) (*StepRecord, error)
	Steps(ctx context.Context, id string) ([]*StepRecord, error)
	SaveStep(ctx context.Context, rec *StepRecord) error
	Delete(ctx context.Context, ids ...string) error
}
