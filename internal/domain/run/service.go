package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/sync"

	"golang.org/x/exp/slog"
)

// Servicer операции истории запусков для API
type Servicer interface {
	Status(ctx context.Context) (*StatusReport, error)
	List(ctx context.Context, limit int) ([]*Run, error)
	Latest(ctx context.Context) (*Run, error)
	ByWorkflow(ctx context.Context, workflowID string) (*Run, error)
	Delete(ctx context.Context, ids []int64) (int, error)
}

// Service трекер запусков синхронизации
type Service struct {
	repo     Repository
	releaser StateReleaser
	log      *slog.Logger
	config   *ServiceConfig
	now      func() time.Time
}

// NewService создает трекер запусков
func NewService(repo Repository, releaser StateReleaser, log *slog.Logger, config *ServiceConfig) *Service {
	if config == nil {
		config = &ServiceConfig{DefaultLimit: 20, MaxLimit: 100}
	}

	return &Service{
		repo:     repo,
		releaser: releaser,
		log:      log.With("component", "run_tracker"),
		config:   config,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Begin создает запуск для workflow; false если уже есть активный
func (s *Service) Begin(ctx context.Context, workflowID string, trigger Trigger) (*Run, bool, error) {
	r := &Run{
		WorkflowID: workflowID,
		Trigger:    trigger,
		Status:     StatusStarted,
		StartedAt:  s.now(),
	}

	created, err := s.repo.Begin(ctx, r)
	if err != nil {
		return nil, false, fmt.Errorf("begin sync run: %w", err)
	}
	if !created {
		return nil, false, nil
	}

	s.log.Info("sync run started", "run_id", r.ID, "workflow_id", workflowID, "trigger", trigger)
	return r, true, nil
}

// RecordCounts записывает счетчики одного вида сущностей
func (s *Service) RecordCounts(ctx context.Context, workflowID string, kind entity.Kind, counts sync.Counts) error {
	if err := s.repo.RecordCounts(ctx, workflowID, kind, counts); err != nil {
		return fmt.Errorf("record %s counts: %w", kind, err)
	}
	return nil
}

// Finalize выставляет конечный статус и время завершения
func (s *Service) Finalize(ctx context.Context, workflowID string, status Status, message string) (bool, error) {
	if !status.Terminal() {
		return false, fmt.Errorf("finalize with non-terminal status %q", status)
	}

	ok, err := s.repo.Finalize(ctx, workflowID, status, message, s.now())
	if err != nil {
		return false, fmt.Errorf("finalize sync run: %w", err)
	}
	if ok {
		s.log.Info("sync run finished", "workflow_id", workflowID, "status", status, "message", message)
	}
	return ok, nil
}

// Status текущий запуск, если есть, и последний
func (s *Service) Status(ctx context.Context) (*StatusReport, error) {
	report := &StatusReport{}

	current, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}
	report.Current = current
	report.Running = current != nil

	latest, err := s.repo.Latest(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("get latest sync run: %w", err)
	default:
		report.Latest = latest
	}

	return report, nil
}

// List последние запуски, новые первыми
func (s *Service) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	runs, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return runs, nil
}

// Latest последний запуск
func (s *Service) Latest(ctx context.Context) (*Run, error) {
	return s.repo.Latest(ctx)
}

// ByWorkflow запуск по ссылке на workflow
func (s *Service) ByWorkflow(ctx context.Context, workflowID string) (*Run, error) {
	return s.repo.ByWorkflow(ctx, workflowID)
}

// Active активный запуск или nil
func (s *Service) Active(ctx context.Context) (*Run, error) {
	r, err := s.repo.Active(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active sync run: %w", err)
	}
	return r, nil
}

// IsRunning есть ли активный запуск
func (s *Service) IsRunning(ctx context.Context) (bool, error) {
	r, err := s.Active(ctx)
	return r != nil, err
}

// Delete удаляет завершенные запуски и освобождает состояние их workflow.
// Активные запуски пропускаются.
func (s *Service) Delete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	workflowIDs, err := s.repo.Delete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete sync runs: %w", err)
	}
	if err := s.releaser.Cleanup(ctx, workflowIDs...); err != nil {
		return len(workflowIDs), fmt.Errorf("release workflow state: %w", err)
	}

	s.log.Info("sync runs deleted", "requested", len(ids), "deleted", len(workflowIDs))
	return len(workflowIDs), nil
}

// Prune удаляет запуски, завершенные раньше чем retentionDays дней назад
func (s *Service) Prune(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays < 1 {
		return 0, ErrInvalidRetention
	}

	cutoff := s.now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	old, err := s.repo.FinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find expired sync runs: %w", err)
	}
	if len(old) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(old))
	for i, r := range old {
		ids[i] = r.ID
	}

	n, err := s.Delete(ctx, ids)
	if err != nil {
		return n, err
	}
	s.log.Info("sync run retention applied", "retention_days", retentionDays, "cutoff", cutoff, "deleted", n)
	return n, nil
}
