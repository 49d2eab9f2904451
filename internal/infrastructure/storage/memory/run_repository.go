package memory

import (
	"context"
	"sort"
	"time"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/run"
	syncdomain "stortingsync/internal/domain/sync"
)

// RunRepository история запусков синхронизации
type RunRepository struct {
	store *Store
}

func NewRunRepository(store *Store) *RunRepository {
	return &RunRepository{store: store}
}

func (r *RunRepository) Begin(ctx context.Context, rn *run.Run) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.runs {
		if existing.Status == run.StatusStarted {
			return false, nil
		}
	}

	s.nextRunID++
	rn.ID = s.nextRunID
	s.runs[rn.ID] = cloneRun(rn)
	return true, nil
}

func (r *RunRepository) RecordCounts(ctx context.Context, workflowID string, kind entity.Kind, counts syncdomain.Counts) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rn := s.runByWorkflow(workflowID)
	if rn == nil {
		return run.ErrNotFound
	}
	rn.Stats.Set(kind, counts)
	return nil
}

func (r *RunRepository) Finalize(ctx context.Context, workflowID string, status run.Status, message string, at time.Time) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rn := s.runByWorkflow(workflowID)
	if rn == nil {
		return false, run.ErrNotFound
	}
	if rn.Status.Terminal() {
		return false, nil
	}
	rn.Status = status
	rn.Message = message
	rn.FinishedAt = &at
	return true, nil
}

func (r *RunRepository) List(ctx context.Context, limit int) ([]*run.Run, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := s.sortedRuns()
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (r *RunRepository) Latest(ctx context.Context) (*run.Run, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	runs := s.sortedRuns()
	if len(runs) == 0 {
		return nil, run.ErrNotFound
	}
	return runs[0], nil
}

func (r *RunRepository) ByWorkflow(ctx context.Context, workflowID string) (*run.Run, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rn := s.runByWorkflow(workflowID)
	if rn == nil {
		return nil, run.ErrNotFound
	}
	return cloneRun(rn), nil
}

func (r *RunRepository) Active(ctx context.Context) (*run.Run, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rn := range s.sortedRuns() {
		if rn.Status == run.StatusStarted {
			return rn, nil
		}
	}
	return nil, run.ErrNotFound
}

func (r *RunRepository) FinishedBefore(ctx context.Context, cutoff time.Time) ([]*run.Run, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*run.Run
	for _, rn := range s.sortedRuns() {
		if rn.FinishedAt != nil && rn.FinishedAt.Before(cutoff) {
			out = append(out, rn)
		}
	}
	return out, nil
}

func (r *RunRepository) Delete(ctx context.Context, ids []int64) ([]string, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var workflowIDs []string
	for _, id := range ids {
		rn, ok := s.runs[id]
		if !ok || rn.Status == run.StatusStarted {
			continue
		}
		delete(s.runs, id)
		workflowIDs = append(workflowIDs, rn.WorkflowID)
	}
	return workflowIDs, nil
}

func (s *Store) runByWorkflow(workflowID string) *run.Run {
	for _, rn := range s.runs {
		if rn.WorkflowID == workflowID {
			return rn
		}
	}
	return nil
}

// sortedRuns копии запусков, новые первыми
func (s *Store) sortedRuns() []*run.Run {
	out := make([]*run.Run, 0, len(s.runs))
	for _, rn := range s.runs {
		out = append(out, cloneRun(rn))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func cloneRun(rn *run.Run) *run.Run {
	c := *rn
	if rn.FinishedAt != nil {
		at := *rn.FinishedAt
		c.FinishedAt = &at
	}
	return &c
}
