package memory

import (
	"context"
	"sort"
	"time"

	"stortingsync/internal/domain/workflow"
)

// Journal журнал workflow в памяти. Состояние не переживает рестарт
// процесса, поэтому Resume после рестарта работает только с postgres или sqlite.
type Journal struct {
	store *Store
}

func NewJournal(store *Store) *Journal {
	return &Journal{store: store}
}

func (j *Journal) Create(ctx context.Context, inst *workflow.Instance) error {
	s := j.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.instances[inst.ID]; ok {
		return workflow.ErrAlreadyExists
	}
	c := cloneInstance(inst)
	s.instances[inst.ID] = c
	s.steps[inst.ID] = make(map[string]*workflow.StepRecord)
	return nil
}

func (j *Journal) Get(ctx context.Context, id string) (*workflow.Instance, error) {
	s := j.store
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[id]
	if !ok {
		return nil, workflow.ErrNotFound
	}
	return cloneInstance(inst), nil
}

func (j *Journal) ListByStatus(ctx context.Context, status workflow.Status) ([]*workflow.Instance, error) {
	s := j.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*workflow.Instance
	for _, inst := range s.instances {
		if inst.Status == status {
			out = append(out, cloneInstance(inst))
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

func (j *Journal) RequestCancel(ctx context.Context, id string) (bool, error) {
	s := j.store
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[id]
	if !ok {
		return false, workflow.ErrNotFound
	}
	if inst.Status.Terminal() {
		return false, nil
	}
	inst.CancelRequested = true
	inst.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (j *Journal) Finish(ctx context.Context, id string, status workflow.Status, message string, at time.Time) (bool, error) {
	s := j.store
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.instances[id]
	if !ok {
		return false, workflow.ErrNotFound
	}
	if inst.Status != workflow.StatusRunning {
		return false, nil
	}
	inst.Status = status
	inst.Error = message
	inst.UpdatedAt = at
	inst.FinishedAt = &at
	return true, nil
}

func (j *Journal) Step(ctx context.Context, id, name string) (*workflow.StepRecord, error) {
	s := j.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.steps[id][name]
	if !ok {
		return nil, workflow.ErrStepNotFound
	}
	return cloneStep(rec), nil
}

func (j *Journal) Steps(ctx context.Context, id string) ([]*workflow.StepRecord, error) {
	s := j.store
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*workflow.StepRecord, 0, len(s.steps[id]))
	for _, rec := range s.steps[id] {
		out = append(out, cloneStep(rec))
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].StartedAt.Equal(out[k].StartedAt) {
			return out[i].Name < out[k].Name
		}
		return out[i].StartedAt.Before(out[k].StartedAt)
	})
	return out, nil
}

func (j *Journal) SaveStep(ctx context.Context, rec *workflow.StepRecord) error {
	s := j.store
	s.mu.Lock()
	defer s.mu.Unlock()

	steps, ok := s.steps[rec.WorkflowID]
	if !ok {
		return workflow.ErrNotFound
	}
	steps[rec.Name] = cloneStep(rec)
	return nil
}

func (j *Journal) Delete(ctx context.Context, ids ...string) error {
	s := j.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.instances, id)
		delete(s.steps, id)
	}
	return nil
}

// Instances число экземпляров в журнале
func (j *Journal) Instances() int {
	s := j.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.instances)
}

func cloneInstance(inst *workflow.Instance) *workflow.Instance {
	c := *inst
	if inst.FinishedAt != nil {
		at := *inst.FinishedAt
		c.FinishedAt = &at
	}
	return &c
}

func cloneStep(rec *workflow.StepRecord) *workflow.StepRecord {
	c := *rec
	if rec.Result != nil {
		c.Result = append([]byte(nil), rec.Result...)
	}
	return &c
}
