package workflow

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"stortingsync/internal/metrics"

	"golang.org/x/exp/slog"
)

// Engine исполняет определения workflow и ведет их журнал.
// Один процесс ведет экземпляр; после рестарта Resume подхватывает
// незавершенные экземпляры с последнего сохраненного шага.
type Engine struct {
	journal Journal
	log     *slog.Logger
	policy  RetryPolicy
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time

	mu         sync.Mutex
	defs       map[string]Definition
	active     map[string]struct{}
	onComplete CompletionFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option настройка движка
type Option func(*Engine)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithSleep подменяет ожидание между попытками
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) { e.sleep = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(e *Engine) { e.now = fn }
}

// NewEngine создает движок workflow
func NewEngine(journal Journal, log *slog.Logger, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		journal: journal,
		log:     log.With("component", "workflow_engine"),
		policy:  DefaultRetryPolicy(),
		sleep:   sleepContext,
		now:     func() time.Time { return time.Now().UTC() },
		defs:    make(map[string]Definition),
		active:  make(map[string]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.policy.MaxAttempts < 1 {
		e.policy.MaxAttempts = 1
	}
	return e
}

// Define регистрирует определение workflow под именем
func (e *Engine) Define(name string, def Definition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defs[name] = def
}

// OnComplete задает обработчик завершения
func (e *Engine) OnComplete(fn CompletionFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onComplete = fn
}

// Start создает экземпляр в журнале и запускает его в фоне
func (e *Engine) Start(ctx context.Context, name, id string) (*Instance, error) {
	def, err := e.definition(name)
	if err != nil {
		return nil, err
	}

	now := e.now()
	inst := &Instance{
		ID:        id,
		Name:      name,
		Status:    StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.journal.Create(ctx, inst); err != nil {
		return nil, fmt.Errorf("create workflow instance: %w", err)
	}

	e.launch(inst, def)
	return inst, nil
}

// Resume запускает все экземпляры, оставшиеся в состоянии running
func (e *Engine) Resume(ctx context.Context) (int, error) {
	instances, err := e.journal.ListByStatus(ctx, StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("list running workflows: %w", err)
	}

	resumed := 0
	for _, inst := range instances {
		def, err := e.definition(inst.Name)
		if err != nil {
			e.log.Warn("skipping workflow without definition", "workflow_id", inst.ID, "workflow", inst.Name)
			continue
		}
		if e.launch(inst, def) {
			e.log.Info("workflow resumed", "workflow_id", inst.ID, "workflow", inst.Name)
			resumed++
		}
	}
	return resumed, nil
}

// Cancel запрашивает отмену; она вступает в силу перед следующим шагом
func (e *Engine) Cancel(ctx context.Context, id string) (bool, error) {
	inst, err := e.journal.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if inst.Status.Terminal() {
		return false, nil
	}

	ok, err := e.journal.RequestCancel(ctx, id)
	if err != nil {
		return false, fmt.Errorf("request cancel: %w", err)
	}
	if ok {
		e.log.Info("workflow cancellation requested", "workflow_id", id)
	}
	return ok, nil
}

// Status возвращает экземпляр из журнала
func (e *Engine) Status(ctx context.Context, id string) (*Instance, error) {
	return e.journal.Get(ctx, id)
}

// Steps возвращает записанные шаги экземпляра
func (e *Engine) Steps(ctx context.Context, id string) ([]*StepRecord, error) {
	return e.journal.Steps(ctx, id)
}

// Cleanup удаляет состояние экземпляров вместе с шагами
func (e *Engine) Cleanup(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := e.journal.Delete(ctx, ids...); err != nil {
		return fmt.Errorf("delete workflow state: %w", err)
	}
	return nil
}

// Running число экземпляров, которые ведет этот процесс
func (e *Engine) Running() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// Wait ждет завершения всех запущенных экземпляров
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close прерывает выполнение. Экземпляры остаются running в журнале
// и будут продолжены через Resume.
func (e *Engine) Close() {
	e.cancel()
	e.wg.Wait()
}

func (e *Engine) definition(name string) (Definition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	def, ok := e.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkflow, name)
	}
	return def, nil
}

func (e *Engine) launch(inst *Instance, def Definition) bool {
	e.mu.Lock()
	if _, ok := e.active[inst.ID]; ok {
		e.mu.Unlock()
		return false
	}
	e.active[inst.ID] = struct{}{}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer func() {
			e.mu.Lock()
			delete(e.active, inst.ID)
			e.mu.Unlock()
		}()
		e.drive(inst, def)
	}()
	return true
}

func (e *Engine) drive(inst *Instance, def Definition) {
	ctx := e.ctx
	log := e.log.With("workflow_id", inst.ID, "workflow", inst.Name)
	log.Info("workflow running")

	scope := &Scope{engine: e, id: inst.ID, log: log}
	err := runDefinition(ctx, def, scope)

	if ctx.Err() != nil {
		log.Warn("workflow interrupted, will resume on restart", "error", err)
		return
	}

	status, message := StatusSucceeded, ""
	switch {
	case err == nil:
	case errors.Is(err, ErrCanceled):
		status, message = StatusCanceled, "canceled by request"
	default:
		status, message = StatusFailed, err.Error()
	}

	finished, err := e.journal.Finish(ctx, inst.ID, status, message, e.now())
	if err != nil {
		log.Error("failed to finish workflow", "status", status, "error", err)
		return
	}
	if !finished {
		log.Debug("workflow already finished")
		return
	}

	metrics.WorkflowsFinished.WithLabelValues(string(status)).Inc()
	log.Info("workflow finished", "status", status, "message", message)

	e.mu.Lock()
	onComplete := e.onComplete
	e.mu.Unlock()
	if onComplete == nil {
		return
	}

	final, err := e.journal.Get(ctx, inst.ID)
	if err != nil {
		log.Error("failed to load finished workflow", "error", err)
		return
	}
	onComplete(ctx, final)
}

func runDefinition(ctx context.Context, def Definition, s *Scope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("workflow panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("workflow panic: %v", r)
		}
	}()
	return def(ctx, s)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
