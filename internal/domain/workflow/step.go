package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"stortingsync/internal/metrics"

	"github.com/goccy/go-json"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

// Scope контекст выполнения одного экземпляра
type Scope struct {
	engine   *Engine
	id       string
	log      *slog.Logger
	canceled atomic.Bool
}

func (s *Scope) WorkflowID() string {
	return s.id
}

func (s *Scope) Logger() *slog.Logger {
	return s.log
}

func (s *Scope) checkCancel(ctx context.Context) error {
	if s.canceled.Load() {
		return ErrCanceled
	}
	inst, err := s.engine.journal.Get(ctx, s.id)
	if err != nil {
		return fmt.Errorf("check cancellation: %w", err)
	}
	if inst.CancelRequested {
		s.canceled.Store(true)
		return ErrCanceled
	}
	return nil
}

type stepConfig struct {
	retry bool
}

// StepOption настройка шага
type StepOption func(*stepConfig)

// NoRetry чистый шаг без повторов
func NoRetry() StepOption {
	return func(c *stepConfig) { c.retry = false }
}

// Run выполняет шаг с журналированием. Завершенный ранее шаг не
// выполняется повторно: возвращается сохраненный результат. Перед новым
// шагом проверяется запрос отмены.
func Run[T any](ctx context.Context, s *Scope, name string, fn func(context.Context) (T, error), opts ...StepOption) (T, error) {
	var zero T
	e := s.engine

	rec, err := e.journal.Step(ctx, s.id, name)
	switch {
	case err == nil && rec.Status == StepCompleted:
		var out T
		if len(rec.Result) > 0 {
			if err := json.Unmarshal(rec.Result, &out); err != nil {
				return zero, fmt.Errorf("decode result of step %s: %w", name, err)
			}
		}
		return out, nil
	case err != nil && !errors.Is(err, ErrStepNotFound):
		return zero, fmt.Errorf("load step %s: %w", name, err)
	}

	if err := s.checkCancel(ctx); err != nil {
		return zero, err
	}

	cfg := stepConfig{retry: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	started := e.now()
	out, attempts, err := attempt(ctx, s, name, cfg, fn)
	metrics.StepDuration.WithLabelValues(metrics.StepLabel(name)).Observe(time.Since(started).Seconds())

	rec = &StepRecord{
		WorkflowID: s.id,
		Name:       name,
		Attempts:   attempts,
		StartedAt:  started,
		FinishedAt: e.now(),
	}

	if err != nil {
		if ctx.Err() != nil {
			return zero, err
		}
		rec.Status = StepFailed
		rec.Error = err.Error()
		if serr := e.journal.SaveStep(ctx, rec); serr != nil {
			s.log.Error("failed to record step failure", "step", name, "error", serr)
		}
		return zero, &StepError{Step: name, Attempts: attempts, Err: err}
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return zero, fmt.Errorf("encode result of step %s: %w", name, err)
	}
	rec.Status = StepCompleted
	rec.Result = raw
	if err := e.journal.SaveStep(ctx, rec); err != nil {
		return zero, fmt.Errorf("persist step %s: %w", name, err)
	}

	s.log.Debug("step completed", "step", name, "attempts", attempts)
	return out, nil
}

// Map параллельно выполняет по шагу на элемент и ждет все.
// Имя шага: prefix/key(item). parallelism <= 0 снимает ограничение.
func Map[In, Out any](
	ctx context.Context,
	s *Scope,
	prefix string,
	items []In,
	key func(In) string,
	parallelism int,
	fn func(context.Context, In) (Out, error),
	opts ...StepOption,
) ([]Out, error) {
	results := make([]Out, len(items))

	// контекст детей отменяется только при сбое шага: запрос отмены не
	// прерывает уже начатые шаги, а еще не начатые отсекает Scope.canceled
	cctx, abort := context.WithCancel(ctx)
	defer abort()

	var g errgroup.Group
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	for i, item := range items {
		g.Go(func() error {
			out, err := Run(cctx, s, prefix+"/"+key(item), func(ctx context.Context) (Out, error) {
				return fn(ctx, item)
			}, opts...)
			if err != nil {
				if !errors.Is(err, ErrCanceled) {
					abort()
				}
				return err
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func attempt[T any](ctx context.Context, s *Scope, name string, cfg stepConfig, fn func(context.Context) (T, error)) (T, int, error) {
	var zero T
	e := s.engine

	maxAttempts := e.policy.MaxAttempts
	if !cfg.retry {
		maxAttempts = 1
	}

	for n := 1; ; n++ {
		out, err := fn(ctx)
		if err == nil {
			return out, n, nil
		}
		if n >= maxAttempts || !retryable(err) || ctx.Err() != nil {
			return zero, n, err
		}

		delay := e.policy.Backoff(n)
		metrics.StepRetries.WithLabelValues(metrics.StepLabel(name)).Inc()
		s.log.Warn("step failed, retrying",
			"step", name, "attempt", n, "max_attempts", maxAttempts, "delay", delay, "error", err)

		if err := e.sleep(ctx, delay); err != nil {
			return zero, n, err
		}
	}
}
