package workflow

import (
	"context"
	"encoding/json"
	"time"
)

// Status состояние экземпляра workflow
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusRunning    Status = "running"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

// Terminal true для конечных состояний
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// Instance экземпляр workflow в журнале
type Instance struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Status          Status     `json:"status"`
	Error           string     `json:"error,omitempty"`
	CancelRequested bool       `json:"cancel_requested"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

// StepStatus состояние шага
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// StepRecord запись о шаге. Result хранит результат завершенного шага,
// который возвращается без повторного выполнения при возобновлении.
type StepRecord struct {
	WorkflowID string          `json:"workflow_id"`
	Name       string          `json:"name"`
	Status     StepStatus      `json:"status"`
	Attempts   int             `json:"attempts"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// Definition тело workflow. Должно быть детерминированным относительно
// результатов шагов: при возобновлении оно выполняется заново, а
// завершенные шаги возвращают сохраненные результаты.
type Definition func(ctx context.Context, s *Scope) error

// CompletionFunc вызывается один раз после перехода в конечное состояние
type CompletionFunc func(ctx context.Context, inst *Instance)

// RetryPolicy экспоненциальная задержка между попытками шага
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy 5 попыток, паузы 1s, 2s, 4s, 8s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: time.Second,
		Multiplier:     2,
	}
}

// Backoff пауза после неудачной попытки номер attempt (с единицы)
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := float64(p.InitialBackoff)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
	}
	backoff := time.Duration(d)
	if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
		return p.MaxBackoff
	}
	return backoff
}
