package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("workflow instance not found")
	ErrStepNotFound    = errors.New("workflow step not found")
	ErrAlreadyExists   = errors.New("workflow instance already exists")
	ErrUnknownWorkflow = errors.New("unknown workflow definition")
	// ErrCanceled сигнал отмены между шагами, не ошибка выполнения
	ErrCanceled = errors.New("workflow cancellation requested")
)

// StepError шаг исчерпал попытки
type StepError struct {
	Step     string
	Attempts int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed after %d attempt(s): %v", e.Step, e.Attempts, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type permanent interface {
	Permanent() bool
}

func retryable(err error) bool {
	if errors.Is(err, ErrCanceled) {
		return false
	}
	var p permanent
	if errors.As(err, &p) && p.Permanent() {
		return false
	}
	return true
}
