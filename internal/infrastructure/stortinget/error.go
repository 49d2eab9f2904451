package stortinget

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaViolation ответ не соответствует ожидаемой схеме или содержит неизвестный код
	ErrSchemaViolation = errors.New("schema violation")
	// ErrTransient таймауты, обрывы соединения и ответы 5xx/429
	ErrTransient = errors.New("transient network error")
)

// StatusError неуспешный HTTP-ответ Stortinget
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("stortinget %s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Is относит 5xx и 429 к временным ошибкам
func (e *StatusError) Is(target error) bool {
	if target != ErrTransient {
		return false
	}
	return e.StatusCode >= 500 || e.StatusCode == 429
}

func schemaViolation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaViolation, fmt.Sprintf(format, args...))
}
