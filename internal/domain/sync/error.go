package sync

import (
	"errors"
	"fmt"

	"stortingsync/internal/domain/entity"
)

var (
	ErrStorageConflict = errors.New("storage conflict")
	ErrEmptyExternalID = errors.New("record has empty external id")
	ErrCacheMiss       = errors.New("sync cache entry not found")
)

// ConflictError нарушение инварианта кэш/сущность при записи.
// При разбиении по делам и голосованиям такого быть не должно, поэтому
// повторять шаг бессмысленно.
type ConflictError struct {
	Kind       entity.Kind
	ExternalID string
	Reason     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("storage conflict: %s %s: %s", e.Kind, e.ExternalID, e.Reason)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrStorageConflict
}

// Permanent помечает ошибку как неповторяемую для движка workflow
func (e *ConflictError) Permanent() bool {
	return true
}
