package query

import (
	"time"

	"stortingsync/internal/domain/entity"
)

// CaseFilter фильтр списка дел. Пустые поля не ограничивают выборку.
type CaseFilter struct {
	Type   entity.CaseType
	Status entity.CaseStatus
	Search string
	Limit  int
	Offset int
}

// HearingFilter фильтр списка слушаний
type HearingFilter struct {
	Status *int
	Type   *int
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// PartyFilter фильтр по подстроке имени
type PartyFilter struct {
	Name string
}

// CaseSummary дело со счетчиком голосований
type CaseSummary struct {
	entity.Case
	VoteCount int `json:"vote_count"`
}

// CaseDetail дело и его голосования
type CaseDetail struct {
	Case  entity.Case   `json:"case"`
	Votes []entity.Vote `json:"votes"`
}

// Page страница выборки
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Stats число записей по видам сущностей
type Stats struct {
	Parties       int `json:"parties"`
	Hearings      int `json:"hearings"`
	Cases         int `json:"cases"`
	Votes         int `json:"votes"`
	VoteProposals int `json:"vote_proposals"`
}

const (
	DefaultLimit = 50
	MaxLimit     = 200
)
