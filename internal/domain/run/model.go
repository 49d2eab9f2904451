package run

import (
	"time"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/sync"
)

// Status статус запуска синхронизации
type Status string

const (
	StatusStarted  Status = "started"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCanceled
}

// Trigger источник запуска
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

// Stats счетчики added/updated/skipped по видам сущностей
type Stats struct {
	Party        sync.Counts `json:"party"`
	Hearing      sync.Counts `json:"hearing"`
	Case         sync.Counts `json:"case"`
	Vote         sync.Counts `json:"vote"`
	VoteProposal sync.Counts `json:"vote_proposal"`
}

// Get счетчики одного вида
func (s Stats) Get(kind entity.Kind) sync.Counts {
	switch kind {
	case entity.KindParty:
		return s.Party
	case entity.KindHearing:
		return s.Hearing
	case entity.KindCase:
		return s.Case
	case entity.KindVote:
		return s.Vote
	case entity.KindVoteProposal:
		return s.VoteProposal
	}
	return sync.Counts{}
}

// Set заменяет счетчики одного вида
func (s *Stats) Set(kind entity.Kind, c sync.Counts) {
	switch kind {
	case entity.KindParty:
		s.Party = c
	case entity.KindHearing:
		s.Hearing = c
	case entity.KindCase:
		s.Case = c
	case entity.KindVote:
		s.Vote = c
	case entity.KindVoteProposal:
		s.VoteProposal = c
	}
}

// Run одна строка истории синхронизаций
type Run struct {
	ID         int64      `json:"id"`
	WorkflowID string     `json:"workflow_id"`
	Trigger    Trigger    `json:"trigger"`
	Status     Status     `json:"status"`
	Message    string     `json:"message,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Stats      Stats      `json:"stats"`
}

// ServiceConfig конфигурация трекера
type ServiceConfig struct {
	DefaultLimit int
	MaxLimit     int
}
