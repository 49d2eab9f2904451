package pipeline

import (
	"context"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/run"
	"stortingsync/internal/domain/schedule"
	"stortingsync/internal/domain/sync"
)

// WorkflowName имя определения синхронизации Stortinget в движке
const WorkflowName = "stortinget-sync"

// Имена шагов. Шаги fan-out получают суффикс /<ID>.
const (
	StepParties        = "parties"
	StepHearings       = "hearings"
	StepCases          = "cases"
	StepVotes          = "votes"
	StepVoteProposals  = "vote-proposals"
	recordSuffix       = "/record"
	DefaultParallelism = 16
)

// Config параллелизм fan-out; 0 снимает ограничение
type Config struct {
	VoteParallelism     int
	ProposalParallelism int
}

// Tracker трекер запусков
type Tracker interface {
	Begin(ctx context.Context, workflowID string, trigger run.Trigger) (*run.Run, bool, error)
	RecordCounts(ctx context.Context, workflowID string, kind entity.Kind, counts sync.Counts) error
	Finalize(ctx context.Context, workflowID string, status run.Status, message string) (bool, error)
	Active(ctx context.Context) (*run.Run, error)
	Prune(ctx context.Context, retentionDays int) (int, error)
}

// SettingsLoader источник срока хранения истории
type SettingsLoader interface {
	Load(ctx context.Context, defaults schedule.Settings) (*schedule.Settings, error)
}
