package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/run"
	"stortingsync/internal/domain/schedule"
	"stortingsync/internal/domain/sync"
	"stortingsync/internal/domain/workflow"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Orchestrator запускает синхронизацию Stortinget как workflow и ведет
// по ней запись в истории запусков.
type Orchestrator struct {
	engine   *workflow.Engine
	syncer   sync.Servicer
	runs     Tracker
	settings SettingsLoader
	log      *slog.Logger
	config   *Config
	newID    func() string
}

// New регистрирует определение и обработчик завершения в движке
func New(engine *workflow.Engine, syncer sync.Servicer, runs Tracker, settings SettingsLoader, log *slog.Logger, config *Config) *Orchestrator {
	if config == nil {
		config = &Config{VoteParallelism: DefaultParallelism, ProposalParallelism: DefaultParallelism}
	}

	o := &Orchestrator{
		engine:   engine,
		syncer:   syncer,
		runs:     runs,
		settings: settings,
		log:      log.With("component", "sync_orchestrator"),
		config:   config,
		newID:    uuid.NewString,
	}
	engine.Define(WorkflowName, o.define)
	engine.OnComplete(o.complete)
	return o
}

// Start создает запуск и workflow, если нет активного запуска
func (o *Orchestrator) Start(ctx context.Context, trigger run.Trigger) (*run.StartResult, error) {
	id := o.newID()

	r, created, err := o.runs.Begin(ctx, id, trigger)
	if err != nil {
		return nil, err
	}
	if !created {
		o.log.Info("sync start skipped", "reason", run.ReasonAlreadyRunning, "trigger", trigger)
		return &run.StartResult{Reason: run.ReasonAlreadyRunning}, nil
	}

	if _, err := o.engine.Start(ctx, WorkflowName, id); err != nil {
		if _, ferr := o.runs.Finalize(ctx, id, run.StatusFailed, err.Error()); ferr != nil {
			o.log.Error("failed to finalize run after start error", "workflow_id", id, "error", ferr)
		}
		return nil, fmt.Errorf("start sync workflow: %w", err)
	}

	return &run.StartResult{Started: true, WorkflowID: id, RunID: r.ID}, nil
}

// CancelRunning запрашивает отмену workflow активного запуска
func (o *Orchestrator) CancelRunning(ctx context.Context) (bool, error) {
	active, err := o.runs.Active(ctx)
	if err != nil {
		return false, err
	}
	if active == nil {
		return false, nil
	}

	ok, err := o.engine.Cancel(ctx, active.WorkflowID)
	if errors.Is(err, workflow.ErrNotFound) {
		// состояния workflow нет, завершать запуск больше некому
		return o.runs.Finalize(ctx, active.WorkflowID, run.StatusCanceled, "canceled by request")
	}
	if err != nil {
		return false, fmt.Errorf("cancel workflow %s: %w", active.WorkflowID, err)
	}
	return ok, nil
}

func (o *Orchestrator) IsRunning(ctx context.Context) (bool, error) {
	active, err := o.runs.Active(ctx)
	if err != nil {
		return false, err
	}
	return active != nil, nil
}

// Resume продолжает незавершенные workflow и сверяет с ними активный запуск
func (o *Orchestrator) Resume(ctx context.Context) (int, error) {
	resumed, err := o.engine.Resume(ctx)
	if err != nil {
		return 0, err
	}

	active, err := o.runs.Active(ctx)
	if err != nil || active == nil {
		return resumed, err
	}

	inst, err := o.engine.Status(ctx, active.WorkflowID)
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		o.log.Warn("sync run has no workflow state, marking failed", "workflow_id", active.WorkflowID)
		_, err = o.runs.Finalize(ctx, active.WorkflowID, run.StatusFailed, "workflow state lost")
		return resumed, err
	case err != nil:
		return resumed, fmt.Errorf("get workflow %s: %w", active.WorkflowID, err)
	case inst.Status.Terminal():
		o.log.Warn("sync run left open after workflow finished", "workflow_id", inst.ID, "status", inst.Status)
		_, err = o.runs.Finalize(ctx, inst.ID, runStatus(inst.Status), inst.Error)
		return resumed, err
	}
	return resumed, nil
}

// define шаги синхронизации: партии, слушания, дела, затем голосования по
// каждому делу и предложения по каждому голосованию
func (o *Orchestrator) define(ctx context.Context, s *workflow.Scope) error {
	parties, err := workflow.Run(ctx, s, StepParties, o.syncer.SyncParties)
	if err != nil {
		return err
	}
	if err := o.record(ctx, s, StepParties, entity.KindParty, parties.Counts); err != nil {
		return err
	}

	hearings, err := workflow.Run(ctx, s, StepHearings, o.syncer.SyncHearings)
	if err != nil {
		return err
	}
	if err := o.record(ctx, s, StepHearings, entity.KindHearing, hearings.Counts); err != nil {
		return err
	}

	cases, err := workflow.Run(ctx, s, StepCases, o.syncer.SyncCases)
	if err != nil {
		return err
	}
	if err := o.record(ctx, s, StepCases, entity.KindCase, cases.Counts); err != nil {
		return err
	}

	votes, err := workflow.Map(ctx, s, StepVotes, cases.IDs, identity, o.config.VoteParallelism, o.syncer.SyncVotesForCase)
	if err != nil {
		return err
	}
	voteCounts, voteIDs := merge(votes)
	if err := o.record(ctx, s, StepVotes, entity.KindVote, voteCounts); err != nil {
		return err
	}

	proposals, err := workflow.Map(ctx, s, StepVoteProposals, voteIDs, identity, o.config.ProposalParallelism, o.syncer.SyncVoteProposals)
	if err != nil {
		return err
	}
	proposalCounts, _ := merge(proposals)
	return o.record(ctx, s, StepVoteProposals, entity.KindVoteProposal, proposalCounts)
}

// record пишет счетчики этапа в запуск отдельным шагом журнала
func (o *Orchestrator) record(ctx context.Context, s *workflow.Scope, step string, kind entity.Kind, counts sync.Counts) error {
	_, err := workflow.Run(ctx, s, step+recordSuffix, func(ctx context.Context) (sync.Counts, error) {
		return counts, o.runs.RecordCounts(ctx, s.WorkflowID(), kind, counts)
	})
	if err != nil {
		return err
	}

	s.Logger().Info("stage synced", "kind", kind,
		"added", counts.Added, "updated", counts.Updated, "skipped", counts.Skipped)
	return nil
}

func (o *Orchestrator) complete(ctx context.Context, inst *workflow.Instance) {
	if inst.Name != WorkflowName {
		return
	}
	log := o.log.With("workflow_id", inst.ID)

	if _, err := o.runs.Finalize(ctx, inst.ID, runStatus(inst.Status), inst.Error); err != nil {
		log.Error("failed to finalize sync run", "error", err)
	}

	settings, err := o.settings.Load(ctx, schedule.Settings{RetentionDays: schedule.DefaultRetentionDays})
	if err != nil {
		log.Error("failed to load retention setting", "error", err)
		return
	}
	if _, err := o.runs.Prune(ctx, settings.RetentionDays); err != nil {
		log.Error("sync run retention failed", "error", err)
	}
}

func runStatus(s workflow.Status) run.Status {
	switch s {
	case workflow.StatusSucceeded:
		return run.StatusSuccess
	case workflow.StatusCanceled:
		return run.StatusCanceled
	default:
		return run.StatusFailed
	}
}

// merge складывает счетчики и собирает уникальные ID в числовом порядке
func merge(summaries []sync.Summary) (sync.Counts, []string) {
	var total sync.Counts
	seen := make(map[string]struct{})
	var ids []string

	for _, s := range summaries {
		total = total.Add(s.Counts)
		for _, id := range s.IDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool {
		a, aerr := strconv.ParseInt(ids[i], 10, 64)
		b, berr := strconv.ParseInt(ids[j], 10, 64)
		if aerr != nil || berr != nil {
			return ids[i] < ids[j]
		}
		return a < b
	})
	return total, ids
}

func identity(id string) string {
	return id
}
