package sync

import (
	"context"
	"errors"

	"stortingsync/internal/app/server/api/http/middleware/auth"
	"stortingsync/internal/domain/run"
	"stortingsync/internal/domain/schedule"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Handler административные операции синхронизации
type Handler struct {
	runs       run.Servicer
	schedule   schedule.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(runs run.Servicer, schedule schedule.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		runs:       runs,
		schedule:   schedule,
		log:        log.With("component", "sync_handler"),
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.statusOp(), h.status)
	huma.Register(api, h.listRunsOp(), h.listRuns)
	huma.Register(api, h.latestRunOp(), h.latestRun)
	huma.Register(api, h.runByWorkflowOp(), h.runByWorkflow)
	huma.Register(api, h.deleteRunsOp(), h.deleteRuns)
	huma.Register(api, h.startOp(), h.start)
	huma.Register(api, h.cancelOp(), h.cancel)
	huma.Register(api, h.runningOp(), h.running)
	huma.Register(api, h.settingsOp(), h.settings)
	huma.Register(api, h.getNightlyOp(), h.getNightly)
	huma.Register(api, h.toggleNightlyOp(), h.toggleNightly)
	huma.Register(api, h.getRetentionOp(), h.getRetention)
	huma.Register(api, h.updateRetentionOp(), h.updateRetention)
}

func (h *Handler) status(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	report, err := h.runs.Status(ctx)
	if err != nil {
		return nil, h.fail("get sync status", err)
	}
	return &statusOutput{Body: report}, nil
}

func (h *Handler) listRuns(ctx context.Context, input *listRunsInput) (*listRunsOutput, error) {
	runs, err := h.runs.List(ctx, input.Limit)
	if err != nil {
		return nil, h.fail("list sync runs", err)
	}
	return &listRunsOutput{Body: runs}, nil
}

func (h *Handler) latestRun(ctx context.Context, _ *struct{}) (*runOutput, error) {
	r, err := h.runs.Latest(ctx)
	if err != nil {
		return nil, h.fail("get latest sync run", err)
	}
	return &runOutput{Body: r}, nil
}

func (h *Handler) runByWorkflow(ctx context.Context, input *runByWorkflowInput) (*runOutput, error) {
	r, err := h.runs.ByWorkflow(ctx, input.WorkflowID)
	if err != nil {
		return nil, h.fail("get sync run", err)
	}
	return &runOutput{Body: r}, nil
}

func (h *Handler) deleteRuns(ctx context.Context, input *deleteRunsInput) (*deleteRunsOutput, error) {
	n, err := h.runs.Delete(ctx, input.Body.IDs)
	if err != nil {
		return nil, h.fail("delete sync runs", err)
	}
	out := &deleteRunsOutput{}
	out.Body.Deleted = n
	return out, nil
}

func (h *Handler) start(ctx context.Context, input *startInput) (*startOutput, error) {
	force := input.Body != nil && input.Body.Force
	res, err := h.schedule.StartWorkflow(ctx, force)
	if err != nil {
		return nil, h.fail("start sync", err)
	}
	h.log.Info("sync start requested", "actor", auth.Actor(ctx), "force", force, "started", res.Started, "reason", res.Reason)
	return &startOutput{Body: res}, nil
}

func (h *Handler) cancel(ctx context.Context, _ *struct{}) (*cancelOutput, error) {
	canceled, err := h.schedule.CancelRunningSync(ctx)
	if err != nil {
		return nil, h.fail("cancel sync", err)
	}
	h.log.Info("sync cancel requested", "actor", auth.Actor(ctx), "canceled", canceled)
	out := &cancelOutput{}
	out.Body.Canceled = canceled
	return out, nil
}

func (h *Handler) running(ctx context.Context, _ *struct{}) (*runningOutput, error) {
	running, err := h.schedule.IsSyncRunning(ctx)
	if err != nil {
		return nil, h.fail("check running sync", err)
	}
	out := &runningOutput{}
	out.Body.Running = running
	return out, nil
}

func (h *Handler) settings(ctx context.Context, _ *struct{}) (*settingsOutput, error) {
	s, err := h.schedule.Settings(ctx)
	if err != nil {
		return nil, h.fail("get sync settings", err)
	}
	return &settingsOutput{Body: s}, nil
}

func (h *Handler) getNightly(ctx context.Context, _ *struct{}) (*nightlyOutput, error) {
	enabled, err := h.schedule.GetNightlySyncEnabled(ctx)
	if err != nil {
		return nil, h.fail("get nightly sync", err)
	}
	return &nightlyOutput{Body: nightly{Enabled: enabled}}, nil
}

func (h *Handler) toggleNightly(ctx context.Context, input *toggleNightlyInput) (*nightlyOutput, error) {
	s, err := h.schedule.ToggleNightlySync(ctx, input.Body.Enabled, auth.Actor(ctx))
	if err != nil {
		return nil, h.fail("toggle nightly sync", err)
	}
	return &nightlyOutput{Body: nightly{Enabled: s.NightlySyncEnabled}}, nil
}

func (h *Handler) getRetention(ctx context.Context, _ *struct{}) (*retentionOutput, error) {
	days, err := h.schedule.GetRetentionDays(ctx)
	if err != nil {
		return nil, h.fail("get retention", err)
	}
	return &retentionOutput{Body: retention{Days: days}}, nil
}

func (h *Handler) updateRetention(ctx context.Context, input *updateRetentionInput) (*retentionOutput, error) {
	s, err := h.schedule.UpdateRetentionDays(ctx, input.Body.Days, auth.Actor(ctx))
	if err != nil {
		return nil, h.fail("update retention", err)
	}
	return &retentionOutput{Body: retention{Days: s.RetentionDays}}, nil
}

// fail переводит доменные ошибки в ответы huma
func (h *Handler) fail(op string, err error) error {
	switch {
	case errors.Is(err, run.ErrNotFound):
		return huma.Error404NotFound("sync run not found")
	case errors.Is(err, schedule.ErrInvalidRetention), errors.Is(err, run.ErrInvalidRetention):
		return huma.Error422UnprocessableEntity(err.Error())
	}
	h.log.Error(op, "error", err)
	return huma.Error500InternalServerError(op + " failed")
}
