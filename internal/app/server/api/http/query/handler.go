package query

import (
	"context"
	"errors"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/query"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Handler публичное чтение синхронизированных данных
type Handler struct {
	service    query.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service query.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log.With("component", "query_handler"),
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listCasesOp(), h.listCases)
	huma.Register(api, h.getCaseOp(), h.getCase)
	huma.Register(api, h.listHearingsOp(), h.listHearings)
	huma.Register(api, h.listPartiesOp(), h.listParties)
	huma.Register(api, h.statsOp(), h.stats)
}

func (h *Handler) listCases(ctx context.Context, input *listCasesInput) (*listCasesOutput, error) {
	page, err := h.service.ListCases(ctx, query.CaseFilter{
		Type:   entity.CaseType(input.Type),
		Status: entity.CaseStatus(input.Status),
		Search: input.Search,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, h.fail("list cases", err)
	}
	return &listCasesOutput{Body: page}, nil
}

func (h *Handler) getCase(ctx context.Context, input *getCaseInput) (*getCaseOutput, error) {
	detail, err := h.service.GetCase(ctx, input.ID)
	if err != nil {
		return nil, h.fail("get case", err)
	}
	return &getCaseOutput{Body: detail}, nil
}

func (h *Handler) listHearings(ctx context.Context, input *listHearingsInput) (*listHearingsOutput, error) {
	f := query.HearingFilter{Limit: input.Limit, Offset: input.Offset}
	if input.Status > 0 {
		f.Status = &input.Status
	}
	if input.Type > 0 {
		f.Type = &input.Type
	}
	if !input.From.IsZero() {
		f.From = &input.From
	}
	if !input.To.IsZero() {
		f.To = &input.To
	}

	page, err := h.service.ListHearings(ctx, f)
	if err != nil {
		return nil, h.fail("list hearings", err)
	}
	return &listHearingsOutput{Body: page}, nil
}

func (h *Handler) listParties(ctx context.Context, input *listPartiesInput) (*listPartiesOutput, error) {
	parties, err := h.service.ListParties(ctx, query.PartyFilter{Name: input.Name})
	if err != nil {
		return nil, h.fail("list parties", err)
	}
	if parties == nil {
		parties = []entity.Party{}
	}
	return &listPartiesOutput{Body: parties}, nil
}

func (h *Handler) stats(ctx context.Context, _ *struct{}) (*statsOutput, error) {
	stats, err := h.service.Stats(ctx)
	if err != nil {
		return nil, h.fail("count entities", err)
	}
	return &statsOutput{Body: stats}, nil
}

func (h *Handler) fail(op string, err error) error {
	switch {
	case errors.Is(err, query.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, query.ErrInvalidFilter):
		return huma.Error400BadRequest(err.Error())
	}
	h.log.Error(op, "error", err)
	return huma.Error500InternalServerError(op + " failed")
}
