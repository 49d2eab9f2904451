package query

import (
	"context"
	"fmt"
	"strings"

	"stortingsync/internal/domain/entity"

	"golang.org/x/exp/slog"
)

// Servicer интерфейс чтения для слоя представления
type Servicer interface {
	ListCases(ctx context.Context, f CaseFilter) (*Page[CaseSummary], error)
	GetCase(ctx context.Context, id int64) (*CaseDetail, error)
	ListHearings(ctx context.Context, f HearingFilter) (*Page[entity.Hearing], error)
	ListParties(ctx context.Context, f PartyFilter) ([]entity.Party, error)
	Stats(ctx context.Context) (Stats, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "query_service"),
	}
}

// ListCases дела, новые по last_updated_at первыми
func (s *Service) ListCases(ctx context.Context, f CaseFilter) (*Page[CaseSummary], error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, fmt.Errorf("%w: case type %q", ErrInvalidFilter, f.Type)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: case status %q", ErrInvalidFilter, f.Status)
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Limit, f.Offset = paginate(f.Limit, f.Offset)

	items, total, err := s.repo.ListCases(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return &Page[CaseSummary]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// GetCase дело с голосованиями
func (s *Service) GetCase(ctx context.Context, id int64) (*CaseDetail, error) {
	c, err := s.repo.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}

	votes, err := s.repo.VotesByCase(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list votes of case %d: %w", id, err)
	}
	if votes == nil {
		votes = []entity.Vote{}
	}
	return &CaseDetail{Case: *c, Votes: votes}, nil
}

// ListHearings слушания, новые по дате начала первыми
func (s *Service) ListHearings(ctx context.Context, f HearingFilter) (*Page[entity.Hearing], error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, fmt.Errorf("%w: empty date range", ErrInvalidFilter)
	}
	f.Limit, f.Offset = paginate(f.Limit, f.Offset)

	items, total, err := s.repo.ListHearings(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list hearings: %w", err)
	}
	return &Page[entity.Hearing]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (s *Service) ListParties(ctx context.Context, f PartyFilter) ([]entity.Party, error) {
	f.Name = strings.TrimSpace(f.Name)
	parties, err := s.repo.ListParties(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	return parties, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count entities: %w", err)
	}
	return stats, nil
}

func paginate(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
