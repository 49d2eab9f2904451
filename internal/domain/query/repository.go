package query

import (
	"context"

	"stortingsync/internal/domain/entity"
)

// Repository чтение таблиц сущностей
type Repository interface {
	ListCases(ctx context.Context, f CaseFilter) ([]CaseSummary, int, error)
	GetCase(ctx context.Context, id int64) (*entity.Case, error)
	VotesByCase(ctx context.Context, caseID int64) ([]entity.Vote, error)
	ListHearings(ctx context.Context, f HearingFilter) ([]entity.Hearing, int, error)
	ListParties(ctx context.Context, f PartyFilter) ([]entity.Party, error)
	Stats(ctx context.Context) (Stats, error)
}
