package sync

import (
	"context"

	"stortingsync/internal/domain/entity"
)

// Repository единственный писатель сущностей и кэша синхронизации.
// UpsertBatch обрабатывает пакет в одной транзакции.
type Repository interface {
	UpsertBatch(ctx context.Context, kind entity.Kind, items []Item) (Counts, error)
	CacheEntry(ctx context.Context, kind entity.Kind, externalID string) (*CacheEntry, error)
}

// Fetcher источник данных Stortinget
type Fetcher interface {
	FetchParties(ctx context.Context) ([]entity.Party, error)
	FetchHearings(ctx context.Context) ([]entity.Hearing, error)
	FetchCases(ctx context.Context) ([]entity.Case, error)
	FetchVotes(ctx context.Context, caseID string) ([]entity.Vote, error)
	FetchVoteProposals(ctx context.Context, voteID string) ([]entity.VoteProposal, error)
}
