package sync

import (
	"context"
	"errors"
	"testing"

	"stortingsync/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchParties(ctx context.Context) ([]entity.Party, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Party), args.Error(1)
}

func (m *MockFetcher) FetchHearings(ctx context.Context) ([]entity.Hearing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Hearing), args.Error(1)
}

func (m *MockFetcher) FetchCases(ctx context.Context) ([]entity.Case, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Case), args.Error(1)
}

func (m *MockFetcher) FetchVotes(ctx context.Context, caseID string) ([]entity.Vote, error) {
	args := m.Called(ctx, caseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Vote), args.Error(1)
}

func (m *MockFetcher) FetchVoteProposals(ctx context.Context, voteID string) ([]entity.VoteProposal, error) {
	args := m.Called(ctx, voteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.VoteProposal), args.Error(1)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) UpsertBatch(ctx context.Context, kind entity.Kind, items []Item) (Counts, error) {
	args := m.Called(ctx, kind, items)
	return args.Get(0).(Counts), args.Error(1)
}

func (m *MockRepository) CacheEntry(ctx context.Context, kind entity.Kind, externalID string) (*CacheEntry, error) {
	args := m.Called(ctx, kind, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CacheEntry), args.Error(1)
}

func TestService_SyncParties(t *testing.T) {
	fetcher := new(MockFetcher)
	repo := new(MockRepository)
	svc := NewService(fetcher, repo, slog.Default(), nil)
	ctx := context.Background()

	parties := []entity.Party{
		{ID: "A", Name: "Arbeiderpartiet", Represented: true},
		{ID: "H", Name: "Høyre", Represented: true},
	}
	fetcher.On("FetchParties", ctx).Return(parties, nil)
	repo.On("UpsertBatch", ctx, entity.KindParty, mock.MatchedBy(func(items []Item) bool {
		return len(items) == 2 && items[0].ExternalID == "A" && len(items[0].Checksum) == 64
	})).Return(Counts{Added: 1, Skipped: 1}, nil)

	summary, err := svc.SyncParties(ctx)

	require.NoError(t, err)
	assert.Equal(t, Counts{Added: 1, Skipped: 1}, summary.Counts)
	assert.Equal(t, []string{"A", "H"}, summary.IDs)
	fetcher.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestService_SyncCases_ChunksBatches(t *testing.T) {
	fetcher := new(MockFetcher)
	repo := new(MockRepository)
	svc := NewService(fetcher, repo, slog.Default(), &ServiceConfig{BatchSize: 2})
	ctx := context.Background()

	cases := []entity.Case{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}}
	fetcher.On("FetchCases", ctx).Return(cases, nil)
	repo.On("UpsertBatch", ctx, entity.KindCase, mock.MatchedBy(func(items []Item) bool { return len(items) == 2 })).
		Return(Counts{Skipped: 2}, nil).Twice()
	repo.On("UpsertBatch", ctx, entity.KindCase, mock.MatchedBy(func(items []Item) bool { return len(items) == 1 })).
		Return(Counts{Updated: 1}, nil).Once()

	summary, err := svc.SyncCases(ctx)

	require.NoError(t, err)
	assert.Equal(t, Counts{Updated: 1, Skipped: 4}, summary.Counts)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, summary.IDs)
	repo.AssertNumberOfCalls(t, "UpsertBatch", 3)
}

func TestService_SyncVotesForCase_ReturnsAllIDs(t *testing.T) {
	fetcher := new(MockFetcher)
	repo := new(MockRepository)
	svc := NewService(fetcher, repo, slog.Default(), nil)
	ctx := context.Background()

	votes := []entity.Vote{{ID: 10, CaseID: 5}, {ID: 11, CaseID: 5}, {ID: 10, CaseID: 5}}
	fetcher.On("FetchVotes", ctx, "5").Return(votes, nil)
	repo.On("UpsertBatch", ctx, entity.KindVote, mock.Anything).Return(Counts{Skipped: 3}, nil)

	summary, err := svc.SyncVotesForCase(ctx, "5")

	require.NoError(t, err)
	assert.Equal(t, []string{"10", "11"}, summary.IDs)
	assert.Equal(t, 3, summary.Counts.Skipped)
}

func TestService_SyncVoteProposals_Empty(t *testing.T) {
	fetcher := new(MockFetcher)
	repo := new(MockRepository)
	svc := NewService(fetcher, repo, slog.Default(), nil)
	ctx := context.Background()

	fetcher.On("FetchVoteProposals", ctx, "7").Return([]entity.VoteProposal{}, nil)

	summary, err := svc.SyncVoteProposals(ctx, "7")

	require.NoError(t, err)
	assert.Equal(t, Counts{}, summary.Counts)
	assert.Empty(t, summary.IDs)
	repo.AssertNotCalled(t, "UpsertBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch error", func(t *testing.T) {
		fetcher := new(MockFetcher)
		repo := new(MockRepository)
		svc := NewService(fetcher, repo, slog.Default(), nil)
		upstream := errors.New("boom")
		fetcher.On("FetchHearings", ctx).Return(nil, upstream)

		_, err := svc.SyncHearings(ctx)

		require.Error(t, err)
		assert.ErrorIs(t, err, upstream)
	})

	t.Run("conflict propagates", func(t *testing.T) {
		fetcher := new(MockFetcher)
		repo := new(MockRepository)
		svc := NewService(fetcher, repo, slog.Default(), nil)
		fetcher.On("FetchParties", ctx).Return([]entity.Party{{ID: "A"}}, nil)
		repo.On("UpsertBatch", ctx, entity.KindParty, mock.Anything).
			Return(Counts{}, &ConflictError{Kind: entity.KindParty, ExternalID: "A", Reason: "entity row missing"})

		_, err := svc.SyncParties(ctx)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStorageConflict)
	})

	t.Run("empty external id", func(t *testing.T) {
		fetcher := new(MockFetcher)
		repo := new(MockRepository)
		svc := NewService(fetcher, repo, slog.Default(), nil)
		fetcher.On("FetchParties", ctx).Return([]entity.Party{{Name: "Uten ID"}}, nil)

		_, err := svc.SyncParties(ctx)

		assert.ErrorIs(t, err, ErrEmptyExternalID)
	})
}
