package sync

import (
	"context"
	"fmt"
	"time"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/metrics"

	"golang.org/x/exp/slog"
)

// Servicer интерфейс сервиса синхронизации сущностей
type Servicer interface {
	SyncParties(ctx context.Context) (Summary, error)
	SyncHearings(ctx context.Context) (Summary, error)
	SyncCases(ctx context.Context) (Summary, error)
	SyncVotesForCase(ctx context.Context, caseID string) (Summary, error)
	SyncVoteProposals(ctx context.Context, voteID string) (Summary, error)
}

// Service выполняет цепочку fetch -> checksum -> batch upsert для каждого вида сущностей
type Service struct {
	fetcher Fetcher
	repo    Repository
	log     *slog.Logger
	config  *ServiceConfig
}

// NewService создает новый сервис синхронизации
func NewService(fetcher Fetcher, repo Repository, log *slog.Logger, config *ServiceConfig) *Service {
	if config == nil {
		config = &ServiceConfig{BatchSize: DefaultBatchSize}
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}

	return &Service{
		fetcher: fetcher,
		repo:    repo,
		log:     log.With("component", "sync_service"),
		config:  config,
	}
}

// SyncParties синхронизирует список партий
func (s *Service) SyncParties(ctx context.Context) (Summary, error) {
	parties, err := s.fetcher.FetchParties(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch parties: %w", err)
	}
	return s.upsert(ctx, entity.KindParty, records(parties))
}

// SyncHearings синхронизирует слушания
func (s *Service) SyncHearings(ctx context.Context) (Summary, error) {
	hearings, err := s.fetcher.FetchHearings(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch hearings: %w", err)
	}
	return s.upsert(ctx, entity.KindHearing, records(hearings))
}

// SyncCases синхронизирует дела; IDs содержит все дела, а не только измененные
func (s *Service) SyncCases(ctx context.Context) (Summary, error) {
	cases, err := s.fetcher.FetchCases(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch cases: %w", err)
	}
	return s.upsert(ctx, entity.KindCase, records(cases))
}

// SyncVotesForCase синхронизирует голосования одного дела
func (s *Service) SyncVotesForCase(ctx context.Context, caseID string) (Summary, error) {
	votes, err := s.fetcher.FetchVotes(ctx, caseID)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch votes for case %s: %w", caseID, err)
	}
	return s.upsert(ctx, entity.KindVote, records(votes))
}

// SyncVoteProposals синхронизирует предложения одного голосования
func (s *Service) SyncVoteProposals(ctx context.Context, voteID string) (Summary, error) {
	proposals, err := s.fetcher.FetchVoteProposals(ctx, voteID)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch vote proposals for vote %s: %w", voteID, err)
	}
	return s.upsert(ctx, entity.KindVoteProposal, records(proposals))
}

func (s *Service) upsert(ctx context.Context, kind entity.Kind, recs []entity.Record) (Summary, error) {
	items := make([]Item, 0, len(recs))
	ids := make([]string, 0, len(recs))
	seen := make(map[string]struct{}, len(recs))

	for _, rec := range recs {
		id := rec.ExternalID()
		if id == "" {
			return Summary{}, fmt.Errorf("%s: %w", kind, ErrEmptyExternalID)
		}
		sum, err := Checksum(rec)
		if err != nil {
			return Summary{}, fmt.Errorf("checksum %s %s: %w", kind, id, err)
		}
		items = append(items, Item{ExternalID: id, Checksum: sum, Record: rec})
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	var total Counts
	for i, chunk := range Chunk(items, s.config.BatchSize) {
		start := time.Now()
		counts, err := s.repo.UpsertBatch(ctx, kind, chunk)
		metrics.BatchDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
		if err != nil {
			s.log.Error("batch upsert failed", "kind", kind, "batch", i, "size", len(chunk), "error", err)
			return Summary{}, fmt.Errorf("upsert %s batch %d: %w", kind, i, err)
		}
		total = total.Add(counts)
	}

	metrics.SyncItems.WithLabelValues(string(kind), string(ActionAdded)).Add(float64(total.Added))
	metrics.SyncItems.WithLabelValues(string(kind), string(ActionUpdated)).Add(float64(total.Updated))
	metrics.SyncItems.WithLabelValues(string(kind), string(ActionSkipped)).Add(float64(total.Skipped))

	s.log.Debug("entities synced", "kind", kind,
		"added", total.Added, "updated", total.Updated, "skipped", total.Skipped)

	return Summary{Counts: total, IDs: ids}, nil
}

func records[T entity.Record](items []T) []entity.Record {
	out := make([]entity.Record, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
