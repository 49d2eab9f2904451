package memory

import (
	"context"
	"sort"
	"strings"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/query"
)

// QueryRepository чтение сущностей для слоя представления
type QueryRepository struct {
	store *Store
}

func NewQueryRepository(store *Store) *QueryRepository {
	return &QueryRepository{store: store}
}

func (r *QueryRepository) ListCases(ctx context.Context, f query.CaseFilter) ([]query.CaseSummary, int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	voteCounts := make(map[int64]int)
	for _, rec := range s.entities[entity.KindVote] {
		voteCounts[rec.(entity.Vote).CaseID]++
	}

	search := strings.ToLower(f.Search)
	var out []query.CaseSummary
	for _, rec := range s.entities[entity.KindCase] {
		c := rec.(entity.Case)
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.ShortTitle), search) {
			continue
		}
		out = append(out, query.CaseSummary{Case: c, VoteCount: voteCounts[c.ID]})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastUpdatedAt.Equal(out[j].LastUpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].LastUpdatedAt.After(out[j].LastUpdatedAt)
	})

	total := len(out)
	return page(out, f.Limit, f.Offset), total, nil
}

func (r *QueryRepository) GetCase(ctx context.Context, id int64) (*entity.Case, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.entities[entity.KindCase] {
		if c := rec.(entity.Case); c.ID == id {
			return &c, nil
		}
	}
	return nil, query.ErrNotFound
}

func (r *QueryRepository) VotesByCase(ctx context.Context, caseID int64) ([]entity.Vote, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.Vote
	for _, rec := range s.entities[entity.KindVote] {
		if v := rec.(entity.Vote); v.CaseID == caseID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].VotedAt.Equal(out[j].VotedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].VotedAt.Before(out[j].VotedAt)
	})
	return out, nil
}

func (r *QueryRepository) ListHearings(ctx context.Context, f query.HearingFilter) ([]entity.Hearing, int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.Hearing
	for _, rec := range s.entities[entity.KindHearing] {
		h := rec.(entity.Hearing)
		if f.Status != nil && h.Status != *f.Status {
			continue
		}
		if f.Type != nil && h.Type != *f.Type {
			continue
		}
		if f.From != nil && h.StartDate.Before(*f.From) {
			continue
		}
		if f.To != nil && h.StartDate.After(*f.To) {
			continue
		}
		out = append(out, h)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartDate.After(out[j].StartDate)
	})

	total := len(out)
	return page(out, f.Limit, f.Offset), total, nil
}

func (r *QueryRepository) ListParties(ctx context.Context, f query.PartyFilter) ([]entity.Party, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.ToLower(f.Name)
	out := []entity.Party{}
	for _, rec := range s.entities[entity.KindParty] {
		p := rec.(entity.Party)
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *QueryRepository) Stats(ctx context.Context) (query.Stats, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return query.Stats{
		Parties:       len(s.entities[entity.KindParty]),
		Hearings:      len(s.entities[entity.KindHearing]),
		Cases:         len(s.entities[entity.KindCase]),
		Votes:         len(s.entities[entity.KindVote]),
		VoteProposals: len(s.entities[entity.KindVoteProposal]),
	}, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
