//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/query"
	"stortingsync/internal/domain/run"
	"stortingsync/internal/domain/schedule"
	syncdomain "stortingsync/internal/domain/sync"
	"stortingsync/internal/domain/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func caseItem(t *testing.T, c entity.Case) syncdomain.Item {
	t.Helper()
	sum, err := syncdomain.Checksum(c)
	require.NoError(t, err)
	return syncdomain.Item{ExternalID: c.ExternalID(), Checksum: sum, Record: c}
}

func testCase(id int64, title string) entity.Case {
	return entity.Case{
		ID:            id,
		Type:          entity.CaseTypeBudget,
		Title:         title,
		ShortTitle:    "kort " + title,
		Status:        entity.CaseStatusProcessed,
		DocumentGroup: entity.DocumentGroupProposition,
		LastUpdatedAt: time.Date(2024, 11, int(id), 12, 0, 0, 0, time.UTC),
	}
}

func TestSyncRepository_UpsertBatch(t *testing.T) {
	s := newTestStorage(t)
	repo := NewSyncRepository(s.Pool(), slog.Default())
	ctx := context.Background()

	items := []syncdomain.Item{caseItem(t, testCase(1, "Budsjett")), caseItem(t, testCase(2, "Skatt"))}

	counts, err := repo.UpsertBatch(ctx, entity.KindCase, items)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.Counts{Added: 2}, counts)

	counts, err = repo.UpsertBatch(ctx, entity.KindCase, items)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.Counts{Skipped: 2}, counts)

	before, err := repo.CacheEntry(ctx, entity.KindCase, "1")
	require.NoError(t, err)

	changed := caseItem(t, testCase(1, "Budsjett endret"))
	counts, err = repo.UpsertBatch(ctx, entity.KindCase, []syncdomain.Item{changed})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.Counts{Updated: 1}, counts)

	after, err := repo.CacheEntry(ctx, entity.KindCase, "1")
	require.NoError(t, err)
	assert.Equal(t, before.InternalID, after.InternalID)
	assert.Equal(t, changed.Checksum, after.Checksum)

	var title string
	require.NoError(t, s.Pool().QueryRow(ctx, `SELECT title FROM cases WHERE id = $1`, after.InternalID).Scan(&title))
	assert.Equal(t, "Budsjett endret", title)

	_, err = repo.CacheEntry(ctx, entity.KindCase, "404")
	assert.ErrorIs(t, err, syncdomain.ErrCacheMiss)
}

func TestSyncRepository_ConflictRollsBackBatch(t *testing.T) {
	s := newTestStorage(t)
	repo := NewSyncRepository(s.Pool(), slog.Default())
	ctx := context.Background()

	_, err := repo.UpsertBatch(ctx, entity.KindCase, []syncdomain.Item{caseItem(t, testCase(1, "Budsjett"))})
	require.NoError(t, err)
	entry, err := repo.CacheEntry(ctx, entity.KindCase, "1")
	require.NoError(t, err)
	_, err = s.Pool().Exec(ctx, `DELETE FROM cases WHERE id = $1`, entry.InternalID)
	require.NoError(t, err)

	_, err = repo.UpsertBatch(ctx, entity.KindCase, []syncdomain.Item{
		caseItem(t, testCase(2, "Ny sak")),
		caseItem(t, testCase(1, "Budsjett endret")),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, syncdomain.ErrStorageConflict)
	_, err = repo.CacheEntry(ctx, entity.KindCase, "2")
	assert.ErrorIs(t, err, syncdomain.ErrCacheMiss, "batch must be rolled back")
}

func TestRunRepository_Lifecycle(t *testing.T) {
	s := newTestStorage(t)
	repo := NewRunRepository(s.Pool(), slog.Default())
	ctx := context.Background()
	started := time.Date(2026, 1, 10, 3, 0, 0, 0, time.UTC)

	first := &run.Run{WorkflowID: "wf-1", Trigger: run.TriggerScheduled, Status: run.StatusStarted, StartedAt: started}
	ok, err := repo.Begin(ctx, first)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotZero(t, first.ID)

	ok, err = repo.Begin(ctx, &run.Run{WorkflowID: "wf-2", Trigger: run.TriggerManual, Status: run.StatusStarted, StartedAt: started})
	require.NoError(t, err)
	assert.False(t, ok, "second run must be rejected while the first is active")

	require.NoError(t, repo.RecordCounts(ctx, "wf-1", entity.KindParty, syncdomain.Counts{Added: 3}))
	require.NoError(t, repo.RecordCounts(ctx, "wf-1", entity.KindCase, syncdomain.Counts{Added: 2, Skipped: 1}))
	assert.ErrorIs(t, repo.RecordCounts(ctx, "wf-x", entity.KindCase, syncdomain.Counts{}), run.ErrNotFound)

	active, err := repo.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "wf-1", active.WorkflowID)
	assert.Equal(t, syncdomain.Counts{Added: 3}, active.Stats.Party)
	assert.Equal(t, syncdomain.Counts{Added: 2, Skipped: 1}, active.Stats.Case)

	finished := started.Add(time.Minute)
	ok, err = repo.Finalize(ctx, "wf-1", run.StatusSuccess, "", finished)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Finalize(ctx, "wf-1", run.StatusFailed, "late", finished)
	require.NoError(t, err)
	assert.False(t, ok, "finalize is applied once")
	_, err = repo.Finalize(ctx, "wf-x", run.StatusFailed, "", finished)
	assert.ErrorIs(t, err, run.ErrNotFound)

	got, err := repo.ByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, run.StatusSuccess, got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, finished.Equal(*got.FinishedAt))

	_, err = repo.Active(ctx)
	assert.ErrorIs(t, err, run.ErrNotFound)

	second := &run.Run{WorkflowID: "wf-2", Trigger: run.TriggerManual, Status: run.StatusStarted, StartedAt: finished}
	ok, err = repo.Begin(ctx, second)
	require.NoError(t, err)
	require.True(t, ok)

	runs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "wf-2", runs[0].WorkflowID)

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "wf-2", latest.WorkflowID)

	old, err := repo.FinishedBefore(ctx, finished.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, "wf-1", old[0].WorkflowID)

	deleted, err := repo.Delete(ctx, []int64{first.ID, second.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"wf-1"}, deleted, "active run is kept")
}

func TestRunRepository_ConcurrentBegin(t *testing.T) {
	s := newTestStorage(t)
	repo := NewRunRepository(s.Pool(), slog.Default())
	ctx := context.Background()

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := repo.Begin(ctx, &run.Run{
				WorkflowID: "wf-" + string(rune('a'+i)),
				Trigger:    run.TriggerManual,
				Status:     run.StatusStarted,
				StartedAt:  time.Now().UTC(),
			})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStorage(t)
	repo := NewSettingsRepository(s.Pool(), slog.Default())
	ctx := context.Background()
	defaults := schedule.Settings{RetentionDays: 30}

	got, err := repo.Load(ctx, defaults)
	require.NoError(t, err)
	assert.False(t, got.NightlySyncEnabled)
	assert.Equal(t, 30, got.RetentionDays)
	assert.Nil(t, got.UpdatedAt)

	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SaveNightlySync(ctx, true, "admin", at))
	require.NoError(t, repo.SaveRetentionDays(ctx, 7, "ops", at.Add(time.Hour)))
	require.NoError(t, repo.SaveRetentionDays(ctx, 14, "ops", at.Add(2*time.Hour)))

	got, err = repo.Load(ctx, defaults)
	require.NoError(t, err)
	assert.True(t, got.NightlySyncEnabled)
	assert.Equal(t, 14, got.RetentionDays)
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, at.Add(2*time.Hour).Equal(*got.UpdatedAt))
	assert.Equal(t, "ops", got.UpdatedBy)
}

func TestJournalRepository(t *testing.T) {
	s := newTestStorage(t)
	j := NewJournalRepository(s.Pool(), slog.Default())
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)

	inst := &workflow.Instance{ID: "wf-1", Name: "stortinget-sync", Status: workflow.StatusRunning, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, j.Create(ctx, inst))
	assert.ErrorIs(t, j.Create(ctx, inst), workflow.ErrAlreadyExists)

	rec := &workflow.StepRecord{
		WorkflowID: "wf-1", Name: "parties", Status: workflow.StepCompleted, Attempts: 1,
		Result: []byte(`{"ids":["A"]}`), StartedAt: now, FinishedAt: now.Add(time.Second),
	}
	require.NoError(t, j.SaveStep(ctx, rec))
	rec.Attempts = 2
	require.NoError(t, j.SaveStep(ctx, rec))
	assert.ErrorIs(t, j.SaveStep(ctx, &workflow.StepRecord{WorkflowID: "nope", Name: "x", Status: workflow.StepFailed, StartedAt: now, FinishedAt: now}), workflow.ErrNotFound)

	got, err := j.Step(ctx, "wf-1", "parties")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attempts)
	assert.JSONEq(t, `{"ids":["A"]}`, string(got.Result))
	_, err = j.Step(ctx, "wf-1", "cases")
	assert.ErrorIs(t, err, workflow.ErrStepNotFound)

	running, err := j.ListByStatus(ctx, workflow.StatusRunning)
	require.NoError(t, err)
	require.Len(t, running, 1)

	ok, err := j.RequestCancel(ctx, "wf-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = j.Finish(ctx, "wf-1", workflow.StatusCanceled, "canceled", now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = j.Finish(ctx, "wf-1", workflow.StatusFailed, "again", now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = j.RequestCancel(ctx, "wf-1")
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = j.RequestCancel(ctx, "missing")
	assert.ErrorIs(t, err, workflow.ErrNotFound)

	stored, err := j.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusCanceled, stored.Status)
	assert.True(t, stored.CancelRequested)

	require.NoError(t, j.Delete(ctx, "wf-1"))
	_, err = j.Get(ctx, "wf-1")
	assert.True(t, errors.Is(err, workflow.ErrNotFound))
	steps, err := j.Steps(ctx, "wf-1")
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestQueryRepository(t *testing.T) {
	s := newTestStorage(t)
	writer := NewSyncRepository(s.Pool(), slog.Default())
	repo := NewQueryRepository(s.Pool(), slog.Default())
	ctx := context.Background()

	budget := testCase(1, "Statsbudsjettet")
	bill := testCase(2, "Endringer i skatteloven")
	bill.Type = entity.CaseTypeBill
	bill.LastUpdatedAt = budget.LastUpdatedAt.Add(time.Hour)
	_, err := writer.UpsertBatch(ctx, entity.KindCase, []syncdomain.Item{caseItem(t, budget), caseItem(t, bill)})
	require.NoError(t, err)

	vote := entity.Vote{ID: 77, CaseID: 1, Adopted: true, Topic: "Rammeområde 1", VotedAt: budget.LastUpdatedAt}
	sum, err := syncdomain.Checksum(vote)
	require.NoError(t, err)
	_, err = writer.UpsertBatch(ctx, entity.KindVote, []syncdomain.Item{{ExternalID: vote.ExternalID(), Checksum: sum, Record: vote}})
	require.NoError(t, err)

	cases, total, err := repo.ListCases(ctx, query.CaseFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, cases, 2)
	assert.Equal(t, int64(2), cases[0].ID, "newest first")
	assert.Equal(t, 1, cases[1].VoteCount)

	cases, total, err = repo.ListCases(ctx, query.CaseFilter{Search: "SKATT", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, int64(2), cases[0].ID)

	cases, _, err = repo.ListCases(ctx, query.CaseFilter{Type: entity.CaseTypeBudget})
	require.NoError(t, err)
	require.Len(t, cases, 1)

	got, err := repo.GetCase(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Statsbudsjettet", got.Title)
	_, err = repo.GetCase(ctx, 9)
	assert.ErrorIs(t, err, query.ErrNotFound)

	votes, err := repo.VotesByCase(ctx, 1)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, int64(77), votes[0].ID)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, query.Stats{Cases: 2, Votes: 1}, stats)
}
