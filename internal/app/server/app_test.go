package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stortingsync/internal/config"
	"stortingsync/internal/domain/run"
	"stortingsync/internal/infrastructure/stortinget/stortingettest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func dataset() stortingettest.Dataset {
	at := time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)
	return stortingettest.Dataset{
		Parties:  []stortingettest.Party{{ID: "A", Name: "Arbeiderpartiet", Represented: true}},
		Hearings: []stortingettest.Hearing{{ID: 900, Status: 2, Type: 1, StartDate: at}},
		Cases:    []stortingettest.Case{{ID: 5, Title: "Statsbudsjettet 2025", ShortTitle: "Budsjett", Type: 1, Status: 1, UpdatedAt: at}},
		Votes:    map[int64][]stortingettest.Vote{5: {{ID: 77, Adopted: true, ResultType: 1, VotedAt: at}}},
		Proposals: map[int64][]stortingettest.Proposal{
			77: {{ID: 1001, Text: "Forslag", SortNumber: 1, Type: 1}},
		},
	}
}

func newMemoryApp(t *testing.T, upstream string) *App {
	t.Helper()
	t.Setenv("DATABASE_URI", config.MemoryURI)
	t.Setenv("STORTINGET_BASE_URL", upstream)
	t.Setenv("SYNC_RETRY_BACKOFF", "1ms")
	t.Setenv("WORKFLOW_JOURNAL", config.JournalMemory)
	t.Setenv("RUN_ADDRESS", "127.0.0.1:0")

	cfg, err := config.NewLoader("").Load()
	require.NoError(t, err)

	app, err := New(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestApp_RunOnce(t *testing.T) {
	upstream := stortingettest.NewServer(dataset())
	defer upstream.Close()
	app := newMemoryApp(t, upstream.URL)
	ctx := context.Background()

	r, err := app.RunOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, run.StatusSuccess, r.Status)
	assert.Equal(t, run.TriggerManual, r.Trigger)
	assert.Equal(t, 1, r.Stats.Party.Added)
	assert.Equal(t, 1, r.Stats.Case.Added)
	assert.Equal(t, 1, r.Stats.Vote.Added)
	assert.Equal(t, 1, r.Stats.VoteProposal.Added)

	again, err := app.RunOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, run.StatusSuccess, again.Status)
	assert.Equal(t, 1, again.Stats.Case.Skipped)
	assert.Zero(t, again.Stats.Case.Added)
}

func TestApp_RunOnce_UpstreamDown(t *testing.T) {
	upstream := stortingettest.NewServer(dataset())
	defer upstream.Close()
	upstream.FailNext("/eksport/allepartier", 100)
	app := newMemoryApp(t, upstream.URL)

	r, err := app.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, run.StatusFailed, r.Status)
	assert.NotEmpty(t, r.Message)
}

func TestApp_Router(t *testing.T) {
	upstream := stortingettest.NewServer(dataset())
	defer upstream.Close()
	app := newMemoryApp(t, upstream.URL)
	_, err := app.RunOnce(context.Background())
	require.NoError(t, err)

	srv := httptest.NewServer(app.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/cases/5")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/api/v1/sync/runs")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestApp_ServeStopsOnCancel(t *testing.T) {
	upstream := stortingettest.NewServer(dataset())
	defer upstream.Close()
	app := newMemoryApp(t, upstream.URL)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx) }()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(20 * time.Second):
		t.Fatal("server did not stop")
	}
}
