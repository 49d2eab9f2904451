package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stortingsync/internal/app/server/api/http/middleware/auth"
	"stortingsync/internal/domain/query"
	"stortingsync/internal/domain/run"
	"stortingsync/internal/domain/schedule"
	"stortingsync/internal/infrastructure/scheduler"
	"stortingsync/internal/infrastructure/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type idleStarter struct{}

func (idleStarter) Start(context.Context, run.Trigger) (*run.StartResult, error) {
	return &run.StartResult{Reason: run.ReasonAlreadyRunning}, nil
}
func (idleStarter) CancelRunning(context.Context) (bool, error) { return false, nil }
func (idleStarter) IsRunning(context.Context) (bool, error)     { return false, nil }

type noopReleaser struct{}

func (noopReleaser) Cleanup(context.Context, ...string) error { return nil }

type idleEngine struct{}

func (idleEngine) Running() int { return 0 }

func newTestServer(t *testing.T, tokenHash string) *httptest.Server {
	t.Helper()
	log := slog.Default()
	store := memory.New()

	cron, err := scheduler.New("UTC", log)
	require.NoError(t, err)

	mux := New(Deps{
		Engine:         idleEngine{},
		Runs:           run.NewService(memory.NewRunRepository(store), noopReleaser{}, log, nil),
		Schedule:       schedule.NewService(memory.NewSettingsRepository(store), cron, idleStarter{}, log, nil),
		Query:          query.NewService(memory.NewQueryRepository(store), log),
		AdminTokenHash: tokenHash,
	}, log)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestNew_AdminRoutesRequireToken(t *testing.T) {
	hash, err := auth.HashToken("s3cret")
	require.NoError(t, err)
	srv := newTestServer(t, hash)

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{name: "health is public", path: "/api/v1/health", wantStatus: http.StatusOK},
		{name: "stats are public", path: "/api/v1/stats", wantStatus: http.StatusOK},
		{name: "cases are public", path: "/api/v1/cases", wantStatus: http.StatusOK},
		{name: "status without token", path: "/api/v1/sync/status", wantStatus: http.StatusUnauthorized},
		{name: "status with wrong token", path: "/api/v1/sync/status", token: "guess", wantStatus: http.StatusUnauthorized},
		{name: "status with token", path: "/api/v1/sync/status", token: "s3cret", wantStatus: http.StatusOK},
		{name: "latest run missing", path: "/api/v1/sync/runs/latest", token: "s3cret", wantStatus: http.StatusNotFound},
		{name: "missing case", path: "/api/v1/cases/404", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, srv.URL+tt.path, tt.token)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestNew_Metrics(t *testing.T) {
	srv := newTestServer(t, "")

	resp := get(t, srv.URL+"/metrics", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain"))
}

func TestNew_OpenAPIDocumentsBearer(t *testing.T) {
	srv := newTestServer(t, "")

	resp := get(t, srv.URL+"/openapi.json", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"bearer"`)
	assert.Contains(t, string(body), "/api/v1/sync/start")
}
