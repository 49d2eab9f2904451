package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

type whoamiOutput struct {
	Body struct {
		Actor string `json:"actor"`
	}
}

func setup(t *testing.T, hash string) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	a := New(api, hash, slog.Default())

	huma.Register(api, huma.Operation{
		OperationID: "whoami",
		Method:      http.MethodGet,
		Path:        "/whoami",
		Middlewares: huma.Middlewares{a.Middleware()},
	}, func(ctx context.Context, _ *struct{}) (*whoamiOutput, error) {
		out := &whoamiOutput{}
		out.Body.Actor = Actor(ctx)
		return out, nil
	})
	return api
}

func TestAuth_Middleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name       string
		hash       string
		headers    []any
		wantStatus int
		wantActor  string
	}{
		{name: "valid token", hash: string(hash), headers: []any{"Authorization: Bearer s3cret"}, wantStatus: http.StatusOK, wantActor: ActorAdmin},
		{name: "named operator", hash: string(hash), headers: []any{"Authorization: Bearer s3cret", ActorHeader + ": kari"}, wantStatus: http.StatusOK, wantActor: "kari"},
		{name: "wrong token", hash: string(hash), headers: []any{"Authorization: Bearer nope"}, wantStatus: http.StatusUnauthorized},
		{name: "missing header", hash: string(hash), wantStatus: http.StatusUnauthorized},
		{name: "basic scheme", hash: string(hash), headers: []any{"Authorization: Basic czNjcmV0"}, wantStatus: http.StatusUnauthorized},
		{name: "open api", hash: "", wantStatus: http.StatusOK, wantActor: ActorAnonymous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := setup(t, tt.hash)

			resp := api.Get("/whoami", tt.headers...)

			assert.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantActor != "" {
				assert.Contains(t, resp.Body.String(), `"actor":"`+tt.wantActor+`"`)
			}
		})
	}
}

func TestHashToken(t *testing.T) {
	hash, err := HashToken("s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}

func TestActor_Default(t *testing.T) {
	assert.Equal(t, ActorAnonymous, Actor(context.Background()))
	assert.Equal(t, "ops", Actor(WithActor(context.Background(), "ops")))
}
