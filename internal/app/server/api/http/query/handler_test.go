package query

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/query"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListCases(ctx context.Context, f query.CaseFilter) (*query.Page[query.CaseSummary], error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*query.Page[query.CaseSummary]), args.Error(1)
}

func (m *MockService) GetCase(ctx context.Context, id int64) (*query.CaseDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*query.CaseDetail), args.Error(1)
}

func (m *MockService) ListHearings(ctx context.Context, f query.HearingFilter) (*query.Page[entity.Hearing], error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*query.Page[entity.Hearing]), args.Error(1)
}

func (m *MockService) ListParties(ctx context.Context, f query.PartyFilter) ([]entity.Party, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Party), args.Error(1)
}

func (m *MockService) Stats(ctx context.Context) (query.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(query.Stats), args.Error(1)
}

func TestHandler_getCase(t *testing.T) {
	tests := []struct {
		name       string
		detail     *query.CaseDetail
		err        error
		wantStatus int
	}{
		{
			name:   "found",
			detail: &query.CaseDetail{Case: entity.Case{ID: 5, Title: "Statsbudsjettet"}, Votes: []entity.Vote{}},
		},
		{
			name:       "not found",
			err:        fmt.Errorf("case 5: %w", query.ErrNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "storage error",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			svc := new(MockService)
			h := NewHandler(svc, slog.Default(), huma.Middlewares{})
			ctx := context.Background()
			svc.On("GetCase", ctx, int64(5)).Return(tt.detail, tt.err)

			// Act
			out, err := h.getCase(ctx, &getCaseInput{ID: 5})

			// Assert
			if tt.wantStatus != 0 {
				var statusErr huma.StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.wantStatus, statusErr.GetStatus())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Statsbudsjettet", out.Body.Case.Title)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_listHearings_BuildsFilter(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, slog.Default(), huma.Middlewares{})
	ctx := context.Background()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	status := 2

	svc.On("ListHearings", ctx, mock.MatchedBy(func(f query.HearingFilter) bool {
		return f.Status != nil && *f.Status == status && f.Type == nil &&
			f.From != nil && f.From.Equal(from) && f.To == nil && f.Limit == 10
	})).Return(&query.Page[entity.Hearing]{Items: []entity.Hearing{{ID: 900}}, Total: 1, Limit: 10}, nil)

	out, err := h.listHearings(ctx, &listHearingsInput{Status: status, From: from, Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, 1, out.Body.Total)
	svc.AssertExpectations(t)
}

func TestHandler_listHearings_InvalidRange(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, slog.Default(), huma.Middlewares{})
	svc.On("ListHearings", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: empty date range", query.ErrInvalidFilter))

	_, err := h.listHearings(context.Background(), &listHearingsInput{})

	var statusErr huma.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.GetStatus())
}

func TestHandler_listParties_EmptyIsArray(t *testing.T) {
	_, api := humatest.New(t)
	svc := new(MockService)
	NewHandler(svc, slog.Default(), nil).SetupRoutes(api)
	svc.On("ListParties", mock.Anything, query.PartyFilter{Name: "parti"}).Return(nil, nil)

	resp := api.Get("/api/v1/parties?name=parti")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestHandler_Routes(t *testing.T) {
	_, api := humatest.New(t)
	svc := new(MockService)
	NewHandler(svc, slog.Default(), nil).SetupRoutes(api)

	svc.On("ListCases", mock.Anything, query.CaseFilter{Type: entity.CaseTypeBudget, Search: "skatt", Limit: 5}).
		Return(&query.Page[query.CaseSummary]{
			Items: []query.CaseSummary{{Case: entity.Case{ID: 5, Type: entity.CaseTypeBudget}, VoteCount: 3}},
			Total: 1,
			Limit: 5,
		}, nil)
	svc.On("Stats", mock.Anything).Return(query.Stats{Parties: 2, Cases: 1}, nil)

	resp := api.Get("/api/v1/cases?type=budget&search=skatt&limit=5")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"vote_count":3`)

	resp = api.Get("/api/v1/cases?type=motion")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = api.Get("/api/v1/stats")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"parties":2`)

	svc.AssertExpectations(t)
}
