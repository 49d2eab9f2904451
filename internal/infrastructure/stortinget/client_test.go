package stortinget

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/infrastructure/stortinget/stortingettest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: baseURL, Timeout: 5 * time.Second, RPS: 1000}, slog.Default())
	require.NoError(t, err)
	return c
}

func fixture() stortingettest.Dataset {
	ref := "Innst. 1 S (2024-2025)"
	updated := time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC)
	return stortingettest.Dataset{
		Parties: []stortingettest.Party{
			{ID: "A", Name: "Arbeiderpartiet", Represented: true},
			{ID: "KrF", Name: "Kristelig Folkeparti", Represented: true},
		},
		Hearings: []stortingettest.Hearing{{ID: 900, Status: 2, Type: 1, StartDate: updated, Written: true}},
		Cases: []stortingettest.Case{
			{ID: 5, Title: "Statsbudsjettet 2025", ShortTitle: "Budsjett", Type: 1, Status: 1, DocumentGroup: 1, UpdatedAt: updated, Reference: &ref},
			{ID: 6, Title: "Endringer i skatteloven", ShortTitle: "Skatt", Type: 3, Status: 2, DocumentGroup: 4, UpdatedAt: updated},
		},
		Votes: map[int64][]stortingettest.Vote{
			5: {{ID: 77, Adopted: true, ResultType: 1, Topic: "Rammeområde 1", VotedAt: updated}},
		},
		Proposals: map[int64][]stortingettest.Proposal{
			77: {
				{ID: 1001, Text: "Stortinget ber regjeringen ...", SortNumber: 1, Type: 1, PartyIDs: []string{"A"}},
				{ID: 1002, Text: "Alternativt forslag", SortNumber: 2, Type: 2},
			},
		},
	}
}

func TestClient_FetchCases(t *testing.T) {
	srv := stortingettest.NewServer(fixture())
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	cases, err := c.FetchCases(context.Background())

	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, int64(5), cases[0].ID)
	assert.Equal(t, entity.CaseTypeBudget, cases[0].Type)
	assert.Equal(t, entity.CaseStatusProcessed, cases[0].Status)
	assert.Equal(t, entity.DocumentGroupProposition, cases[0].DocumentGroup)
	assert.True(t, time.Date(2024, 11, 20, 12, 0, 0, 0, time.UTC).Equal(cases[0].LastUpdatedAt))
	require.NotNil(t, cases[0].Reference)
	assert.Nil(t, cases[1].Reference)
	assert.Equal(t, entity.CaseTypeBill, cases[1].Type)
	assert.Equal(t, entity.DocumentGroupRepresentativeProposal, cases[1].DocumentGroup)
}

func TestClient_FetchCases_UnknownStatusIsSchemaViolation(t *testing.T) {
	data := fixture()
	data.Cases[1].Status = 42
	srv := stortingettest.NewServer(data)
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	_, err := c.FetchCases(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaViolation)
	assert.Contains(t, err.Error(), "case 6")
}

func TestClient_FetchParties(t *testing.T) {
	srv := stortingettest.NewServer(fixture())
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	parties, err := c.FetchParties(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []entity.Party{
		{ID: "A", Name: "Arbeiderpartiet", Represented: true},
		{ID: "KrF", Name: "Kristelig Folkeparti", Represented: true},
	}, parties)
}

func TestClient_FetchVotesAndProposals(t *testing.T) {
	srv := stortingettest.NewServer(fixture())
	defer srv.Close()
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	votes, err := c.FetchVotes(ctx, "5")
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, int64(77), votes[0].ID)
	assert.Equal(t, int64(5), votes[0].CaseID)
	assert.Nil(t, votes[0].ResultTypeText)

	empty, err := c.FetchVotes(ctx, "6")
	require.NoError(t, err)
	assert.Empty(t, empty)

	proposals, err := c.FetchVoteProposals(ctx, "77")
	require.NoError(t, err)
	require.Len(t, proposals, 2)
	assert.Equal(t, int64(77), proposals[0].VoteID)
	assert.Equal(t, []string{"A"}, proposals[0].PartyIDs)
	assert.Empty(t, proposals[1].PartyIDs)
	assert.Nil(t, proposals[1].ShortDesignation)
}

func TestClient_FetchHearings(t *testing.T) {
	srv := stortingettest.NewServer(fixture())
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	hearings, err := c.FetchHearings(context.Background())

	require.NoError(t, err)
	require.Len(t, hearings, 1)
	assert.Equal(t, int64(900), hearings[0].ID)
	assert.True(t, hearings[0].Written)
	assert.Equal(t, "avholdt", hearings[0].HearingStatus)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{name: "service unavailable", status: http.StatusServiceUnavailable, wantTransient: true},
		{name: "too many requests", status: http.StatusTooManyRequests, wantTransient: true},
		{name: "not found", status: http.StatusNotFound, wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()
			c := newTestClient(t, srv.URL)

			_, err := c.FetchParties(context.Background())

			require.Error(t, err)
			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.wantTransient, errors.Is(err, ErrTransient))
		})
	}
}

func TestClient_SchemaViolation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html></html>"},
		{name: "missing list", body: `{"versjon":"1.6","respons_dato_tid":"/Date(1700000000000+0100)/","sesjon_id":"2024-2025"}`},
		{name: "mistyped field", body: `{"versjon":"1.6","respons_dato_tid":"/Date(1700000000000+0100)/","saker_liste":[{"id":"5"}]}`},
		{name: "bad date", body: `{"versjon":"1.6","respons_dato_tid":"/Date(1700000000000+0100)/","saker_liste":[{"id":5,"tittel":"t","korttittel":"k","type":1,"status":1,"dokumentgruppe":0,"sist_oppdatert_dato":"2024-01-01","sak_fremmet_id":0,"henvisning":null}]}`},
		{name: "missing response time", body: `{"versjon":"1.6","saker_liste":[]}`},
		{name: "bad response time", body: `{"versjon":"1.6","respons_dato_tid":"2024-01-01T00:00:00Z","saker_liste":[]}`},
		{name: "unknown format version", body: `{"versjon":"1.7","respons_dato_tid":"/Date(1700000000000+0100)/","saker_liste":[]}`},
		{name: "missing version", body: `{"respons_dato_tid":"/Date(1700000000000+0100)/","saker_liste":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()
			c := newTestClient(t, srv.URL)

			_, err := c.FetchCases(context.Background())

			assert.ErrorIs(t, err, ErrSchemaViolation)
			assert.False(t, errors.Is(err, ErrTransient))
		})
	}
}

func TestClient_EmptyListWithEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"versjon":"1.6","respons_dato_tid":"/Date(1700000000000+0100)/","saker_liste":[]}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	cases, err := c.FetchCases(context.Background())

	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestClient_RequestURL(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{"versjon":"1.6","respons_dato_tid":"/Date(1700000000000+0100)/","votering_id":9,"voteringsforslag_liste":[]}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL+"/")

	_, err := c.FetchVoteProposals(context.Background(), "9")

	require.NoError(t, err)
	assert.Equal(t, "/eksport/voteringsforslag", gotPath)
	assert.Equal(t, "format=json&voteringid=9", gotQuery)
}

func TestClient_ConnectionErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := newTestClient(t, url)

	_, err := c.FetchParties(context.Background())

	assert.ErrorIs(t, err, ErrTransient)
}
