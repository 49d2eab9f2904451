package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/query"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

// QueryRepository чтение таблиц сущностей
type QueryRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewQueryRepository(pool *pgxpool.Pool, log *slog.Logger) *QueryRepository {
	return &QueryRepository{
		pool: pool,
		log:  log.With("component", "query_repository"),
	}
}

const caseFilter = `
	WHERE ($1 = '' OR c.type = $1)
	  AND ($2 = '' OR c.status = $2)
	  AND ($3 = '' OR c.title ILIKE $3 OR c.short_title ILIKE $3)`

func (r *QueryRepository) ListCases(ctx context.Context, f query.CaseFilter) ([]query.CaseSummary, int, error) {
	search := ""
	if f.Search != "" {
		search = "%" + escapeLike(f.Search) + "%"
	}
	args := []any{string(f.Type), string(f.Status), search}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM cases c`+caseFilter, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT c.data, (SELECT count(*) FROM votes v WHERE v.case_id = c.external_id::bigint)
		 FROM cases c`+caseFilter+`
		 ORDER BY c.last_updated_at DESC, c.external_id::bigint DESC
		 LIMIT $4 OFFSET $5`,
		append(args, limitArg(f.Limit), f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	out := make([]query.CaseSummary, 0)
	for rows.Next() {
		var (
			data  []byte
			votes int
			sum   query.CaseSummary
		)
		if err := rows.Scan(&data, &votes); err != nil {
			return nil, 0, fmt.Errorf("scan case: %w", err)
		}
		if err := json.Unmarshal(data, &sum.Case); err != nil {
			return nil, 0, fmt.Errorf("decode case: %w", err)
		}
		sum.VoteCount = votes
		out = append(out, sum)
	}
	return out, total, rows.Err()
}

func (r *QueryRepository) GetCase(ctx context.Context, id int64) (*entity.Case, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM cases WHERE external_id = $1`, strconv.FormatInt(id, 10)).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, query.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	var c entity.Case
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode case: %w", err)
	}
	return &c, nil
}

func (r *QueryRepository) VotesByCase(ctx context.Context, caseID int64) ([]entity.Vote, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT data FROM votes WHERE case_id = $1 ORDER BY voted_at, external_id::bigint`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return collectJSON[entity.Vote](rows)
}

func (r *QueryRepository) ListHearings(ctx context.Context, f query.HearingFilter) ([]entity.Hearing, int, error) {
	const filter = `
		WHERE ($1::int IS NULL OR status = $1)
		  AND ($2::int IS NULL OR type = $2)
		  AND ($3::timestamptz IS NULL OR start_date >= $3)
		  AND ($4::timestamptz IS NULL OR start_date <= $4)`
	args := []any{f.Status, f.Type, f.From, f.To}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM hearings`+filter, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count hearings: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT data FROM hearings`+filter+`
		 ORDER BY start_date DESC, external_id::bigint DESC
		 LIMIT $5 OFFSET $6`,
		append(args, limitArg(f.Limit), f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list hearings: %w", err)
	}
	hearings, err := collectJSON[entity.Hearing](rows)
	if err != nil {
		return nil, 0, err
	}
	return hearings, total, nil
}

func (r *QueryRepository) ListParties(ctx context.Context, f query.PartyFilter) ([]entity.Party, error) {
	name := ""
	if f.Name != "" {
		name = "%" + escapeLike(f.Name) + "%"
	}
	rows, err := r.pool.Query(ctx,
		`SELECT data FROM parties WHERE $1 = '' OR name ILIKE $1 ORDER BY name`, name)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	return collectJSON[entity.Party](rows)
}

func (r *QueryRepository) Stats(ctx context.Context) (query.Stats, error) {
	var s query.Stats
	err := r.pool.QueryRow(ctx, `SELECT
		(SELECT count(*) FROM parties),
		(SELECT count(*) FROM hearings),
		(SELECT count(*) FROM cases),
		(SELECT count(*) FROM votes),
		(SELECT count(*) FROM vote_proposals)`).
		Scan(&s.Parties, &s.Hearings, &s.Cases, &s.Votes, &s.VoteProposals)
	if err != nil {
		return s, fmt.Errorf("entity stats: %w", err)
	}
	return s, nil
}

func collectJSON[T any](rows pgx.Rows) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// limitArg 0 означает без ограничения: LIMIT NULL
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
