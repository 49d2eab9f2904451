package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"stortingsync/internal/domain/entity"
	syncdomain "stortingsync/internal/domain/sync"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

// table описание таблицы сущности: проецируемые колонки для фильтров
// рядом с полным JSON в data
type table struct {
	name    string
	columns []string
	values  func(entity.Record) ([]any, error)
}

var tables = map[entity.Kind]table{
	entity.KindParty: {
		name:    "parties",
		columns: []string{"name"},
		values: func(r entity.Record) ([]any, error) {
			p, ok := r.(entity.Party)
			if !ok {
				return nil, recordTypeError(entity.KindParty, r)
			}
			return []any{p.Name}, nil
		},
	},
	entity.KindHearing: {
		name:    "hearings",
		columns: []string{"status", "type", "start_date"},
		values: func(r entity.Record) ([]any, error) {
			h, ok := r.(entity.Hearing)
			if !ok {
				return nil, recordTypeError(entity.KindHearing, r)
			}
			return []any{h.Status, h.Type, h.StartDate}, nil
		},
	},
	entity.KindCase: {
		name:    "cases",
		columns: []string{"type", "status", "title", "short_title", "last_updated_at"},
		values: func(r entity.Record) ([]any, error) {
			c, ok := r.(entity.Case)
			if !ok {
				return nil, recordTypeError(entity.KindCase, r)
			}
			return []any{string(c.Type), string(c.Status), c.Title, c.ShortTitle, c.LastUpdatedAt}, nil
		},
	},
	entity.KindVote: {
		name:    "votes",
		columns: []string{"case_id", "voted_at"},
		values: func(r entity.Record) ([]any, error) {
			v, ok := r.(entity.Vote)
			if !ok {
				return nil, recordTypeError(entity.KindVote, r)
			}
			return []any{v.CaseID, v.VotedAt}, nil
		},
	},
	entity.KindVoteProposal: {
		name:    "vote_proposals",
		columns: []string{"vote_id"},
		values: func(r entity.Record) ([]any, error) {
			p, ok := r.(entity.VoteProposal)
			if !ok {
				return nil, recordTypeError(entity.KindVoteProposal, r)
			}
			return []any{p.VoteID}, nil
		},
	},
}

func recordTypeError(kind entity.Kind, r entity.Record) error {
	return fmt.Errorf("record %T does not belong to kind %s", r, kind)
}

// insertSQL INSERT INTO t (external_id, cols..., data) VALUES ($1, ..., $n) RETURNING id
func (t table) insertSQL() string {
	cols := append([]string{"external_id"}, t.columns...)
	cols = append(cols, "data")
	params := make([]string, len(cols))
	for i := range cols {
		params[i] = "$" + strconv.Itoa(i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		t.name, strings.Join(cols, ", "), strings.Join(params, ", "))
}

// updateSQL UPDATE t SET cols... = $2.., data = $n, updated_at = now() WHERE id = $1
func (t table) updateSQL() string {
	sets := make([]string, 0, len(t.columns)+2)
	for i, c := range t.columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+2))
	}
	sets = append(sets, fmt.Sprintf("data = $%d", len(t.columns)+2), "updated_at = now()")
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $1", t.name, strings.Join(sets, ", "))
}

// SyncRepository пакетная запись сущностей и кэша синхронизации
type SyncRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewSyncRepository(pool *pgxpool.Pool, log *slog.Logger) *SyncRepository {
	return &SyncRepository{
		pool: pool,
		log:  log.With("component", "sync_repository"),
	}
}

// UpsertBatch записывает пакет в одной транзакции: при любой ошибке
// не меняется ни одна сущность и ни одна запись кэша
func (r *SyncRepository) UpsertBatch(ctx context.Context, kind entity.Kind, items []syncdomain.Item) (syncdomain.Counts, error) {
	t, ok := tables[kind]
	if !ok {
		return syncdomain.Counts{}, fmt.Errorf("unknown entity kind %q", kind)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return syncdomain.Counts{}, fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cache, err := r.loadCache(ctx, tx, kind, items)
	if err != nil {
		return syncdomain.Counts{}, err
	}

	insertSQL, updateSQL := t.insertSQL(), t.updateSQL()
	var counts syncdomain.Counts

	for _, item := range items {
		entry, cached := cache[item.ExternalID]
		if cached && entry.Checksum == item.Checksum {
			counts.Inc(syncdomain.ActionSkipped)
			continue
		}

		cols, err := t.values(item.Record)
		if err != nil {
			return syncdomain.Counts{}, err
		}
		data, err := json.Marshal(item.Record)
		if err != nil {
			return syncdomain.Counts{}, fmt.Errorf("encode %s %s: %w", kind, item.ExternalID, err)
		}

		if cached {
			args := append([]any{entry.InternalID}, cols...)
			tag, err := tx.Exec(ctx, updateSQL, append(args, data)...)
			if err != nil {
				return syncdomain.Counts{}, fmt.Errorf("update %s %s: %w", kind, item.ExternalID, err)
			}
			if tag.RowsAffected() == 0 {
				return syncdomain.Counts{}, &syncdomain.ConflictError{Kind: kind, ExternalID: item.ExternalID, Reason: "cached record is missing"}
			}
			if _, err := tx.Exec(ctx,
				`UPDATE sync_cache SET checksum = $3 WHERE kind = $1 AND external_id = $2`,
				string(kind), item.ExternalID, item.Checksum); err != nil {
				return syncdomain.Counts{}, fmt.Errorf("update sync cache: %w", err)
			}
			entry.Checksum = item.Checksum
			cache[item.ExternalID] = entry
			counts.Inc(syncdomain.ActionUpdated)
			continue
		}

		args := append([]any{item.ExternalID}, cols...)
		var internalID int64
		if err := tx.QueryRow(ctx, insertSQL, append(args, data)...).Scan(&internalID); err != nil {
			if pgCode(err) == codeUniqueViolation {
				return syncdomain.Counts{}, &syncdomain.ConflictError{Kind: kind, ExternalID: item.ExternalID, Reason: "record exists without cache entry"}
			}
			return syncdomain.Counts{}, fmt.Errorf("insert %s %s: %w", kind, item.ExternalID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO sync_cache (kind, external_id, internal_id, checksum) VALUES ($1, $2, $3, $4)`,
			string(kind), item.ExternalID, internalID, item.Checksum); err != nil {
			if pgCode(err) == codeUniqueViolation {
				return syncdomain.Counts{}, &syncdomain.ConflictError{Kind: kind, ExternalID: item.ExternalID, Reason: "duplicate cache entry"}
			}
			return syncdomain.Counts{}, fmt.Errorf("insert sync cache: %w", err)
		}
		cache[item.ExternalID] = syncdomain.CacheEntry{Kind: kind, ExternalID: item.ExternalID, InternalID: internalID, Checksum: item.Checksum}
		counts.Inc(syncdomain.ActionAdded)
	}

	if err := tx.Commit(ctx); err != nil {
		return syncdomain.Counts{}, fmt.Errorf("commit batch: %w", err)
	}
	return counts, nil
}

// loadCache читает записи кэша для всего пакета одним запросом
func (r *SyncRepository) loadCache(ctx context.Context, tx pgx.Tx, kind entity.Kind, items []syncdomain.Item) (map[string]syncdomain.CacheEntry, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.ExternalID == "" {
			return nil, syncdomain.ErrEmptyExternalID
		}
		ids = append(ids, item.ExternalID)
	}

	rows, err := tx.Query(ctx,
		`SELECT external_id, internal_id, checksum FROM sync_cache WHERE kind = $1 AND external_id = ANY($2)`,
		string(kind), ids)
	if err != nil {
		return nil, fmt.Errorf("load sync cache: %w", err)
	}
	defer rows.Close()

	cache := make(map[string]syncdomain.CacheEntry, len(items))
	for rows.Next() {
		e := syncdomain.CacheEntry{Kind: kind}
		if err := rows.Scan(&e.ExternalID, &e.InternalID, &e.Checksum); err != nil {
			return nil, fmt.Errorf("scan sync cache: %w", err)
		}
		cache[e.ExternalID] = e
	}
	return cache, rows.Err()
}

func (r *SyncRepository) CacheEntry(ctx context.Context, kind entity.Kind, externalID string) (*syncdomain.CacheEntry, error) {
	e := syncdomain.CacheEntry{Kind: kind, ExternalID: externalID}
	err := r.pool.QueryRow(ctx,
		`SELECT internal_id, checksum FROM sync_cache WHERE kind = $1 AND external_id = $2`,
		string(kind), externalID).Scan(&e.InternalID, &e.Checksum)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, syncdomain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("get sync cache entry: %w", err)
	}
	return &e, nil
}
