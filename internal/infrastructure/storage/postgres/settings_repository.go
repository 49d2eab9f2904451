package postgres

import (
	"context"
	"fmt"
	"time"

	"stortingsync/internal/domain/schedule"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

// SettingsRepository настройки синхронизации в sync_settings
type SettingsRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewSettingsRepository(pool *pgxpool.Pool, log *slog.Logger) *SettingsRepository {
	return &SettingsRepository{
		pool: pool,
		log:  log.With("component", "settings_repository"),
	}
}

func (r *SettingsRepository) Load(ctx context.Context, defaults schedule.Settings) (*schedule.Settings, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value, updated_at, updated_by FROM sync_settings`)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	out := defaults
	for rows.Next() {
		var (
			key   string
			value []byte
			at    time.Time
			by    string
		)
		if err := rows.Scan(&key, &value, &at, &by); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}

		switch key {
		case schedule.KeyNightlySync:
			err = json.Unmarshal(value, &out.NightlySyncEnabled)
		case schedule.KeyRetentionDays:
			err = json.Unmarshal(value, &out.RetentionDays)
		default:
			r.log.Warn("unknown setting ignored", "key", key)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("decode setting %s: %w", key, err)
		}

		if out.UpdatedAt == nil || at.After(*out.UpdatedAt) {
			at = at.UTC()
			out.UpdatedAt = &at
			out.UpdatedBy = by
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &out, nil
}

func (r *SettingsRepository) SaveNightlySync(ctx context.Context, enabled bool, by string, at time.Time) error {
	return r.save(ctx, schedule.KeyNightlySync, enabled, by, at)
}

func (r *SettingsRepository) SaveRetentionDays(ctx context.Context, days int, by string, at time.Time) error {
	return r.save(ctx, schedule.KeyRetentionDays, days, by, at)
}

func (r *SettingsRepository) save(ctx context.Context, key string, value any, by string, at time.Time) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", key, err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO sync_settings (key, value, updated_at, updated_by) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at, updated_by = EXCLUDED.updated_by`,
		key, data, at, by)
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
