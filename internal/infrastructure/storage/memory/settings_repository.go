package memory

import (
	"context"
	"time"

	"stortingsync/internal/domain/schedule"
)

// SettingsRepository настройки синхронизации
type SettingsRepository struct {
	store *Store
}

func NewSettingsRepository(store *Store) *SettingsRepository {
	return &SettingsRepository{store: store}
}

func (r *SettingsRepository) Load(ctx context.Context, defaults schedule.Settings) (*schedule.Settings, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	out := defaults
	var latest *setting
	for key, st := range s.settings {
		switch key {
		case schedule.KeyNightlySync:
			out.NightlySyncEnabled = st.value.(bool)
		case schedule.KeyRetentionDays:
			out.RetentionDays = st.value.(int)
		}
		if latest == nil || st.updatedAt.After(latest.updatedAt) {
			latest = &st
		}
	}
	if latest != nil {
		at := latest.updatedAt
		out.UpdatedAt = &at
		out.UpdatedBy = latest.updatedBy
	}
	return &out, nil
}

func (r *SettingsRepository) SaveNightlySync(ctx context.Context, enabled bool, by string, at time.Time) error {
	r.save(schedule.KeyNightlySync, enabled, by, at)
	return nil
}

func (r *SettingsRepository) SaveRetentionDays(ctx context.Context, days int, by string, at time.Time) error {
	r.save(schedule.KeyRetentionDays, days, by, at)
	return nil
}

func (r *SettingsRepository) save(key string, value any, by string, at time.Time) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = setting{value: value, updatedAt: at, updatedBy: by}
}
