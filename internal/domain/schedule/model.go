package schedule

import "time"

const (
	// JobName имя регистрации ночной синхронизации в планировщике
	JobName = "stortinget-nightly-sync"

	DefaultCron          = "0 3 * * *"
	DefaultTimezone      = "UTC"
	DefaultRetentionDays = 30

	KeyNightlySync   = "nightly_sync_enabled"
	KeyRetentionDays = "sync_runs_retention_days"
)

// Settings агрегат настроек синхронизации
type Settings struct {
	NightlySyncEnabled bool       `json:"nightly_sync_enabled"`
	RetentionDays      int        `json:"sync_runs_retention_days"`
	Cron               string     `json:"cron"`
	Timezone           string     `json:"timezone"`
	Registered         bool       `json:"registered"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
	UpdatedBy          string     `json:"updated_by,omitempty"`
}

// ServiceConfig значения по умолчанию и расписание
type ServiceConfig struct {
	Cron                 string
	Timezone             string
	DefaultRetentionDays int
}
