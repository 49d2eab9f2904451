package schedule

import (
	"context"
	"time"

	"stortingsync/internal/domain/run"
)

// Repository хранилище настроек ключ-значение. Load накладывает
// сохраненные значения на defaults.
type Repository interface {
	Load(ctx context.Context, defaults Settings) (*Settings, error)
	SaveNightlySync(ctx context.Context, enabled bool, by string, at time.Time) error
	SaveRetentionDays(ctx context.Context, days int, by string, at time.Time) error
}

// Trigger регистрация периодического запуска
type Trigger interface {
	Register(name, spec string, fn func()) error
	Unregister(name string)
	Registered(name string) bool
}

// Starter запуск и отмена workflow синхронизации
type Starter interface {
	Start(ctx context.Context, trigger run.Trigger) (*run.StartResult, error)
	CancelRunning(ctx context.Context) (bool, error)
	IsRunning(ctx context.Context) (bool, error)
}
