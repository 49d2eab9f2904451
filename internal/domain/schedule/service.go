package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stortingsync/internal/domain/run"

	"golang.org/x/exp/slog"
)

// Servicer операции контроллера расписания для API
type Servicer interface {
	Settings(ctx context.Context) (*Settings, error)
	GetNightlySyncEnabled(ctx context.Context) (bool, error)
	ToggleNightlySync(ctx context.Context, enabled bool, by string) (*Settings, error)
	GetRetentionDays(ctx context.Context) (int, error)
	UpdateRetentionDays(ctx context.Context, days int, by string) (*Settings, error)
	StartWorkflow(ctx context.Context, force bool) (*run.StartResult, error)
	CancelRunningSync(ctx context.Context) (bool, error)
	IsSyncRunning(ctx context.Context) (bool, error)
}

// Service единственный писатель настроек и регистрации расписания
type Service struct {
	repo    Repository
	trigger Trigger
	starter Starter
	log     *slog.Logger
	config  *ServiceConfig
	now     func() time.Time

	mu sync.Mutex
	// ctx для запусков по расписанию
	ctx context.Context
}

func NewService(repo Repository, trigger Trigger, starter Starter, log *slog.Logger, config *ServiceConfig) *Service {
	if config == nil {
		config = &ServiceConfig{}
	}
	if config.Cron == "" {
		config.Cron = DefaultCron
	}
	if config.Timezone == "" {
		config.Timezone = DefaultTimezone
	}
	if config.DefaultRetentionDays < 1 {
		config.DefaultRetentionDays = DefaultRetentionDays
	}

	return &Service{
		repo:    repo,
		trigger: trigger,
		starter: starter,
		log:     log.With("component", "schedule_controller"),
		config:  config,
		now:     func() time.Time { return time.Now().UTC() },
		ctx:     context.Background(),
	}
}

// Settings текущие настройки с расписанием и состоянием регистрации
func (s *Service) Settings(ctx context.Context) (*Settings, error) {
	settings, err := s.repo.Load(ctx, s.defaults())
	if err != nil {
		return nil, fmt.Errorf("load sync settings: %w", err)
	}
	settings.Registered = s.trigger.Registered(JobName)
	return settings, nil
}

// GetNightlySyncEnabled включена ли ночная синхронизация; по умолчанию нет
func (s *Service) GetNightlySyncEnabled(ctx context.Context) (bool, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return false, err
	}
	return settings.NightlySyncEnabled, nil
}

// ToggleNightlySync сохраняет флаг и регистрирует или снимает задание
func (s *Service) ToggleNightlySync(ctx context.Context, enabled bool, by string) (*Settings, error) {
	if err := s.repo.SaveNightlySync(ctx, enabled, by, s.now()); err != nil {
		return nil, fmt.Errorf("save nightly sync setting: %w", err)
	}

	if enabled {
		if err := s.register(); err != nil {
			return nil, err
		}
	} else if s.trigger.Registered(JobName) {
		s.trigger.Unregister(JobName)
		s.log.Info("nightly sync unregistered", "job", JobName)
	}

	return s.Settings(ctx)
}

func (s *Service) GetRetentionDays(ctx context.Context) (int, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return 0, err
	}
	return settings.RetentionDays, nil
}

// UpdateRetentionDays задает срок хранения истории, не меньше одного дня
func (s *Service) UpdateRetentionDays(ctx context.Context, days int, by string) (*Settings, error) {
	if days < 1 {
		return nil, ErrInvalidRetention
	}
	if err := s.repo.SaveRetentionDays(ctx, days, by, s.now()); err != nil {
		return nil, fmt.Errorf("save retention days: %w", err)
	}
	s.log.Info("sync run retention updated", "retention_days", days, "by", by)
	return s.Settings(ctx)
}

// StartWorkflow ручной запуск. Без force требует включенной ночной
// синхронизации. Активный запуск всегда блокирует новый.
func (s *Service) StartWorkflow(ctx context.Context, force bool) (*run.StartResult, error) {
	if !force {
		enabled, err := s.GetNightlySyncEnabled(ctx)
		if err != nil {
			return nil, err
		}
		if !enabled {
			return &run.StartResult{Reason: run.ReasonDisabled}, nil
		}
	}
	return s.starter.Start(ctx, run.TriggerManual)
}

// CancelRunningSync запрашивает отмену активного запуска, если он есть
func (s *Service) CancelRunningSync(ctx context.Context) (bool, error) {
	return s.starter.CancelRunning(ctx)
}

func (s *Service) IsSyncRunning(ctx context.Context) (bool, error) {
	return s.starter.IsRunning(ctx)
}

// Restore восстанавливает регистрацию задания после рестарта.
// ctx используется для последующих запусков по расписанию.
func (s *Service) Restore(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	enabled, err := s.GetNightlySyncEnabled(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		s.log.Debug("nightly sync disabled, nothing to restore")
		return nil
	}
	return s.register()
}

// RunScheduled обработчик срабатывания расписания
func (s *Service) RunScheduled() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	enabled, err := s.GetNightlySyncEnabled(ctx)
	if err != nil {
		s.log.Error("scheduled sync: failed to read settings", "error", err)
		return
	}
	if !enabled {
		s.log.Info("scheduled sync skipped", "reason", run.ReasonDisabled)
		return
	}

	res, err := s.starter.Start(ctx, run.TriggerScheduled)
	if err != nil {
		s.log.Error("scheduled sync failed to start", "error", err)
		return
	}
	if !res.Started {
		s.log.Info("scheduled sync skipped", "reason", res.Reason)
		return
	}
	s.log.Info("scheduled sync started", "workflow_id", res.WorkflowID)
}

func (s *Service) register() error {
	if s.trigger.Registered(JobName) {
		return nil
	}
	if err := s.trigger.Register(JobName, s.config.Cron, s.RunScheduled); err != nil {
		return fmt.Errorf("register nightly sync: %w", err)
	}
	s.log.Info("nightly sync registered", "job", JobName, "cron", s.config.Cron, "timezone", s.config.Timezone)
	return nil
}

func (s *Service) defaults() Settings {
	return Settings{
		RetentionDays: s.config.DefaultRetentionDays,
		Cron:          s.config.Cron,
		Timezone:      s.config.Timezone,
	}
}
