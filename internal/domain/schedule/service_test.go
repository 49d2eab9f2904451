package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"stortingsync/internal/domain/run"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Load(ctx context.Context, defaults Settings) (*Settings, error) {
	args := m.Called(ctx, defaults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Settings), args.Error(1)
}

func (m *MockRepository) SaveNightlySync(ctx context.Context, enabled bool, by string, at time.Time) error {
	args := m.Called(ctx, enabled, by, at)
	return args.Error(0)
}

func (m *MockRepository) SaveRetentionDays(ctx context.Context, days int, by string, at time.Time) error {
	args := m.Called(ctx, days, by, at)
	return args.Error(0)
}

type fakeTrigger struct {
	jobs map[string]func()
	spec string
	err  error
}

func (f *fakeTrigger) Register(name, spec string, fn func()) error {
	if f.err != nil {
		return f.err
	}
	f.jobs[name] = fn
	f.spec = spec
	return nil
}

func (f *fakeTrigger) Unregister(name string) {
	delete(f.jobs, name)
}

func (f *fakeTrigger) Registered(name string) bool {
	_, ok := f.jobs[name]
	return ok
}

type MockStarter struct {
	mock.Mock
}

func (m *MockStarter) Start(ctx context.Context, trigger run.Trigger) (*run.StartResult, error) {
	args := m.Called(ctx, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.StartResult), args.Error(1)
}

func (m *MockStarter) CancelRunning(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockStarter) IsRunning(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

var fixedNow = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestService() (*Service, *MockRepository, *fakeTrigger, *MockStarter) {
	repo := new(MockRepository)
	trig := &fakeTrigger{jobs: map[string]func(){}}
	starter := new(MockStarter)
	svc := NewService(repo, trig, starter, slog.Default(), nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, trig, starter
}

func settings(enabled bool, days int) *Settings {
	return &Settings{NightlySyncEnabled: enabled, RetentionDays: days, Cron: DefaultCron, Timezone: DefaultTimezone}
}

func TestService_ToggleNightlySync(t *testing.T) {
	ctx := context.Background()
	svc, repo, trig, _ := newTestService()

	repo.On("SaveNightlySync", ctx, true, "ops", fixedNow).Return(nil).Once()
	repo.On("Load", ctx, mock.Anything).Return(settings(true, 30), nil).Once()

	got, err := svc.ToggleNightlySync(ctx, true, "ops")
	require.NoError(t, err)
	assert.True(t, got.NightlySyncEnabled)
	assert.True(t, got.Registered)
	assert.True(t, trig.Registered(JobName))
	assert.Equal(t, DefaultCron, trig.spec)

	repo.On("SaveNightlySync", ctx, false, "ops", fixedNow).Return(nil).Once()
	repo.On("Load", ctx, mock.Anything).Return(settings(false, 30), nil).Once()

	got, err = svc.ToggleNightlySync(ctx, false, "ops")
	require.NoError(t, err)
	assert.False(t, got.Registered)
	assert.False(t, trig.Registered(JobName))
	repo.AssertExpectations(t)
}

func TestService_ToggleNightlySync_RegisterError(t *testing.T) {
	ctx := context.Background()
	svc, repo, trig, _ := newTestService()
	trig.err = errors.New("bad spec")
	repo.On("SaveNightlySync", ctx, true, "", fixedNow).Return(nil)

	_, err := svc.ToggleNightlySync(ctx, true, "")
	assert.ErrorContains(t, err, "register nightly sync")
}

func TestService_UpdateRetentionDays(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		svc, repo, _, _ := newTestService()
		repo.On("SaveRetentionDays", ctx, 7, "admin", fixedNow).Return(nil)
		repo.On("Load", ctx, mock.Anything).Return(settings(false, 7), nil)

		got, err := svc.UpdateRetentionDays(ctx, 7, "admin")
		require.NoError(t, err)
		assert.Equal(t, 7, got.RetentionDays)
	})

	for _, days := range []int{0, -1} {
		t.Run("rejects below one", func(t *testing.T) {
			svc, repo, _, _ := newTestService()
			_, err := svc.UpdateRetentionDays(ctx, days, "admin")
			assert.ErrorIs(t, err, ErrInvalidRetention)
			repo.AssertNotCalled(t, "SaveRetentionDays", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestService_GetDefaults(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newTestService()
	repo.On("Load", ctx, Settings{RetentionDays: DefaultRetentionDays, Cron: DefaultCron, Timezone: DefaultTimezone}).
		Return(settings(false, DefaultRetentionDays), nil)

	enabled, err := svc.GetNightlySyncEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	days, err := svc.GetRetentionDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, days)
}

func TestService_StartWorkflow(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without force", func(t *testing.T) {
		svc, repo, _, starter := newTestService()
		repo.On("Load", ctx, mock.Anything).Return(settings(false, 30), nil)

		res, err := svc.StartWorkflow(ctx, false)
		require.NoError(t, err)
		assert.False(t, res.Started)
		assert.Equal(t, run.ReasonDisabled, res.Reason)
		starter.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
	})

	t.Run("force bypasses setting", func(t *testing.T) {
		svc, repo, _, starter := newTestService()
		starter.On("Start", ctx, run.TriggerManual).Return(&run.StartResult{Started: true, WorkflowID: "wf"}, nil)

		res, err := svc.StartWorkflow(ctx, true)
		require.NoError(t, err)
		assert.True(t, res.Started)
		repo.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
	})

	t.Run("enabled, already running", func(t *testing.T) {
		svc, repo, _, starter := newTestService()
		repo.On("Load", ctx, mock.Anything).Return(settings(true, 30), nil)
		starter.On("Start", ctx, run.TriggerManual).Return(&run.StartResult{Reason: run.ReasonAlreadyRunning}, nil)

		res, err := svc.StartWorkflow(ctx, false)
		require.NoError(t, err)
		assert.False(t, res.Started)
		assert.Equal(t, run.ReasonAlreadyRunning, res.Reason)
	})
}

func TestService_RestoreAndRunScheduled(t *testing.T) {
	ctx := context.Background()
	svc, repo, trig, starter := newTestService()
	repo.On("Load", ctx, mock.Anything).Return(settings(true, 30), nil)
	starter.On("Start", ctx, run.TriggerScheduled).Return(&run.StartResult{Started: true, WorkflowID: "wf"}, nil).Once()

	require.NoError(t, svc.Restore(ctx))
	require.True(t, trig.Registered(JobName))

	trig.jobs[JobName]()
	starter.AssertExpectations(t)
}

func TestService_RunScheduled_RechecksSetting(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, starter := newTestService()
	repo.On("Load", ctx, mock.Anything).Return(settings(false, 30), nil)

	require.NoError(t, svc.Restore(ctx))
	svc.RunScheduled()
	starter.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
}

func TestService_CancelAndRunning(t *testing.T) {
	ctx := context.Background()
	svc, _, _, starter := newTestService()
	starter.On("CancelRunning", ctx).Return(true, nil)
	starter.On("IsRunning", ctx).Return(false, nil)

	ok, err := svc.CancelRunningSync(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	running, err := svc.IsSyncRunning(ctx)
	require.NoError(t, err)
	assert.False(t, running)
}
