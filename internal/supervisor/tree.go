// Package supervisor дерево suture-сервисов процесса синхронизации.
package supervisor

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"
	"golang.org/x/exp/slog"
)

// TreeConfig параметры перезапуска упавших сервисов
type TreeConfig struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// DefaultTreeConfig значения по умолчанию suture
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree два слоя: фоновые сервисы (движок workflow, cron) и API.
// Падение HTTP-сервера не останавливает идущую синхронизацию.
type Tree struct {
	root       *suture.Supervisor
	background *suture.Supervisor
	api        *suture.Supervisor
	log        *slog.Logger
}

func NewTree(log *slog.Logger, config TreeConfig) *Tree {
	def := DefaultTreeConfig()
	if config.FailureThreshold == 0 {
		config.FailureThreshold = def.FailureThreshold
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = def.FailureDecay
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = def.FailureBackoff
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = def.ShutdownTimeout
	}

	log = log.With("component", "supervisor")

	rootSpec := suture.Spec{
		EventHook:        eventHook(log),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("stortingsync", rootSpec)
	background := suture.New("background", childSpec)
	api := suture.New("api", childSpec)
	root.Add(background)
	root.Add(api)

	return &Tree{root: root, background: background, api: api, log: log}
}

// AddBackground движок workflow, cron и прочие фоновые сервисы
func (t *Tree) AddBackground(svc suture.Service) suture.ServiceToken {
	return t.background.Add(svc)
}

// AddAPI HTTP-сервер
func (t *Tree) AddAPI(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve блокирует до отмены ctx
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport сервисы, не остановившиеся за ShutdownTimeout
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// eventHook пишет события suture в slog
func eventHook(log *slog.Logger) suture.EventHook {
	return func(e suture.Event) {
		attrs := make([]any, 0, 2*len(e.Map())+2)
		attrs = append(attrs, "event", eventName(e.Type()))
		for k, v := range e.Map() {
			attrs = append(attrs, k, v)
		}

		switch e.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeServiceTerminate, suture.EventTypeStopTimeout:
			log.Error(e.String(), attrs...)
		case suture.EventTypeBackoff:
			log.Warn(e.String(), attrs...)
		default:
			log.Info(e.String(), attrs...)
		}
	}
}

func eventName(t suture.EventType) string {
	switch t {
	case suture.EventTypeStopTimeout:
		return "stop_timeout"
	case suture.EventTypeServicePanic:
		return "service_panic"
	case suture.EventTypeServiceTerminate:
		return "service_terminate"
	case suture.EventTypeBackoff:
		return "backoff"
	case suture.EventTypeResume:
		return "resume"
	}
	return "unknown"
}
