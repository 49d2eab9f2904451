package health

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

const (
	StatusOK          = "OK"
	StatusUnavailable = "UNAVAILABLE"

	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Pinger проверка хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend хранилище под проверкой; Pinger nil, если проверять нечего
type Backend struct {
	Name   string
	Pinger Pinger
}

// Engine число выполняемых экземпляров workflow
type Engine interface {
	Running() int
}

type Handler struct {
	storage    Backend
	journal    Backend
	engine     Engine
	log        *slog.Logger
	middleware huma.Middlewares
}

// NewHandler хранилище без имени считается памятью
func NewHandler(storage, journal Backend, engine Engine, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		storage:    named(storage),
		journal:    named(journal),
		engine:     engine,
		log:        log,
		middleware: middleware,
	}
}

func named(b Backend) Backend {
	if b.Name == "" {
		b.Name = BackendMemory
	}
	return b
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
}

func (h *Handler) healthCheck(ctx context.Context, _ *Input) (*Output, error) {
	h.log.Debug("health check request received")

	out := &Output{Body: Response{Status: StatusOK}}
	if h.engine != nil {
		out.Body.Running = h.engine.Running()
	}

	var errs []error
	out.Body.Storage, errs = h.check(ctx, "storage", h.storage, errs)
	out.Body.Journal, errs = h.check(ctx, "journal", h.journal, errs)
	if len(errs) > 0 {
		return nil, huma.Error503ServiceUnavailable("storage unavailable", errs...)
	}
	return out, nil
}

func (h *Handler) check(ctx context.Context, role string, b Backend, errs []error) (Component, []error) {
	c := Component{Backend: b.Name, Durable: b.Name != BackendMemory, Status: StatusOK}
	if b.Pinger == nil {
		return c, errs
	}
	if err := b.Pinger.Ping(ctx); err != nil {
		h.log.Error("backend ping failed", "role", role, "backend", b.Name, "error", err)
		c.Status = StatusUnavailable
		errs = append(errs, fmt.Errorf("%s (%s): %w", role, b.Name, err))
	}
	return c, errs
}
