// Package scheduler периодический запуск заданий по cron-выражению.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"
)

// Cron реализация schedule.Trigger поверх robfig/cron.
// Serve запускает планировщик под supervisor.
type Cron struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	log     *slog.Logger
}

// New создает планировщик в часовом поясе tz
func New(tz string, log *slog.Logger) (*Cron, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", tz, err)
	}
	return &Cron{
		cron:    cron.New(cron.WithLocation(loc)),
		entries: make(map[string]cron.EntryID),
		log:     log.With("component", "scheduler"),
	}, nil
}

// Register заменяет задание name, если оно уже есть
func (c *Cron) Register(name, spec string, fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.entries[name]; ok {
		c.cron.Remove(id)
		delete(c.entries, name)
	}

	id, err := c.cron.AddFunc(spec, func() {
		c.log.Info("scheduled job fired", "job", name)
		fn()
	})
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	c.entries[name] = id
	c.log.Info("job registered", "job", name, "spec", spec, "next", c.cron.Entry(id).Next)
	return nil
}

func (c *Cron) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.entries[name]
	if !ok {
		return
	}
	c.cron.Remove(id)
	delete(c.entries, name)
	c.log.Info("job unregistered", "job", name)
}

func (c *Cron) Registered(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[name]
	return ok
}

// Next время следующего запуска задания
func (c *Cron) Next(name string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return c.cron.Entry(id).Next, true
}

// Serve работает до отмены ctx, затем ждет завершения запущенных заданий
func (c *Cron) Serve(ctx context.Context) error {
	c.cron.Start()
	<-ctx.Done()
	<-c.cron.Stop().Done()
	return ctx.Err()
}

func (c *Cron) String() string {
	return "cron-scheduler"
}
