package sync

import (
	"stortingsync/internal/domain/entity"
)

// Action решение пакетной записи по одному элементу
type Action string

const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
)

// Counts счетчики added/updated/skipped
type Counts struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Add возвращает сумму счетчиков
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Added:   c.Added + o.Added,
		Updated: c.Updated + o.Updated,
		Skipped: c.Skipped + o.Skipped,
	}
}

// Total общее число обработанных элементов
func (c Counts) Total() int {
	return c.Added + c.Updated + c.Skipped
}

// Inc увеличивает счетчик действия
func (c *Counts) Inc(a Action) {
	switch a {
	case ActionAdded:
		c.Added++
	case ActionUpdated:
		c.Updated++
	case ActionSkipped:
		c.Skipped++
	}
}

// Item элемент пакета: внешний идентификатор, нормализованные данные и их контрольная сумма
type Item struct {
	ExternalID string
	Checksum   string
	Record     entity.Record
}

// CacheEntry запись кэша синхронизации
type CacheEntry struct {
	Kind       entity.Kind
	ExternalID string
	InternalID int64
	Checksum   string
}

// Summary итог одной синхронизации: счетчики и все увиденные внешние ID,
// в том числе пропущенные без изменений.
type Summary struct {
	Counts Counts   `json:"counts"`
	IDs    []string `json:"ids"`
}

// ServiceConfig конфигурация сервиса синхронизации
type ServiceConfig struct {
	BatchSize int `json:"batch_size"`
}

const DefaultBatchSize = 50
