// Package memory хранилище в памяти процесса с той же семантикой, что и
// postgres: для режима разработки (DATABASE_URI=memory://) и тестов.
package memory

import (
	"sync"
	"time"

	"stortingsync/internal/domain/entity"
	"stortingsync/internal/domain/run"
	syncdomain "stortingsync/internal/domain/sync"
	"stortingsync/internal/domain/workflow"
)

type setting struct {
	value     any
	updatedAt time.Time
	updatedBy string
}

// Store общее состояние всех репозиториев
type Store struct {
	mu sync.Mutex

	nextID   int64
	entities map[entity.Kind]map[int64]entity.Record
	cache    map[entity.Kind]map[string]syncdomain.CacheEntry

	nextRunID int64
	runs      map[int64]*run.Run

	settings map[string]setting

	instances map[string]*workflow.Instance
	steps     map[string]map[string]*workflow.StepRecord
}

func New() *Store {
	s := &Store{
		entities:  make(map[entity.Kind]map[int64]entity.Record),
		cache:     make(map[entity.Kind]map[string]syncdomain.CacheEntry),
		runs:      make(map[int64]*run.Run),
		settings:  make(map[string]setting),
		instances: make(map[string]*workflow.Instance),
		steps:     make(map[string]map[string]*workflow.StepRecord),
	}
	for _, kind := range entity.Kinds() {
		s.entities[kind] = make(map[int64]entity.Record)
		s.cache[kind] = make(map[string]syncdomain.CacheEntry)
	}
	return s
}

// Lookup запись и ее внутренний ID по внешнему ID
func (s *Store) Lookup(kind entity.Kind, externalID string) (entity.Record, int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[kind][externalID]
	if !ok {
		return nil, 0, false
	}
	rec, ok := s.entities[kind][entry.InternalID]
	return rec, entry.InternalID, ok
}

// Count число записей одного вида
func (s *Store) Count(kind entity.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities[kind])
}

// DropEntity удаляет запись, оставляя кэш; нужен для проверки конфликтов
func (s *Store) DropEntity(kind entity.Kind, internalID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities[kind], internalID)
}
