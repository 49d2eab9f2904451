package memory

import (
	"context"

	"stortingsync/internal/domain/entity"
	syncdomain "stortingsync/internal/domain/sync"
)

// SyncRepository пакетная запись сущностей и кэша синхронизации
type SyncRepository struct {
	store *Store
}

func NewSyncRepository(store *Store) *SyncRepository {
	return &SyncRepository{store: store}
}

type plannedWrite struct {
	item       syncdomain.Item
	action     syncdomain.Action
	internalID int64
}

// UpsertBatch применяет пакет целиком или не применяет ничего
func (r *SyncRepository) UpsertBatch(ctx context.Context, kind entity.Kind, items []syncdomain.Item) (syncdomain.Counts, error) {
	if err := ctx.Err(); err != nil {
		return syncdomain.Counts{}, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.cache[kind]
	rows := s.entities[kind]

	// пакет видит собственные вставки, как и внутри транзакции
	pending := make(map[string]syncdomain.CacheEntry)
	plan := make([]plannedWrite, 0, len(items))
	nextID := s.nextID
	var counts syncdomain.Counts

	for _, item := range items {
		if item.ExternalID == "" {
			return syncdomain.Counts{}, syncdomain.ErrEmptyExternalID
		}

		entry, ok := pending[item.ExternalID]
		if !ok {
			entry, ok = cache[item.ExternalID]
		}

		switch {
		case ok && entry.Checksum == item.Checksum:
			counts.Inc(syncdomain.ActionSkipped)
			continue
		case ok:
			if _, exists := rows[entry.InternalID]; !exists {
				if _, planned := pending[item.ExternalID]; !planned {
					return syncdomain.Counts{}, &syncdomain.ConflictError{
						Kind:       kind,
						ExternalID: item.ExternalID,
						Reason:     "cached record is missing",
					}
				}
			}
			plan = append(plan, plannedWrite{item: item, action: syncdomain.ActionUpdated, internalID: entry.InternalID})
		default:
			nextID++
			entry = syncdomain.CacheEntry{Kind: kind, ExternalID: item.ExternalID, InternalID: nextID}
			plan = append(plan, plannedWrite{item: item, action: syncdomain.ActionAdded, internalID: nextID})
		}

		entry.Checksum = item.Checksum
		pending[item.ExternalID] = entry
		counts.Inc(plan[len(plan)-1].action)
	}

	for _, w := range plan {
		rows[w.internalID] = w.item.Record
	}
	for id, entry := range pending {
		cache[id] = entry
	}
	s.nextID = nextID

	return counts, nil
}

func (r *SyncRepository) CacheEntry(ctx context.Context, kind entity.Kind, externalID string) (*syncdomain.CacheEntry, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[kind][externalID]
	if !ok {
		return nil, syncdomain.ErrCacheMiss
	}
	return &entry, nil
}
