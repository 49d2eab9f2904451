package memory

import (
	"context"
	"testing"

	"stortingsync/internal/domain/entity"
	syncdomain "stortingsync/internal/domain/sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func partyItem(t *testing.T, id, name string) syncdomain.Item {
	t.Helper()
	p := entity.Party{ID: id, Name: name, Represented: true}
	sum, err := syncdomain.Checksum(p)
	require.NoError(t, err)
	return syncdomain.Item{ExternalID: id, Checksum: sum, Record: p}
}

func TestSyncRepository_UpsertBatch(t *testing.T) {
	ctx := context.Background()
	store := New()
	repo := NewSyncRepository(store)

	counts, err := repo.UpsertBatch(ctx, entity.KindParty, []syncdomain.Item{
		partyItem(t, "A", "Arbeiderpartiet"),
		partyItem(t, "H", "Høyre"),
	})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.Counts{Added: 2}, counts)

	_, internalID, ok := store.Lookup(entity.KindParty, "H")
	require.True(t, ok)

	counts, err = repo.UpsertBatch(ctx, entity.KindParty, []syncdomain.Item{
		partyItem(t, "A", "Arbeiderpartiet"),
		partyItem(t, "H", "Høgre"),
		partyItem(t, "SV", "Sosialistisk Venstreparti"),
	})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.Counts{Added: 1, Updated: 1, Skipped: 1}, counts)

	rec, updatedID, ok := store.Lookup(entity.KindParty, "H")
	require.True(t, ok)
	assert.Equal(t, internalID, updatedID)
	assert.Equal(t, "Høgre", rec.(entity.Party).Name)

	entry, err := repo.CacheEntry(ctx, entity.KindParty, "H")
	require.NoError(t, err)
	want, err := syncdomain.Checksum(rec)
	require.NoError(t, err)
	assert.Equal(t, want, entry.Checksum)
	assert.Equal(t, internalID, entry.InternalID)
	assert.Equal(t, 3, store.Count(entity.KindParty))
}

func TestSyncRepository_DuplicateWithinBatch(t *testing.T) {
	repo := NewSyncRepository(New())

	counts, err := repo.UpsertBatch(context.Background(), entity.KindParty, []syncdomain.Item{
		partyItem(t, "A", "Arbeiderpartiet"),
		partyItem(t, "A", "Arbeiderpartiet"),
	})
	require.NoError(t, err)
	assert.Equal(t, syncdomain.Counts{Added: 1, Skipped: 1}, counts)
}

func TestSyncRepository_ConflictIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := New()
	repo := NewSyncRepository(store)

	_, err := repo.UpsertBatch(ctx, entity.KindParty, []syncdomain.Item{partyItem(t, "A", "Ap")})
	require.NoError(t, err)
	_, internalID, _ := store.Lookup(entity.KindParty, "A")
	store.DropEntity(entity.KindParty, internalID)

	_, err = repo.UpsertBatch(ctx, entity.KindParty, []syncdomain.Item{
		partyItem(t, "KrF", "Kristelig Folkeparti"),
		partyItem(t, "A", "Arbeiderpartiet"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, syncdomain.ErrStorageConflict)

	var conflict *syncdomain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "A", conflict.ExternalID)

	_, err = repo.CacheEntry(ctx, entity.KindParty, "KrF")
	assert.ErrorIs(t, err, syncdomain.ErrCacheMiss)
}

func TestSyncRepository_EmptyExternalID(t *testing.T) {
	repo := NewSyncRepository(New())
	_, err := repo.UpsertBatch(context.Background(), entity.KindParty, []syncdomain.Item{{Checksum: "x"}})
	assert.ErrorIs(t, err, syncdomain.ErrEmptyExternalID)
}
