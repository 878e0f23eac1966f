package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apolzek/neosearch/internal/models"
)

func newTestRegistry(id, owner, url, hash string, public bool) models.Registry {
	now := time.Now()
	return models.Registry{
		ID:           id,
		OwnerID:      owner,
		URL:          url,
		Tags:         []string{"test"},
		Public:       public,
		ContentHash:  hash,
		DateAdded:    now,
		DateModified: now,
	}
}

func TestMemoryStoreInsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	reg := newTestRegistry("id-1", "alice", "https://golang.org", "hash-1", true)
	require.NoError(t, store.InsertBatch(ctx, []models.Registry{reg}))

	got, err := store.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "https://golang.org", got.URL)
	assert.Equal(t, "alice", got.OwnerID)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreInsertBatchIsAtomicOnConflict(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.InsertBatch(ctx, []models.Registry{
		newTestRegistry("id-1", "alice", "https://golang.org", "hash-1", true),
	}))

	err := store.InsertBatch(ctx, []models.Registry{
		newTestRegistry("id-2", "alice", "https://kubernetes.io", "hash-2", true),
		newTestRegistry("id-3", "alice", "https://golang.org", "hash-1", true),
	})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = store.Get(ctx, "id-2")
	assert.ErrorIs(t, err, ErrNotFound, "nothing from the failed batch may persist")
}

func TestMemoryStoreConflictIsPerOwner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.InsertBatch(ctx, []models.Registry{
		newTestRegistry("id-1", "alice", "https://golang.org", "hash-1", true),
	}))

	// Same hash under a different owner is not a conflict.
	require.NoError(t, store.InsertBatch(ctx, []models.Registry{
		newTestRegistry("id-2", "bob", "https://golang.org", "hash-1", true),
	}))
}

func TestMemoryStoreListActiveByOwnerSkipsDeleted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.InsertBatch(ctx, []models.Registry{
		newTestRegistry("id-1", "alice", "https://golang.org", "hash-1", true),
		newTestRegistry("id-2", "alice", "https://kubernetes.io", "hash-2", false),
	}))

	require.NoError(t, store.SoftDelete(ctx, "id-1", time.Now()))

	active, err := store.ListActiveByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "id-2", active[0].ID)
}

func TestMemoryStoreListAllPublicActive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.InsertBatch(ctx, []models.Registry{
		newTestRegistry("id-1", "alice", "https://golang.org", "hash-1", true),
		newTestRegistry("id-2", "alice", "https://kubernetes.io", "hash-2", false),
		newTestRegistry("id-3", "bob", "https://redis.io", "hash-3", true),
	}))

	public, err := store.ListAllPublicActive(ctx)
	require.NoError(t, err)
	assert.Len(t, public, 2)
}

func TestMemoryStoreUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	reg := newTestRegistry("id-1", "alice", "https://golang.org", "hash-1", true)
	require.NoError(t, store.InsertBatch(ctx, []models.Registry{reg}))

	reg.Description = "the Go website"
	reg.ContentHash = "hash-1b"
	reg.DateModified = time.Now().Add(time.Minute)
	require.NoError(t, store.Update(ctx, reg))

	got, err := store.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "the Go website", got.Description)
	assert.Equal(t, "hash-1b", got.ContentHash)

	assert.ErrorIs(t, store.Update(ctx, newTestRegistry("missing", "alice", "https://x.dev", "h", true)), ErrNotFound)
}

func TestMemoryStoreUpdateRejectsHashClash(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.InsertBatch(ctx, []models.Registry{
		newTestRegistry("id-1", "alice", "https://golang.org", "hash-1", true),
		newTestRegistry("id-2", "alice", "https://kubernetes.io", "hash-2", true),
	}))

	clash := newTestRegistry("id-2", "alice", "https://golang.org", "hash-1", true)
	assert.ErrorIs(t, store.Update(ctx, clash), ErrConflict)
}

func TestMemoryStoreIncrementVisit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.InsertBatch(ctx, []models.Registry{
		newTestRegistry("id-1", "alice", "https://golang.org", "hash-1", true),
	}))

	require.NoError(t, store.IncrementVisit(ctx, "id-1"))
	require.NoError(t, store.IncrementVisit(ctx, "id-1"))

	got, err := store.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.VisitCount)

	assert.ErrorIs(t, store.IncrementVisit(ctx, "missing"), ErrNotFound)
}
