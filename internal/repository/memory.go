package repository

import (
	"context"
	"sync"
	"time"

	"github.com/apolzek/neosearch/internal/models"
)

// MemoryStore keeps registries in process memory. It backs tests and
// deployments without a database DSN.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.Registry
	byOwner map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]models.Registry),
		byOwner: make(map[string][]string),
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (models.Registry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg, ok := m.records[id]
	if !ok {
		return models.Registry{}, ErrNotFound
	}
	return cloneRegistry(reg), nil
}

func (m *MemoryStore) ListActiveByOwner(_ context.Context, ownerID string) ([]models.Registry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Registry, 0)
	for _, id := range m.byOwner[ownerID] {
		reg, ok := m.records[id]
		if ok && reg.Active() {
			result = append(result, cloneRegistry(reg))
		}
	}
	return result, nil
}

func (m *MemoryStore) ListAllPublicActive(_ context.Context) ([]models.Registry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Registry, 0)
	for _, reg := range m.records {
		if reg.Public && reg.Active() {
			result = append(result, cloneRegistry(reg))
		}
	}
	return result, nil
}

func (m *MemoryStore) InsertBatch(_ context.Context, regs []models.Registry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Hash conflicts are validated first so the batch commits whole or
	// not at all.
	for _, reg := range regs {
		for _, id := range m.byOwner[reg.OwnerID] {
			existing := m.records[id]
			if existing.Active() && existing.ContentHash == reg.ContentHash {
				return ErrConflict
			}
		}
	}

	for _, reg := range regs {
		m.records[reg.ID] = cloneRegistry(reg)
		m.byOwner[reg.OwnerID] = append(m.byOwner[reg.OwnerID], reg.ID)
	}
	return nil
}

func (m *MemoryStore) Update(_ context.Context, reg models.Registry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.records[reg.ID]
	if !ok {
		return ErrNotFound
	}

	for _, id := range m.byOwner[current.OwnerID] {
		if id == reg.ID {
			continue
		}
		other := m.records[id]
		if other.Active() && other.ContentHash == reg.ContentHash {
			return ErrConflict
		}
	}

	// Immutable fields stay as created.
	reg.OwnerID = current.OwnerID
	reg.DateAdded = current.DateAdded
	reg.VisitCount = current.VisitCount
	reg.DateDeleted = current.DateDeleted
	m.records[reg.ID] = cloneRegistry(reg)
	return nil
}

func (m *MemoryStore) SoftDelete(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}

	deletedAt := at
	reg.DateDeleted = &deletedAt
	m.records[id] = reg
	return nil
}

func (m *MemoryStore) IncrementVisit(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}

	reg.VisitCount++
	m.records[id] = reg
	return nil
}

func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (m *MemoryStore) Close() {}

func cloneRegistry(reg models.Registry) models.Registry {
	if reg.Tags != nil {
		reg.Tags = append([]string(nil), reg.Tags...)
	}
	if reg.DateDeleted != nil {
		deleted := *reg.DateDeleted
		reg.DateDeleted = &deleted
	}
	return reg
}
