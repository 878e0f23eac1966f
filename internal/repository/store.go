package repository

import (
	"context"
	"errors"
	"time"

	"github.com/apolzek/neosearch/internal/models"
)

var (
	// ErrNotFound means no record with the given id exists.
	ErrNotFound = errors.New("registry not found")
	// ErrConflict means a write collided with an existing active record's
	// content hash for the same owner.
	ErrConflict = errors.New("registry already exists")
)

// Store is the registry persistence contract. All mutation is transactionally
// consistent: a reader never observes a half-written batch.
type Store interface {
	// Get returns a record by id, including soft-deleted ones; callers
	// apply visibility and liveness checks.
	Get(ctx context.Context, id string) (models.Registry, error)

	// ListActiveByOwner returns the owner's non-deleted records.
	ListActiveByOwner(ctx context.Context, ownerID string) ([]models.Registry, error)

	// ListAllPublicActive returns every non-deleted public record.
	ListAllPublicActive(ctx context.Context) ([]models.Registry, error)

	// InsertBatch atomically inserts the full slice or nothing.
	InsertBatch(ctx context.Context, regs []models.Registry) error

	// Update replaces the mutable fields of an existing record.
	Update(ctx context.Context, reg models.Registry) error

	// SoftDelete tombstones a record at the given instant.
	SoftDelete(ctx context.Context, id string, at time.Time) error

	// IncrementVisit bumps the visit counter without touching dateModified.
	IncrementVisit(ctx context.Context, id string) error

	Ping(ctx context.Context) error
	Close()
}
