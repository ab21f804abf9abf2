package record

import (
	"context"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

// Repository is the persistence contract for versioned business records.
//
// UpdateWithVersion and UpdateStatus are conditional single-statement
// writes: the storage layer performs the compare-and-swap, so there is
// no read-then-write race in application code.
type Repository interface {
	Create(ctx context.Context, r *Record) error

	// Get returns the record; soft-deleted records yield ErrNotFound
	Get(ctx context.Context, id string) (*Record, error)
	// GetAny returns the record regardless of its deletion flag
	GetAny(ctx context.Context, id string) (*Record, error)

	List(ctx context.Context, filter *types.RecordFilter) ([]*Record, error)
	Count(ctx context.Context, filter *types.RecordFilter) (int, error)
	// CountByEntity counts live records referencing an entity key
	CountByEntity(ctx context.Context, module types.Module, entityKey string) (int, error)

	// UpdateWithVersion applies r.Data to the stored record iff its
	// current version equals expectedVersion and it is not soft-deleted.
	// On success the stored version becomes expectedVersion+1 and r is
	// refreshed in place. Returns ErrVersionConflict on a stale version
	// and ErrNotFound for missing or deleted records.
	UpdateWithVersion(ctx context.Context, r *Record, expectedVersion int) error

	// UpdateStatus moves the workflow state iff the stored status equals
	// from. Returns ErrInvalidTransition when the stored status moved.
	UpdateStatus(ctx context.Context, id string, from, to types.RecordStatus, actorID string) (*Record, error)

	// SoftDelete hides the record from default reads; audit history stays
	SoftDelete(ctx context.Context, id, actorID string) error
	// Restore clears the deletion flag
	Restore(ctx context.Context, id, actorID string) error
}
