package record

import (
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

// Record is the mutable unit under optimistic concurrency control.
// Version starts at 1 and strictly increments by exactly 1 on every
// accepted mutation; a write naming a stale version is rejected.
type Record struct {
	ID        string             `db:"id" json:"id"`
	Module    types.Module       `db:"module" json:"module"`
	EntityKey string             `db:"entity_key" json:"entity_key"`
	Data      map[string]any     `db:"-" json:"data"`
	Version   int                `db:"version" json:"version"`
	Status    types.RecordStatus `db:"status" json:"status"`
	CreatedBy string             `db:"created_by" json:"created_by"`
	UpdatedBy string             `db:"updated_by" json:"updated_by"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt time.Time          `db:"updated_at" json:"updated_at"`
	IsDeleted bool               `db:"is_deleted" json:"is_deleted"`
}

// FieldChange is one entry of a field-level diff between two data maps
type FieldChange struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
}
