package activity

import (
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/record"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

// Entry is one immutable row of the audit trail. Entries are only ever
// appended; the sole deletion path is the time-based retention sweep.
type Entry struct {
	ID           string               `json:"id" ch:"id"`
	UserID       string               `json:"user_id" ch:"user_id"`
	Module       types.Module         `json:"module" ch:"module"`
	EntityKey    string               `json:"entity" ch:"entity_key"`
	RecordID     string               `json:"record_id,omitempty" ch:"record_id"`
	Action       types.ActionType     `json:"action" ch:"action"`
	Changes      []record.FieldChange `json:"changes,omitempty" ch:"-"`
	IPAddress    string               `json:"ip_address,omitempty" ch:"ip_address"`
	UserAgent    string               `json:"user_agent,omitempty" ch:"user_agent"`
	OperationKey string               `json:"operation_key,omitempty" ch:"operation_key"`
	Timestamp    time.Time            `json:"timestamp" ch:"timestamp"`
}

func (e *Entry) Validate() error {
	if e.UserID == "" {
		return ierr.NewError("user id is required").
			WithHint("Activity entries need an actor").
			Mark(ierr.ErrValidation)
	}
	if err := e.Module.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Unknown module").
			Mark(ierr.ErrValidation)
	}
	if err := e.Action.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Unknown action").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SummaryBucket is one per-day per-action aggregate for a user
type SummaryBucket struct {
	Day    time.Time        `json:"day" ch:"day"`
	Action types.ActionType `json:"action" ch:"action"`
	Count  uint64           `json:"count" ch:"count"`
}

// EntityStats aggregates ledger volume per entity
type EntityStats struct {
	Module    types.Module `json:"module" ch:"module"`
	EntityKey string       `json:"entity" ch:"entity_key"`
	Count     uint64       `json:"count" ch:"count"`
	LastSeen  time.Time    `json:"last_seen" ch:"last_seen"`
}

// UserRank is one row of the activity-volume ranking
type UserRank struct {
	UserID string `json:"user_id" ch:"user_id"`
	Count  uint64 `json:"count" ch:"count"`
}
