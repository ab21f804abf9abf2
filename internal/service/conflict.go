package service

import (
	"context"
	"fmt"
	"reflect"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/record"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/samber/lo"
)

// ConflictStrategy names one of the supported healing strategies for a
// rejected write.
type ConflictStrategy string

const (
	// StrategyClientWins reapplies the client's fields on top of the
	// latest server state
	StrategyClientWins ConflictStrategy = "client_wins"
	// StrategyServerWins discards the client's changes and returns the
	// latest server state
	StrategyServerWins ConflictStrategy = "server_wins"
	// StrategyManualMerge applies a caller-supplied merged payload
	StrategyManualMerge ConflictStrategy = "manual_merge"
)

func (s ConflictStrategy) Validate() error {
	allowed := []ConflictStrategy{StrategyClientWins, StrategyServerWins, StrategyManualMerge}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid conflict strategy").
			WithHintf("Strategy must be one of %v", allowed).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ComputeDiff lists the fields that differ between two data payloads.
// Values are compared structurally; a field present on one side only
// appears with a nil counterpart.
func ComputeDiff(before, after map[string]any) []record.FieldChange {
	var changes []record.FieldChange

	keys := lo.Uniq(append(lo.Keys(before), lo.Keys(after)...))
	for _, key := range keys {
		oldVal, hadOld := before[key]
		newVal, hasNew := after[key]
		if hadOld && hasNew && equalValues(oldVal, newVal) {
			continue
		}
		if !hadOld && !hasNew {
			continue
		}
		changes = append(changes, record.FieldChange{
			Field:    key,
			OldValue: oldVal,
			NewValue: newVal,
		})
	}

	return changes
}

// equalValues compares data values across the numeric representations a
// JSON round trip can produce
func equalValues(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// ResolveConflictRequest carries one healing attempt. ClientData is the
// payload the rejected write carried; MergedData is required for the
// manual merge strategy and ignored otherwise.
type ResolveConflictRequest struct {
	RecordID   string           `json:"record_id"`
	Strategy   ConflictStrategy `json:"strategy"`
	ClientData map[string]any   `json:"client_data,omitempty"`
	MergedData map[string]any   `json:"merged_data,omitempty"`
}

func (r *ResolveConflictRequest) Validate() error {
	if r.RecordID == "" {
		return ierr.NewError("record id is required").
			WithHint("Record id must be provided").
			Mark(ierr.ErrValidation)
	}
	if err := r.Strategy.Validate(); err != nil {
		return err
	}
	if r.Strategy == StrategyClientWins && len(r.ClientData) == 0 {
		return ierr.NewError("client data is required").
			WithHint("The client_wins strategy needs the rejected payload").
			Mark(ierr.ErrValidation)
	}
	if r.Strategy == StrategyManualMerge && len(r.MergedData) == 0 {
		return ierr.NewError("merged data is required").
			WithHint("The manual_merge strategy needs the merged payload").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ConflictService heals version conflicts. Every strategy resolves
// against the latest server state and re-enters the version-checked
// update path, so a concurrent write during healing surfaces as a fresh
// conflict rather than a lost update.
type ConflictService interface {
	Resolve(ctx context.Context, req *ResolveConflictRequest) (*record.Record, error)
}

type conflictService struct {
	ServiceParams
	records RecordService
}

func NewConflictService(params ServiceParams, records RecordService) ConflictService {
	return &conflictService{ServiceParams: params, records: records}
}

func (s *conflictService) Resolve(ctx context.Context, req *ResolveConflictRequest) (*record.Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	latest, err := s.records.Get(ctx, req.RecordID)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	switch req.Strategy {
	case StrategyServerWins:
		// nothing to write, the server state stands
		s.Logger.Infow("conflict resolved, server state kept",
			"record_id", req.RecordID, "user_id", types.GetUserID(ctx))
		return latest, nil
	case StrategyClientWins:
		data = make(map[string]any, len(latest.Data))
		for k, v := range latest.Data {
			data[k] = v
		}
		for k, v := range req.ClientData {
			data[k] = v
		}
	case StrategyManualMerge:
		data = req.MergedData
	}

	healed, err := s.records.Update(ctx, &UpdateRecordRequest{
		ID:              req.RecordID,
		Data:            data,
		ExpectedVersion: latest.Version,
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("conflict resolved",
		"record_id", req.RecordID,
		"strategy", req.Strategy,
		"version", healed.Version,
		"user_id", types.GetUserID(ctx))
	return healed, nil
}
