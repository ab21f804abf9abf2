package service

import (
	"context"
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/activity"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/permission"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/record"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/schema"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/samber/lo"
)

// CreateRecordRequest carries one record creation
type CreateRecordRequest struct {
	Module    types.Module   `json:"module" binding:"required"`
	EntityKey string         `json:"entity" binding:"required"`
	Data      map[string]any `json:"data" binding:"required"`
}

// UpdateRecordRequest carries one versioned update. ExpectedVersion is
// the version the caller read; a stale value is rejected with a
// conflict carrying the latest server state.
type UpdateRecordRequest struct {
	ID              string         `json:"-"`
	Data            map[string]any `json:"data" binding:"required"`
	ExpectedVersion int            `json:"version" binding:"required"`
}

// RecordService is the permission-checked, version-guarded access layer
// over business records. Every mutation appends to the activity ledger
// and fans out a change event after the write commits; both are best
// effort.
type RecordService interface {
	Create(ctx context.Context, req *CreateRecordRequest) (*record.Record, error)
	Get(ctx context.Context, id string) (*record.Record, error)
	List(ctx context.Context, filter *types.RecordFilter) (*types.ListResponse[*record.Record], error)
	Update(ctx context.Context, req *UpdateRecordRequest) (*record.Record, error)
	Transition(ctx context.Context, id string, target types.RecordStatus, comment string) (*record.Record, error)
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) (*record.Record, error)
}

type recordService struct {
	ServiceParams
	policy   PolicyService
	entities EntityService
	activity ActivityService
	notifier NotifierService
}

func NewRecordService(
	params ServiceParams,
	policy PolicyService,
	entities EntityService,
	activitySvc ActivityService,
	notifier NotifierService,
) RecordService {
	return &recordService{
		ServiceParams: params,
		policy:        policy,
		entities:      entities,
		activity:      activitySvc,
		notifier:      notifier,
	}
}

func (s *recordService) Create(ctx context.Context, req *CreateRecordRequest) (*record.Record, error) {
	userID := types.GetUserID(ctx)
	scope, err := s.resolveScope(ctx, req.Module, req.EntityKey)
	if err != nil {
		return nil, err
	}
	if !permission.CanCreate(scope) {
		return nil, s.deny("create", req.Module, req.EntityKey)
	}

	ent, err := s.entities.GetEntity(ctx, req.Module, req.EntityKey)
	if err != nil {
		return nil, err
	}
	if !ent.IsEnabled {
		return nil, ierr.NewError("entity is disabled").
			WithHintf("Entity %s does not accept new records", req.EntityKey).
			Mark(ierr.ErrInvalidOperation)
	}

	data, err := s.validateData(ctx, req.Module, req.EntityKey, req.Data)
	if err != nil {
		return nil, err
	}
	for field := range data {
		if !permission.CanEditColumn(scope, field) {
			return nil, ierr.NewError("column is not writable").
				WithHintf("You cannot write the %s column", field).
				Mark(ierr.ErrPermissionDenied)
		}
	}

	now := time.Now().UTC()
	rec := &record.Record{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RECORD),
		Module:    req.Module,
		EntityKey: req.EntityKey,
		Data:      data,
		Version:   1,
		Status:    types.RecordStatusDraft,
		CreatedBy: userID,
		UpdatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.RecordRepo.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.audit(ctx, rec, types.ActionCreate, nil)
	s.notify(ctx, rec, EventRecordCreated, nil)
	return s.redact(scope, rec), nil
}

func (s *recordService) Get(ctx context.Context, id string) (*record.Record, error) {
	rec, err := s.RecordRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	scope, err := s.resolveScope(ctx, rec.Module, rec.EntityKey)
	if err != nil {
		return nil, err
	}
	visible, err := s.recordVisible(ctx, scope, rec)
	if err != nil {
		return nil, err
	}
	if !visible {
		// hide existence from out-of-scope readers
		return nil, ierr.NewError("record not found").
			WithHintf("Record %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}

	return s.redact(scope, rec), nil
}

func (s *recordService) List(ctx context.Context, filter *types.RecordFilter) (*types.ListResponse[*record.Record], error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)
	scope, err := s.resolveScope(ctx, filter.Module, filter.EntityKey)
	if err != nil {
		return nil, err
	}
	if !permission.HasAccess(scope) {
		return nil, s.deny("list", filter.Module, filter.EntityKey)
	}

	// restricted scopes narrow at the query so paging and totals stay
	// consistent
	switch scope.RecordScope {
	case types.RecordScopeOwn:
		filter.CreatedBy = &userID
	case types.RecordScopeDepartment:
		creators, err := s.departmentCreators(ctx, userID)
		if err != nil {
			return nil, err
		}
		filter.CreatedByIn = creators
	}

	records, err := s.RecordRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.RecordRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	for i, rec := range records {
		records[i] = s.redact(scope, rec)
	}

	return types.NewListResponse(records, total, filter.QueryFilter), nil
}

func (s *recordService) Update(ctx context.Context, req *UpdateRecordRequest) (*record.Record, error) {
	userID := types.GetUserID(ctx)
	current, err := s.RecordRepo.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	scope, err := s.resolveScope(ctx, current.Module, current.EntityKey)
	if err != nil {
		return nil, err
	}
	same, err := s.sameDepartment(ctx, scope, userID, current.CreatedBy)
	if err != nil {
		return nil, err
	}
	if !permission.CanEditRecord(scope, current.CreatedBy, userID, same) {
		return nil, s.deny("edit", current.Module, current.EntityKey)
	}

	// hidden and read-only columns keep their stored values; the incoming
	// payload only overlays the fields it names
	merged := make(map[string]any, len(current.Data))
	for k, v := range current.Data {
		merged[k] = v
	}
	for k, v := range req.Data {
		merged[k] = v
	}

	data, err := s.validateMergedData(ctx, current.Module, current.EntityKey, merged, req.Data)
	if err != nil {
		return nil, err
	}

	changes := ComputeDiff(current.Data, data)
	if len(changes) == 0 {
		return s.redact(scope, current), nil
	}
	for _, change := range changes {
		if !permission.CanEditColumn(scope, change.Field) {
			return nil, ierr.NewError("column is not writable").
				WithHintf("You cannot write the %s column", change.Field).
				Mark(ierr.ErrPermissionDenied)
		}
	}

	updated := &record.Record{
		ID:        current.ID,
		Module:    current.Module,
		EntityKey: current.EntityKey,
		Data:      data,
		UpdatedBy: userID,
	}
	err = s.RecordRepo.UpdateWithVersion(ctx, updated, req.ExpectedVersion)
	if ierr.IsVersionConflict(err) {
		return nil, s.conflictWithLatest(ctx, scope, req.ID, req.ExpectedVersion, err)
	}
	if err != nil {
		return nil, err
	}

	s.audit(ctx, updated, types.ActionUpdate, changes)
	s.notify(ctx, updated, EventRecordUpdated, changes)
	return s.redact(scope, updated), nil
}

func (s *recordService) Transition(ctx context.Context, id string, target types.RecordStatus, comment string) (*record.Record, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)
	role := types.GetUserRole(ctx)
	current, err := s.RecordRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	scope, err := s.resolveScope(ctx, current.Module, current.EntityKey)
	if err != nil {
		return nil, err
	}

	if !current.Status.CanTransitionTo(target) {
		return nil, ierr.NewError("invalid state transition").
			WithHintf("A %s record cannot become %s", current.Status, target).
			WithReportableDetails(map[string]any{
				"current_status": current.Status,
				"target_status":  target,
			}).
			Mark(ierr.ErrInvalidTransition)
	}

	// approval decisions are reserved for managers and admins; the rest
	// of the machine follows the edit grant
	switch target {
	case types.RecordStatusApproved, types.RecordStatusRejected:
		if role != types.UserRoleAdmin && role != types.UserRoleManager {
			return nil, s.deny("approve", current.Module, current.EntityKey)
		}
	default:
		same, err := s.sameDepartment(ctx, scope, userID, current.CreatedBy)
		if err != nil {
			return nil, err
		}
		if !permission.CanEditRecord(scope, current.CreatedBy, userID, same) {
			return nil, s.deny("edit", current.Module, current.EntityKey)
		}
	}

	updated, err := s.RecordRepo.UpdateStatus(ctx, id, current.Status, target, userID)
	if err != nil {
		return nil, err
	}

	// decision comments travel in the ledger entry, not on the record
	var changes []record.FieldChange
	if comment != "" {
		changes = []record.FieldChange{{Field: "comment", NewValue: comment}}
	}

	action := actionForTransition(target)
	s.audit(ctx, updated, action, changes)
	s.notify(ctx, updated, EventRecordTransitioned, nil)
	return s.redact(scope, updated), nil
}

func (s *recordService) Delete(ctx context.Context, id string) error {
	userID := types.GetUserID(ctx)
	current, err := s.RecordRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	scope, err := s.resolveScope(ctx, current.Module, current.EntityKey)
	if err != nil {
		return err
	}
	same, err := s.sameDepartment(ctx, scope, userID, current.CreatedBy)
	if err != nil {
		return err
	}
	if !permission.CanDeleteRecord(scope, current.CreatedBy, userID, same) {
		return s.deny("delete", current.Module, current.EntityKey)
	}

	if err := s.RecordRepo.SoftDelete(ctx, id, userID); err != nil {
		return err
	}

	current.Version++
	current.IsDeleted = true
	s.audit(ctx, current, types.ActionDelete, nil)
	s.notify(ctx, current, EventRecordDeleted, nil)
	return nil
}

func (s *recordService) Restore(ctx context.Context, id string) (*record.Record, error) {
	userID := types.GetUserID(ctx)
	current, err := s.RecordRepo.GetAny(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsDeleted {
		return nil, ierr.NewError("record is not deleted").
			WithHintf("Record %s is live and needs no restore", id).
			Mark(ierr.ErrInvalidOperation)
	}

	scope, err := s.resolveScope(ctx, current.Module, current.EntityKey)
	if err != nil {
		return nil, err
	}
	same, err := s.sameDepartment(ctx, scope, userID, current.CreatedBy)
	if err != nil {
		return nil, err
	}
	if !permission.CanDeleteRecord(scope, current.CreatedBy, userID, same) {
		return nil, s.deny("restore", current.Module, current.EntityKey)
	}

	if err := s.RecordRepo.Restore(ctx, id, userID); err != nil {
		return nil, err
	}

	restored, err := s.RecordRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, restored, types.ActionRestore, nil)
	s.notify(ctx, restored, EventRecordRestored, nil)
	return s.redact(scope, restored), nil
}

func (s *recordService) resolveScope(ctx context.Context, module types.Module, entityKey string) (*permission.Scope, error) {
	scope, err := s.policy.ResolveScope(ctx, types.GetUserID(ctx), types.GetUserRole(ctx), module, entityKey)
	if err != nil {
		return nil, err
	}
	if !permission.HasAccess(scope) {
		return nil, s.deny("access", module, entityKey)
	}
	return scope, nil
}

func (s *recordService) validateData(ctx context.Context, module types.Module, entityKey string, data map[string]any) (map[string]any, error) {
	fields, err := s.entities.ListFields(ctx, module, entityKey)
	if err != nil {
		return nil, err
	}
	return schema.NewValidator(fields).Validate(data)
}

// validateMergedData validates an update merged over stored data,
// holding only the caller-supplied keys to the visible field set
func (s *recordService) validateMergedData(ctx context.Context, module types.Module, entityKey string, merged, supplied map[string]any) (map[string]any, error) {
	fields, err := s.entities.ListFields(ctx, module, entityKey)
	if err != nil {
		return nil, err
	}
	return schema.NewValidator(fields).ValidateMerged(merged, supplied)
}

// conflictWithLatest attaches the latest server state to a version
// conflict so the client can heal without an extra read. The latest
// copy is redacted under the caller's scope.
func (s *recordService) conflictWithLatest(ctx context.Context, scope *permission.Scope, id string, expectedVersion int, cause error) error {
	latest, err := s.RecordRepo.Get(ctx, id)
	if err != nil {
		// record vanished between the write and the re-read
		return cause
	}
	latest = s.redact(scope, latest)

	// conflicts are also surfaced to the room
	s.notifier.PublishChange(ctx, &ChangeEvent{
		Type:      EventVersionConflict,
		Module:    latest.Module,
		EntityKey: latest.EntityKey,
		RecordID:  latest.ID,
		Version:   latest.Version,
		ActorID:   types.GetUserID(ctx),
		Data:      latest.Data,
	})

	return ierr.WithError(cause).
		WithHintf("Record %s is at version %d, you wrote against %d", id, latest.Version, expectedVersion).
		WithReportableDetails(map[string]any{
			"latest_record":    latest,
			"current_version":  latest.Version,
			"expected_version": expectedVersion,
		}).
		Mark(ierr.ErrVersionConflict)
}

func (s *recordService) recordVisible(ctx context.Context, scope *permission.Scope, rec *record.Record) (bool, error) {
	userID := types.GetUserID(ctx)
	switch scope.RecordScope {
	case types.RecordScopeAll:
		return true, nil
	case types.RecordScopeOwn:
		return rec.CreatedBy == userID, nil
	case types.RecordScopeDepartment:
		return s.Departments.SameDepartment(ctx, userID, rec.CreatedBy)
	}
	return false, nil
}

// departmentCreators resolves the creator set visible under the
// department scope. A caller without a department only sees their own
// records, mirroring the membership check on single reads.
func (s *recordService) departmentCreators(ctx context.Context, userID string) ([]string, error) {
	dept, err := s.Departments.GetDepartment(ctx, userID)
	if err != nil {
		return nil, err
	}
	if dept == "" {
		return []string{userID}, nil
	}
	members, err := s.Departments.ListMembers(ctx, dept)
	if err != nil {
		return nil, err
	}
	if !lo.Contains(members, userID) {
		members = append(members, userID)
	}
	return members, nil
}

func (s *recordService) sameDepartment(ctx context.Context, scope *permission.Scope, userID, createdBy string) (bool, error) {
	if scope.RecordScope != types.RecordScopeDepartment {
		return false, nil
	}
	return s.Departments.SameDepartment(ctx, userID, createdBy)
}

// redact strips columns the scope cannot view. The stored record is
// never mutated.
func (s *recordService) redact(scope *permission.Scope, rec *record.Record) *record.Record {
	if scope == nil || scope.Columns == nil {
		return rec
	}

	redacted := *rec
	redacted.Data = make(map[string]any, len(rec.Data))
	for field, value := range rec.Data {
		if permission.CanViewColumn(scope, field) {
			redacted.Data[field] = value
		}
	}
	return &redacted
}

func (s *recordService) deny(op string, module types.Module, entityKey string) error {
	return ierr.NewError("permission denied").
		WithHintf("You are not allowed to %s %s records in %s", op, entityKey, module).
		WithReportableDetails(map[string]any{
			"operation": op,
			"module":    module,
			"entity":    entityKey,
		}).
		Mark(ierr.ErrPermissionDenied)
}

func (s *recordService) audit(ctx context.Context, rec *record.Record, action types.ActionType, changes []record.FieldChange) {
	s.activity.Record(ctx, &activity.Entry{
		UserID:       types.GetUserID(ctx),
		Module:       rec.Module,
		EntityKey:    rec.EntityKey,
		RecordID:     rec.ID,
		Action:       action,
		Changes:      changes,
		OperationKey: operationKey(action, rec.ID, rec.Version),
	})
}

func (s *recordService) notify(ctx context.Context, rec *record.Record, eventType ChangeEventType, changes []record.FieldChange) {
	s.notifier.PublishChange(ctx, &ChangeEvent{
		Type:      eventType,
		Module:    rec.Module,
		EntityKey: rec.EntityKey,
		RecordID:  rec.ID,
		Version:   rec.Version,
		Status:    rec.Status,
		ActorID:   types.GetUserID(ctx),
		Data:      rec.Data,
		Changes:   changes,
	})
}

func actionForTransition(target types.RecordStatus) types.ActionType {
	switch target {
	case types.RecordStatusSubmitted:
		return types.ActionSubmit
	case types.RecordStatusApproved:
		return types.ActionApprove
	case types.RecordStatusRejected:
		return types.ActionReject
	default:
		return types.ActionUpdate
	}
}
