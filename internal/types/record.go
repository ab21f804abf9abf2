package types

import (
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
)

// RecordStatus is the approval workflow state of a record.
// The workflow is linear: draft -> submitted -> approved | rejected.
// A rejected record may return to draft for rework.
type RecordStatus string

const (
	RecordStatusDraft     RecordStatus = "draft"
	RecordStatusSubmitted RecordStatus = "submitted"
	RecordStatusApproved  RecordStatus = "approved"
	RecordStatusRejected  RecordStatus = "rejected"
)

func (s RecordStatus) Validate() error {
	switch s {
	case RecordStatusDraft, RecordStatusSubmitted, RecordStatusApproved, RecordStatusRejected:
		return nil
	default:
		return ierr.NewError("invalid record status").
			WithHintf("Status %s is not known", s).
			Mark(ierr.ErrValidation)
	}
}

// CanTransitionTo reports whether the workflow allows moving from s to target.
func (s RecordStatus) CanTransitionTo(target RecordStatus) bool {
	switch s {
	case RecordStatusDraft:
		return target == RecordStatusSubmitted
	case RecordStatusSubmitted:
		return target == RecordStatusApproved || target == RecordStatusRejected
	case RecordStatusRejected:
		return target == RecordStatusDraft
	default:
		return false
	}
}

// FieldType is the declared type of a dynamic record attribute
type FieldType string

const (
	FieldTypeText    FieldType = "text"
	FieldTypeNumber  FieldType = "number"
	FieldTypeDate    FieldType = "date"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeSelect  FieldType = "select"
	FieldTypeFile    FieldType = "file"
)

func (t FieldType) Validate() error {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeBoolean, FieldTypeSelect, FieldTypeFile:
		return nil
	default:
		return ierr.NewError("invalid field type").
			WithHintf("Field type %s is not known", t).
			Mark(ierr.ErrValidation)
	}
}
