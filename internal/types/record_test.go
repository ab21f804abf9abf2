package types

import (
	"net/http"
	"testing"

	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestRecordStatusTransitions(t *testing.T) {
	statuses := []RecordStatus{
		RecordStatusDraft,
		RecordStatusSubmitted,
		RecordStatusApproved,
		RecordStatusRejected,
	}

	allowed := map[RecordStatus]RecordStatus{
		RecordStatusDraft:     RecordStatusSubmitted,
		RecordStatusSubmitted: RecordStatusApproved,
		RecordStatusRejected:  RecordStatusDraft,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[from] == to ||
				(from == RecordStatusSubmitted && to == RecordStatusRejected)
			assert.Equal(t, want, from.CanTransitionTo(to),
				"%s -> %s", from, to)
		}
	}
}

func TestApprovedIsTerminal(t *testing.T) {
	for _, to := range []RecordStatus{RecordStatusDraft, RecordStatusSubmitted, RecordStatusRejected} {
		assert.False(t, RecordStatusApproved.CanTransitionTo(to))
	}
}

func TestRecordStatusValidate(t *testing.T) {
	assert.NoError(t, RecordStatusDraft.Validate())

	err := RecordStatus("archived").Validate()
	assert.True(t, ierr.IsValidation(err))
	// a bad transition target is the caller's fault, not a server fault
	assert.Equal(t, http.StatusBadRequest, ierr.HTTPStatusFromErr(err))
}

func TestFieldTypeValidate(t *testing.T) {
	for _, ft := range []FieldType{FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeBoolean, FieldTypeSelect, FieldTypeFile} {
		assert.NoError(t, ft.Validate())
	}
	assert.True(t, ierr.IsValidation(FieldType("json").Validate()))
}
