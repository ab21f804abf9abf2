package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/entity"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimFields() []*entity.FieldDefinition {
	return []*entity.FieldDefinition{
		{Key: "title", Type: types.FieldTypeText, Required: true, Visible: true,
			Rules: entity.ValidationRules{Max: lo.ToPtr(64.0)}},
		{Key: "amount", Type: types.FieldTypeNumber, Required: true, Visible: true,
			Rules: entity.ValidationRules{Min: lo.ToPtr(0.0)}},
		{Key: "category", Type: types.FieldTypeSelect, Visible: true,
			Rules: entity.ValidationRules{Options: []string{"travel", "meals", "office"}}},
		{Key: "incurred_on", Type: types.FieldTypeDate, Visible: true},
		{Key: "reimbursable", Type: types.FieldTypeBoolean, Visible: true},
		{Key: "legacy_code", Type: types.FieldTypeText, Visible: false},
	}
}

func TestValidateAcceptsWellFormedData(t *testing.T) {
	v := NewValidator(claimFields())
	out, err := v.Validate(map[string]any{
		"title":        "Taxi to airport",
		"amount":       42.5,
		"category":     "travel",
		"incurred_on":  "2026-08-14",
		"reimbursable": true,
	})
	require.NoError(t, err)
	assert.Equal(t, 42.5, out["amount"])
	assert.Equal(t, "travel", out["category"])
	assert.Equal(t, "2026-08-14T00:00:00Z", out["incurred_on"])
}

func TestValidateCoercesLooseTypes(t *testing.T) {
	v := NewValidator(claimFields())
	out, err := v.Validate(map[string]any{
		"title":        "Lunch",
		"amount":       "19.90",
		"reimbursable": "true",
	})
	require.NoError(t, err)
	assert.Equal(t, 19.9, out["amount"])
	assert.Equal(t, true, out["reimbursable"])
}

func TestValidateRejections(t *testing.T) {
	v := NewValidator(claimFields())

	tests := []struct {
		name string
		data map[string]any
	}{
		{"missing required field", map[string]any{"title": "Taxi"}},
		{"blank required text", map[string]any{"title": "   ", "amount": 10}},
		{"non numeric amount", map[string]any{"title": "Taxi", "amount": "a lot"}},
		{"negative amount", map[string]any{"title": "Taxi", "amount": -5}},
		{"unknown field", map[string]any{"title": "Taxi", "amount": 10, "rating": 5}},
		{"bad option", map[string]any{"title": "Taxi", "amount": 10, "category": "vacation"}},
		{"bad date", map[string]any{"title": "Taxi", "amount": 10, "incurred_on": "next tuesday"}},
		{"hidden field rejected", map[string]any{"title": "Taxi", "amount": 10, "legacy_code": "X1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.data)
			require.Error(t, err)
			assert.True(t, ierr.IsValidation(err))
		})
	}
}

func TestValidateMergedKeepsHiddenStoredValues(t *testing.T) {
	v := NewValidator(claimFields())
	stored := map[string]any{"title": "Taxi", "amount": 10.0, "legacy_code": "X1"}
	supplied := map[string]any{"amount": 12}

	merged := map[string]any{}
	for k, val := range stored {
		merged[k] = val
	}
	for k, val := range supplied {
		merged[k] = val
	}

	out, err := v.ValidateMerged(merged, supplied)
	require.NoError(t, err)
	assert.Equal(t, "X1", out["legacy_code"])
	assert.InDelta(t, 12.0, out["amount"], 0.001)
}

func TestValidateMergedRejectsSuppliedHiddenField(t *testing.T) {
	v := NewValidator(claimFields())
	supplied := map[string]any{"legacy_code": "X2"}
	merged := map[string]any{"title": "Taxi", "amount": 10.0, "legacy_code": "X2"}

	_, err := v.ValidateMerged(merged, supplied)
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
	assert.Contains(t, fieldDetails(t, err), "legacy_code")
}

func TestValidateCollectsAllFieldErrors(t *testing.T) {
	v := NewValidator(claimFields())
	_, err := v.Validate(map[string]any{
		"amount":   "nope",
		"category": "vacation",
	})
	require.Error(t, err)

	details := fieldDetails(t, err)
	assert.Contains(t, details, "amount")
	assert.Contains(t, details, "category")
	assert.Contains(t, details, "title")
}

func fieldDetails(t *testing.T, err error) map[string]any {
	t.Helper()
	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, entry := range sdp.SafeDetails {
			if payload, ok := strings.CutPrefix(entry, "__json__:"); ok {
				details := make(map[string]any)
				require.NoError(t, json.Unmarshal([]byte(payload), &details))
				return details
			}
		}
	}
	t.Fatal("no structured details on error")
	return nil
}

func TestTextRules(t *testing.T) {
	fields := []*entity.FieldDefinition{
		{Key: "code", Type: types.FieldTypeText, Visible: true,
			Rules: entity.ValidationRules{Min: lo.ToPtr(2.0), Max: lo.ToPtr(4.0), Regex: "^[A-Z]+$"}},
	}
	v := NewValidator(fields)

	_, err := v.Validate(map[string]any{"code": "AB"})
	assert.NoError(t, err)
	_, err = v.Validate(map[string]any{"code": "A"})
	assert.Error(t, err)
	_, err = v.Validate(map[string]any{"code": "ABCDE"})
	assert.Error(t, err)
	_, err = v.Validate(map[string]any{"code": "ab"})
	assert.Error(t, err)
}
