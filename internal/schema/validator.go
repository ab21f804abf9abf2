package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/entity"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/samber/lo"
)

// Validator checks the open data map of a record against the entity's
// field definitions. Record schemas are loaded at runtime, so all
// validation happens on values, not on compile-time types.
type Validator struct {
	// visible fields take writes and run required checks
	fields []*entity.FieldDefinition
	byKey  map[string]*entity.FieldDefinition
	// defined but hidden fields reject writes yet keep stored values
	hidden map[string]struct{}
}

// NewValidator builds a validator over the field definitions of an
// entity. Hidden definitions stay in the key set so records written
// before a field was hidden remain updatable.
func NewValidator(fields []*entity.FieldDefinition) *Validator {
	visible := lo.Filter(fields, func(f *entity.FieldDefinition, _ int) bool {
		return f.Visible
	})
	byKey := make(map[string]*entity.FieldDefinition, len(visible))
	for _, f := range visible {
		byKey[f.Key] = f
	}
	hidden := make(map[string]struct{})
	for _, f := range fields {
		if !f.Visible {
			hidden[f.Key] = struct{}{}
		}
	}
	return &Validator{fields: visible, byKey: byKey, hidden: hidden}
}

// Validate coerces and checks a full record payload, returning a
// normalized copy. Every supplied key must name a visible field. All
// field failures are collected into one validation error so the caller
// can present per-field messages.
func (v *Validator) Validate(data map[string]any) (map[string]any, error) {
	return v.validate(data, nil)
}

// ValidateMerged checks an update payload already merged over the
// stored data. Only keys the caller supplied must name visible fields;
// stored values for fields hidden after the record was written pass
// through untouched. Required checks still run on the merged result.
func (v *Validator) ValidateMerged(merged, supplied map[string]any) (map[string]any, error) {
	return v.validate(merged, supplied)
}

func (v *Validator) validate(data, supplied map[string]any) (map[string]any, error) {
	normalized := make(map[string]any, len(data))
	fieldErrors := make(map[string]any)

	for key, value := range data {
		def, ok := v.byKey[key]
		if !ok {
			fromCaller := supplied == nil
			if !fromCaller {
				_, fromCaller = supplied[key]
			}
			if !fromCaller {
				// stored value of a since-hidden or retired field
				normalized[key] = value
				continue
			}
			if _, defined := v.hidden[key]; defined {
				fieldErrors[key] = "field is not writable"
			} else {
				fieldErrors[key] = "unknown field"
			}
			continue
		}
		coerced, err := coerce(def, value)
		if err != nil {
			fieldErrors[key] = err.Error()
			continue
		}
		normalized[key] = coerced
	}

	for _, def := range v.fields {
		if !def.Required {
			continue
		}
		if isEmpty(normalized[def.Key]) {
			fieldErrors[def.Key] = "field is required"
		}
	}

	if len(fieldErrors) > 0 {
		return nil, ierr.NewError("record data failed validation").
			WithHint("One or more fields are invalid").
			WithReportableDetails(fieldErrors).
			Mark(ierr.ErrValidation)
	}

	return normalized, nil
}

func coerce(def *entity.FieldDefinition, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch def.Type {
	case types.FieldTypeText:
		return coerceText(def, value)
	case types.FieldTypeNumber:
		return coerceNumber(def, value)
	case types.FieldTypeDate:
		return coerceDate(value)
	case types.FieldTypeBoolean:
		return coerceBool(value)
	case types.FieldTypeSelect:
		return coerceSelect(def, value)
	case types.FieldTypeFile:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a file reference")
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported field type %s", def.Type)
	}
}

func coerceText(def *entity.FieldDefinition, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected text")
	}
	if def.Rules.Min != nil && float64(len(s)) < *def.Rules.Min {
		return nil, fmt.Errorf("must be at least %d characters", int(*def.Rules.Min))
	}
	if def.Rules.Max != nil && float64(len(s)) > *def.Rules.Max {
		return nil, fmt.Errorf("must be at most %d characters", int(*def.Rules.Max))
	}
	if def.Rules.Regex != "" {
		re, err := regexp.Compile(def.Rules.Regex)
		if err != nil {
			return nil, fmt.Errorf("invalid validation pattern")
		}
		if !re.MatchString(s) {
			return nil, fmt.Errorf("does not match the required pattern")
		}
	}
	return s, nil
}

func coerceNumber(def *entity.FieldDefinition, value any) (any, error) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("expected a number")
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number")
		}
		n = parsed
	default:
		return nil, fmt.Errorf("expected a number")
	}

	if def.Rules.Min != nil && n < *def.Rules.Min {
		return nil, fmt.Errorf("must be at least %v", *def.Rules.Min)
	}
	if def.Rules.Max != nil && n > *def.Rules.Max {
		return nil, fmt.Errorf("must be at most %v", *def.Rules.Max)
	}
	return n, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func coerceDate(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339), nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC().Format(time.RFC3339), nil
			}
		}
		return nil, fmt.Errorf("expected an ISO-8601 date")
	default:
		return nil, fmt.Errorf("expected an ISO-8601 date")
	}
}

func coerceBool(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("expected a boolean")
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("expected a boolean")
	}
}

func coerceSelect(def *entity.FieldDefinition, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected one of the configured options")
	}
	if !lo.Contains(def.Rules.Options, s) {
		return nil, fmt.Errorf("must be one of: %s", strings.Join(def.Rules.Options, ", "))
	}
	return s, nil
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
