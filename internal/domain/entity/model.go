package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

var entityKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,63}$`)

// Entity is a named collection of business records within a module.
// The entityKey is an immutable slug; records reference it weakly.
type Entity struct {
	ID               string       `db:"id" json:"id"`
	Module           types.Module `db:"module" json:"module"`
	EntityKey        string       `db:"entity_key" json:"entity_key"`
	DisplayName      string       `db:"display_name" json:"display_name"`
	IsEnabled        bool         `db:"is_enabled" json:"is_enabled"`
	ApprovalRequired bool         `db:"approval_required" json:"approval_required"`
	CreatedBy        string       `db:"created_by" json:"created_by"`
	UpdatedBy        string       `db:"updated_by" json:"updated_by"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`
}

func (e *Entity) Validate() error {
	if err := e.Module.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Unknown module").
			Mark(ierr.ErrValidation)
	}
	if !entityKeyPattern.MatchString(e.EntityKey) {
		return ierr.NewError("invalid entity key").
			WithHint("Entity key must be a lowercase slug").
			WithReportableDetails(map[string]any{"entity_key": e.EntityKey}).
			Mark(ierr.ErrValidation)
	}
	if e.DisplayName == "" {
		return ierr.NewError("display name is required").
			WithHint("Display name must be provided").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// FieldDefinition describes one schema-less attribute of an entity's
// records. System fields resist deletion and disable.
type FieldDefinition struct {
	ID        string          `db:"id" json:"id"`
	EntityID  string          `db:"entity_id" json:"entity_id"`
	Key       string          `db:"key" json:"key"`
	Label     string          `db:"label" json:"label"`
	Type      types.FieldType `db:"type" json:"type"`
	Required  bool            `db:"required" json:"required"`
	Visible   bool            `db:"visible" json:"visible"`
	Order     int             `db:"display_order" json:"order"`
	IsSystem  bool            `db:"is_system" json:"is_system"`
	Rules     ValidationRules `db:"rules" json:"rules"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// ValidationRules holds the optional constraints for a field. Which of
// them apply depends on the field type.
type ValidationRules struct {
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Regex   string   `json:"regex,omitempty"`
	Options []string `json:"options,omitempty"`
}

// Value implements driver.Valuer so rules persist as a jsonb column.
func (r ValidationRules) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *ValidationRules) Scan(src any) error {
	if src == nil {
		*r = ValidationRules{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported rules column type %T", src)
	}
	if len(data) == 0 {
		*r = ValidationRules{}
		return nil
	}
	return json.Unmarshal(data, r)
}

func (f *FieldDefinition) Validate() error {
	if !entityKeyPattern.MatchString(f.Key) {
		return ierr.NewError("invalid field key").
			WithHint("Field key must be a lowercase slug").
			WithReportableDetails(map[string]any{"key": f.Key}).
			Mark(ierr.ErrValidation)
	}
	if err := f.Type.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Unknown field type").
			Mark(ierr.ErrValidation)
	}
	if f.Type == types.FieldTypeSelect && len(f.Rules.Options) == 0 {
		return ierr.NewError("select field requires options").
			WithHintf("Field %s is a select but has no options", f.Key).
			Mark(ierr.ErrValidation)
	}
	if f.Rules.Regex != "" {
		if _, err := regexp.Compile(f.Rules.Regex); err != nil {
			return ierr.WithError(err).
				WithHintf("Field %s has an invalid regex rule", f.Key).
				Mark(ierr.ErrValidation)
		}
	}
	if f.Rules.Min != nil && f.Rules.Max != nil && *f.Rules.Max < *f.Rules.Min {
		return ierr.NewError("max is less than min").
			WithHintf("Field %s has max < min", f.Key).
			Mark(ierr.ErrValidation)
	}
	return nil
}

