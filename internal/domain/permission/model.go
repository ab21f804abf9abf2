package permission

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

// ColumnRule controls per-column visibility and editability. A column
// absent from the scope's map defaults to view=true, edit=false:
// default-allow for read, default-deny for write.
type ColumnRule struct {
	View bool `json:"view"`
	Edit bool `json:"edit"`
}

// ColumnMap is the per-column rule set of a scope. A nil map means the
// scope is unrestricted.
type ColumnMap map[string]ColumnRule

// Value implements driver.Valuer so column rules persist as jsonb. A nil
// map stores as SQL NULL to preserve the unrestricted meaning.
func (m ColumnMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *ColumnMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported columns column type %T", src)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

// Scope is the resolved permission grant for one (user|role, module,
// entity) triple. Either UserID or Role is set: direct user grants take
// precedence over role-derived defaults during resolution.
type Scope struct {
	ID          string                `db:"id" json:"id"`
	UserID      string                `db:"user_id" json:"user_id,omitempty"`
	Role        types.UserRole        `db:"role" json:"role,omitempty"`
	Module      types.Module          `db:"module" json:"module"`
	EntityKey   string                `db:"entity_key" json:"entity_key"`
	Access      bool                  `db:"access" json:"access"`
	Create      bool                  `db:"can_create" json:"create"`
	Edit        bool                  `db:"can_edit" json:"edit"`
	Delete      bool                  `db:"can_delete" json:"delete"`
	RecordScope types.RecordScope     `db:"record_scope" json:"record_scope"`
	Columns     ColumnMap             `db:"columns" json:"columns,omitempty"`
	CreatedBy   string                `db:"created_by" json:"created_by"`
	UpdatedBy   string                `db:"updated_by" json:"updated_by"`
	CreatedAt   time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time             `db:"updated_at" json:"updated_at"`
}

func (s *Scope) Validate() error {
	if s.UserID == "" && s.Role == "" {
		return ierr.NewError("grant needs a subject").
			WithHint("Either user_id or role must be set").
			Mark(ierr.ErrValidation)
	}
	if err := s.Module.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Unknown module").
			Mark(ierr.ErrValidation)
	}
	if s.EntityKey == "" {
		return ierr.NewError("entity is required").
			WithHint("Entity key must be provided").
			Mark(ierr.ErrValidation)
	}
	if err := s.RecordScope.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Unknown record scope").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Map is the fully resolved permission map for one user:
// module -> entityKey -> scope.
type Map map[types.Module]map[string]*Scope

// Get returns the scope for a module/entity pair, nil when the user has
// no grant there.
func (m Map) Get(module types.Module, entityKey string) *Scope {
	if m == nil {
		return nil
	}
	entities, ok := m[module]
	if !ok {
		return nil
	}
	return entities[entityKey]
}

// Put inserts a scope, allocating nested maps as needed
func (m Map) Put(s *Scope) {
	entities, ok := m[s.Module]
	if !ok {
		entities = make(map[string]*Scope)
		m[s.Module] = entities
	}
	entities[s.EntityKey] = s
}

// NewAdminScope synthesizes the all-access scope used for admins,
// bypassing the persistence round trip entirely.
func NewAdminScope(module types.Module, entityKey string) *Scope {
	return &Scope{
		Module:      module,
		EntityKey:   entityKey,
		Access:      true,
		Create:      true,
		Edit:        true,
		Delete:      true,
		RecordScope: types.RecordScopeAll,
	}
}
