package permission

import "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"

// Pure checks over a resolved Scope. No I/O, no errors: every check
// returns a boolean and callers translate false into a permission
// denial at the boundary.

// HasAccess reports whether the scope allows seeing the entity at all
func HasAccess(s *Scope) bool {
	return s != nil && s.Access
}

// CanCreate reports whether the scope allows creating records
func CanCreate(s *Scope) bool {
	return s != nil && s.Access && s.Create
}

// CanEditRecord applies the record scope to an edit attempt.
// sameDepartment is the result of the external department-membership
// lookup; it only matters for the department scope.
func CanEditRecord(s *Scope, createdBy, requesterID string, sameDepartment bool) bool {
	if s == nil || !s.Access || !s.Edit {
		return false
	}
	return recordInScope(s.RecordScope, createdBy, requesterID, sameDepartment)
}

// CanDeleteRecord mirrors CanEditRecord using the delete grant
func CanDeleteRecord(s *Scope, createdBy, requesterID string, sameDepartment bool) bool {
	if s == nil || !s.Access || !s.Delete {
		return false
	}
	return recordInScope(s.RecordScope, createdBy, requesterID, sameDepartment)
}

func recordInScope(scope types.RecordScope, createdBy, requesterID string, sameDepartment bool) bool {
	switch scope {
	case types.RecordScopeAll:
		return true
	case types.RecordScopeOwn:
		return createdBy == requesterID
	case types.RecordScopeDepartment:
		return sameDepartment
	default:
		return false
	}
}

// CanViewColumn looks up the column rule; absent columns are viewable
func CanViewColumn(s *Scope, key string) bool {
	if s == nil || !s.Access {
		return false
	}
	rule, ok := s.Columns[key]
	if !ok {
		return true
	}
	return rule.View
}

// CanEditColumn looks up the column rule. A nil columns map means the
// grant carries no column restrictions at all (the admin case). With a
// configured map, absent columns default to view-only. Column
// editability requires the scope-level edit grant as a prerequisite.
// Editability does not imply viewability: a column can be writable but
// hidden, and callers must surface that explicitly.
func CanEditColumn(s *Scope, key string) bool {
	if s == nil || !s.Access || !s.Edit {
		return false
	}
	if s.Columns == nil {
		return true
	}
	rule, ok := s.Columns[key]
	if !ok {
		return false
	}
	return rule.Edit
}
