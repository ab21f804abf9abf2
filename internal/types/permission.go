package types

import "fmt"

// UserRole is the coarse role carried by the verified identity.
// Admins short-circuit permission resolution to an all-access map.
type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleManager  UserRole = "manager"
	UserRoleEmployee UserRole = "employee"
)

func (r UserRole) Validate() error {
	switch r {
	case UserRoleAdmin, UserRoleManager, UserRoleEmployee:
		return nil
	default:
		return fmt.Errorf("invalid user role: %s", r)
	}
}

// RecordScope is the breadth of records an edit/delete grant applies to
type RecordScope string

const (
	// RecordScopeOwn restricts mutations to records created by the requester
	RecordScopeOwn RecordScope = "own"
	// RecordScopeDepartment restricts mutations to records created within
	// the requester's department, resolved via the department directory
	RecordScopeDepartment RecordScope = "department"
	// RecordScopeAll is unrestricted
	RecordScopeAll RecordScope = "all"
)

func (s RecordScope) Validate() error {
	switch s {
	case RecordScopeOwn, RecordScopeDepartment, RecordScopeAll:
		return nil
	default:
		return fmt.Errorf("invalid record scope: %s", s)
	}
}
