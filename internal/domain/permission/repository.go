package permission

import (
	"context"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

// Repository is the persistence contract for stored permission grants
type Repository interface {
	Create(ctx context.Context, s *Scope) error
	Get(ctx context.Context, id string) (*Scope, error)
	Update(ctx context.Context, s *Scope) error
	Delete(ctx context.Context, id string) error

	// ListByUser returns the user's direct grants across all modules
	ListByUser(ctx context.Context, userID string) ([]*Scope, error)
	// ListByRole returns role-derived default grants
	ListByRole(ctx context.Context, role types.UserRole) ([]*Scope, error)
	// ListUserIDsByRole returns the ids of users holding direct grants
	// created from a role; used to invalidate their cached policies when
	// the role defaults change
	ListUserIDsByRole(ctx context.Context, role types.UserRole) ([]string, error)
}

// DepartmentDirectory resolves department membership for the department
// record scope. The lookup is external to the permission layer; the
// checks only enforce the rule.
type DepartmentDirectory interface {
	// GetDepartment returns the department id of a user, "" when the user
	// is not assigned to any
	GetDepartment(ctx context.Context, userID string) (string, error)
	// SameDepartment reports whether two users share a department
	SameDepartment(ctx context.Context, userA, userB string) (bool, error)
	// ListMembers returns the user ids assigned to a department
	ListMembers(ctx context.Context, departmentID string) ([]string, error)
}
