package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/permission"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

type InMemoryPermissionStore struct {
	mu     sync.RWMutex
	scopes map[string]*permission.Scope
	// userID -> role, backing ListUserIDsByRole
	roles map[string]types.UserRole
}

func NewInMemoryPermissionStore() *InMemoryPermissionStore {
	return &InMemoryPermissionStore{
		scopes: make(map[string]*permission.Scope),
		roles:  make(map[string]types.UserRole),
	}
}

// SetUserRole registers a user's role for role-based invalidation
func (s *InMemoryPermissionStore) SetUserRole(userID string, role types.UserRole) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[userID] = role
}

func (s *InMemoryPermissionStore) Create(ctx context.Context, scope *permission.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.scopes[scope.ID]; exists {
		return ierr.NewError("grant already exists").
			WithHintf("Grant %s already exists", scope.ID).
			Mark(ierr.ErrAlreadyExists)
	}
	cp := *scope
	s.scopes[scope.ID] = &cp
	return nil
}

func (s *InMemoryPermissionStore) Get(ctx context.Context, id string) (*permission.Scope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scope, exists := s.scopes[id]
	if !exists {
		return nil, grantNotFound(id)
	}
	cp := *scope
	return &cp, nil
}

func (s *InMemoryPermissionStore) Update(ctx context.Context, scope *permission.Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.scopes[scope.ID]; !exists {
		return grantNotFound(scope.ID)
	}
	cp := *scope
	s.scopes[scope.ID] = &cp
	return nil
}

func (s *InMemoryPermissionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.scopes[id]; !exists {
		return grantNotFound(id)
	}
	delete(s.scopes, id)
	return nil
}

func (s *InMemoryPermissionStore) ListByUser(ctx context.Context, userID string) ([]*permission.Scope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scopes []*permission.Scope
	for _, scope := range s.scopes {
		if scope.UserID == userID {
			cp := *scope
			scopes = append(scopes, &cp)
		}
	}
	return scopes, nil
}

func (s *InMemoryPermissionStore) ListByRole(ctx context.Context, role types.UserRole) ([]*permission.Scope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var scopes []*permission.Scope
	for _, scope := range s.scopes {
		if scope.UserID == "" && scope.Role == role {
			cp := *scope
			scopes = append(scopes, &cp)
		}
	}
	return scopes, nil
}

func (s *InMemoryPermissionStore) ListUserIDsByRole(ctx context.Context, role types.UserRole) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for userID, r := range s.roles {
		if r == role {
			ids = append(ids, userID)
		}
	}
	return ids, nil
}

func grantNotFound(id string) error {
	return ierr.NewError("grant not found").
		WithHintf("Permission grant %s does not exist", id).
		Mark(ierr.ErrNotFound)
}

// InMemoryDepartmentDirectory resolves departments from a fixed map
type InMemoryDepartmentDirectory struct {
	mu          sync.RWMutex
	departments map[string]string
}

func NewInMemoryDepartmentDirectory() *InMemoryDepartmentDirectory {
	return &InMemoryDepartmentDirectory{
		departments: make(map[string]string),
	}
}

func (d *InMemoryDepartmentDirectory) SetDepartment(userID, departmentID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.departments[userID] = departmentID
}

func (d *InMemoryDepartmentDirectory) GetDepartment(ctx context.Context, userID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.departments[userID], nil
}

func (d *InMemoryDepartmentDirectory) SameDepartment(ctx context.Context, userA, userB string) (bool, error) {
	if userA == userB {
		return true, nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	deptA := d.departments[userA]
	deptB := d.departments[userB]
	if deptA == "" || deptB == "" {
		return false, nil
	}
	return deptA == deptB, nil
}

func (d *InMemoryDepartmentDirectory) ListMembers(ctx context.Context, departmentID string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var ids []string
	for userID, dept := range d.departments {
		if dept == departmentID {
			ids = append(ids, userID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
