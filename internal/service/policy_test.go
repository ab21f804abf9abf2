package service

import (
	"context"
	"testing"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/permission"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/testutil"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/stretchr/testify/suite"
)

type PolicyServiceSuite struct {
	testutil.BaseServiceSuite
	service PolicyService
}

func TestPolicyService(t *testing.T) {
	suite.Run(t, new(PolicyServiceSuite))
}

func (s *PolicyServiceSuite) SetupTest() {
	s.BaseServiceSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewPolicyService(ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		Cache:          s.GetCache(),
		PermissionRepo: stores.PermissionRepo,
		Departments:    stores.Departments,
	})
}

func (s *PolicyServiceSuite) grant(scope *permission.Scope) {
	s.Require().NoError(s.service.CreateGrant(context.Background(), scope))
}

func (s *PolicyServiceSuite) TestAdminShortCircuit() {
	scope, err := s.service.ResolveScope(context.Background(), "user_admin", types.UserRoleAdmin, types.ModuleRE, "listing")
	s.Require().NoError(err)
	s.Require().NotNil(scope)
	s.True(scope.Access)
	s.True(scope.Create)
	s.True(scope.Edit)
	s.True(scope.Delete)
	s.Equal(types.RecordScopeAll, scope.RecordScope)
	s.Nil(scope.Columns)
}

func (s *PolicyServiceSuite) TestNoGrantResolvesNil() {
	scope, err := s.service.ResolveScope(context.Background(), "user_1", types.UserRoleEmployee, types.ModuleRE, "listing")
	s.Require().NoError(err)
	s.Nil(scope)
}

func (s *PolicyServiceSuite) TestDirectGrantOverridesRoleDefault() {
	s.grant(&permission.Scope{
		Role:        types.UserRoleEmployee,
		Module:      types.ModuleExpense,
		EntityKey:   "expense_claim",
		Access:      true,
		Create:      true,
		RecordScope: types.RecordScopeOwn,
	})
	s.grant(&permission.Scope{
		UserID:      "user_1",
		Module:      types.ModuleExpense,
		EntityKey:   "expense_claim",
		Access:      true,
		Create:      true,
		Edit:        true,
		RecordScope: types.RecordScopeAll,
	})

	scope, err := s.service.ResolveScope(context.Background(), "user_1", types.UserRoleEmployee, types.ModuleExpense, "expense_claim")
	s.Require().NoError(err)
	s.Require().NotNil(scope)
	s.True(scope.Edit)
	s.Equal(types.RecordScopeAll, scope.RecordScope)

	// a user without a direct grant falls back to the role default
	scope, err = s.service.ResolveScope(context.Background(), "user_2", types.UserRoleEmployee, types.ModuleExpense, "expense_claim")
	s.Require().NoError(err)
	s.Require().NotNil(scope)
	s.False(scope.Edit)
	s.Equal(types.RecordScopeOwn, scope.RecordScope)
}

func (s *PolicyServiceSuite) TestGrantChangeIsVisibleImmediately() {
	ctx := context.Background()
	scope := &permission.Scope{
		UserID:      "user_1",
		Module:      types.ModuleExpense,
		EntityKey:   "expense_claim",
		Access:      true,
		RecordScope: types.RecordScopeOwn,
	}
	s.grant(scope)

	// warm the cache
	resolved, err := s.service.ResolveScope(ctx, "user_1", types.UserRoleEmployee, types.ModuleExpense, "expense_claim")
	s.Require().NoError(err)
	s.Require().NotNil(resolved)
	s.False(resolved.Edit)

	scope.Edit = true
	s.Require().NoError(s.service.UpdateGrant(ctx, scope))

	resolved, err = s.service.ResolveScope(ctx, "user_1", types.UserRoleEmployee, types.ModuleExpense, "expense_claim")
	s.Require().NoError(err)
	s.Require().NotNil(resolved)
	s.True(resolved.Edit)
}

func (s *PolicyServiceSuite) TestRoleGrantChangeInvalidatesMembers() {
	ctx := context.Background()
	stores := s.GetStores()
	stores.PermissionRepo.SetUserRole("user_1", types.UserRoleEmployee)
	stores.PermissionRepo.SetUserRole("user_2", types.UserRoleEmployee)

	roleScope := &permission.Scope{
		Role:        types.UserRoleEmployee,
		Module:      types.ModuleExpense,
		EntityKey:   "expense_claim",
		Access:      true,
		RecordScope: types.RecordScopeOwn,
	}
	s.grant(roleScope)

	for _, user := range []string{"user_1", "user_2"} {
		resolved, err := s.service.ResolveScope(ctx, user, types.UserRoleEmployee, types.ModuleExpense, "expense_claim")
		s.Require().NoError(err)
		s.Require().NotNil(resolved)
		s.False(resolved.Create)
	}

	roleScope.Create = true
	s.Require().NoError(s.service.UpdateGrant(ctx, roleScope))

	for _, user := range []string{"user_1", "user_2"} {
		resolved, err := s.service.ResolveScope(ctx, user, types.UserRoleEmployee, types.ModuleExpense, "expense_claim")
		s.Require().NoError(err)
		s.Require().NotNil(resolved)
		s.True(resolved.Create)
	}
}

func (s *PolicyServiceSuite) TestDeleteGrantRevokes() {
	ctx := context.Background()
	scope := &permission.Scope{
		UserID:      "user_1",
		Module:      types.ModuleExpense,
		EntityKey:   "expense_claim",
		Access:      true,
		RecordScope: types.RecordScopeOwn,
	}
	s.grant(scope)

	resolved, err := s.service.ResolveScope(ctx, "user_1", types.UserRoleEmployee, types.ModuleExpense, "expense_claim")
	s.Require().NoError(err)
	s.Require().NotNil(resolved)

	s.Require().NoError(s.service.DeleteGrant(ctx, scope.ID))

	resolved, err = s.service.ResolveScope(ctx, "user_1", types.UserRoleEmployee, types.ModuleExpense, "expense_claim")
	s.Require().NoError(err)
	s.Nil(resolved)
}

func (s *PolicyServiceSuite) TestGrantValidation() {
	err := s.service.CreateGrant(context.Background(), &permission.Scope{
		Module:      types.ModuleExpense,
		EntityKey:   "expense_claim",
		Access:      true,
		RecordScope: types.RecordScopeOwn,
	})
	s.Error(err)
}
