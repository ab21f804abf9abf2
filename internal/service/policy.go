package service

import (
	"context"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/cache"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/permission"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

// PolicyService resolves and caches permission policies. Resolution
// merges direct user grants over role-derived defaults; admins never
// touch storage and always receive the synthesized all-access scope.
//
// Grant mutations invalidate the affected cached policies before
// returning, so a permission change is observable by the next request.
type PolicyService interface {
	// ResolveScope returns the effective scope for a user on one entity,
	// nil when the user has no grant there.
	ResolveScope(ctx context.Context, userID string, role types.UserRole, module types.Module, entityKey string) (*permission.Scope, error)
	// ResolvePolicy returns the user's full permission map
	ResolvePolicy(ctx context.Context, userID string, role types.UserRole) (permission.Map, error)

	CreateGrant(ctx context.Context, s *permission.Scope) error
	GetGrant(ctx context.Context, id string) (*permission.Scope, error)
	UpdateGrant(ctx context.Context, s *permission.Scope) error
	DeleteGrant(ctx context.Context, id string) error
	ListGrants(ctx context.Context, userID string) ([]*permission.Scope, error)

	// Invalidate drops the cached policy for one user
	Invalidate(ctx context.Context, userID string)
}

type policyService struct {
	ServiceParams
}

func NewPolicyService(params ServiceParams) PolicyService {
	return &policyService{ServiceParams: params}
}

func (s *policyService) ResolveScope(ctx context.Context, userID string, role types.UserRole, module types.Module, entityKey string) (*permission.Scope, error) {
	if role == types.UserRoleAdmin {
		return permission.NewAdminScope(module, entityKey), nil
	}

	policy, err := s.ResolvePolicy(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	return policy.Get(module, entityKey), nil
}

func (s *policyService) ResolvePolicy(ctx context.Context, userID string, role types.UserRole) (permission.Map, error) {
	key := cache.GenerateKey(cache.PrefixPolicy, userID)
	if v, ok := s.Cache.Get(ctx, key); ok {
		if policy, ok := v.(permission.Map); ok {
			return policy, nil
		}
	}

	policy := make(permission.Map)

	// Role defaults first so direct grants overwrite them
	if role != "" {
		roleScopes, err := s.PermissionRepo.ListByRole(ctx, role)
		if err != nil {
			return nil, err
		}
		for _, scope := range roleScopes {
			policy.Put(scope)
		}
	}

	userScopes, err := s.PermissionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, scope := range userScopes {
		policy.Put(scope)
	}

	s.Cache.Set(ctx, key, policy, s.Config.Cache.PolicyTTL)
	return policy, nil
}

func (s *policyService) CreateGrant(ctx context.Context, scope *permission.Scope) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if scope.ID == "" {
		scope.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PERMISSION)
	}
	if err := s.PermissionRepo.Create(ctx, scope); err != nil {
		return err
	}
	s.invalidateForScope(ctx, scope)
	return nil
}

func (s *policyService) GetGrant(ctx context.Context, id string) (*permission.Scope, error) {
	return s.PermissionRepo.Get(ctx, id)
}

func (s *policyService) UpdateGrant(ctx context.Context, scope *permission.Scope) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if scope.ID == "" {
		return ierr.NewError("grant id is required").
			WithHint("Grant id must be provided").
			Mark(ierr.ErrValidation)
	}
	if err := s.PermissionRepo.Update(ctx, scope); err != nil {
		return err
	}
	s.invalidateForScope(ctx, scope)
	return nil
}

func (s *policyService) DeleteGrant(ctx context.Context, id string) error {
	scope, err := s.PermissionRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.PermissionRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateForScope(ctx, scope)
	return nil
}

func (s *policyService) ListGrants(ctx context.Context, userID string) ([]*permission.Scope, error) {
	return s.PermissionRepo.ListByUser(ctx, userID)
}

func (s *policyService) Invalidate(ctx context.Context, userID string) {
	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixPolicy, userID))
}

// invalidateForScope drops every cached policy a grant change can
// affect: the single user for direct grants, every user holding the
// role for role defaults. Invalidation completes before the mutating
// call returns.
func (s *policyService) invalidateForScope(ctx context.Context, scope *permission.Scope) {
	if scope.UserID != "" {
		s.Invalidate(ctx, scope.UserID)
		return
	}

	userIDs, err := s.PermissionRepo.ListUserIDsByRole(ctx, scope.Role)
	if err != nil {
		// cannot enumerate role members, drop everything cached under the
		// policy prefix instead of serving stale grants
		s.Logger.Errorw("failed to list users for role invalidation, flushing policy cache",
			"role", scope.Role, "error", err)
		s.Cache.DeleteByPrefix(ctx, cache.PrefixPolicy)
		return
	}
	for _, id := range userIDs {
		s.Invalidate(ctx, id)
	}
}
