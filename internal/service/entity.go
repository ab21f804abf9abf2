package service

import (
	"context"
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/cache"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/entity"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

const entityCacheTTL = 5 * time.Minute

// EntityService manages entity and field-definition administration.
// Entities are the admin-defined shapes records conform to; deleting
// one is only possible while no records reference it.
type EntityService interface {
	CreateEntity(ctx context.Context, e *entity.Entity) error
	GetEntity(ctx context.Context, module types.Module, entityKey string) (*entity.Entity, error)
	ListEntities(ctx context.Context, module types.Module) ([]*entity.Entity, error)
	UpdateEntity(ctx context.Context, e *entity.Entity) error
	DeleteEntity(ctx context.Context, module types.Module, entityKey string) error

	CreateField(ctx context.Context, module types.Module, entityKey string, f *entity.FieldDefinition) error
	ListFields(ctx context.Context, module types.Module, entityKey string) ([]*entity.FieldDefinition, error)
	UpdateField(ctx context.Context, module types.Module, entityKey string, f *entity.FieldDefinition) error
	DeleteField(ctx context.Context, module types.Module, entityKey, fieldKey string) error
}

type entityService struct {
	ServiceParams
}

func NewEntityService(params ServiceParams) EntityService {
	return &entityService{ServiceParams: params}
}

func (s *entityService) CreateEntity(ctx context.Context, e *entity.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	actor := types.GetUserID(ctx)
	e.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ENTITY)
	e.CreatedBy = actor
	e.UpdatedBy = actor
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := s.EntityRepo.Create(ctx, e); err != nil {
		return err
	}

	s.Logger.Infow("entity created", "module", e.Module, "entity", e.EntityKey, "user_id", actor)
	return nil
}

func (s *entityService) GetEntity(ctx context.Context, module types.Module, entityKey string) (*entity.Entity, error) {
	key := cache.GenerateKey(cache.PrefixEntity, module, entityKey)
	if v, ok := s.Cache.Get(ctx, key); ok {
		if e, ok := v.(*entity.Entity); ok {
			return e, nil
		}
	}

	e, err := s.EntityRepo.Get(ctx, module, entityKey)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, key, e, entityCacheTTL)
	return e, nil
}

func (s *entityService) ListEntities(ctx context.Context, module types.Module) ([]*entity.Entity, error) {
	if err := module.Validate(); err != nil {
		return nil, err
	}
	return s.EntityRepo.List(ctx, module)
}

func (s *entityService) UpdateEntity(ctx context.Context, e *entity.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}

	existing, err := s.EntityRepo.Get(ctx, e.Module, e.EntityKey)
	if err != nil {
		return err
	}

	existing.DisplayName = e.DisplayName
	existing.IsEnabled = e.IsEnabled
	existing.ApprovalRequired = e.ApprovalRequired
	existing.UpdatedBy = types.GetUserID(ctx)
	existing.UpdatedAt = time.Now().UTC()

	if err := s.EntityRepo.Update(ctx, existing); err != nil {
		return err
	}

	s.invalidateEntity(ctx, e.Module, e.EntityKey, existing.ID)
	return nil
}

func (s *entityService) DeleteEntity(ctx context.Context, module types.Module, entityKey string) error {
	e, err := s.EntityRepo.Get(ctx, module, entityKey)
	if err != nil {
		return err
	}

	count, err := s.RecordRepo.CountByEntity(ctx, module, entityKey)
	if err != nil {
		return err
	}
	if count > 0 {
		return ierr.NewError("entity has records").
			WithHintf("Entity %s still has %d records; delete or migrate them first", entityKey, count).
			WithReportableDetails(map[string]any{"record_count": count}).
			Mark(ierr.ErrInvalidOperation)
	}

	if err := s.EntityRepo.Delete(ctx, module, entityKey); err != nil {
		return err
	}

	s.invalidateEntity(ctx, module, entityKey, e.ID)
	s.Logger.Infow("entity deleted", "module", module, "entity", entityKey, "user_id", types.GetUserID(ctx))
	return nil
}

func (s *entityService) CreateField(ctx context.Context, module types.Module, entityKey string, f *entity.FieldDefinition) error {
	e, err := s.GetEntity(ctx, module, entityKey)
	if err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	f.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_FIELD_DEFINITION)
	f.EntityID = e.ID
	f.CreatedAt = now
	f.UpdatedAt = now

	if err := s.EntityRepo.CreateField(ctx, f); err != nil {
		return err
	}

	s.invalidateEntity(ctx, module, entityKey, e.ID)
	return nil
}

func (s *entityService) ListFields(ctx context.Context, module types.Module, entityKey string) ([]*entity.FieldDefinition, error) {
	e, err := s.GetEntity(ctx, module, entityKey)
	if err != nil {
		return nil, err
	}

	key := cache.GenerateKey(cache.PrefixFields, e.ID)
	if v, ok := s.Cache.Get(ctx, key); ok {
		if fields, ok := v.([]*entity.FieldDefinition); ok {
			return fields, nil
		}
	}

	fields, err := s.EntityRepo.ListFields(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, key, fields, entityCacheTTL)
	return fields, nil
}

func (s *entityService) UpdateField(ctx context.Context, module types.Module, entityKey string, f *entity.FieldDefinition) error {
	e, err := s.GetEntity(ctx, module, entityKey)
	if err != nil {
		return err
	}
	existing, err := s.EntityRepo.GetField(ctx, e.ID, f.Key)
	if err != nil {
		return err
	}
	if existing.IsSystem && (f.Type != existing.Type || !f.Visible) {
		return ierr.NewError("system field is protected").
			WithHintf("Field %s is a system field and cannot be retyped or hidden", f.Key).
			Mark(ierr.ErrInvalidOperation)
	}
	if err := f.Validate(); err != nil {
		return err
	}

	f.EntityID = e.ID
	f.UpdatedAt = time.Now().UTC()
	if err := s.EntityRepo.UpdateField(ctx, f); err != nil {
		return err
	}

	s.invalidateEntity(ctx, module, entityKey, e.ID)
	return nil
}

func (s *entityService) DeleteField(ctx context.Context, module types.Module, entityKey, fieldKey string) error {
	e, err := s.GetEntity(ctx, module, entityKey)
	if err != nil {
		return err
	}
	existing, err := s.EntityRepo.GetField(ctx, e.ID, fieldKey)
	if err != nil {
		return err
	}
	if existing.IsSystem {
		return ierr.NewError("system field is protected").
			WithHintf("Field %s is a system field and cannot be deleted", fieldKey).
			Mark(ierr.ErrInvalidOperation)
	}

	if err := s.EntityRepo.DeleteField(ctx, e.ID, fieldKey); err != nil {
		return err
	}

	s.invalidateEntity(ctx, module, entityKey, e.ID)
	return nil
}

func (s *entityService) invalidateEntity(ctx context.Context, module types.Module, entityKey, entityID string) {
	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixEntity, module, entityKey))
	s.Cache.Delete(ctx, cache.GenerateKey(cache.PrefixFields, entityID))
}
