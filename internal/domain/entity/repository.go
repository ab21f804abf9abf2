package entity

import (
	"context"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

// Repository is the persistence contract for entities and their field
// definitions
type Repository interface {
	Create(ctx context.Context, e *Entity) error
	Get(ctx context.Context, module types.Module, entityKey string) (*Entity, error)
	List(ctx context.Context, module types.Module) ([]*Entity, error)
	Update(ctx context.Context, e *Entity) error
	// Delete removes the entity; callers must first verify no records
	// reference it
	Delete(ctx context.Context, module types.Module, entityKey string) error

	CreateField(ctx context.Context, f *FieldDefinition) error
	ListFields(ctx context.Context, entityID string) ([]*FieldDefinition, error)
	GetField(ctx context.Context, entityID, key string) (*FieldDefinition, error)
	UpdateField(ctx context.Context, f *FieldDefinition) error
	DeleteField(ctx context.Context, entityID, key string) error
}
