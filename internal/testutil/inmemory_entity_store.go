package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/entity"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

type InMemoryEntityStore struct {
	mu       sync.RWMutex
	entities map[string]*entity.Entity          // module/entityKey -> entity
	fields   map[string][]*entity.FieldDefinition // entityID -> fields
}

func NewInMemoryEntityStore() *InMemoryEntityStore {
	return &InMemoryEntityStore{
		entities: make(map[string]*entity.Entity),
		fields:   make(map[string][]*entity.FieldDefinition),
	}
}

func entityStoreKey(module types.Module, entityKey string) string {
	return string(module) + "/" + entityKey
}

func (s *InMemoryEntityStore) Create(ctx context.Context, e *entity.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entityStoreKey(e.Module, e.EntityKey)
	if _, exists := s.entities[key]; exists {
		return ierr.NewError("entity already exists").
			WithHintf("Entity %s already exists in module %s", e.EntityKey, e.Module).
			Mark(ierr.ErrAlreadyExists)
	}
	cp := *e
	s.entities[key] = &cp
	return nil
}

func (s *InMemoryEntityStore) Get(ctx context.Context, module types.Module, entityKey string) (*entity.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entities[entityStoreKey(module, entityKey)]
	if !exists {
		return nil, entityNotFound(module, entityKey)
	}
	cp := *e
	return &cp, nil
}

func (s *InMemoryEntityStore) List(ctx context.Context, module types.Module) ([]*entity.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entities []*entity.Entity
	for _, e := range s.entities {
		if e.Module == module {
			cp := *e
			entities = append(entities, &cp)
		}
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].EntityKey < entities[j].EntityKey
	})
	return entities, nil
}

func (s *InMemoryEntityStore) Update(ctx context.Context, e *entity.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entityStoreKey(e.Module, e.EntityKey)
	if _, exists := s.entities[key]; !exists {
		return entityNotFound(e.Module, e.EntityKey)
	}
	cp := *e
	s.entities[key] = &cp
	return nil
}

func (s *InMemoryEntityStore) Delete(ctx context.Context, module types.Module, entityKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entityStoreKey(module, entityKey)
	e, exists := s.entities[key]
	if !exists {
		return entityNotFound(module, entityKey)
	}
	delete(s.entities, key)
	delete(s.fields, e.ID)
	return nil
}

func (s *InMemoryEntityStore) CreateField(ctx context.Context, f *entity.FieldDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.fields[f.EntityID] {
		if existing.Key == f.Key {
			return ierr.NewError("field already exists").
				WithHintf("Field %s is already defined", f.Key).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	cp := *f
	s.fields[f.EntityID] = append(s.fields[f.EntityID], &cp)
	return nil
}

func (s *InMemoryEntityStore) ListFields(ctx context.Context, entityID string) ([]*entity.FieldDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields := make([]*entity.FieldDefinition, 0, len(s.fields[entityID]))
	for _, f := range s.fields[entityID] {
		cp := *f
		fields = append(fields, &cp)
	}
	sort.Slice(fields, func(i, j int) bool {
		if fields[i].Order != fields[j].Order {
			return fields[i].Order < fields[j].Order
		}
		return fields[i].Key < fields[j].Key
	})
	return fields, nil
}

func (s *InMemoryEntityStore) GetField(ctx context.Context, entityID, key string) (*entity.FieldDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.fields[entityID] {
		if f.Key == key {
			cp := *f
			return &cp, nil
		}
	}
	return nil, fieldNotFound(key)
}

func (s *InMemoryEntityStore) UpdateField(ctx context.Context, f *entity.FieldDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.fields[f.EntityID] {
		if existing.Key == f.Key {
			cp := *f
			s.fields[f.EntityID][i] = &cp
			return nil
		}
	}
	return fieldNotFound(f.Key)
}

func (s *InMemoryEntityStore) DeleteField(ctx context.Context, entityID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := s.fields[entityID]
	for i, f := range fields {
		if f.Key == key {
			if f.IsSystem {
				return fieldNotFound(key)
			}
			s.fields[entityID] = append(fields[:i], fields[i+1:]...)
			return nil
		}
	}
	return fieldNotFound(key)
}

func entityNotFound(module types.Module, entityKey string) error {
	return ierr.NewError("entity not found").
		WithHintf("Entity %s does not exist in module %s", entityKey, module).
		Mark(ierr.ErrNotFound)
}

func fieldNotFound(key string) error {
	return ierr.NewError("field not found").
		WithHintf("Field %s is not defined", key).
		Mark(ierr.ErrNotFound)
}
