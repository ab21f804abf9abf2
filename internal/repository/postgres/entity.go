package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/entity"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/postgres"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/lib/pq"
)

type entityRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewEntityRepository(db *postgres.DB, logger *logger.Logger) entity.Repository {
	return &entityRepository{db: db, logger: logger}
}

func (r *entityRepository) Create(ctx context.Context, e *entity.Entity) error {
	query := `
	INSERT INTO entities (
		id, module, entity_key, display_name, is_enabled, approval_required,
		created_by, updated_by, created_at, updated_at
	) VALUES (
		:id, :module, :entity_key, :display_name, :is_enabled, :approval_required,
		:created_by, :updated_by, :created_at, :updated_at
	)
	`

	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, e)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.NewError("entity already exists").
				WithHintf("Entity %s already exists in module %s", e.EntityKey, e.Module).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create entity").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *entityRepository) Get(ctx context.Context, module types.Module, entityKey string) (*entity.Entity, error) {
	var e entity.Entity
	err := r.db.GetQuerier(ctx).GetContext(ctx, &e,
		`SELECT * FROM entities WHERE module = $1 AND entity_key = $2`,
		module, entityKey)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("entity not found").
			WithHintf("Entity %s does not exist in module %s", entityKey, module).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read entity").
			Mark(ierr.ErrDatabase)
	}
	return &e, nil
}

func (r *entityRepository) List(ctx context.Context, module types.Module) ([]*entity.Entity, error) {
	var entities []*entity.Entity
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &entities,
		`SELECT * FROM entities WHERE module = $1 ORDER BY entity_key`, module)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list entities").
			Mark(ierr.ErrDatabase)
	}
	return entities, nil
}

func (r *entityRepository) Update(ctx context.Context, e *entity.Entity) error {
	query := `
	UPDATE entities
	SET display_name = :display_name, is_enabled = :is_enabled,
		approval_required = :approval_required, updated_by = :updated_by,
		updated_at = :updated_at
	WHERE module = :module AND entity_key = :entity_key
	`

	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, e)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update entity").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("entity not found").
			WithHintf("Entity %s does not exist in module %s", e.EntityKey, e.Module).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *entityRepository) Delete(ctx context.Context, module types.Module, entityKey string) error {
	res, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`DELETE FROM entities WHERE module = $1 AND entity_key = $2`,
		module, entityKey)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete entity").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("entity not found").
			WithHintf("Entity %s does not exist in module %s", entityKey, module).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *entityRepository) CreateField(ctx context.Context, f *entity.FieldDefinition) error {
	query := `
	INSERT INTO field_definitions (
		id, entity_id, key, label, type, required, visible, display_order,
		is_system, rules, created_at, updated_at
	) VALUES (
		:id, :entity_id, :key, :label, :type, :required, :visible, :display_order,
		:is_system, :rules, :created_at, :updated_at
	)
	`

	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, f)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.NewError("field already exists").
				WithHintf("Field %s is already defined", f.Key).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create field definition").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *entityRepository) ListFields(ctx context.Context, entityID string) ([]*entity.FieldDefinition, error) {
	var fields []*entity.FieldDefinition
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &fields,
		`SELECT * FROM field_definitions WHERE entity_id = $1 ORDER BY display_order, key`,
		entityID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list field definitions").
			Mark(ierr.ErrDatabase)
	}
	return fields, nil
}

func (r *entityRepository) GetField(ctx context.Context, entityID, key string) (*entity.FieldDefinition, error) {
	var f entity.FieldDefinition
	err := r.db.GetQuerier(ctx).GetContext(ctx, &f,
		`SELECT * FROM field_definitions WHERE entity_id = $1 AND key = $2`,
		entityID, key)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("field not found").
			WithHintf("Field %s is not defined", key).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read field definition").
			Mark(ierr.ErrDatabase)
	}
	return &f, nil
}

func (r *entityRepository) UpdateField(ctx context.Context, f *entity.FieldDefinition) error {
	query := `
	UPDATE field_definitions
	SET label = :label, type = :type, required = :required, visible = :visible,
		display_order = :display_order, rules = :rules, updated_at = :updated_at
	WHERE entity_id = :entity_id AND key = :key
	`

	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, f)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update field definition").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("field not found").
			WithHintf("Field %s is not defined", f.Key).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *entityRepository) DeleteField(ctx context.Context, entityID, key string) error {
	res, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`DELETE FROM field_definitions WHERE entity_id = $1 AND key = $2 AND is_system = false`,
		entityID, key)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete field definition").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("field not found or protected").
			WithHintf("Field %s is not defined or is a system field", key).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
