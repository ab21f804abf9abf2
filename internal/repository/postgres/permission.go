package postgres

import (
	"context"
	"database/sql"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/permission"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/postgres"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
)

type permissionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewPermissionRepository(db *postgres.DB, logger *logger.Logger) permission.Repository {
	return &permissionRepository{db: db, logger: logger}
}

func (r *permissionRepository) Create(ctx context.Context, s *permission.Scope) error {
	query := `
	INSERT INTO permission_scopes (
		id, user_id, role, module, entity_key, access, can_create, can_edit,
		can_delete, record_scope, columns, created_by, updated_by, created_at, updated_at
	) VALUES (
		:id, :user_id, :role, :module, :entity_key, :access, :can_create, :can_edit,
		:can_delete, :record_scope, :columns, :created_by, :updated_by, :created_at, :updated_at
	)
	`

	_, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, s)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.NewError("grant already exists").
				WithHintf("A grant for %s/%s already exists for this subject", s.Module, s.EntityKey).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create permission grant").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *permissionRepository) Get(ctx context.Context, id string) (*permission.Scope, error) {
	var s permission.Scope
	err := r.db.GetQuerier(ctx).GetContext(ctx, &s,
		`SELECT * FROM permission_scopes WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("grant not found").
			WithHintf("Permission grant %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read permission grant").
			Mark(ierr.ErrDatabase)
	}
	return &s, nil
}

func (r *permissionRepository) Update(ctx context.Context, s *permission.Scope) error {
	query := `
	UPDATE permission_scopes
	SET access = :access, can_create = :can_create, can_edit = :can_edit,
		can_delete = :can_delete, record_scope = :record_scope, columns = :columns,
		updated_by = :updated_by, updated_at = :updated_at
	WHERE id = :id
	`

	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, s)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update permission grant").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("grant not found").
			WithHintf("Permission grant %s does not exist", s.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *permissionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`DELETE FROM permission_scopes WHERE id = $1`, id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete permission grant").
			Mark(ierr.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("grant not found").
			WithHintf("Permission grant %s does not exist", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *permissionRepository) ListByUser(ctx context.Context, userID string) ([]*permission.Scope, error) {
	var scopes []*permission.Scope
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &scopes,
		`SELECT * FROM permission_scopes WHERE user_id = $1 ORDER BY module, entity_key`,
		userID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list user grants").
			Mark(ierr.ErrDatabase)
	}
	return scopes, nil
}

func (r *permissionRepository) ListByRole(ctx context.Context, role types.UserRole) ([]*permission.Scope, error) {
	var scopes []*permission.Scope
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &scopes,
		`SELECT * FROM permission_scopes WHERE role = $1 AND user_id = '' ORDER BY module, entity_key`,
		role)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list role grants").
			Mark(ierr.ErrDatabase)
	}
	return scopes, nil
}

func (r *permissionRepository) ListUserIDsByRole(ctx context.Context, role types.UserRole) ([]string, error) {
	var ids []string
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &ids,
		`SELECT id FROM users WHERE role = $1`, role)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list users for role").
			Mark(ierr.ErrDatabase)
	}
	return ids, nil
}
