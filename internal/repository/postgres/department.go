package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/cache"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/permission"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/postgres"
)

const departmentCacheTTL = 5 * time.Minute

type departmentDirectory struct {
	db     *postgres.DB
	cache  cache.Cache
	logger *logger.Logger
}

func NewDepartmentDirectory(db *postgres.DB, c cache.Cache, logger *logger.Logger) permission.DepartmentDirectory {
	return &departmentDirectory{db: db, cache: c, logger: logger}
}

func (d *departmentDirectory) GetDepartment(ctx context.Context, userID string) (string, error) {
	key := cache.GenerateKey(cache.PrefixDepartment, userID)
	if v, ok := d.cache.Get(ctx, key); ok {
		if dept, ok := v.(string); ok {
			return dept, nil
		}
	}

	var dept sql.NullString
	err := d.db.GetQuerier(ctx).GetContext(ctx, &dept,
		`SELECT department_id FROM users WHERE id = $1`, userID)
	if err == sql.ErrNoRows {
		return "", ierr.NewError("user not found").
			WithHintf("User %s does not exist", userID).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to resolve department").
			Mark(ierr.ErrDatabase)
	}

	d.cache.Set(ctx, key, dept.String, departmentCacheTTL)
	return dept.String, nil
}

func (d *departmentDirectory) SameDepartment(ctx context.Context, userA, userB string) (bool, error) {
	if userA == userB {
		return true, nil
	}

	deptA, err := d.GetDepartment(ctx, userA)
	if err != nil {
		return false, err
	}
	deptB, err := d.GetDepartment(ctx, userB)
	if err != nil {
		return false, err
	}

	// users without a department never match anyone
	if deptA == "" || deptB == "" {
		return false, nil
	}
	return deptA == deptB, nil
}

func (d *departmentDirectory) ListMembers(ctx context.Context, departmentID string) ([]string, error) {
	var ids []string
	err := d.db.GetQuerier(ctx).SelectContext(ctx, &ids,
		`SELECT id FROM users WHERE department_id = $1`, departmentID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Failed to list members of department %s", departmentID).
			Mark(ierr.ErrDatabase)
	}
	return ids, nil
}
