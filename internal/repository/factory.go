package repository

import (
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/cache"
	ch "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/clickhouse"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/activity"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/entity"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/permission"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/record"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/postgres"
	chRepo "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/repository/clickhouse"
	pgRepo "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/repository/postgres"
)

func NewEntityRepository(db *postgres.DB, logger *logger.Logger) entity.Repository {
	return pgRepo.NewEntityRepository(db, logger)
}

func NewRecordRepository(db *postgres.DB, logger *logger.Logger) record.Repository {
	return pgRepo.NewRecordRepository(db, logger)
}

func NewPermissionRepository(db *postgres.DB, logger *logger.Logger) permission.Repository {
	return pgRepo.NewPermissionRepository(db, logger)
}

func NewDepartmentDirectory(db *postgres.DB, c cache.Cache, logger *logger.Logger) permission.DepartmentDirectory {
	return pgRepo.NewDepartmentDirectory(db, c, logger)
}

func NewActivityRepository(store *ch.ClickHouseStore, logger *logger.Logger) activity.Repository {
	return chRepo.NewActivityRepository(store, logger)
}
