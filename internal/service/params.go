package service

import (
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/cache"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/config"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/activity"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/entity"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/permission"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/record"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/postgres"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/pubsub"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     *postgres.DB
	Cache  cache.Cache

	// Repositories
	EntityRepo     entity.Repository
	RecordRepo     record.Repository
	PermissionRepo permission.Repository
	ActivityRepo   activity.Repository
	Departments    permission.DepartmentDirectory

	// Pub/sub backing the change notifier
	PubSub pubsub.PubSub
}
