package testutil

import (
	"context"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/cache"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/config"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository fakes for testing
type Stores struct {
	EntityRepo     *InMemoryEntityStore
	RecordRepo     *InMemoryRecordStore
	PermissionRepo *InMemoryPermissionStore
	ActivityRepo   *InMemoryActivityStore
	Departments    *InMemoryDepartmentDirectory
	PubSub         *InMemoryPubSub
}

// BaseServiceSuite provides common setup for service tests
type BaseServiceSuite struct {
	suite.Suite
	stores Stores
	cache  cache.Cache
	config *config.Configuration
	logger *logger.Logger
}

// SetupSuite runs once before the suite starts
func (s *BaseServiceSuite) SetupSuite() {
	s.logger = logger.NewNopLogger()
	s.config = config.GetDefaultConfig()
}

// SetupTest gives every test a clean slate
func (s *BaseServiceSuite) SetupTest() {
	s.stores = Stores{
		EntityRepo:     NewInMemoryEntityStore(),
		RecordRepo:     NewInMemoryRecordStore(),
		PermissionRepo: NewInMemoryPermissionStore(),
		ActivityRepo:   NewInMemoryActivityStore(),
		Departments:    NewInMemoryDepartmentDirectory(),
		PubSub:         NewInMemoryPubSub(),
	}
	s.cache = cache.NewInMemoryCache(s.config)
}

func (s *BaseServiceSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceSuite) GetCache() cache.Cache {
	return s.cache
}

func (s *BaseServiceSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetContext returns a context carrying the given identity
func (s *BaseServiceSuite) GetContext(userID string, role types.UserRole) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxUserID, userID)
	ctx = context.WithValue(ctx, types.CtxUserRole, role)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}
