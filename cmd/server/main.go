package main

import (
	"context"
	"net/http"
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/api"
	v1 "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/api/v1"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/cache"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/clickhouse"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/config"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/activity"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/entity"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/permission"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/record"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/postgres"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/pubsub"
	kafkaPubsub "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/pubsub/kafka"
	memoryPubsub "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/pubsub/memory"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/repository"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/sentry"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/service"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"

	internalKafka "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/kafka"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	app := fx.New(
		fx.Provide(
			validator.NewValidator,
			config.NewConfig,
			logger.NewLogger,
			sentry.NewSentryService,
			cache.NewInMemoryCache,

			postgres.NewDB,
			clickhouse.NewClickHouseStore,
			providePubSub,

			repository.NewEntityRepository,
			repository.NewRecordRepository,
			repository.NewPermissionRepository,
			repository.NewDepartmentDirectory,
			repository.NewActivityRepository,

			provideServiceParams,
			service.NewPolicyService,
			service.NewEntityService,
			service.NewActivityService,
			service.NewNotifierService,
			service.NewRecordService,
			service.NewConflictService,

			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			startServer,
			startRetentionSweep,
		),
	)

	app.Run()
}

func providePubSub(cfg *config.Configuration, log *logger.Logger) (pubsub.PubSub, error) {
	if !cfg.Kafka.Enabled {
		return memoryPubsub.NewPubSub(log), nil
	}

	producer, err := internalKafka.NewProducer(cfg)
	if err != nil {
		return nil, err
	}
	consumer, err := internalKafka.NewConsumer(cfg)
	if err != nil {
		return nil, err
	}
	return kafkaPubsub.NewPubSub(producer, consumer, log), nil
}

func provideServiceParams(
	log *logger.Logger,
	cfg *config.Configuration,
	db *postgres.DB,
	c cache.Cache,
	entityRepo entity.Repository,
	recordRepo record.Repository,
	permissionRepo permission.Repository,
	activityRepo activity.Repository,
	departments permission.DepartmentDirectory,
	ps pubsub.PubSub,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:         log,
		Config:         cfg,
		DB:             db,
		Cache:          c,
		EntityRepo:     entityRepo,
		RecordRepo:     recordRepo,
		PermissionRepo: permissionRepo,
		ActivityRepo:   activityRepo,
		Departments:    departments,
		PubSub:         ps,
	}
}

func provideHandlers(
	log *logger.Logger,
	db *postgres.DB,
	store *clickhouse.ClickHouseStore,
	recordService service.RecordService,
	conflictService service.ConflictService,
	notifierService service.NotifierService,
	entityService service.EntityService,
	policyService service.PolicyService,
	activityService service.ActivityService,
) api.Handlers {
	return api.Handlers{
		Health:     v1.NewHealthHandler(db, store, log),
		Record:     v1.NewRecordHandler(recordService, conflictService, notifierService, log),
		Entity:     v1.NewEntityHandler(entityService, log),
		Permission: v1.NewPermissionHandler(policyService, log),
		Activity:   v1.NewActivityHandler(activityService, log),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode == types.ModeProd {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewRouter(handlers, cfg, log)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	db *postgres.DB,
	store *clickhouse.ClickHouseStore,
	ps pubsub.PubSub,
	log *logger.Logger,
) {
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting server", "address", cfg.Server.Address)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalw("server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			if err := server.Shutdown(ctx); err != nil {
				log.Errorw("server shutdown failed", "error", err)
			}
			if err := ps.Close(); err != nil {
				log.Errorw("pubsub close failed", "error", err)
			}
			if err := store.Close(); err != nil {
				log.Errorw("clickhouse close failed", "error", err)
			}
			db.Close()
			return nil
		},
	})
}

func startRetentionSweep(
	lc fx.Lifecycle,
	activityService service.ActivityService,
	log *logger.Logger,
) {
	var sweeper *cron.Cron

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c, err := activityService.StartRetentionSweep(context.Background())
			if err != nil {
				return err
			}
			sweeper = c
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if sweeper != nil {
				<-sweeper.Stop().Done()
			}
			return nil
		},
	})
}
