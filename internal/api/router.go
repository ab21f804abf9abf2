package api

import (
	v1 "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/api/v1"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/config"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health     *v1.HealthHandler
	Record     *v1.RecordHandler
	Entity     *v1.EntityHandler
	Permission *v1.PermissionHandler
	Activity   *v1.ActivityHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	v1Group.Use(middleware.AuthMiddleware(cfg, log))
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Record routes
	records := router.Group("/records")
	{
		records.POST("", handlers.Record.CreateRecord)
		records.GET("", handlers.Record.ListRecords)
		records.GET("/:id", handlers.Record.GetRecord)
		records.PUT("/:id", handlers.Record.UpdateRecord)
		records.DELETE("/:id", handlers.Record.DeleteRecord)
		records.POST("/:id/restore", handlers.Record.RestoreRecord)
		records.POST("/:id/transition", handlers.Record.TransitionRecord)
		records.POST("/:id/submit", handlers.Record.SubmitRecord)
		records.POST("/:id/approve", handlers.Record.ApproveRecord)
		records.POST("/:id/reject", handlers.Record.RejectRecord)
		records.POST("/:id/resolve-conflict", handlers.Record.ResolveConflict)
	}

	// Change stream rooms, one per module/entity pair
	router.GET("/changes/:module/:entity", handlers.Record.StreamChanges)

	// Entity administration
	modules := router.Group("/modules/:module", middleware.AdminOnly())
	{
		modules.POST("/entities", handlers.Entity.CreateEntity)
		modules.GET("/entities", handlers.Entity.ListEntities)
		modules.GET("/entities/:entity", handlers.Entity.GetEntity)
		modules.PUT("/entities/:entity", handlers.Entity.UpdateEntity)
		modules.DELETE("/entities/:entity", handlers.Entity.DeleteEntity)

		modules.POST("/entities/:entity/fields", handlers.Entity.CreateField)
		modules.GET("/entities/:entity/fields", handlers.Entity.ListFields)
		modules.PUT("/entities/:entity/fields/:field", handlers.Entity.UpdateField)
		modules.DELETE("/entities/:entity/fields/:field", handlers.Entity.DeleteField)
	}

	// Permission administration; effective-scope and policy resolution
	// stay open to every authenticated caller
	router.GET("/permissions", handlers.Permission.GetEffective)
	router.GET("/permissions/me", handlers.Permission.GetMyPolicy)
	permissions := router.Group("/permissions", middleware.AdminOnly())
	{
		permissions.POST("", handlers.Permission.CreateGrant)
		permissions.GET("/grants", handlers.Permission.ListGrants)
		permissions.GET("/grants/:id", handlers.Permission.GetGrant)
		permissions.PUT("/grants/:id", handlers.Permission.UpdateGrant)
		permissions.DELETE("/grants/:id", handlers.Permission.DeleteGrant)
	}

	// Activity ledger
	activities := router.Group("/activity-logs")
	{
		activities.GET("", handlers.Activity.ListActivities)
		activities.GET("/export", handlers.Activity.ExportActivities)
		activities.GET("/summary/:user_id", handlers.Activity.GetUserSummary)
		activities.GET("/stats", handlers.Activity.GetEntityStatistics)
		activities.GET("/ranking", handlers.Activity.RankUsers)
	}
}
