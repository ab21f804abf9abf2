package v1

import (
	"net/http"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/clickhouse"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/postgres"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	db    *postgres.DB
	store *clickhouse.ClickHouseStore
	log   *logger.Logger
}

func NewHealthHandler(db *postgres.DB, store *clickhouse.ClickHouseStore, log *logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, store: store, log: log}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	status := http.StatusOK
	checks := gin.H{"postgres": "ok", "clickhouse": "ok"}

	if err := h.db.PingContext(ctx); err != nil {
		h.log.Errorw("postgres health check failed", "error", err)
		checks["postgres"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if err := h.store.GetConn().Ping(ctx); err != nil {
		h.log.Errorw("clickhouse health check failed", "error", err)
		checks["clickhouse"] = "unavailable"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, checks)
}
