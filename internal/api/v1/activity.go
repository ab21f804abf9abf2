package v1

import (
	"net/http"
	"strconv"
	"time"

	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/service"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	service service.ActivityService
	log     *logger.Logger
}

func NewActivityHandler(service service.ActivityService, log *logger.Logger) *ActivityHandler {
	return &ActivityHandler{service: service, log: log}
}

func (h *ActivityHandler) ListActivities(c *gin.Context) {
	ctx := c.Request.Context()
	var filter types.ActivityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.log.Error("Failed to bind query", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.service.List(ctx, &filter)
	if err != nil {
		h.log.Error("Failed to list activities", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *ActivityHandler) GetUserSummary(c *gin.Context) {
	ctx := c.Request.Context()
	start, end, err := parseWindow(c)
	if err != nil {
		c.Error(err)
		return
	}

	buckets, err := h.service.UserSummary(ctx, c.Param("user_id"), start, end)
	if err != nil {
		h.log.Error("Failed to get user summary", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": buckets})
}

func (h *ActivityHandler) GetEntityStatistics(c *gin.Context) {
	ctx := c.Request.Context()
	var module *types.Module
	if m := c.Query("module"); m != "" {
		mod := types.Module(m)
		if err := mod.Validate(); err != nil {
			c.Error(err)
			return
		}
		module = &mod
	}

	stats, err := h.service.EntityStatistics(ctx, module)
	if err != nil {
		h.log.Error("Failed to get entity statistics", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": stats})
}

func (h *ActivityHandler) RankUsers(c *gin.Context) {
	ctx := c.Request.Context()
	start, end, err := parseWindow(c)
	if err != nil {
		c.Error(err)
		return
	}

	limit := 10
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			c.Error(ierr.NewError("invalid limit").
				WithHint("Limit must be a positive integer").
				Mark(ierr.ErrValidation))
			return
		}
		limit = parsed
	}

	ranks, err := h.service.RankUsers(ctx, start, end, limit)
	if err != nil {
		h.log.Error("Failed to rank users", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": ranks})
}

func (h *ActivityHandler) ExportActivities(c *gin.Context) {
	ctx := c.Request.Context()
	var filter types.ActivityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.log.Error("Failed to bind query", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	c.Writer.Header().Set("Content-Type", "text/csv")
	c.Writer.Header().Set("Content-Disposition", `attachment; filename="activities.csv"`)

	if err := h.service.ExportCSV(ctx, &filter, c.Writer); err != nil {
		h.log.Error("Failed to export activities", "error", err)
		c.Error(err)
		return
	}
}

// parseWindow reads the start/end query window, defaulting to the last
// 30 days
func parseWindow(c *gin.Context) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)

	if s := c.Query("start_time"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return start, end, ierr.WithError(err).
				WithHint("start_time must be RFC3339").
				Mark(ierr.ErrValidation)
		}
		start = parsed
	}
	if e := c.Query("end_time"); e != "" {
		parsed, err := time.Parse(time.RFC3339, e)
		if err != nil {
			return start, end, ierr.WithError(err).
				WithHint("end_time must be RFC3339").
				Mark(ierr.ErrValidation)
		}
		end = parsed
	}
	if end.Before(start) {
		return start, end, ierr.NewError("invalid time range").
			WithHint("End time must not be before start time").
			Mark(ierr.ErrValidation)
	}

	return start, end, nil
}
