package v1

import (
	"io"
	"net/http"

	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/service"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/gin-gonic/gin"
)

type RecordHandler struct {
	service  service.RecordService
	conflict service.ConflictService
	notifier service.NotifierService
	log      *logger.Logger
}

func NewRecordHandler(
	service service.RecordService,
	conflict service.ConflictService,
	notifier service.NotifierService,
	log *logger.Logger,
) *RecordHandler {
	return &RecordHandler{service: service, conflict: conflict, notifier: notifier, log: log}
}

func (h *RecordHandler) CreateRecord(c *gin.Context) {
	ctx := c.Request.Context()
	var req service.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	rec, err := h.service.Create(ctx, &req)
	if err != nil {
		h.log.Error("Failed to create record", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, rec)
}

func (h *RecordHandler) GetRecord(c *gin.Context) {
	ctx := c.Request.Context()
	rec, err := h.service.Get(ctx, c.Param("id"))
	if err != nil {
		h.log.Error("Failed to get record", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *RecordHandler) ListRecords(c *gin.Context) {
	ctx := c.Request.Context()
	var filter types.RecordFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.log.Error("Failed to bind query", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.service.List(ctx, &filter)
	if err != nil {
		h.log.Error("Failed to list records", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	ctx := c.Request.Context()
	var req service.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	req.ID = c.Param("id")

	rec, err := h.service.Update(ctx, &req)
	if err != nil {
		h.log.Error("Failed to update record", "error", err, "record_id", req.ID)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

type transitionRequest struct {
	Status  types.RecordStatus `json:"status" binding:"required"`
	Comment string             `json:"comment"`
}

func (h *RecordHandler) TransitionRecord(c *gin.Context) {
	ctx := c.Request.Context()
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	rec, err := h.service.Transition(ctx, c.Param("id"), req.Status, req.Comment)
	if err != nil {
		h.log.Error("Failed to transition record", "error", err, "record_id", c.Param("id"))
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// SubmitRecord, ApproveRecord and RejectRecord are workflow shortcuts
// over the generic transition.
func (h *RecordHandler) SubmitRecord(c *gin.Context) {
	h.transitionTo(c, types.RecordStatusSubmitted)
}

func (h *RecordHandler) ApproveRecord(c *gin.Context) {
	h.transitionTo(c, types.RecordStatusApproved)
}

func (h *RecordHandler) RejectRecord(c *gin.Context) {
	h.transitionTo(c, types.RecordStatusRejected)
}

func (h *RecordHandler) transitionTo(c *gin.Context, target types.RecordStatus) {
	ctx := c.Request.Context()

	// body is optional on the shortcut routes
	var req struct {
		Comment string `json:"comment"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.log.Error("Failed to bind JSON", "error", err)
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
	}

	rec, err := h.service.Transition(ctx, c.Param("id"), target, req.Comment)
	if err != nil {
		h.log.Error("Failed to transition record", "error", err, "record_id", c.Param("id"), "target", target)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.service.Delete(ctx, c.Param("id")); err != nil {
		h.log.Error("Failed to delete record", "error", err, "record_id", c.Param("id"))
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecordHandler) RestoreRecord(c *gin.Context) {
	ctx := c.Request.Context()
	rec, err := h.service.Restore(ctx, c.Param("id"))
	if err != nil {
		h.log.Error("Failed to restore record", "error", err, "record_id", c.Param("id"))
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *RecordHandler) ResolveConflict(c *gin.Context) {
	ctx := c.Request.Context()
	var req service.ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	req.RecordID = c.Param("id")

	rec, err := h.conflict.Resolve(ctx, &req)
	if err != nil {
		h.log.Error("Failed to resolve conflict", "error", err, "record_id", req.RecordID)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// StreamChanges serves one entity room over server-sent events. The
// stream carries live changes only; clients resync through the list
// endpoint after a reconnect.
func (h *RecordHandler) StreamChanges(c *gin.Context) {
	module := types.Module(c.Param("module"))
	entityKey := c.Param("entity")

	events, err := h.notifier.Subscribe(c.Request.Context(), module, entityKey)
	if err != nil {
		h.log.Error("Failed to subscribe to changes", "error", err)
		c.Error(err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		event, ok := <-events
		if !ok {
			return false
		}
		c.SSEvent(string(event.Type), event)
		return true
	})
}
