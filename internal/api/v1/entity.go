package v1

import (
	"net/http"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/entity"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/service"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/gin-gonic/gin"
)

type EntityHandler struct {
	service service.EntityService
	log     *logger.Logger
}

func NewEntityHandler(service service.EntityService, log *logger.Logger) *EntityHandler {
	return &EntityHandler{service: service, log: log}
}

func (h *EntityHandler) CreateEntity(c *gin.Context) {
	ctx := c.Request.Context()
	var e entity.Entity
	if err := c.ShouldBindJSON(&e); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	e.Module = types.Module(c.Param("module"))

	if err := h.service.CreateEntity(ctx, &e); err != nil {
		h.log.Error("Failed to create entity", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, e)
}

func (h *EntityHandler) GetEntity(c *gin.Context) {
	ctx := c.Request.Context()
	e, err := h.service.GetEntity(ctx, types.Module(c.Param("module")), c.Param("entity"))
	if err != nil {
		h.log.Error("Failed to get entity", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *EntityHandler) ListEntities(c *gin.Context) {
	ctx := c.Request.Context()
	entities, err := h.service.ListEntities(ctx, types.Module(c.Param("module")))
	if err != nil {
		h.log.Error("Failed to list entities", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entities})
}

func (h *EntityHandler) UpdateEntity(c *gin.Context) {
	ctx := c.Request.Context()
	var e entity.Entity
	if err := c.ShouldBindJSON(&e); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	e.Module = types.Module(c.Param("module"))
	e.EntityKey = c.Param("entity")

	if err := h.service.UpdateEntity(ctx, &e); err != nil {
		h.log.Error("Failed to update entity", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Entity updated successfully"})
}

func (h *EntityHandler) DeleteEntity(c *gin.Context) {
	ctx := c.Request.Context()
	err := h.service.DeleteEntity(ctx, types.Module(c.Param("module")), c.Param("entity"))
	if err != nil {
		h.log.Error("Failed to delete entity", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Entity deleted successfully"})
}

func (h *EntityHandler) CreateField(c *gin.Context) {
	ctx := c.Request.Context()
	var f entity.FieldDefinition
	if err := c.ShouldBindJSON(&f); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	err := h.service.CreateField(ctx, types.Module(c.Param("module")), c.Param("entity"), &f)
	if err != nil {
		h.log.Error("Failed to create field", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, f)
}

func (h *EntityHandler) ListFields(c *gin.Context) {
	ctx := c.Request.Context()
	fields, err := h.service.ListFields(ctx, types.Module(c.Param("module")), c.Param("entity"))
	if err != nil {
		h.log.Error("Failed to list fields", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": fields})
}

func (h *EntityHandler) UpdateField(c *gin.Context) {
	ctx := c.Request.Context()
	var f entity.FieldDefinition
	if err := c.ShouldBindJSON(&f); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	f.Key = c.Param("field")

	err := h.service.UpdateField(ctx, types.Module(c.Param("module")), c.Param("entity"), &f)
	if err != nil {
		h.log.Error("Failed to update field", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Field updated successfully"})
}

func (h *EntityHandler) DeleteField(c *gin.Context) {
	ctx := c.Request.Context()
	err := h.service.DeleteField(ctx, types.Module(c.Param("module")), c.Param("entity"), c.Param("field"))
	if err != nil {
		h.log.Error("Failed to delete field", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Field deleted successfully"})
}
