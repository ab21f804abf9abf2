package v1

import (
	"net/http"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/permission"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/logger"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/service"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/gin-gonic/gin"
)

type PermissionHandler struct {
	service service.PolicyService
	log     *logger.Logger
}

func NewPermissionHandler(service service.PolicyService, log *logger.Logger) *PermissionHandler {
	return &PermissionHandler{service: service, log: log}
}

func (h *PermissionHandler) CreateGrant(c *gin.Context) {
	ctx := c.Request.Context()
	var scope permission.Scope
	if err := c.ShouldBindJSON(&scope); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	actor := types.GetUserID(ctx)
	scope.CreatedBy = actor
	scope.UpdatedBy = actor

	if err := h.service.CreateGrant(ctx, &scope); err != nil {
		h.log.Error("Failed to create grant", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, scope)
}

func (h *PermissionHandler) GetGrant(c *gin.Context) {
	ctx := c.Request.Context()
	scope, err := h.service.GetGrant(ctx, c.Param("id"))
	if err != nil {
		h.log.Error("Failed to get grant", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, scope)
}

func (h *PermissionHandler) UpdateGrant(c *gin.Context) {
	ctx := c.Request.Context()
	var scope permission.Scope
	if err := c.ShouldBindJSON(&scope); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	scope.ID = c.Param("id")
	scope.UpdatedBy = types.GetUserID(ctx)

	if err := h.service.UpdateGrant(ctx, &scope); err != nil {
		h.log.Error("Failed to update grant", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Grant updated successfully"})
}

func (h *PermissionHandler) DeleteGrant(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.service.DeleteGrant(ctx, c.Param("id")); err != nil {
		h.log.Error("Failed to delete grant", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Grant deleted successfully"})
}

func (h *PermissionHandler) ListGrants(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Query("user_id")
	if userID == "" {
		c.Error(ierr.NewError("user_id is required").
			WithHint("Provide a user_id query parameter").
			Mark(ierr.ErrValidation))
		return
	}

	scopes, err := h.service.ListGrants(ctx, userID)
	if err != nil {
		h.log.Error("Failed to list grants", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": scopes})
}

// GetEffective answers "what can I do on this entity" for the caller
func (h *PermissionHandler) GetEffective(c *gin.Context) {
	ctx := c.Request.Context()
	module := types.Module(c.Query("module"))
	entityKey := c.Query("entity")
	if err := module.Validate(); err != nil || entityKey == "" {
		c.Error(ierr.NewError("module and entity are required").
			WithHint("Provide module and entity query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	scope, err := h.service.ResolveScope(ctx, types.GetUserID(ctx), types.GetUserRole(ctx), module, entityKey)
	if err != nil {
		h.log.Error("Failed to resolve scope", "error", err)
		c.Error(err)
		return
	}
	if scope == nil {
		c.JSON(http.StatusOK, gin.H{"access": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access":       scope.Access,
		"create":       scope.Create,
		"edit":         scope.Edit,
		"delete":       scope.Delete,
		"record_scope": scope.RecordScope,
		"columns":      scope.Columns,
	})
}

// GetMyPolicy returns the caller's resolved permission map; front ends
// use it to paint the UI without probing every operation
func (h *PermissionHandler) GetMyPolicy(c *gin.Context) {
	ctx := c.Request.Context()
	policy, err := h.service.ResolvePolicy(ctx, types.GetUserID(ctx), types.GetUserRole(ctx))
	if err != nil {
		h.log.Error("Failed to resolve policy", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, policy)
}
