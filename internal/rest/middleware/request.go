package middleware

import (
	"context"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestMiddleware tags every request with an id and captures the
// client metadata the activity ledger records
func RequestMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	ctx = context.WithValue(ctx, types.CtxRequestID, requestID)
	ctx = context.WithValue(ctx, types.CtxClientIP, c.ClientIP())
	ctx = context.WithValue(ctx, types.CtxUserAgent, c.Request.UserAgent())

	c.Request = c.Request.WithContext(ctx)
	c.Header(types.HeaderRequestID, requestID)

	c.Next()
}
