package types

import (
	"context"
	"fmt"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID    ContextKey = "ctx_request_id"
	CtxUserID       ContextKey = "ctx_user_id"
	CtxUserRole     ContextKey = "ctx_user_role"
	CtxDepartmentID ContextKey = "ctx_department_id"
	CtxClientIP     ContextKey = "ctx_client_ip"
	CtxUserAgent    ContextKey = "ctx_user_agent"

	// DefaultUserID is used for background jobs and scripts that run
	// without an authenticated caller.
	DefaultUserID = "00000000-0000-0000-0000-000000000000"
)

func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(CtxUserID).(string); ok {
		return userID
	}
	return ""
}

func GetUserRole(ctx context.Context) UserRole {
	if role, ok := ctx.Value(CtxUserRole).(UserRole); ok {
		return role
	}
	return UserRoleEmployee
}

func GetDepartmentID(ctx context.Context) string {
	if departmentID, ok := ctx.Value(CtxDepartmentID).(string); ok {
		return departmentID
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// GetClientIP returns the caller's IP recorded by the request middleware.
// Used for activity log provenance.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(CtxClientIP).(string); ok {
		return ip
	}
	return ""
}

// GetUserAgent returns the caller's user agent recorded by the request middleware.
func GetUserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(CtxUserAgent).(string); ok {
		return ua
	}
	return ""
}

// SetUserID sets the user ID in the context
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}

// SetUserRole sets the user role in the context
func SetUserRole(ctx context.Context, role UserRole) context.Context {
	return context.WithValue(ctx, CtxUserRole, role)
}

// SetDepartmentID sets the department ID in the context
func SetDepartmentID(ctx context.Context, departmentID string) context.Context {
	return context.WithValue(ctx, CtxDepartmentID, departmentID)
}

// ValidateUserContext validates that the required identity fields are present
func ValidateUserContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context is nil")
	}

	userID := GetUserID(ctx)
	if userID == "" {
		return fmt.Errorf("no user context found in context")
	}

	return nil
}
