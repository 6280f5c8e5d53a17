package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/hptourism/homestay-portal/internal/workflow"
	"github.com/hptourism/homestay-portal/pkg/enums"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxDistrict contextKey = "district"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func DistrictFromContext(ctx context.Context) *string {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxDistrict).(string); ok && v != "" {
		return &v
	}
	return nil
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithActor seeds the identity keys directly, used by tests and the auth middleware.
func WithActor(ctx context.Context, userID, role string, district *string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxRole, role)
	if district != nil {
		ctx = context.WithValue(ctx, ctxDistrict, *district)
	}
	return ctx
}

// ActorFromContext rebuilds the workflow actor from the authenticated claims.
func ActorFromContext(ctx context.Context) (workflow.Actor, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return workflow.Actor{}, false
	}
	role := enums.UserRole(RoleFromContext(ctx))
	if !role.IsValid() {
		return workflow.Actor{}, false
	}
	return workflow.Actor{
		ID:       id,
		Role:     role,
		District: DistrictFromContext(ctx),
	}, true
}
