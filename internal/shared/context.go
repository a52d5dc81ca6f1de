package shared

import "context"

type actorContextKey struct{}

// ContextWithActor stores the authenticated user id in context.
func ContextWithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actorID)
}

// ActorFromContext extracts the authenticated user id from context.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorContextKey{}).(string)
	return actor
}

type roleContextKey struct{}

// ContextWithRole stores the authenticated user role in context.
func ContextWithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext extracts the authenticated user role from context.
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleContextKey{}).(string)
	return role
}
