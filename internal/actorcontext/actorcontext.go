// Package actorcontext carries the identity of the caller acting on a
// subscriber. The engine trusts this identity; authorization happens at the
// edge before a request reaches any service.
package actorcontext

import "context"

type contextKey string

const (
	actorKey     contextKey = "actor"
	actorTypeKey contextKey = "actor_type"
)

const (
	ActorTypeAdmin    = "admin"
	ActorTypeEngineer = "engineer"
	ActorTypeSystem   = "system"
)

func WithActor(ctx context.Context, actorType, actor string) context.Context {
	ctx = context.WithValue(ctx, actorTypeKey, actorType)
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey).(string); ok {
		return v
	}
	return ""
}

func ActorTypeFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorTypeKey).(string); ok {
		return v
	}
	return ""
}
