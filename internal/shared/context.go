package shared

import "context"

type contextKey string

const actorKey contextKey = "actor"

// ActorHeader carries the acting user's identifier, set by the hosting
// application's authentication layer.
const ActorHeader = "X-Actor"

// ContextWithActor attaches the acting user to the request context.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the acting user, or "system" when none is set.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey).(string); ok && actor != "" {
		return actor
	}
	return "system"
}
