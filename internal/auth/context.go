package auth

import "context"

type actorContextKey struct{}
type tokenContextKey struct{}

// ContextWithActor attaches the resolved actor to the context.
func ContextWithActor(ctx context.Context, actor ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the resolved actor. When no actor was
// attached it returns the anonymous guest, so callers can always run a
// group check against the result.
func ActorFromContext(ctx context.Context) ActorContext {
	if ctx == nil {
		return AnonymousActor()
	}
	v, ok := ctx.Value(actorContextKey{}).(ActorContext)
	if !ok {
		return AnonymousActor()
	}
	return v
}

// ContextWithToken stores the raw presented token inside the context.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the presented token if one was attached.
func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
