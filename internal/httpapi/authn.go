package httpapi

import (
	"net/http"

	"warden.org/internal/auth"
)

const userTokenHeader = "X-User-Token"

// withActor resolves the request's actor from the X-User-Token header.
// Zero headers mean the anonymous guest; exactly one is looked up, with
// an unresolvable token degrading to the guest; more than one header is
// treated as none at all. This stage never rejects a request.
func (a *API) withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := auth.AnonymousActor()
		ctx := r.Context()

		if tokens := r.Header.Values(userTokenHeader); len(tokens) == 1 {
			actor = a.auth.ActorFromToken(ctx, tokens[0])
			ctx = auth.ContextWithToken(ctx, tokens[0])
		}

		ctx = auth.ContextWithActor(ctx, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
