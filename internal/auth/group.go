package auth

import (
	"fmt"
	"strings"
)

// ActorContext is the resolved identity of the current request: the
// actor's id and group, or the anonymous guest when no token resolved.
type ActorContext struct {
	ID    string
	Group Group
}

// AnonymousActor is the context attached to requests without a usable
// token.
func AnonymousActor() ActorContext {
	return ActorContext{Group: GroupGuest}
}

// Anonymous reports whether the context carries no resolved actor.
func (a ActorContext) Anonymous() bool { return a.ID == "" }

// MatchesGroup checks the actor against an allow-list of groups. A guest
// is always rejected as Forbidden before the list is consulted; an
// authenticated actor outside the list is rejected as Unauthorized with
// the allowed groups spelled out.
func (a ActorContext) MatchesGroup(allowed ...Group) error {
	if a.Group == GroupGuest || a.Anonymous() {
		return Reject(ErrForbidden, "Authentication required.")
	}
	for _, g := range allowed {
		if a.Group == g {
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, g := range allowed {
		names[i] = string(g)
	}
	return Reject(ErrUnauthorized, fmt.Sprintf(
		"You need to be part of one of the following groups: [%s].",
		strings.Join(names, ", "),
	))
}
