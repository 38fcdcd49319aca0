package org

import "context"

// Store is the persistence surface for organizations.
type Store interface {
	Insert(ctx context.Context, o *Organization) error
	FindByID(ctx context.Context, id string) (*Organization, error)
	Update(ctx context.Context, id string, upd Update) error
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, orgID, memberID string) error
	RemoveMember(ctx context.Context, orgID, memberID string) error
	AddServer(ctx context.Context, orgID, serverID string) error
	RemoveServer(ctx context.Context, orgID, serverID string) error
	// HasAccessToServer answers, in one query, whether any organization
	// both carries the server and has the actor as owner or member.
	HasAccessToServer(ctx context.Context, serverID, actorID string) (bool, error)
	ListForActor(ctx context.Context, actorID string) ([]*Organization, error)
}
