package org

import (
	"context"
	"errors"
	"time"

	"warden.org/internal/auth"
	"warden.org/internal/ids"
)

// ActorDirectory is the slice of the identity subsystem the organization
// service needs: resolving ids to identity records.
type ActorDirectory interface {
	FindByID(ctx context.Context, id string) (*auth.User, error)
}

// Service implements organization membership and server access on top of
// the store and the actor directory.
type Service struct {
	orgs   Store
	actors ActorDirectory
	now    func() time.Time
	newID  func() string
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithIDGenerator overrides id minting (useful for tests).
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService constructs a Service.
func NewService(orgs Store, actors ActorDirectory, opts ...ServiceOption) *Service {
	svc := &Service{
		orgs:   orgs,
		actors: actors,
		now:    time.Now,
		newID:  ids.New,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Create validates the owner and inserts a fresh organization with empty
// member and server lists.
func (s *Service) Create(ctx context.Context, name, ownerID string) (*Organization, error) {
	if name == "" {
		return nil, reject(ErrInvalidInput, "Organization name is required.")
	}
	if _, err := s.actors.FindByID(ctx, ownerID); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, reject(ErrNotFound, "Owner id does not correspond to any existing user.")
		}
		return nil, err
	}
	o := &Organization{
		UniqueID:  s.newID(),
		Name:      name,
		OwnerID:   ownerID,
		MemberIDs: []string{},
		ServerIDs: []string{},
		CreatedAt: s.now().UTC(),
	}
	if err := s.orgs.Insert(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Get fetches an organization.
func (s *Service) Get(ctx context.Context, id string) (*Organization, error) {
	o, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, reject(ErrNotFound, "Organization was not found.")
		}
		return nil, err
	}
	return o, nil
}

// ApplyUpdate patches name and/or owner. A new owner must be an existing
// actor.
func (s *Service) ApplyUpdate(ctx context.Context, id string, upd Update) error {
	if upd.Name == nil && upd.OwnerID == nil {
		return reject(ErrInvalidInput, "Nothing to update.")
	}
	if upd.Name != nil && *upd.Name == "" {
		return reject(ErrInvalidInput, "Organization name is required.")
	}
	if upd.OwnerID != nil {
		if _, err := s.actors.FindByID(ctx, *upd.OwnerID); err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				return reject(ErrNotFound, "Owner id does not correspond to any existing user.")
			}
			return err
		}
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.orgs.Update(ctx, id, upd)
}

// Delete removes an organization with its member and server lists.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.orgs.Delete(ctx, id)
}

// AddMember attaches an actor to the member list. The owner cannot also
// be a member, and adding twice is a conflict; both are checked before
// any mutation.
func (s *Service) AddMember(ctx context.Context, orgID, memberID string) error {
	o, err := s.Get(ctx, orgID)
	if err != nil {
		return err
	}
	if _, err := s.actors.FindByID(ctx, memberID); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return reject(ErrNotFound, "Member was not found.")
		}
		return err
	}
	if o.OwnerID == memberID {
		return reject(ErrConflict, "The user is already the owner of the organization.")
	}
	if o.IsMemberOrOwner(memberID) {
		return reject(ErrConflict, "The user is already a member of the organization.")
	}
	return s.orgs.AddMember(ctx, orgID, memberID)
}

// RemoveMember detaches an actor from the member list. The owner is not
// removable this way, and removing a non-member is a conflict.
func (s *Service) RemoveMember(ctx context.Context, orgID, memberID string) error {
	o, err := s.Get(ctx, orgID)
	if err != nil {
		return err
	}
	if o.OwnerID == memberID {
		return reject(ErrConflict, "The user is the owner of the organization.")
	}
	if !o.IsMemberOrOwner(memberID) {
		return reject(ErrConflict, "The user is not a member of the organization.")
	}
	return s.orgs.RemoveMember(ctx, orgID, memberID)
}

// AddServer attaches a server actor to the organization. The target must
// exist, must not already be attached, and must be in the Server group.
func (s *Service) AddServer(ctx context.Context, orgID, serverID string) error {
	o, err := s.Get(ctx, orgID)
	if err != nil {
		return err
	}
	if o.HasServer(serverID) {
		return reject(ErrConflict, "Server is already present in the organization.")
	}
	server, err := s.actors.FindByID(ctx, serverID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return reject(ErrNotFound, "Server not found.")
		}
		return err
	}
	if server.Group != auth.GroupServer {
		return reject(ErrNotAServer, "This is not a server.")
	}
	return s.orgs.AddServer(ctx, orgID, serverID)
}

// RemoveServer detaches a server from the organization.
func (s *Service) RemoveServer(ctx context.Context, orgID, serverID string) error {
	o, err := s.Get(ctx, orgID)
	if err != nil {
		return err
	}
	if !o.HasServer(serverID) {
		return reject(ErrConflict, "Server is not present in the organization.")
	}
	return s.orgs.RemoveServer(ctx, orgID, serverID)
}

// HasAccessToServer reports whether the actor may reach the server
// through any organization carrying it.
func (s *Service) HasAccessToServer(ctx context.Context, serverID, actorID string) (bool, error) {
	return s.orgs.HasAccessToServer(ctx, serverID, actorID)
}

// ListForActor returns every organization the actor owns or belongs to.
func (s *Service) ListForActor(ctx context.Context, actorID string) ([]*Organization, error) {
	return s.orgs.ListForActor(ctx, actorID)
}
