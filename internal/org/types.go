package org

import "time"

// Organization groups users around an owner and exposes servers to them.
type Organization struct {
	UniqueID  string    `json:"unique_id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner"`
	MemberIDs []string  `json:"member_ids"`
	ServerIDs []string  `json:"server_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// IsMemberOrOwner reports whether the actor participates in the
// organization, either as its owner or through the member list.
func (o *Organization) IsMemberOrOwner(actorID string) bool {
	if actorID == "" {
		return false
	}
	if o.OwnerID == actorID {
		return true
	}
	for _, id := range o.MemberIDs {
		if id == actorID {
			return true
		}
	}
	return false
}

// HasServer reports whether the server id is attached to the
// organization.
func (o *Organization) HasServer(serverID string) bool {
	for _, id := range o.ServerIDs {
		if id == serverID {
			return true
		}
	}
	return false
}

// Update carries the mutable organization fields; nil means keep.
type Update struct {
	Name    *string `json:"name"`
	OwnerID *string `json:"owner"`
}
