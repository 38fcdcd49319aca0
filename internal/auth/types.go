package auth

import "time"

// Group is the coarse role attached to every actor. It gates whole route
// categories before any fine-grained permission is consulted.
type Group string

const (
	// GroupGuest never passes a group check. It doubles as the sentinel
	// for requests carrying no valid token and as the group of freshly
	// registered accounts awaiting promotion.
	GroupGuest Group = "Guest"
	// GroupUser is a regular authenticated account.
	GroupUser Group = "User"
	// GroupServer is a machine account reachable through organizations.
	GroupServer Group = "Server"
	// GroupWebsite is the privileged front-of-house account.
	GroupWebsite Group = "Website"
)

// Known reports whether g is one of the defined groups.
func (g Group) Known() bool {
	switch g {
	case GroupGuest, GroupUser, GroupServer, GroupWebsite:
		return true
	}
	return false
}

// Authentication kinds stored on a user record.
const (
	AuthKindCredentials = "Credentials"
	AuthKindNone        = "None"
)

// Authentication is the stored proof-of-identity for a user: a set of
// credentials, or nothing at all for anonymous and service accounts.
type Authentication struct {
	Kind         string `json:"kind"`
	Email        string `json:"email,omitempty"`
	Username     string `json:"username,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	PasswordHash string `json:"-"`
}

// Login is one authentication event. The history is append-only: entries
// are never edited or removed, only superseded by later ones.
type Login struct {
	IP         string    `json:"ip"`
	OccurredAt time.Time `json:"occurred_at"`
	Method     string    `json:"method"`
	Token      string    `json:"token"`
}

// User is an identity record.
type User struct {
	UniqueID       string         `json:"unique_id"`
	Username       string         `json:"username,omitempty"`
	Group          Group          `json:"group"`
	Authentication Authentication `json:"authentication"`
	Permissions    []string       `json:"permissions"`
	Logins         []Login        `json:"logins"`
	CreatedAt      time.Time      `json:"created_at"`
}

// CurrentToken returns the token of the most recent login. Older tokens
// stay in the history and still resolve the user; only the latest one is
// considered current.
func (u *User) CurrentToken() (string, bool) {
	if len(u.Logins) == 0 {
		return "", false
	}
	return u.Logins[len(u.Logins)-1].Token, true
}

// HoldsPermission reports whether the permission id is present in the
// user's permission set.
func (u *User) HoldsPermission(permissionID string) bool {
	for _, id := range u.Permissions {
		if id == permissionID {
			return true
		}
	}
	return false
}

// Permission is a named capability. Names are the stable lookup keys;
// ids are what user records reference.
type Permission struct {
	UniqueID string `json:"unique_id"`
	Name     string `json:"name"`
}
