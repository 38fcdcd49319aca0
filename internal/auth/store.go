package auth

import "context"

// UserStore is the persistence surface for identity records.
type UserStore interface {
	Insert(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByToken resolves a user from any token in their login history,
	// current or historical.
	FindByToken(ctx context.Context, token string) (*User, error)
	Exists(ctx context.Context, id string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	AppendLogin(ctx context.Context, userID string, l Login) error
	UpdateAuthentication(ctx context.Context, userID string, a Authentication) error
	UpdateUsername(ctx context.Context, userID, username string) error
	Delete(ctx context.Context, userID string) error
	HasPermission(ctx context.Context, userID, permissionID string) (bool, error)
	GrantPermission(ctx context.Context, userID, permissionID string) error
	RevokePermission(ctx context.Context, userID, permissionID string) error
}

// PermissionStore manages the permission catalogue.
type PermissionStore interface {
	// Ensure upserts the named permissions by name, keeping existing ids
	// stable and minting ids only for names not present yet.
	Ensure(ctx context.Context, names []string) error
	IDByName(ctx context.Context, name string) (string, error)
	Exists(ctx context.Context, id string) (bool, error)
}
