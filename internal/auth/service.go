package auth

import (
	"context"
	"fmt"
	"time"

	"warden.org/internal/ids"
)

// Service implements token issuance, registration and the permission
// checks on top of the stores.
type Service struct {
	users UserStore
	perms PermissionStore
	now   func() time.Time
	newID func() string
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
func NewService(users UserStore, perms PermissionStore, opts ...ServiceOption) *Service {
	svc := &Service{
		users: users,
		perms: perms,
		now:   time.Now,
		newID: ids.New,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// EnsureCatalogue upserts the builtin permission catalogue by name. Ids
// of already-present names are left untouched.
func (s *Service) EnsureCatalogue(ctx context.Context) error {
	return s.perms.Ensure(ctx, BuiltinPermissions)
}

// Resolve maps an authentication method to the existing actor it
// designates. Anonymous never resolves anyone; Credentials resolve by
// email and password; ByID resolves by id directly.
func (s *Service) Resolve(ctx context.Context, m Method) (*User, error) {
	switch m := m.(type) {
	case Credentials:
		user, err := s.users.FindByEmail(ctx, m.Email)
		if err != nil {
			return nil, err
		}
		if err := VerifyPassword(user.Authentication.PasswordHash, m.Password); err != nil {
			return nil, Reject(ErrNotFound, "User could not be found.")
		}
		return user, nil
	case Anonymous:
		return nil, Reject(ErrNotFound, "User could not be found.")
	case ByID:
		return nil, fmt.Errorf("%w: user id is not a registration method", ErrInvalidInput)
	}
	return nil, fmt.Errorf("%w: unknown authentication method", ErrInvalidInput)
}

// Register creates a new actor in the Guest group and issues their first
// token. Guests hold a valid token but pass no group check until they are
// promoted out of band. Credentials must not collide with an existing
// account; Anonymous always creates a fresh credential-less actor.
func (s *Service) Register(ctx context.Context, m Method, ip string) (*User, Login, error) {
	var stored Authentication
	switch m := m.(type) {
	case Credentials:
		exists, err := s.users.EmailExists(ctx, m.Email)
		if err != nil {
			return nil, Login{}, err
		}
		if exists {
			return nil, Login{}, Reject(ErrConflict, "User already exists.")
		}
		hash, err := HashPassword(m.Password)
		if err != nil {
			return nil, Login{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		stored = Authentication{
			Kind:         AuthKindCredentials,
			Email:        m.Email,
			Username:     m.Username,
			Avatar:       m.Avatar,
			PasswordHash: hash,
		}
	case Anonymous:
		stored = Authentication{Kind: AuthKindNone}
	case ByID:
		return nil, Login{}, fmt.Errorf("%w: credentials are required to register", ErrInvalidInput)
	default:
		return nil, Login{}, fmt.Errorf("%w: unknown authentication method", ErrInvalidInput)
	}

	user := &User{
		UniqueID:       s.newID(),
		Username:       stored.Username,
		Group:          GroupGuest,
		Authentication: stored,
		Permissions:    []string{},
		CreatedAt:      s.now().UTC(),
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, Login{}, err
	}
	login := s.issueLogin(ctx, user, ip, m.MethodName())
	return user, login, nil
}

// Renew authenticates by the given method and issues a fresh token.
// Renewing by id records the login with the anonymous method name so the
// privileged path leaves no distinct trace in the history.
func (s *Service) Renew(ctx context.Context, m Method, ip string) (Login, error) {
	var (
		user *User
		err  error
	)
	methodName := m.MethodName()
	switch m := m.(type) {
	case Credentials, Anonymous:
		user, err = s.Resolve(ctx, m)
	case ByID:
		user, err = s.users.FindByID(ctx, m.UserID)
		methodName = Anonymous{}.MethodName()
	default:
		return Login{}, fmt.Errorf("%w: unknown authentication method", ErrInvalidInput)
	}
	if err != nil {
		if isNotFound(err) {
			return Login{}, Reject(ErrNotFound, "User could not be found.")
		}
		return Login{}, err
	}
	return s.issueLogin(ctx, user, ip, methodName), nil
}

// issueLogin builds a login entry with a fresh token and appends it to
// the user's history. The token is handed back even when the append
// fails: the caller already holds it and the next renewal supersedes it.
func (s *Service) issueLogin(ctx context.Context, user *User, ip, method string) Login {
	login := NewLogin(ip, s.now(), method)
	_ = s.users.AppendLogin(ctx, user.UniqueID, login)
	return login
}

// ActorFromToken resolves the actor behind a presented token. Any
// failure degrades to the anonymous guest; a bad token is never an
// error at this layer.
func (s *Service) ActorFromToken(ctx context.Context, token string) ActorContext {
	if token == "" {
		return AnonymousActor()
	}
	user, err := s.users.FindByToken(ctx, token)
	if err != nil {
		return AnonymousActor()
	}
	return ActorContext{ID: user.UniqueID, Group: user.Group}
}

// UserByID fetches an identity record.
func (s *Service) UserByID(ctx context.Context, id string) (*User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, Reject(ErrNotFound, "User could not be found.")
		}
		return nil, err
	}
	return user, nil
}

// UserByEmail fetches an identity record by credential email.
func (s *Service) UserByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, Reject(ErrNotFound, "User could not be found.")
		}
		return nil, err
	}
	return user, nil
}

// UserByToken fetches an identity record by any token in its history.
func (s *Service) UserByToken(ctx context.Context, token string) (*User, error) {
	user, err := s.users.FindByToken(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return nil, Reject(ErrNotFound, "User could not be found.")
		}
		return nil, err
	}
	return user, nil
}

// EmailExists probes whether any account holds credentials for the email.
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.users.EmailExists(ctx, email)
}

// UpdateAuthentication replaces the caller's stored authentication
// wholesale. Only credentials are accepted as the replacement.
func (s *Service) UpdateAuthentication(ctx context.Context, userID string, m Method) error {
	creds, ok := m.(Credentials)
	if !ok {
		return fmt.Errorf("%w: only credentials can replace authentication", ErrInvalidInput)
	}
	hash, err := HashPassword(creds.Password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	stored := Authentication{
		Kind:         AuthKindCredentials,
		Email:        creds.Email,
		Username:     creds.Username,
		Avatar:       creds.Avatar,
		PasswordHash: hash,
	}
	if err := s.users.UpdateAuthentication(ctx, userID, stored); err != nil {
		if isNotFound(err) {
			return Reject(ErrNotFound, "User could not be found.")
		}
		return err
	}
	return nil
}

// UpdateUsername sets the display username on an identity record.
func (s *Service) UpdateUsername(ctx context.Context, userID, username string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if err := s.users.UpdateUsername(ctx, userID, username); err != nil {
		if isNotFound(err) {
			return Reject(ErrNotFound, "User could not be found.")
		}
		return err
	}
	return nil
}

// DeleteByID removes an identity record.
func (s *Service) DeleteByID(ctx context.Context, userID string) error {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return Reject(ErrNotFound, "User could not be found.")
	}
	return s.users.Delete(ctx, userID)
}

// DeleteByToken removes the identity record owning the token.
func (s *Service) DeleteByToken(ctx context.Context, token string) error {
	user, err := s.users.FindByToken(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return Reject(ErrNotFound, "User could not be found.")
		}
		return err
	}
	return s.users.Delete(ctx, user.UniqueID)
}

// Grant adds a permission to the target actor. Validation order is fixed:
// target existence, permission existence, then the caller's
// permission.add authority; only then does the mutation run.
func (s *Service) Grant(ctx context.Context, callerID, targetID, permissionID string) error {
	if err := s.checkPermissionMutation(ctx, callerID, targetID, permissionID, PermPermissionAdd); err != nil {
		return err
	}
	return s.users.GrantPermission(ctx, targetID, permissionID)
}

// Revoke removes a permission from the target actor, with the same
// validation order as Grant gated on permission.remove.
func (s *Service) Revoke(ctx context.Context, callerID, targetID, permissionID string) error {
	if err := s.checkPermissionMutation(ctx, callerID, targetID, permissionID, PermPermissionRemove); err != nil {
		return err
	}
	return s.users.RevokePermission(ctx, targetID, permissionID)
}

func (s *Service) checkPermissionMutation(ctx context.Context, callerID, targetID, permissionID, metaName string) error {
	ok, err := s.users.Exists(ctx, targetID)
	if err != nil {
		return err
	}
	if !ok {
		return Reject(ErrNotFound, "User could not be found.")
	}
	ok, err = s.perms.Exists(ctx, permissionID)
	if err != nil {
		return err
	}
	if !ok {
		return Reject(ErrNotFound, "Unknown permission")
	}
	return s.requireMeta(ctx, callerID, metaName)
}

// Check reports whether the target actor holds the named permission. The
// caller must hold permission.see; an unknown permission name is NotFound
// regardless of the caller's authority.
func (s *Service) Check(ctx context.Context, callerID, targetID, permissionName string) (bool, error) {
	ok, err := s.users.Exists(ctx, targetID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, Reject(ErrNotFound, "User could not be found.")
	}
	permID, err := s.perms.IDByName(ctx, permissionName)
	if err != nil {
		if isNotFound(err) {
			return false, Reject(ErrNotFound, "Unknown permission")
		}
		return false, err
	}
	if err := s.requireMeta(ctx, callerID, PermPermissionSee); err != nil {
		return false, err
	}
	return s.users.HasPermission(ctx, targetID, permID)
}

// Has reports whether the actor holds the named permission, collapsing
// every failure to false. It is the internal yes/no primitive with no
// authority gate of its own.
func (s *Service) Has(ctx context.Context, userID, permissionName string) bool {
	permID, err := s.perms.IDByName(ctx, permissionName)
	if err != nil {
		return false
	}
	ok, err := s.users.HasPermission(ctx, userID, permID)
	if err != nil {
		return false
	}
	return ok
}

// requireMeta rejects as Forbidden unless the caller holds the meta
// permission. The meta name is resolved through the catalogue like any
// other permission.
func (s *Service) requireMeta(ctx context.Context, callerID, metaName string) error {
	metaID, err := s.perms.IDByName(ctx, metaName)
	if err != nil {
		if isNotFound(err) {
			return Reject(ErrNotFound, "Unknown permission")
		}
		return err
	}
	ok, err := s.users.HasPermission(ctx, callerID, metaID)
	if err != nil {
		return err
	}
	if !ok {
		return Reject(ErrForbidden, "Permission denied")
	}
	return nil
}
