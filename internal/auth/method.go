package auth

// Method is the way a caller proves who they are. It is a closed set:
// Credentials, Anonymous and ByID are the only implementations, and every
// consumer switches over exactly those three.
type Method interface {
	// MethodName is the label recorded on the Login entry this method
	// produces.
	MethodName() string

	sealedMethod()
}

// Credentials authenticates by email and password. Username and avatar
// are carried along at registration time only.
type Credentials struct {
	Email    string
	Username string
	Avatar   string
	Password string
}

func (Credentials) MethodName() string { return "Credentials" }
func (Credentials) sealedMethod()      {}

// Anonymous authenticates nobody. Registering with it creates an actor
// that has no credentials; resolving it never finds an existing actor.
type Anonymous struct{}

func (Anonymous) MethodName() string { return "None" }
func (Anonymous) sealedMethod()      {}

// ByID designates an existing actor directly by id. It is only reachable
// through the privileged renew path, and the login it produces is
// recorded with the Anonymous method name so the id never leaks into the
// history.
type ByID struct {
	UserID string
}

func (ByID) MethodName() string { return "UserId" }
func (ByID) sealedMethod()      {}
