package auth

import "errors"

var (
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: conflict")
	ErrForbidden    = errors.New("auth: forbidden")
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrInvalidInput = errors.New("auth: invalid input")
)

// Rejection is a domain failure carrying a machine-checkable kind (one of
// the sentinel errors above) and the message shown to the caller.
type Rejection struct {
	Kind    error
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func (r *Rejection) Unwrap() error { return r.Kind }

// Reject builds a Rejection. errors.Is(err, kind) holds for the result.
func Reject(kind error, message string) error {
	return &Rejection{Kind: kind, Message: message}
}

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
