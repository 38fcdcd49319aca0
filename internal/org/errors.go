package org

import "errors"

var (
	ErrNotFound     = errors.New("org: not found")
	ErrConflict     = errors.New("org: conflict")
	ErrNotAServer   = errors.New("org: not a server")
	ErrInvalidInput = errors.New("org: invalid input")
)

type rejection struct {
	kind    error
	message string
}

func (r *rejection) Error() string { return r.message }

func (r *rejection) Unwrap() error { return r.kind }

func reject(kind error, message string) error {
	return &rejection{kind: kind, message: message}
}
