package auth

import "errors"

var (
	// ErrUnauthenticated means the token is missing, invalid, expired or signed out.
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)
