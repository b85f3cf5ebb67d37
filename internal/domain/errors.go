package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Conflicts and auth failures wrap a base error so callers can match either
// the specific condition or the whole class with errors.Is.
var (
	ErrDuplicateEmail   = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrDuplicateRequest = fmt.Errorf("%w: friend request already sent", ErrConflict)
	ErrAlreadyFriends   = fmt.Errorf("%w: already friends", ErrConflict)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrMissingToken       = fmt.Errorf("%w: missing token", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrUnauthorized)
)
