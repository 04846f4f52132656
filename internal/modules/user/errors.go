package user

import "errors"

var (
	ErrNotFound       = errors.New("user not found")
	ErrInvalid        = errors.New("invalid user")
	ErrDuplicateEmail = errors.New("email already in use")
)
