package banner

import "errors"

var (
	ErrNotFound = errors.New("banner not found")
	ErrInvalid  = errors.New("invalid banner")
)
