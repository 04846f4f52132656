package enquiry

import "errors"

var (
	ErrNotFound      = errors.New("enquiry not found")
	ErrInvalid       = errors.New("invalid enquiry")
	ErrInvalidStatus = errors.New("invalid status")
)
