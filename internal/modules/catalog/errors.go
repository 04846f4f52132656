package catalog

import "errors"

var (
	// ErrNotFound is returned when a product or category does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPage is returned for a negative page index.
	ErrInvalidPage = errors.New("page must be zero or greater")

	// ErrInvalidProduct is returned when a product payload fails validation.
	ErrInvalidProduct = errors.New("invalid product")

	// ErrInvalidCategory is returned when a category payload fails validation.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("already exists")

	// ErrInvalidCSV is returned when an import file cannot be used at all.
	ErrInvalidCSV = errors.New("invalid csv")
)
