package user

import "context"

// Service defines the interface for dashboard user management.
type Service interface {
	ListUsers(ctx context.Context) ([]*User, error)
	CreateUser(ctx context.Context, req CreateRequest) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	// ToggleStatus flips a user between active and inactive.
	ToggleStatus(ctx context.Context, id string) (*User, error)
	DeleteUser(ctx context.Context, id string) error
}
