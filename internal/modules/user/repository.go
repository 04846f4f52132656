package user

import "context"

// Repository defines data access for dashboard users.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// ListUsers returns every user, newest first.
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	DeleteUser(ctx context.Context, id string) error
}
