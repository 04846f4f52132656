package auth

import (
	"context"
	"errors"

	"github.com/georgemunganga/clockhouse-backend/internal/modules/user"
)

var (
	// ErrUnauthorized means the request carried no usable token.
	ErrUnauthorized = errors.New("invalid or expired token")
	// ErrForbidden means the token is valid but its holder may not use the dashboard.
	ErrForbidden = errors.New("insufficient permissions")
)

// Principal is the verified caller of an admin request.
type Principal struct {
	Subject string    `json:"sub"`
	Email   string    `json:"email"`
	Role    user.Role `json:"role"`
}

// Service defines the interface for verifying dashboard callers.
type Service interface {
	// Verify checks the token signature and expiry and resolves the caller.
	// Tokens are issued by the hosted identity provider, never by this service.
	Verify(ctx context.Context, token string) (*Principal, error)
}
