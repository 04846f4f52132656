package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/georgemunganga/clockhouse-backend/internal/modules/user"
)

// Claims is the subset of the identity provider's access token we rely on.
// The dashboard role lives in user_metadata, the provider's own "role" claim is ignored.
type Claims struct {
	Email        string       `json:"email"`
	UserMetadata userMetadata `json:"user_metadata"`
	jwt.StandardClaims
}

type userMetadata struct {
	Role string `json:"role"`
}

type service struct {
	secret   []byte
	userRepo user.Repository
}

// NewService creates a new auth service. userRepo may be nil, in which case
// the token's role is trusted without consulting dashboard accounts.
func NewService(secret string, userRepo user.Repository) Service {
	return &service{secret: []byte(secret), userRepo: userRepo}
}

func (s *service) Verify(ctx context.Context, tokenString string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}
	if claims.ExpiresAt == 0 {
		return nil, ErrUnauthorized
	}

	p := &Principal{
		Subject: claims.Subject,
		Email:   strings.ToLower(claims.Email),
		Role:    user.Role(strings.ToLower(claims.UserMetadata.Role)),
	}

	// A dashboard account, when one exists, is authoritative for role and status.
	if s.userRepo != nil && p.Email != "" {
		account, err := s.userRepo.GetUserByEmail(ctx, p.Email)
		switch {
		case err == nil:
			if account.Status != user.StatusActive {
				return nil, ErrForbidden
			}
			p.Role = account.Role
		case !errors.Is(err, user.ErrNotFound):
			return nil, err
		}
	}

	if p.Role != user.RoleAdmin && p.Role != user.RoleManager {
		return nil, ErrForbidden
	}
	return p, nil
}
