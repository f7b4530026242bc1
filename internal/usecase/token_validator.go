package usecase

import (
	"storefront/internal/domain/user"
	"storefront/internal/pkg/errs"
	"storefront/internal/pkg/jwt"

	"github.com/google/uuid"
)

// TokenValidator resolves a bearer token into the shopper or admin it was
// issued to.
type TokenValidator interface {
	ValidateToken(tokenString string) (uuid.UUID, user.Role, error)
}

type jwtTokenValidator struct {
	jwtService *jwt.Service
}

func NewTokenValidator(jwtService *jwt.Service) TokenValidator {
	return &jwtTokenValidator{jwtService: jwtService}
}

func (t *jwtTokenValidator) ValidateToken(tokenString string) (uuid.UUID, user.Role, error) {
	claims, err := t.jwtService.ValidateToken(tokenString)
	if err != nil {
		return uuid.Nil, "", err
	}

	role, err := user.NewRole(claims.Role)
	if err != nil {
		return uuid.Nil, "", errs.Wrap(err, "token role")
	}
	return claims.UserID, role, nil
}
